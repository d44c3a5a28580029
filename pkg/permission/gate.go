package permission

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Gate decides whether a tool invocation may proceed. The decision depends on
// the tool's risk tier, the configured trust level, and (for the shell tool)
// the command pattern filter. Interactive decisions block on the injected
// InteractionChannel.
type Gate struct {
	trust     TrustLevel
	filter    *CommandFilter
	channel   InteractionChannel
	shellTool string
}

// NewGate creates a permission gate. shellTool names the registered shell
// execution tool whose command argument is run through the pattern filter.
func NewGate(trust TrustLevel, filter *CommandFilter, channel InteractionChannel, shellTool string) *Gate {
	return &Gate{
		trust:     trust,
		filter:    filter,
		channel:   channel,
		shellTool: shellTool,
	}
}

// Authorize applies the policy table to one prospective tool invocation.
// params are the already-validated arguments, used for the shell command
// filter and for prompt display. The call blocks while waiting for user
// input; channel failures deny.
func (g *Gate) Authorize(toolName, description string, tier RiskTier, params map[string]interface{}) Decision {
	tier = g.effectiveTier(toolName, tier, params)

	switch g.trust {
	case TrustSafeOnly:
		if tier == RiskSafe {
			return DecisionApproved
		}
		log.Warn().Str("tool", toolName).Str("tier", string(tier)).Msg("Tool blocked in safe-only mode")
		return DecisionDenied

	case TrustAuto:
		if tier != RiskSafe {
			log.Info().Str("tool", toolName).Str("tier", string(tier)).Msg("Auto-approving tool")
		}
		return DecisionApproved

	case TrustInteractive:
		switch tier {
		case RiskSafe:
			return DecisionApproved
		case RiskModifying:
			return g.confirmYesNo(toolName, description, params)
		case RiskDestructive:
			return g.confirmDestructive(toolName, description, params)
		}
	}

	// Unknown trust level or tier: fail closed.
	log.Error().Str("tool", toolName).Str("trust", string(g.trust)).Str("tier", string(tier)).Msg("Unrecognized permission inputs, denying")
	return DecisionDenied
}

// effectiveTier applies the shell command filter when the invocation targets
// the shell tool and carries a string command argument.
func (g *Gate) effectiveTier(toolName string, tier RiskTier, params map[string]interface{}) RiskTier {
	if g.filter == nil || toolName != g.shellTool {
		return tier
	}
	command, ok := params["command"].(string)
	if !ok || command == "" {
		return tier
	}
	return g.filter.EffectiveTier(command, tier)
}

func (g *Gate) confirmYesNo(toolName, description string, params map[string]interface{}) Decision {
	approved, err := g.channel.PromptYesNo(describeInvocation(toolName, description, params) + "\nProceed?")
	if err != nil {
		log.Error().Err(err).Str("tool", toolName).Msg("Confirmation prompt failed, denying")
		return DecisionDenied
	}
	if !approved {
		log.Info().Str("tool", toolName).Msg("Tool denied by user")
		return DecisionDenied
	}
	return DecisionApprovedAfterConfirmation
}

func (g *Gate) confirmDestructive(toolName, description string, params map[string]interface{}) Decision {
	message := describeInvocation(toolName, description, params) +
		"\nThis action is DESTRUCTIVE and cannot be undone."
	approved, err := g.channel.PromptExactMatch(message, "YES")
	if err != nil {
		log.Error().Err(err).Str("tool", toolName).Msg("Confirmation prompt failed, denying")
		return DecisionDenied
	}
	if !approved {
		log.Info().Str("tool", toolName).Msg("Destructive tool denied by user")
		return DecisionDenied
	}
	return DecisionApprovedAfterConfirmation
}

// describeInvocation renders a tool call for confirmation prompts. Long
// parameter values are truncated so the prompt stays readable.
func describeInvocation(toolName, description string, params map[string]interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tool: %s", toolName)
	if description != "" {
		fmt.Fprintf(&b, "\n%s", description)
	}

	if len(params) > 0 {
		b.WriteString("\nParameters:")
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			value := fmt.Sprintf("%v", params[k])
			if len(value) > 100 {
				value = value[:97] + "..."
			}
			fmt.Fprintf(&b, "\n  %s: %s", k, value)
		}
	}

	return b.String()
}
