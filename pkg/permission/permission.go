// Package permission implements the risk-tiered confirmation policy that
// gates every tool invocation. A Gate combines the process-wide trust level,
// a shell command pattern filter, and an interaction channel used for
// confirmation prompts.
package permission

import "fmt"

// RiskTier classifies a tool's potential for harm.
type RiskTier string

const (
	RiskSafe        RiskTier = "safe"        // read-only, no side effects
	RiskModifying   RiskTier = "modifying"   // creates or modifies files/system state
	RiskDestructive RiskTier = "destructive" // deletes data or makes irreversible changes
)

// TrustLevel is the process-wide operating mode. It is set once at startup
// and never mutated during a run.
type TrustLevel string

const (
	TrustSafeOnly    TrustLevel = "safe-only"
	TrustInteractive TrustLevel = "interactive"
	TrustAuto        TrustLevel = "auto"
)

// ParseTrustLevel converts a configuration string to a TrustLevel.
func ParseTrustLevel(s string) (TrustLevel, error) {
	switch TrustLevel(s) {
	case TrustSafeOnly, TrustInteractive, TrustAuto:
		return TrustLevel(s), nil
	default:
		return "", fmt.Errorf("invalid trust level: %q (want safe-only, interactive, or auto)", s)
	}
}

// Decision is the outcome of a permission check.
type Decision string

const (
	DecisionApproved                  Decision = "approved"
	DecisionDenied                    Decision = "denied"
	DecisionApprovedAfterConfirmation Decision = "approved_after_confirmation"
)

// Allows reports whether the decision permits execution.
func (d Decision) Allows() bool {
	return d == DecisionApproved || d == DecisionApprovedAfterConfirmation
}
