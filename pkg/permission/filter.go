package permission

import (
	"regexp"
	"runtime"

	"github.com/rs/zerolog/log"
)

// windowsDenylist matches PowerShell commands that are dangerous regardless
// of the shell tool's nominal risk tier.
var windowsDenylist = []string{
	`(?i)\b(remove-item|ri)\b.*-recurse`,
	`(?i)\b(del|erase|rd|rmdir)\b.*(/s|/q)`,
	`(?i)\b(format-?volume|diskpart|bcdedit|cipher\s+/w:|takeown|icacls)\b`,
	`(?i)\b(invoke-expression|iex)\b`,
	`(?i)(invoke-webrequest|curl|wget).*\|.*(iex|invoke-expression)`,
	`(?i)\breg(?:\.exe)?\s+delete\b`,
	`(?i)\b(get-credential|convertto-securestring)\b.*-asplaintext`,
}

// unixDenylist is the POSIX equivalent.
var unixDenylist = []string{
	`(?i)\brm\s+.*-rf?\s+/`,
	`(?i)\brm\s+.*-rf?.*\*`,
	`(?i)\bdd\s+if=.*of=/dev/`,
	`(?i)\bmkfs\b`,
	`(?i)\b(fdisk|parted|gparted)\b`,
	`(?i)\bchmod\s+777\s+-R\s+/`,
	`(?i):\(\)\{\s*:\|:&\s*\};:`,
	`(?i)\bcurl.*\|\s*(bash|sh)`,
	`(?i)\bwget.*\|\s*(bash|sh)`,
	`(?i)\b(shutdown|reboot|init\s+[06])\b`,
}

// windowsAllowlist matches known read-only PowerShell command prefixes.
var windowsAllowlist = []string{
	`(?i)^get-process\b`,
	`(?i)^get-service\b`,
	`(?i)^get-help\b`,
	`(?i)^(get-childitem|gci|dir|ls)\b`,
	`(?i)^(get-content|gc|cat|type)\b`,
	`(?i)^(select-string|findstr|grep)\b`,
	`(?i)^(get-location|pwd|gl)\b`,
	`(?i)^(get-item|gi)\b`,
}

// unixAllowlist matches known read-only POSIX command prefixes.
var unixAllowlist = []string{
	`(?i)^(ls|dir)\b`,
	`(?i)^(cat|less|more|head|tail)\b`,
	`(?i)^(grep|egrep|fgrep)\b`,
	`(?i)^(find|locate)\b`,
	`(?i)^(pwd|cd)\b`,
	`(?i)^(echo|printf)\b`,
	`(?i)^(ps|top|htop)\b`,
	`(?i)^(df|du)\b`,
	`(?i)^(uname|hostname)\b`,
	`(?i)^(which|whereis)\b`,
}

// CommandFilter classifies shell commands against deny and allow pattern
// lists. A denylist match forces the destructive tier, an allowlist match
// forces the safe tier, and deny takes precedence over allow.
type CommandFilter struct {
	deny  []*regexp.Regexp
	allow []*regexp.Regexp
}

// NewCommandFilter builds a filter from the platform defaults plus any custom
// patterns. Invalid custom patterns are skipped with a warning rather than
// failing startup.
func NewCommandFilter(customAllow, customDeny []string) *CommandFilter {
	denySrc := unixDenylist
	allowSrc := unixAllowlist
	if runtime.GOOS == "windows" {
		denySrc = windowsDenylist
		allowSrc = windowsAllowlist
	}

	return &CommandFilter{
		deny:  compilePatterns(append(append([]string{}, denySrc...), customDeny...)),
		allow: compilePatterns(append(append([]string{}, allowSrc...), customAllow...)),
	}
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			log.Warn().Str("pattern", p).Err(err).Msg("Skipping invalid command filter pattern")
			continue
		}
		compiled = append(compiled, re)
	}
	return compiled
}

// MatchDeny returns the denylist pattern a command matches, if any.
func (f *CommandFilter) MatchDeny(command string) (string, bool) {
	for _, re := range f.deny {
		if re.MatchString(command) {
			return re.String(), true
		}
	}
	return "", false
}

// MatchAllow reports whether a command matches the read-only allowlist.
func (f *CommandFilter) MatchAllow(command string) bool {
	for _, re := range f.allow {
		if re.MatchString(command) {
			return true
		}
	}
	return false
}

// EffectiveTier maps a shell command to its effective risk tier. The deny
// check runs first, so a command matching both lists is treated as
// destructive.
func (f *CommandFilter) EffectiveTier(command string, nominal RiskTier) RiskTier {
	if f == nil {
		return nominal
	}
	if pattern, matched := f.MatchDeny(command); matched {
		log.Warn().Str("command", command).Str("pattern", pattern).Msg("Command matches denylist, forcing destructive tier")
		return RiskDestructive
	}
	if f.MatchAllow(command) {
		return RiskSafe
	}
	return nominal
}
