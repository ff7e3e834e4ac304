// Package verdict synthesizes a modeling permission from classified findings.
package verdict

import "github.com/leapstack-labs/leapgate/pkg/core"

// Synthesize reduces findings to a single verdict: any CRITICAL finding blocks,
// otherwise any WARNING constrains, otherwise modeling is allowed.
// An empty set is vacuously ALLOWED. Only severities are inspected.
func Synthesize(findings []core.Finding) core.Verdict {
	return ForSeverity(core.MaxSeverity(findings))
}

// ForSeverity maps the highest observed severity onto a verdict.
func ForSeverity(s core.Severity) core.Verdict {
	switch {
	case s >= core.SeverityCritical:
		return core.VerdictBlocked
	case s >= core.SeverityWarning:
		return core.VerdictConstrained
	default:
		return core.VerdictAllowed
	}
}

// Reasons returns the check names of the findings at severity s, in order.
func Reasons(findings []core.Finding, s core.Severity) []string {
	var out []string
	for _, f := range findings {
		if f.Severity == s {
			out = append(out, f.CheckName)
		}
	}
	return out
}
