package core

import (
	"fmt"
	"strings"
)

// Verdict is the modeling permission synthesized from a set of findings.
// The zero value VerdictNone means no verdict has been synthesized.
type Verdict int

// Verdict values.
const (
	VerdictNone Verdict = iota
	VerdictAllowed
	VerdictConstrained
	VerdictBlocked
)

// String returns the string representation of the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictAllowed:
		return "ALLOWED"
	case VerdictConstrained:
		return "CONSTRAINED"
	case VerdictBlocked:
		return "BLOCKED"
	default:
		return "NONE"
	}
}

// IsSet reports whether a verdict has been synthesized.
func (v Verdict) IsSet() bool {
	return v != VerdictNone
}

// ParseVerdict converts a string to a Verdict value.
func ParseVerdict(s string) (Verdict, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ALLOWED":
		return VerdictAllowed, true
	case "CONSTRAINED":
		return VerdictConstrained, true
	case "BLOCKED":
		return VerdictBlocked, true
	case "NONE", "":
		return VerdictNone, true
	default:
		return VerdictNone, false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Verdict) UnmarshalText(b []byte) error {
	parsed, ok := ParseVerdict(string(b))
	if !ok {
		return fmt.Errorf("unknown verdict %q", string(b))
	}
	*v = parsed
	return nil
}
