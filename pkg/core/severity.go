package core

import (
	"fmt"
	"strings"
)

// =============================================================================
// Severity
// =============================================================================

// Severity is the classified risk level of a single Finding.
// Values are totally ordered: SeveritySafe < SeverityWarning < SeverityCritical.
type Severity int

// Severity levels for findings.
const (
	// SeveritySafe indicates the check passed.
	SeveritySafe Severity = iota
	// SeverityWarning indicates modeling may proceed with restrictions.
	SeverityWarning
	// SeverityCritical indicates modeling must not proceed.
	SeverityCritical
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeveritySafe:
		return "SAFE"
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity converts a string to a Severity value.
// Returns the severity and true if valid, or SeveritySafe and false if invalid.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SAFE", "PASS":
		return SeveritySafe, true
	case "WARNING", "WARN":
		return SeverityWarning, true
	case "CRITICAL", "DANGER":
		return SeverityCritical, true
	default:
		return SeveritySafe, false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	v, ok := ParseSeverity(string(b))
	if !ok {
		return fmt.Errorf("unknown severity %q", string(b))
	}
	*s = v
	return nil
}

// MaxSeverity returns the highest severity among the findings.
// An empty slice yields SeveritySafe.
func MaxSeverity(findings []Finding) Severity {
	highest := SeveritySafe
	for _, f := range findings {
		if f.Severity > highest {
			highest = f.Severity
		}
	}
	return highest
}
