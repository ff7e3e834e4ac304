package core

import "time"

// Report is the read-only diagnostic report of a session.
type Report struct {
	SessionID   string    `json:"session_id" yaml:"session_id"`
	Dataset     string    `json:"dataset" yaml:"dataset"`
	Target      string    `json:"target" yaml:"target"`
	Verdict     Verdict   `json:"verdict" yaml:"verdict"`
	Summary     Summary   `json:"summary" yaml:"summary"`
	KeyFacts    KeyFacts  `json:"key_facts" yaml:"key_facts"`
	Critical    []Finding `json:"critical" yaml:"critical"`
	Warning     []Finding `json:"warning" yaml:"warning"`
	Passed      []Finding `json:"passed" yaml:"passed"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
}

// Summary counts findings per severity.
type Summary struct {
	Total    int `json:"total" yaml:"total"`
	Critical int `json:"critical" yaml:"critical"`
	Warning  int `json:"warning" yaml:"warning"`
	Safe     int `json:"safe" yaml:"safe"`
}

// KeyFacts are the descriptive, non-judgemental facts about a dataset.
type KeyFacts struct {
	Size       SizeFacts       `json:"size" yaml:"size"`
	Memory     MemoryFacts     `json:"memory" yaml:"memory"`
	FeatureMix FeatureMixFacts `json:"feature_mix" yaml:"feature_mix"`
}

// SizeFacts describes dataset dimensions.
type SizeFacts struct {
	Rows    int    `json:"rows" yaml:"rows"`
	Columns int    `json:"columns" yaml:"columns"`
	Shape   string `json:"shape" yaml:"shape"`
	Scale   string `json:"scale" yaml:"scale"`
}

// MemoryFacts describes the estimated in-memory footprint.
type MemoryFacts struct {
	UsageMB float64 `json:"usage_mb" yaml:"usage_mb"`
	Class   string  `json:"class" yaml:"class"`
}

// FeatureMixFacts describes the column type breakdown.
type FeatureMixFacts struct {
	Type             string             `json:"type" yaml:"type"`
	NumericRatio     float64            `json:"numeric_ratio" yaml:"numeric_ratio"`
	CategoricalRatio float64            `json:"categorical_ratio" yaml:"categorical_ratio"`
	Counts           map[ColumnType]int `json:"counts" yaml:"counts"`
}

// DiagnosticRecord is the audit entry written to the decision ledger when a
// diagnostic run completes or an authorization decision is taken.
type DiagnosticRecord struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Dataset    string    `json:"dataset"`
	Target     string    `json:"target"`
	Rows       int       `json:"rows"`
	Columns    int       `json:"columns"`
	Verdict    Verdict   `json:"verdict"`
	Summary    Summary   `json:"summary"`
	Findings   []Finding `json:"findings,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	// Authorized is nil for diagnostic runs and set for authorization decisions.
	Authorized *bool     `json:"authorized,omitempty"`
	TraceID    string    `json:"trace_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
