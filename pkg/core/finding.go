package core

// Category groups findings by the kind of structural risk they describe.
type Category string

// Finding categories.
const (
	CategorySize              Category = "size"
	CategoryFeatureMix        Category = "feature-mix"
	CategoryMissingness       Category = "missingness"
	CategoryDuplication       Category = "duplication"
	CategoryConstantFeatures  Category = "constant-features"
	CategorySchemaAnomaly     Category = "schema-anomaly"
	CategoryTarget            Category = "target"
	CategoryCardinality       Category = "cardinality"
	CategoryOutliers          Category = "outliers"
	CategoryMulticollinearity Category = "multicollinearity"
)

// Finding is one classified diagnostic result.
type Finding struct {
	// CheckName identifies the rule that produced the finding.
	CheckName string `json:"check_name" yaml:"check_name"`
	// Title is a short human-readable name for the check.
	Title    string   `json:"title" yaml:"title"`
	Category Category `json:"category" yaml:"category"`
	Severity Severity `json:"severity" yaml:"severity"`
	// Metric is the value that drove the classification.
	Metric          float64  `json:"metric" yaml:"metric"`
	AffectedColumns []string `json:"affected_columns,omitempty" yaml:"affected_columns,omitempty"`
	Details         string   `json:"details" yaml:"details"`
}

// Clone returns a copy of the finding that shares no memory with f.
func (f Finding) Clone() Finding {
	if f.AffectedColumns != nil {
		cols := make([]string, len(f.AffectedColumns))
		copy(cols, f.AffectedColumns)
		f.AffectedColumns = cols
	}
	return f
}

// CloneFindings deep-copies a slice of findings.
func CloneFindings(findings []Finding) []Finding {
	if findings == nil {
		return nil
	}
	out := make([]Finding, len(findings))
	for i, f := range findings {
		out[i] = f.Clone()
	}
	return out
}
