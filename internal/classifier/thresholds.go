package classifier

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapgate/pkg/core"
)

// Band is a pair of cut-points for a ratio metric.
// A value below Warning is SAFE, below Critical is WARNING, anything else is CRITICAL.
// A zero value is always SAFE, so a zero Warning means "any non-zero value warns".
type Band struct {
	Warning  float64 `koanf:"warning" json:"warning" yaml:"warning"`
	Critical float64 `koanf:"critical" json:"critical" yaml:"critical"`
}

// Classify maps v onto a severity.
func (b Band) Classify(v float64) core.Severity {
	switch {
	case v <= 0 || v < b.Warning:
		return core.SeveritySafe
	case v < b.Critical:
		return core.SeverityWarning
	default:
		return core.SeverityCritical
	}
}

func (b Band) validate(name string) error {
	if b.Warning < 0 || b.Warning > 1 || b.Critical < 0 || b.Critical > 1 {
		return fmt.Errorf("%s: thresholds must be within [0, 1], got warning=%g critical=%g", name, b.Warning, b.Critical)
	}
	if b.Warning > b.Critical {
		return fmt.Errorf("%s: warning threshold %g exceeds critical threshold %g", name, b.Warning, b.Critical)
	}
	return nil
}

// Thresholds holds the cut-points for every ratio-based check.
type Thresholds struct {
	Missing           Band `koanf:"missing" json:"missing" yaml:"missing"`
	Duplicates        Band `koanf:"duplicates" json:"duplicates" yaml:"duplicates"`
	Constant          Band `koanf:"constant" json:"constant" yaml:"constant"`
	SchemaAnomaly     Band `koanf:"schema_anomaly" json:"schema_anomaly" yaml:"schema_anomaly"`
	Cardinality       Band `koanf:"cardinality" json:"cardinality" yaml:"cardinality"`
	Outliers          Band `koanf:"outliers" json:"outliers" yaml:"outliers"`
	Multicollinearity Band `koanf:"multicollinearity" json:"multicollinearity" yaml:"multicollinearity"`
}

// DefaultThresholds returns the built-in threshold table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Missing:           Band{Warning: 0.05, Critical: 0.30},
		Duplicates:        Band{Warning: 0.005, Critical: 0.02},
		Constant:          Band{Warning: 0.10, Critical: 0.50},
		SchemaAnomaly:     Band{Warning: 0, Critical: 0.50},
		Cardinality:       Band{Warning: 0.10, Critical: 0.50},
		Outliers:          Band{Warning: 0.05, Critical: 0.15},
		Multicollinearity: Band{Warning: 0.02, Critical: 0.10},
	}
}

// WithDefaults returns t with every zero band replaced by its default.
func (t Thresholds) WithDefaults() Thresholds {
	d := DefaultThresholds()
	fill := func(b *Band, def Band) {
		if *b == (Band{}) {
			*b = def
		}
	}
	fill(&t.Missing, d.Missing)
	fill(&t.Duplicates, d.Duplicates)
	fill(&t.Constant, d.Constant)
	fill(&t.SchemaAnomaly, d.SchemaAnomaly)
	fill(&t.Cardinality, d.Cardinality)
	fill(&t.Outliers, d.Outliers)
	fill(&t.Multicollinearity, d.Multicollinearity)
	return t
}

// Validate reports every band that is out of range or inverted.
func (t Thresholds) Validate() error {
	return errors.Join(
		t.Missing.validate("missing"),
		t.Duplicates.validate("duplicates"),
		t.Constant.validate("constant"),
		t.SchemaAnomaly.validate("schema_anomaly"),
		t.Cardinality.validate("cardinality"),
		t.Outliers.validate("outliers"),
		t.Multicollinearity.validate("multicollinearity"),
	)
}
