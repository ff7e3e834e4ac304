// Package report assembles the read-only diagnostic report of a session.
package report

import (
	"fmt"
	"math"
	"time"

	"github.com/leapstack-labs/leapgate/internal/profiler"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

// Input is everything a report is built from.
type Input struct {
	SessionID   string
	Dataset     string
	Target      string
	Metrics     *profiler.Metrics
	Findings    []core.Finding
	Verdict     core.Verdict
	GeneratedAt time.Time
}

// Build groups findings by severity and derives the key facts.
// Findings are deep-copied so the report shares no memory with its input.
func Build(in Input) core.Report {
	r := core.Report{
		SessionID:   in.SessionID,
		Dataset:     in.Dataset,
		Target:      in.Target,
		Verdict:     in.Verdict,
		GeneratedAt: in.GeneratedAt,
		Critical:    []core.Finding{},
		Warning:     []core.Finding{},
		Passed:      []core.Finding{},
	}

	for _, f := range in.Findings {
		f = f.Clone()
		switch f.Severity {
		case core.SeverityCritical:
			r.Critical = append(r.Critical, f)
			r.Summary.Critical++
		case core.SeverityWarning:
			r.Warning = append(r.Warning, f)
			r.Summary.Warning++
		default:
			r.Passed = append(r.Passed, f)
			r.Summary.Safe++
		}
	}
	r.Summary.Total = len(in.Findings)

	if in.Metrics != nil {
		r.KeyFacts = keyFacts(in.Metrics)
	}
	return r
}

func keyFacts(m *profiler.Metrics) core.KeyFacts {
	d := m.Dimensions
	counts := make(map[core.ColumnType]int, len(m.FeatureMix.Counts))
	for t, n := range m.FeatureMix.Counts {
		counts[t] = n
	}
	return core.KeyFacts{
		Size: core.SizeFacts{
			Rows:    d.Rows,
			Columns: d.Columns,
			Shape:   fmt.Sprintf("%d x %d", d.Rows, d.Columns),
			Scale:   d.Scale,
		},
		Memory: core.MemoryFacts{
			UsageMB: round(d.MemoryMB, 2),
			Class:   d.MemoryClass,
		},
		FeatureMix: core.FeatureMixFacts{
			Type:             m.FeatureMix.MixType,
			NumericRatio:     round(m.FeatureMix.Ratios[core.ColumnNumeric], 3),
			CategoricalRatio: round(m.FeatureMix.Ratios[core.ColumnCategorical], 3),
			Counts:           counts,
		},
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
