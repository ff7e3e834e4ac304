// Package profiler computes structural metrics over a dataset.
//
// Profiling is a pure function of its input: the dataset is never mutated and
// identical input always yields identical metrics. Per-column statistics are
// computed concurrently, bounded by the configured worker count, and the
// whole pass honours context cancellation so callers can enforce a time budget.
package profiler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapgate/pkg/core"
)

// Row-count and memory cut-points for the descriptive scale labels.
const (
	mediumScaleRows  = 1_000
	largeScaleRows   = 100_000
	moderateMemoryMB = 10
	heavyMemoryMB    = 500
)

// DefaultCorrelationThreshold is the |r| above which two numeric columns count as collinear.
const DefaultCorrelationThreshold = 0.8

// cancelCheckInterval is how many rows are scanned between context checks.
const cancelCheckInterval = 4096

// placeholders are textual stand-ins for missing values, compared lower-cased.
var placeholders = map[string]bool{
	"?":       true,
	"na":      true,
	"n/a":     true,
	"null":    true,
	"none":    true,
	"nan":     true,
	"-":       true,
	"missing": true,
}

// Config holds profiler configuration.
type Config struct {
	// Workers bounds concurrent column scans. Zero means GOMAXPROCS.
	Workers int
	// Complexity enables the cardinality, outlier and multicollinearity profile.
	Complexity bool
	// CorrelationThreshold overrides DefaultCorrelationThreshold when positive.
	CorrelationThreshold float64
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Profiler computes Metrics for datasets.
type Profiler struct {
	workers       int
	complexity    bool
	corrThreshold float64
	logger        *slog.Logger
}

// New creates a profiler from cfg.
func New(cfg Config) *Profiler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	threshold := cfg.CorrelationThreshold
	if threshold <= 0 {
		threshold = DefaultCorrelationThreshold
	}
	return &Profiler{
		workers:       workers,
		complexity:    cfg.Complexity,
		corrThreshold: threshold,
		logger:        logger,
	}
}

// columnStats are the per-column facts gathered in a single scan.
type columnStats struct {
	missing      int
	nonMissing   int
	distinct     int
	topCount     int
	numericCount int
	placeholders int
}

// Profile computes the metrics of ds. target names the selected target column
// and may be empty when no target has been chosen.
func (p *Profiler) Profile(ctx context.Context, ds *core.Dataset, target string) (*Metrics, error) {
	if ds == nil {
		return nil, fmt.Errorf("no dataset to profile")
	}
	targetIdx := -1
	if target != "" {
		idx, ok := ds.ColumnIndex(target)
		if !ok {
			return nil, &core.UnknownColumnError{Column: target, Available: ds.ColumnNames()}
		}
		targetIdx = idx
	}

	p.logger.Debug("profiling dataset",
		slog.String("dataset", ds.Name()),
		slog.Int("rows", ds.RowCount()),
		slog.Int("columns", ds.ColumnCount()),
		slog.String("target", target))

	stats := make([]columnStats, ds.ColumnCount())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := 0; i < ds.ColumnCount(); i++ {
		g.Go(func() error {
			s, err := scanColumn(gctx, ds, i)
			if err != nil {
				return fmt.Errorf("column %q: %w", ds.Column(i).Name, err)
			}
			stats[i] = s
			return nil
		})
	}

	var duplicates int
	g.Go(func() error {
		n, err := countDuplicateRows(gctx, ds)
		if err != nil {
			return fmt.Errorf("duplicate scan: %w", err)
		}
		duplicates = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := &Metrics{
		Dimensions:    dimensions(ds),
		FeatureMix:    featureMix(ds, targetIdx),
		Missingness:   missingness(ds, stats),
		Duplication:   duplication(ds, duplicates),
		Constant:      constantFeatures(ds, stats),
		SchemaAnomaly: schemaAnomaly(ds, stats),
		Target:        targetProfile(ds, stats, targetIdx),
	}

	if p.complexity {
		c, err := p.complexityProfile(ctx, ds, stats, targetIdx)
		if err != nil {
			return nil, fmt.Errorf("complexity profile: %w", err)
		}
		m.Complexity = c
	}

	return m, nil
}

// scanColumn gathers the single-pass statistics of column col.
func scanColumn(ctx context.Context, ds *core.Dataset, col int) (columnStats, error) {
	var s columnStats
	counts := make(map[string]int)
	for r := 0; r < ds.RowCount(); r++ {
		if r%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return s, err
			}
		}
		if ds.IsMissing(col, r) {
			s.missing++
			continue
		}
		s.nonMissing++
		v := ds.Value(col, r)
		counts[v]++
		if placeholders[strings.ToLower(strings.TrimSpace(v))] {
			s.placeholders++
		} else if _, ok := core.ParseNumber(v); ok {
			s.numericCount++
		}
	}
	s.distinct = len(counts)
	for _, c := range counts {
		if c > s.topCount {
			s.topCount = c
		}
	}
	return s, nil
}

// countDuplicateRows counts rows identical in every column to an earlier row.
func countDuplicateRows(ctx context.Context, ds *core.Dataset) (int, error) {
	if ds.ColumnCount() == 0 {
		return 0, nil
	}
	seen := make(map[string]struct{}, ds.RowCount())
	dups := 0
	var b strings.Builder
	for r := 0; r < ds.RowCount(); r++ {
		if r%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		b.Reset()
		for c := 0; c < ds.ColumnCount(); c++ {
			if ds.IsMissing(c, r) {
				b.WriteString("\x00;")
				continue
			}
			v := ds.Value(c, r)
			fmt.Fprintf(&b, "%d:%s;", len(v), v)
		}
		key := b.String()
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups, nil
}

func dimensions(ds *core.Dataset) Dimensions {
	rows := ds.RowCount()
	scale := "large"
	switch {
	case rows < mediumScaleRows:
		scale = "small"
	case rows < largeScaleRows:
		scale = "medium"
	}

	mb := ds.MemoryMB()
	class := "heavy"
	switch {
	case mb < moderateMemoryMB:
		class = "light"
	case mb < heavyMemoryMB:
		class = "moderate"
	}

	return Dimensions{
		Rows:        rows,
		Columns:     ds.ColumnCount(),
		MemoryMB:    mb,
		Scale:       scale,
		MemoryClass: class,
	}
}

func featureMix(ds *core.Dataset, targetIdx int) FeatureMix {
	fm := FeatureMix{
		Counts: make(map[core.ColumnType]int, len(core.ColumnTypes)),
		Ratios: make(map[core.ColumnType]float64, len(core.ColumnTypes)),
	}
	for _, t := range core.ColumnTypes {
		fm.Counts[t] = 0
	}
	for i, c := range ds.Columns() {
		fm.Counts[c.Type]++
		if i != targetIdx {
			fm.FeatureColumns++
		}
	}
	cols := ds.ColumnCount()
	for _, t := range core.ColumnTypes {
		fm.Ratios[t] = ratio(fm.Counts[t], cols)
	}
	fm.MixType = mixType(fm.Ratios[core.ColumnNumeric], fm.Ratios[core.ColumnCategorical])
	return fm
}

// mixType labels the balance between numeric and categorical columns.
func mixType(num, cat float64) string {
	switch {
	case cat >= 0.55:
		return "Categorical Dominant (High Complexity)"
	case cat >= 0.40:
		return "Moderate Mix (Leaning Categorical)"
	case abs(num-cat) <= 0.10:
		return "Balanced Mix"
	case num >= 0.70:
		return "Numerical Dominant (Low Complexity)"
	case num >= 0.60:
		return "Moderate Mix (Leaning Numerical)"
	default:
		return "Unclear Mix"
	}
}

func missingness(ds *core.Dataset, stats []columnStats) Missingness {
	m := Missingness{
		TotalCells: ds.RowCount() * ds.ColumnCount(),
		PerColumn:  make([]ColumnRatio, len(stats)),
	}
	for i, s := range stats {
		m.MissingCells += s.missing
		m.PerColumn[i] = ColumnRatio{Column: ds.Column(i).Name, Ratio: ratio(s.missing, ds.RowCount())}
	}
	m.MissingRatio = ratio(m.MissingCells, m.TotalCells)
	return m
}

func duplication(ds *core.Dataset, dups int) Duplication {
	return Duplication{DuplicateRows: dups, DuplicateRatio: ratio(dups, ds.RowCount())}
}

func constantFeatures(ds *core.Dataset, stats []columnStats) ConstantFeatures {
	var cf ConstantFeatures
	for i, s := range stats {
		if s.distinct == 1 {
			cf.Columns = append(cf.Columns, ds.Column(i).Name)
		}
	}
	cf.ConstantRatio = ratio(len(cf.Columns), ds.ColumnCount())
	return cf
}

func schemaAnomaly(ds *core.Dataset, stats []columnStats) SchemaAnomaly {
	var sa SchemaAnomaly
	anomalous := 0
	for i, s := range stats {
		name := ds.Column(i).Name
		flagged := false
		if s.placeholders > 0 {
			sa.PlaceholderCells += s.placeholders
			sa.PlaceholderColumns = append(sa.PlaceholderColumns, name)
			flagged = true
		}
		valued := s.nonMissing - s.placeholders
		if ds.Column(i).Type == core.ColumnCategorical && s.numericCount > 0 && s.numericCount < valued {
			sa.MixedColumns = append(sa.MixedColumns, name)
			flagged = true
		}
		if flagged {
			anomalous++
		}
	}
	sa.AnomalousRatio = ratio(anomalous, ds.ColumnCount())
	return sa
}

func targetProfile(ds *core.Dataset, stats []columnStats, targetIdx int) TargetProfile {
	if targetIdx < 0 {
		return TargetProfile{}
	}
	s := stats[targetIdx]
	col := ds.Column(targetIdx)
	return TargetProfile{
		Column:        col.Name,
		Type:          col.Type,
		MissingRatio:  ratio(s.missing, ds.RowCount()),
		Distinct:      s.distinct,
		Concentration: ratio(s.topCount, s.nonMissing),
	}
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
