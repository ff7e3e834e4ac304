package classifier

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapgate/internal/profiler"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

// Check is a single classification rule. Evaluate must be a pure function of
// its inputs.
type Check struct {
	Name        string
	Title       string
	Category    core.Category
	Description string
	// Complexity marks checks that need the opt-in complexity profile.
	Complexity bool
	// Optional marks structural checks that may be disabled.
	Optional bool
	// Applies reports whether the check can be evaluated for m. Nil means always.
	Applies  func(m *profiler.Metrics) bool
	Evaluate func(m *profiler.Metrics, t Thresholds) core.Finding
}

// Disableable reports whether the check may be switched off. Structural
// checks that gate authorization always run.
func (c Check) Disableable() bool {
	return c.Complexity || c.Optional
}

// ValidateDisabled rejects names that are unknown or name a mandatory check.
func ValidateDisabled(names []string) error {
	byName := make(map[string]Check)
	for _, c := range Checks() {
		byName[c.Name] = c
	}
	var errs []error
	for _, name := range names {
		c, ok := byName[name]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("unknown check %q", name))
		case !c.Disableable():
			errs = append(errs, fmt.Errorf("check %q is mandatory and cannot be disabled", name))
		}
	}
	return errors.Join(errs...)
}

// Checks returns the built-in checks in evaluation order.
func Checks() []Check {
	return []Check{
		{
			Name:        "dataset_dimensions",
			Title:       "Dataset Dimensions",
			Category:    core.CategorySize,
			Description: "Dataset must have at least one row and one column",
			Evaluate:    checkDimensions,
		},
		{
			Name:        "feature_mix",
			Title:       "Feature Mix",
			Category:    core.CategoryFeatureMix,
			Description: "Dataset must have at least one feature column besides the target",
			Evaluate:    checkFeatureMix,
		},
		{
			Name:        "dataset_missing_ratio",
			Title:       "Missing Values",
			Category:    core.CategoryMissingness,
			Description: "Share of empty or null cells across the dataset",
			Evaluate:    checkMissing,
		},
		{
			Name:        "dataset_duplicates_ratio",
			Title:       "Duplicate Rows",
			Category:    core.CategoryDuplication,
			Description: "Share of rows identical to an earlier row",
			Evaluate:    checkDuplicates,
		},
		{
			Name:        "column_constant_ratio",
			Title:       "Constant Features",
			Category:    core.CategoryConstantFeatures,
			Description: "Share of columns holding a single distinct value",
			Evaluate:    checkConstant,
		},
		{
			Name:        "dataset_schema_anomalies",
			Title:       "Schema Anomalies",
			Category:    core.CategorySchemaAnomaly,
			Description: "Share of columns with hidden missing placeholders or mixed value types",
			Optional:    true,
			Evaluate:    checkSchemaAnomaly,
		},
		{
			Name:        "target_profile",
			Title:       "Target Column",
			Category:    core.CategoryTarget,
			Description: "Target column must be populated and hold more than one value",
			Applies:     func(m *profiler.Metrics) bool { return m.Target.Column != "" },
			Evaluate:    checkTarget,
		},
		{
			Name:        "dataset_cardinality_ratio",
			Title:       "Categorical Cardinality",
			Category:    core.CategoryCardinality,
			Description: "Mean unique-value ratio of categorical feature columns",
			Complexity:  true,
			Evaluate:    checkCardinality,
		},
		{
			Name:        "dataset_outlier_ratio",
			Title:       "Outliers",
			Category:    core.CategoryOutliers,
			Description: "Share of rows with a value outside 1.5x the interquartile range",
			Complexity:  true,
			Evaluate:    checkOutliers,
		},
		{
			Name:        "dataset_multicollinearity_density",
			Title:       "Multicollinearity",
			Category:    core.CategoryMulticollinearity,
			Description: "Share of numeric feature pairs that are highly correlated",
			Complexity:  true,
			Evaluate:    checkMulticollinearity,
		},
	}
}

func checkDimensions(m *profiler.Metrics, _ Thresholds) core.Finding {
	d := m.Dimensions
	f := core.Finding{Metric: float64(d.Rows)}
	if d.Rows == 0 || d.Columns == 0 {
		f.Severity = core.SeverityCritical
		f.Details = fmt.Sprintf("Dataset is empty: %d rows x %d columns", d.Rows, d.Columns)
		return f
	}
	f.Details = fmt.Sprintf("%d rows x %d columns, %.2f MB (%s scale, %s memory)",
		d.Rows, d.Columns, d.MemoryMB, d.Scale, d.MemoryClass)
	return f
}

func checkFeatureMix(m *profiler.Metrics, _ Thresholds) core.Finding {
	fm := m.FeatureMix
	f := core.Finding{Metric: float64(fm.FeatureColumns)}
	if fm.FeatureColumns == 0 {
		f.Severity = core.SeverityCritical
		f.Details = "No feature columns besides the target"
		return f
	}
	parts := make([]string, 0, len(core.ColumnTypes))
	for _, t := range core.ColumnTypes {
		if n := fm.Counts[t]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, t))
		}
	}
	f.Details = fmt.Sprintf("%s: %s", fm.MixType, strings.Join(parts, ", "))
	return f
}

func checkMissing(m *profiler.Metrics, t Thresholds) core.Finding {
	mi := m.Missingness
	f := core.Finding{
		Metric:   mi.MissingRatio,
		Severity: t.Missing.Classify(mi.MissingRatio),
	}
	var structural []string
	for _, c := range mi.PerColumn {
		if c.Ratio > 0 {
			f.AffectedColumns = append(f.AffectedColumns, c.Column)
		}
		if c.Ratio > 0 && c.Ratio >= t.Missing.Critical {
			structural = append(structural, c.Column)
		}
	}
	f.Details = fmt.Sprintf("%d of %d cells missing (%s)", mi.MissingCells, mi.TotalCells, percent(mi.MissingRatio))
	if len(structural) > 0 {
		f.Details += fmt.Sprintf("; structurally missing: %s", strings.Join(structural, ", "))
	}
	return f
}

func checkDuplicates(m *profiler.Metrics, t Thresholds) core.Finding {
	d := m.Duplication
	return core.Finding{
		Metric:   d.DuplicateRatio,
		Severity: t.Duplicates.Classify(d.DuplicateRatio),
		Details:  fmt.Sprintf("%d duplicate rows (%s)", d.DuplicateRows, percent(d.DuplicateRatio)),
	}
}

func checkConstant(m *profiler.Metrics, t Thresholds) core.Finding {
	c := m.Constant
	return core.Finding{
		Metric:          c.ConstantRatio,
		Severity:        t.Constant.Classify(c.ConstantRatio),
		AffectedColumns: c.Columns,
		Details:         fmt.Sprintf("%d constant columns (%s)", len(c.Columns), percent(c.ConstantRatio)),
	}
}

func checkSchemaAnomaly(m *profiler.Metrics, t Thresholds) core.Finding {
	sa := m.SchemaAnomaly
	f := core.Finding{
		Metric:          sa.AnomalousRatio,
		Severity:        t.SchemaAnomaly.Classify(sa.AnomalousRatio),
		AffectedColumns: union(sa.PlaceholderColumns, sa.MixedColumns),
	}
	if len(f.AffectedColumns) == 0 {
		f.Details = "No hidden placeholders or mixed-type columns"
		return f
	}
	var parts []string
	if len(sa.PlaceholderColumns) > 0 {
		parts = append(parts, fmt.Sprintf("%d placeholder cells in %s", sa.PlaceholderCells, strings.Join(sa.PlaceholderColumns, ", ")))
	}
	if len(sa.MixedColumns) > 0 {
		parts = append(parts, fmt.Sprintf("mixed numeric and text values in %s", strings.Join(sa.MixedColumns, ", ")))
	}
	f.Details = strings.Join(parts, "; ")
	return f
}

func checkTarget(m *profiler.Metrics, _ Thresholds) core.Finding {
	tp := m.Target
	f := core.Finding{
		Metric:          tp.MissingRatio,
		AffectedColumns: []string{tp.Column},
	}
	switch {
	case tp.Distinct == 0:
		f.Severity = core.SeverityCritical
		f.Details = fmt.Sprintf("Target %q has no values", tp.Column)
	case tp.Distinct == 1:
		f.Severity = core.SeverityCritical
		f.Details = fmt.Sprintf("Target %q holds a single value", tp.Column)
	case tp.MissingRatio > 0:
		f.Severity = core.SeverityWarning
		f.Details = fmt.Sprintf("Target %q is missing in %s of rows", tp.Column, percent(tp.MissingRatio))
	default:
		f.Details = fmt.Sprintf("Target %q (%s): %d distinct values, top value covers %s",
			tp.Column, tp.Type, tp.Distinct, percent(tp.Concentration))
	}
	return f
}

func checkCardinality(m *profiler.Metrics, t Thresholds) core.Finding {
	c := m.Complexity
	f := core.Finding{
		Metric:   c.CardinalityRatio,
		Severity: t.Cardinality.Classify(c.CardinalityRatio),
	}
	for _, col := range c.CardinalityPerColumn {
		if col.Ratio >= t.Cardinality.Critical {
			f.AffectedColumns = append(f.AffectedColumns, col.Column)
		}
	}
	f.Details = fmt.Sprintf("Mean unique-value ratio %s over %d categorical features", percent(c.CardinalityRatio), len(c.CardinalityPerColumn))
	return f
}

func checkOutliers(m *profiler.Metrics, t Thresholds) core.Finding {
	c := m.Complexity
	return core.Finding{
		Metric:          c.OutlierRatio,
		Severity:        t.Outliers.Classify(c.OutlierRatio),
		AffectedColumns: c.OutlierColumns,
		Details:         fmt.Sprintf("%s of rows hold an IQR outlier", percent(c.OutlierRatio)),
	}
}

func checkMulticollinearity(m *profiler.Metrics, t Thresholds) core.Finding {
	c := m.Complexity
	f := core.Finding{
		Metric:   c.MulticollinearityRatio,
		Severity: t.Multicollinearity.Classify(c.MulticollinearityRatio),
	}
	pairs := make([]string, len(c.CorrelatedPairs))
	var cols []string
	for i, p := range c.CorrelatedPairs {
		pairs[i] = p[0] + "~" + p[1]
		cols = union(cols, p[:])
	}
	f.AffectedColumns = cols
	if len(pairs) == 0 {
		f.Details = "No highly correlated numeric pairs"
	} else {
		f.Details = fmt.Sprintf("%d correlated pairs (%s): %s", len(pairs), percent(c.MulticollinearityRatio), strings.Join(pairs, ", "))
	}
	return f
}

func percent(r float64) string {
	return fmt.Sprintf("%.1f%%", r*100)
}

// union merges b into a, keeping first-seen order and dropping repeats.
func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string(nil), a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
