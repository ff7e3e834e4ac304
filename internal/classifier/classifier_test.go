package classifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapgate/internal/profiler"
	"github.com/leapstack-labs/leapgate/internal/testutil"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

// baseMetrics describes a healthy 100x4 dataset with target "label".
func baseMetrics() *profiler.Metrics {
	return &profiler.Metrics{
		Dimensions: profiler.Dimensions{Rows: 100, Columns: 4, MemoryMB: 0.01, Scale: "small", MemoryClass: "light"},
		FeatureMix: profiler.FeatureMix{
			Counts:         map[core.ColumnType]int{core.ColumnNumeric: 2, core.ColumnCategorical: 2},
			Ratios:         map[core.ColumnType]float64{core.ColumnNumeric: 0.5, core.ColumnCategorical: 0.5},
			FeatureColumns: 3,
			MixType:        "Moderate Mix (Leaning Categorical)",
		},
		Missingness: profiler.Missingness{TotalCells: 400},
		Target:      profiler.TargetProfile{Column: "label", Type: core.ColumnCategorical, Distinct: 2, Concentration: 0.5},
	}
}

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(Config{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	return c
}

func findingByCheck(t *testing.T, findings []core.Finding, name string) core.Finding {
	t.Helper()
	for _, f := range findings {
		if f.CheckName == name {
			return f
		}
	}
	t.Fatalf("no finding for check %q", name)
	return core.Finding{}
}

func TestBand_Classify(t *testing.T) {
	b := Band{Warning: 0.05, Critical: 0.30}
	tests := []struct {
		value float64
		want  core.Severity
	}{
		{0, core.SeveritySafe},
		{0.049, core.SeveritySafe},
		{0.05, core.SeverityWarning},
		{0.12, core.SeverityWarning},
		{0.2999, core.SeverityWarning},
		{0.30, core.SeverityCritical},
		{1, core.SeverityCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.Classify(tt.value), "value %v", tt.value)
	}

	anyNonZero := Band{Warning: 0, Critical: 0.5}
	assert.Equal(t, core.SeveritySafe, anyNonZero.Classify(0))
	assert.Equal(t, core.SeverityWarning, anyNonZero.Classify(0.001))
	assert.Equal(t, core.SeverityCritical, anyNonZero.Classify(0.5))
}

func TestThresholds_Validate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())

	bad := DefaultThresholds()
	bad.Missing = Band{Warning: 0.4, Critical: 0.3}
	bad.Outliers = Band{Warning: 0.1, Critical: 1.5}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
	assert.Contains(t, err.Error(), "outliers")

	_, err = New(Config{Thresholds: bad})
	assert.Error(t, err)
}

func TestThresholds_WithDefaults(t *testing.T) {
	partial := Thresholds{Missing: Band{Warning: 0.10, Critical: 0.40}}
	got := partial.WithDefaults()

	want := DefaultThresholds()
	want.Missing = Band{Warning: 0.10, Critical: 0.40}
	assert.Equal(t, want, got)
	assert.Equal(t, DefaultThresholds(), Thresholds{}.WithDefaults())
}

func TestClassify_PartialThresholdsKeepDefaultBands(t *testing.T) {
	c, err := New(Config{Thresholds: Thresholds{Missing: Band{Warning: 0.10, Critical: 0.40}}})
	require.NoError(t, err)

	m := baseMetrics()
	m.Duplication = profiler.Duplication{DuplicateRows: 5, DuplicateRatio: 0.05}
	findings, err := c.Classify(m)
	require.NoError(t, err)
	assert.Equal(t, core.SeverityCritical, findingByCheck(t, findings, "dataset_duplicates_ratio").Severity)
}

func TestClassify_AllSafe(t *testing.T) {
	findings, err := newTestClassifier(t).Classify(baseMetrics())
	require.NoError(t, err)

	names := make([]string, len(findings))
	for i, f := range findings {
		names[i] = f.CheckName
		assert.Equal(t, core.SeveritySafe, f.Severity, f.CheckName)
		assert.NotEmpty(t, f.Details, f.CheckName)
		assert.NotEmpty(t, f.Title, f.CheckName)
	}
	assert.Equal(t, []string{
		"dataset_dimensions",
		"feature_mix",
		"dataset_missing_ratio",
		"dataset_duplicates_ratio",
		"column_constant_ratio",
		"dataset_schema_anomalies",
		"target_profile",
	}, names)
}

func TestClassify_MissingBands(t *testing.T) {
	c := newTestClassifier(t)
	tests := []struct {
		name  string
		ratio float64
		want  core.Severity
	}{
		{"below warning", 0.01, core.SeveritySafe},
		{"between", 0.12, core.SeverityWarning},
		{"at critical", 0.30, core.SeverityCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := baseMetrics()
			m.Missingness.MissingRatio = tt.ratio
			findings, err := c.Classify(m)
			require.NoError(t, err)
			f := findingByCheck(t, findings, "dataset_missing_ratio")
			assert.Equal(t, tt.want, f.Severity)
			assert.Equal(t, core.CategoryMissingness, f.Category)
			assert.InDelta(t, tt.ratio, f.Metric, 1e-12)
		})
	}
}

func TestClassify_StructuralMissingness(t *testing.T) {
	m := baseMetrics()
	m.Missingness = profiler.Missingness{
		MissingCells: 45, TotalCells: 400, MissingRatio: 0.1125,
		PerColumn: []profiler.ColumnRatio{
			{Column: "id", Ratio: 0},
			{Column: "age", Ratio: 0.4},
			{Column: "city", Ratio: 0.05},
			{Column: "label", Ratio: 0},
		},
	}
	findings, err := newTestClassifier(t).Classify(m)
	require.NoError(t, err)

	f := findingByCheck(t, findings, "dataset_missing_ratio")
	assert.Equal(t, core.SeverityWarning, f.Severity)
	assert.Equal(t, []string{"age", "city"}, f.AffectedColumns)
	assert.Contains(t, f.Details, "structurally missing: age")
}

func TestClassify_DegenerateDimensions(t *testing.T) {
	m := baseMetrics()
	m.Dimensions.Rows = 0
	m.Target.Distinct = 0
	findings, err := newTestClassifier(t).Classify(m)
	require.NoError(t, err)

	assert.Equal(t, core.SeverityCritical, findingByCheck(t, findings, "dataset_dimensions").Severity)
	assert.Equal(t, core.SeverityCritical, findingByCheck(t, findings, "target_profile").Severity)
}

func TestClassify_NoFeatureColumns(t *testing.T) {
	m := baseMetrics()
	m.FeatureMix.FeatureColumns = 0
	findings, err := newTestClassifier(t).Classify(m)
	require.NoError(t, err)
	assert.Equal(t, core.SeverityCritical, findingByCheck(t, findings, "feature_mix").Severity)
}

func TestClassify_Target(t *testing.T) {
	tests := []struct {
		name    string
		profile profiler.TargetProfile
		want    core.Severity
	}{
		{"single value", profiler.TargetProfile{Column: "y", Distinct: 1}, core.SeverityCritical},
		{"all missing", profiler.TargetProfile{Column: "y", Distinct: 0, MissingRatio: 1}, core.SeverityCritical},
		{"partly missing", profiler.TargetProfile{Column: "y", Distinct: 3, MissingRatio: 0.01}, core.SeverityWarning},
		{"healthy", profiler.TargetProfile{Column: "y", Distinct: 3}, core.SeveritySafe},
	}
	c := newTestClassifier(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := baseMetrics()
			m.Target = tt.profile
			findings, err := c.Classify(m)
			require.NoError(t, err)
			f := findingByCheck(t, findings, "target_profile")
			assert.Equal(t, tt.want, f.Severity)
			assert.Equal(t, []string{"y"}, f.AffectedColumns)
		})
	}
}

func TestClassify_NoTargetSkipsTargetCheck(t *testing.T) {
	m := baseMetrics()
	m.Target = profiler.TargetProfile{}
	findings, err := newTestClassifier(t).Classify(m)
	require.NoError(t, err)
	for _, f := range findings {
		assert.NotEqual(t, "target_profile", f.CheckName)
	}
}

func TestClassify_SchemaAnomalyMergesKinds(t *testing.T) {
	m := baseMetrics()
	m.SchemaAnomaly = profiler.SchemaAnomaly{
		PlaceholderCells:   3,
		PlaceholderColumns: []string{"age", "city"},
		MixedColumns:       []string{"city"},
		AnomalousRatio:     0.5,
	}
	findings, err := newTestClassifier(t).Classify(m)
	require.NoError(t, err)

	f := findingByCheck(t, findings, "dataset_schema_anomalies")
	assert.Equal(t, core.SeverityCritical, f.Severity)
	assert.Equal(t, []string{"age", "city"}, f.AffectedColumns)
	assert.Contains(t, f.Details, "placeholder")
	assert.Contains(t, f.Details, "mixed")
}

func TestClassify_Complexity(t *testing.T) {
	m := baseMetrics()
	m.Complexity = &profiler.Complexity{
		CardinalityRatio:       0.6,
		CardinalityPerColumn:   []profiler.ColumnRatio{{Column: "city", Ratio: 0.6}},
		OutlierRatio:           0.08,
		OutlierColumns:         []string{"age"},
		MulticollinearityRatio: 0,
	}
	findings, err := newTestClassifier(t).Classify(m)
	require.NoError(t, err)

	require.Len(t, findings, 10)
	card := findingByCheck(t, findings, "dataset_cardinality_ratio")
	assert.Equal(t, core.SeverityCritical, card.Severity)
	assert.Equal(t, []string{"city"}, card.AffectedColumns)
	assert.Equal(t, core.SeverityWarning, findingByCheck(t, findings, "dataset_outlier_ratio").Severity)
	assert.Equal(t, core.SeveritySafe, findingByCheck(t, findings, "dataset_multicollinearity_density").Severity)
}

func TestClassify_DisabledChecks(t *testing.T) {
	c, err := New(Config{DisabledChecks: map[string]bool{"dataset_schema_anomalies": true}})
	require.NoError(t, err)

	findings, err := c.Classify(baseMetrics())
	require.NoError(t, err)
	assert.Len(t, findings, 6)
	for _, f := range findings {
		assert.NotEqual(t, "dataset_schema_anomalies", f.CheckName)
	}
}

func TestNew_DisabledChecks(t *testing.T) {
	tests := []struct {
		name     string
		disabled map[string]bool
		wantErr  string
	}{
		{"none", nil, ""},
		{"schema anomalies", map[string]bool{"dataset_schema_anomalies": true}, ""},
		{"complexity checks", map[string]bool{"dataset_cardinality_ratio": true, "dataset_outlier_ratio": true}, ""},
		{"false entry ignored", map[string]bool{"dataset_dimensions": false}, ""},
		{"dimensions", map[string]bool{"dataset_dimensions": true}, `"dataset_dimensions" is mandatory`},
		{"target", map[string]bool{"target_profile": true}, `"target_profile" is mandatory`},
		{"duplicates", map[string]bool{"dataset_duplicates_ratio": true}, `"dataset_duplicates_ratio" is mandatory`},
		{"unknown", map[string]bool{"nope": true}, `unknown check "nope"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Config{DisabledChecks: tt.disabled})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClassify_EmptyDatasetCannotBeSilenced(t *testing.T) {
	_, err := New(Config{DisabledChecks: map[string]bool{"dataset_dimensions": true, "target_profile": true}})
	require.Error(t, err)

	m := baseMetrics()
	m.Dimensions = profiler.Dimensions{Rows: 0, Columns: 4}
	findings, err := newTestClassifier(t).Classify(m)
	require.NoError(t, err)
	assert.Equal(t, core.SeverityCritical, findingByCheck(t, findings, "dataset_dimensions").Severity)
}

func TestCheck_Disableable(t *testing.T) {
	var optional []string
	for _, c := range Checks() {
		if c.Disableable() {
			optional = append(optional, c.Name)
		}
	}
	assert.Equal(t, []string{
		"dataset_schema_anomalies",
		"dataset_cardinality_ratio",
		"dataset_outlier_ratio",
		"dataset_multicollinearity_density",
	}, optional)
}

func TestClassify_FindingsDoNotAliasMetrics(t *testing.T) {
	m := baseMetrics()
	m.Constant = profiler.ConstantFeatures{Columns: []string{"k"}, ConstantRatio: 0.25}
	findings, err := newTestClassifier(t).Classify(m)
	require.NoError(t, err)

	f := findingByCheck(t, findings, "column_constant_ratio")
	assert.Equal(t, core.SeverityWarning, f.Severity)
	f.AffectedColumns[0] = "changed"
	assert.Equal(t, "k", m.Constant.Columns[0])
}

func TestClassify_Deterministic(t *testing.T) {
	ds := testutil.CleanDataset(t)
	m, err := profiler.New(profiler.Config{}).Profile(context.Background(), ds, "label")
	require.NoError(t, err)

	c := newTestClassifier(t)
	first, err := c.Classify(m)
	require.NoError(t, err)
	second, err := c.Classify(m)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestClassify_NilMetrics(t *testing.T) {
	_, err := newTestClassifier(t).Classify(nil)
	assert.Error(t, err)
}
