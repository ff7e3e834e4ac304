package profiler

import "github.com/leapstack-labs/leapgate/pkg/core"

// Metrics is the raw output of a profiling pass, keyed by metric category.
type Metrics struct {
	Dimensions    Dimensions
	FeatureMix    FeatureMix
	Missingness   Missingness
	Duplication   Duplication
	Constant      ConstantFeatures
	SchemaAnomaly SchemaAnomaly
	Target        TargetProfile
	// Complexity is nil unless complexity profiling is enabled.
	Complexity *Complexity
}

// Dimensions holds dataset size facts.
type Dimensions struct {
	Rows        int
	Columns     int
	MemoryMB    float64
	Scale       string
	MemoryClass string
}

// FeatureMix holds the column type breakdown over all columns.
type FeatureMix struct {
	Counts map[core.ColumnType]int
	Ratios map[core.ColumnType]float64
	// FeatureColumns counts columns other than the target.
	FeatureColumns int
	MixType        string
}

// ColumnRatio pairs a column with a ratio.
type ColumnRatio struct {
	Column string
	Ratio  float64
}

// Missingness holds null/blank cell statistics.
type Missingness struct {
	MissingCells int
	TotalCells   int
	MissingRatio float64
	// PerColumn is in column order.
	PerColumn []ColumnRatio
}

// Duplication holds fully-duplicated row statistics.
type Duplication struct {
	DuplicateRows  int
	DuplicateRatio float64
}

// ConstantFeatures holds single-valued column statistics.
type ConstantFeatures struct {
	Columns       []string
	ConstantRatio float64
}

// SchemaAnomaly holds hidden placeholder and mixed-type column statistics.
type SchemaAnomaly struct {
	// PlaceholderCells counts cells holding a missing-value placeholder such as "NA".
	PlaceholderCells   int
	PlaceholderColumns []string
	MixedColumns       []string
	// AnomalousRatio is the share of columns with placeholders or mixed types.
	AnomalousRatio float64
}

// TargetProfile describes the selected target column.
type TargetProfile struct {
	Column       string
	Type         core.ColumnType
	MissingRatio float64
	Distinct     int
	// Concentration is the share of the most frequent non-missing value.
	Concentration float64
}

// Complexity holds the opt-in complexity profile.
type Complexity struct {
	// CardinalityRatio is the mean unique-value ratio of categorical feature columns.
	CardinalityRatio     float64
	CardinalityPerColumn []ColumnRatio
	// OutlierRatio is the share of rows with at least one 1.5*IQR outlier.
	OutlierRatio   float64
	OutlierColumns []string
	// MulticollinearityRatio is the share of numeric column pairs with |r| above the threshold.
	MulticollinearityRatio float64
	CorrelatedPairs        [][2]string
}
