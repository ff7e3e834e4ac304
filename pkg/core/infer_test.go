package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferColumnType(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   ColumnType
	}{
		{"booleans", []string{"true", "false", "TRUE"}, ColumnBoolean},
		{"zero one is numeric", []string{"0", "1", "1"}, ColumnNumeric},
		{"floats", []string{"1.5", "-2", "3e4"}, ColumnNumeric},
		{"iso dates", []string{"2024-01-01", "2024-02-29"}, ColumnDatetime},
		{"timestamps", []string{"2024-01-01 10:00:00", "2024-01-01T10:00:00Z"}, ColumnDatetime},
		{"words", []string{"red", "green"}, ColumnCategorical},
		{"mixed numeric and words", []string{"1", "two"}, ColumnCategorical},
		{"nan literal is not numeric", []string{"1", "NaN"}, ColumnCategorical},
		{"inf literal is not numeric", []string{"1", "inf"}, ColumnCategorical},
		{"signed infinity is not numeric", []string{"1", "-Infinity"}, ColumnCategorical},
		{"overflow is not numeric", []string{"1", "1e400"}, ColumnCategorical},
		{"hex float is not numeric", []string{"1", "0x1p-2"}, ColumnCategorical},
		{"underscore separator is not numeric", []string{"1", "1_0"}, ColumnCategorical},
		{"padded decimals", []string{" 1.5 ", "+2", ".5", "-1E-3"}, ColumnNumeric},
		{"all missing", []string{"", ""}, ColumnCategorical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			missing := make([]bool, len(tt.values))
			for i, v := range tt.values {
				missing[i] = v == ""
			}
			assert.Equal(t, tt.want, InferColumnType(tt.values, missing))
		})
	}
}

func TestInferColumnType_IgnoresMissing(t *testing.T) {
	values := []string{"true", "", "false"}
	missing := []bool{false, true, false}
	assert.Equal(t, ColumnBoolean, InferColumnType(values, missing))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"42", 42, true},
		{" -1.25 ", -1.25, true},
		{"3e4", 30000, true},
		{"", 0, false},
		{"+Inf", 0, false},
		{"infinity", 0, false},
		{"nan", 0, false},
		{"0x10", 0, false},
		{"1_000", 0, false},
		{"1e309", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
