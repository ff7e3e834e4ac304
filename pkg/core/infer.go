package core

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DatetimeLayouts is the fixed set of layouts a datetime column must parse under.
var DatetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
	"Jan 2, 2006",
}

// InferColumnType classifies a column from its non-missing values.
// Rules are tried in order: boolean, datetime, numeric, categorical.
// A column without any non-missing value is categorical.
func InferColumnType(values []string, missing []bool) ColumnType {
	seen := 0
	allBool, allDate, allNum := true, true, true
	for i, v := range values {
		if missing[i] {
			continue
		}
		seen++
		if allBool && !IsBooleanLiteral(v) {
			allBool = false
		}
		if allDate {
			if _, ok := ParseDatetime(v); !ok {
				allDate = false
			}
		}
		if allNum {
			if _, ok := ParseNumber(v); !ok {
				allNum = false
			}
		}
		if !allBool && !allDate && !allNum {
			break
		}
	}

	switch {
	case seen == 0:
		return ColumnCategorical
	case allBool:
		return ColumnBoolean
	case allDate:
		return ColumnDatetime
	case allNum:
		return ColumnNumeric
	default:
		return ColumnCategorical
	}
}

// IsBooleanLiteral reports whether s is "true" or "false", ignoring case and padding.
func IsBooleanLiteral(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "false":
		return true
	}
	return false
}

// ParseNumber parses s as a finite decimal float. Infinities, NaN, hex
// floats and underscore digit separators are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.IndexFunc(s, notDecimalRune) >= 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func notDecimalRune(r rune) bool {
	return !(r >= '0' && r <= '9') && !strings.ContainsRune("+-.eE", r)
}

// ParseDatetime parses s under the first matching layout in DatetimeLayouts.
func ParseDatetime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range DatetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
