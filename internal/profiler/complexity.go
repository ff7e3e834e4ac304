package profiler

import (
	"context"
	"math"
	"sort"

	"github.com/leapstack-labs/leapgate/pkg/core"
)

// numericColumn is a parsed numeric feature column. valid[i] is false for
// missing cells.
type numericColumn struct {
	name   string
	values []float64
	valid  []bool
}

func (p *Profiler) complexityProfile(ctx context.Context, ds *core.Dataset, stats []columnStats, targetIdx int) (*Complexity, error) {
	c := &Complexity{}

	// Cardinality over categorical features.
	var cardSum float64
	cardCols := 0
	for i, s := range stats {
		if i == targetIdx || ds.Column(i).Type != core.ColumnCategorical || s.nonMissing == 0 {
			continue
		}
		r := ratio(s.distinct, ds.RowCount())
		c.CardinalityPerColumn = append(c.CardinalityPerColumn, ColumnRatio{Column: ds.Column(i).Name, Ratio: r})
		cardSum += r
		cardCols++
	}
	if cardCols > 0 {
		c.CardinalityRatio = cardSum / float64(cardCols)
	}

	// Non-constant numeric features.
	var numeric []numericColumn
	for i, s := range stats {
		if i == targetIdx || ds.Column(i).Type != core.ColumnNumeric || s.distinct < 2 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		numeric = append(numeric, parseNumericColumn(ds, i))
	}

	outlierRows, outlierCols := outliers(ds.RowCount(), numeric)
	c.OutlierRatio = ratio(outlierRows, ds.RowCount())
	c.OutlierColumns = outlierCols

	pairs := len(numeric) * (len(numeric) - 1) / 2
	for a := 0; a < len(numeric); a++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for b := a + 1; b < len(numeric); b++ {
			r, ok := pearson(numeric[a], numeric[b])
			if ok && math.Abs(r) > p.corrThreshold {
				c.CorrelatedPairs = append(c.CorrelatedPairs, [2]string{numeric[a].name, numeric[b].name})
			}
		}
	}
	c.MulticollinearityRatio = ratio(len(c.CorrelatedPairs), pairs)

	return c, nil
}

func parseNumericColumn(ds *core.Dataset, col int) numericColumn {
	nc := numericColumn{
		name:   ds.Column(col).Name,
		values: make([]float64, ds.RowCount()),
		valid:  make([]bool, ds.RowCount()),
	}
	for r := 0; r < ds.RowCount(); r++ {
		if ds.IsMissing(col, r) {
			continue
		}
		if f, ok := core.ParseNumber(ds.Value(col, r)); ok {
			nc.values[r] = f
			nc.valid[r] = true
		}
	}
	return nc
}

// outliers counts rows holding at least one value outside the 1.5*IQR fences
// of its column, and lists the columns that contributed any.
func outliers(rows int, cols []numericColumn) (int, []string) {
	flagged := make([]bool, rows)
	var names []string
	for _, col := range cols {
		present := make([]float64, 0, rows)
		for r, ok := range col.valid {
			if ok {
				present = append(present, col.values[r])
			}
		}
		if len(present) == 0 {
			continue
		}
		sort.Float64s(present)
		q1 := quantile(present, 0.25)
		q3 := quantile(present, 0.75)
		iqr := q3 - q1
		lo, hi := q1-1.5*iqr, q3+1.5*iqr

		hit := false
		for r, ok := range col.valid {
			if ok && (col.values[r] < lo || col.values[r] > hi) {
				flagged[r] = true
				hit = true
			}
		}
		if hit {
			names = append(names, col.name)
		}
	}

	n := 0
	for _, f := range flagged {
		if f {
			n++
		}
	}
	return n, names
}

// quantile returns the q-th quantile of sorted using linear interpolation.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// pearson computes the correlation of a and b over rows where both are present.
// ok is false when fewer than two rows overlap or either side has no variance.
func pearson(a, b numericColumn) (float64, bool) {
	var n, sumA, sumB float64
	for r := range a.values {
		if a.valid[r] && b.valid[r] {
			n++
			sumA += a.values[r]
			sumB += b.values[r]
		}
	}
	if n < 2 {
		return 0, false
	}
	meanA, meanB := sumA/n, sumB/n
	var cov, varA, varB float64
	for r := range a.values {
		if a.valid[r] && b.valid[r] {
			da := a.values[r] - meanA
			db := b.values[r] - meanB
			cov += da * db
			varA += da * da
			varB += db * db
		}
	}
	if varA == 0 || varB == 0 {
		return 0, false
	}
	return cov / math.Sqrt(varA*varB), true
}
