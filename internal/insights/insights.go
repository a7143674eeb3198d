// Package insights computes per-column summaries of stored tables:
// non-null and distinct counts for every column, moment statistics and
// equal-width histograms for numeric columns, lexical extremes for
// text columns. Everything is gathered in one scan.
package insights

import (
	"context"
	"fmt"
	"math"

	"github.com/lakshminarasimha6802/sheetsql/domain/model"
	"github.com/lakshminarasimha6802/sheetsql/internal/storage"
)

// HistogramBins is the number of equal-width bins built for each
// numeric column.
const HistogramBins = 10

// Report summarizes one table.
type Report struct {
	Table   model.TableName `json:"table"`
	Rows    int64           `json:"rows"`
	Columns []ColumnSummary `json:"columns"`
}

// ColumnSummary describes one column. Numeric is set for INTEGER and
// REAL columns with at least one value, Text for the rest.
type ColumnSummary struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Count    int64           `json:"count"`
	Distinct int64           `json:"distinct"`
	Numeric  *NumericSummary `json:"numeric,omitempty"`
	Text     *TextSummary    `json:"text,omitempty"`
}

// NumericSummary carries moment statistics and a histogram. StdDev is
// the sample standard deviation and zero when fewer than two values
// exist.
type NumericSummary struct {
	Min       float64        `json:"min"`
	Max       float64        `json:"max"`
	Mean      float64        `json:"mean"`
	StdDev    float64        `json:"stddev"`
	Histogram []HistogramBin `json:"histogram"`
}

// HistogramBin is one bin of an equal-width histogram. High of the
// last bin is inclusive.
type HistogramBin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int64   `json:"count"`
}

// TextSummary carries the lexical extremes of a text column. For
// datetime columns the canonical encoding sorts lexically in time
// order, so Min/Max are also the chronological extremes.
type TextSummary struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// Analyze scans the table once and summarizes every column.
func Analyze(ctx context.Context, store *storage.Store, table model.TableName) (*Report, error) {
	columns, err := store.Columns(ctx, table)
	if err != nil {
		return nil, err
	}

	accums := make([]accumulator, len(columns))
	for i, c := range columns {
		if c.Type == "INTEGER" || c.Type == "REAL" {
			accums[i] = newNumericAccum()
			continue
		}
		accums[i] = newTextAccum()
	}

	var total int64
	rows, err := store.DB().QueryContext(ctx, fmt.Sprintf("SELECT * FROM [%s]", table))
	if err != nil {
		return nil, fmt.Errorf("scan table %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scan row of %s: %w", table, err)
		}
		total++
		for i, v := range values {
			accums[i].observe(v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan table %s: %w", table, err)
	}

	summaries := make([]ColumnSummary, len(columns))
	for i, c := range columns {
		summaries[i] = accums[i].summarize(c)
	}
	return &Report{Table: table, Rows: total, Columns: summaries}, nil
}

// accumulator folds one column's cells during the scan.
type accumulator interface {
	observe(v any)
	summarize(c storage.ColumnInfo) ColumnSummary
}

type numericAccum struct {
	count  int64
	mean   float64
	m2     float64
	min    float64
	max    float64
	values []float64
	seen   map[float64]struct{}
}

func newNumericAccum() *numericAccum {
	return &numericAccum{seen: make(map[float64]struct{})}
}

func (a *numericAccum) observe(v any) {
	var x float64
	switch n := v.(type) {
	case int64:
		x = float64(n)
	case float64:
		x = n
	default:
		return
	}

	a.count++
	if a.count == 1 {
		a.min, a.max = x, x
	} else {
		a.min = math.Min(a.min, x)
		a.max = math.Max(a.max, x)
	}
	// Welford's update keeps the variance stable in one pass.
	delta := x - a.mean
	a.mean += delta / float64(a.count)
	a.m2 += delta * (x - a.mean)

	a.values = append(a.values, x)
	a.seen[x] = struct{}{}
}

func (a *numericAccum) summarize(c storage.ColumnInfo) ColumnSummary {
	summary := ColumnSummary{
		Name:     c.Name,
		Type:     c.Type,
		Count:    a.count,
		Distinct: int64(len(a.seen)),
	}
	if a.count == 0 {
		return summary
	}

	stddev := 0.0
	if a.count > 1 {
		stddev = math.Sqrt(a.m2 / float64(a.count-1))
	}
	summary.Numeric = &NumericSummary{
		Min:       a.min,
		Max:       a.max,
		Mean:      a.mean,
		StdDev:    stddev,
		Histogram: histogram(a.values, a.min, a.max),
	}
	return summary
}

// histogram builds equal-width bins over [min, max]. A constant column
// collapses to a single bin.
func histogram(values []float64, min, max float64) []HistogramBin {
	if min == max {
		return []HistogramBin{{Low: min, High: max, Count: int64(len(values))}}
	}

	width := (max - min) / HistogramBins
	bins := make([]HistogramBin, HistogramBins)
	for i := range bins {
		bins[i].Low = min + width*float64(i)
		bins[i].High = min + width*float64(i+1)
	}
	bins[HistogramBins-1].High = max

	for _, v := range values {
		idx := int((v - min) / width)
		if idx >= HistogramBins {
			idx = HistogramBins - 1
		}
		bins[idx].Count++
	}
	return bins
}

type textAccum struct {
	count int64
	min   string
	max   string
	seen  map[string]struct{}
}

func newTextAccum() *textAccum {
	return &textAccum{seen: make(map[string]struct{})}
}

func (a *textAccum) observe(v any) {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		return
	}

	a.count++
	if a.count == 1 {
		a.min, a.max = s, s
	} else {
		if s < a.min {
			a.min = s
		}
		if s > a.max {
			a.max = s
		}
	}
	a.seen[s] = struct{}{}
}

func (a *textAccum) summarize(c storage.ColumnInfo) ColumnSummary {
	summary := ColumnSummary{
		Name:     c.Name,
		Type:     c.Type,
		Count:    a.count,
		Distinct: int64(len(a.seen)),
	}
	if a.count == 0 {
		return summary
	}
	summary.Text = &TextSummary{Min: a.min, Max: a.max}
	return summary
}
