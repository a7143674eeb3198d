// Package anomaly flags unusual rows of stored tables. Detection runs
// on the numeric columns only; rows with a null in any of them are
// left out of the scoring.
package anomaly

import (
	"context"
	"fmt"
	"strings"

	"github.com/lakshminarasimha6802/sheetsql/domain/model"
	"github.com/lakshminarasimha6802/sheetsql/internal/storage"
)

// MaxFlagged caps the outliers a report carries, keeping responses
// bounded on tables where the detector fires broadly.
const MaxFlagged = 200

// Report lists the outliers of one table. Columns names the numeric
// features the detector saw, in table order.
type Report struct {
	Table   model.TableName `json:"table"`
	Columns []string        `json:"columns"`
	Scored  int64           `json:"scored"`
	Dropped int64           `json:"dropped"`
	Flagged []Outlier       `json:"flagged"`
}

// Outlier is one flagged row. Index is the row's zero-based position
// in the table's natural scan order, so it lines up with browse
// offsets. Values holds the feature vector in Columns order.
type Outlier struct {
	Index  int64     `json:"index"`
	Score  float64   `json:"score"`
	Values []float64 `json:"values"`
}

// Detect scores the table's numeric rows with the detector and
// reports the ones above the threshold, in row order, capped at
// MaxFlagged. Tables without numeric columns yield an empty report.
func Detect(ctx context.Context, store *storage.Store, table model.TableName, detector Detector) (*Report, error) {
	columns, err := store.Columns(ctx, table)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(columns))
	for _, c := range columns {
		if c.Type == "INTEGER" || c.Type == "REAL" {
			names = append(names, c.Name)
		}
	}
	report := &Report{Table: table, Columns: names, Flagged: []Outlier{}}
	if len(names) == 0 {
		return report, nil
	}

	matrix, positions, dropped, err := numericRows(ctx, store, table, names)
	if err != nil {
		return nil, err
	}
	report.Scored = int64(len(matrix))
	report.Dropped = dropped
	if len(matrix) == 0 {
		return report, nil
	}

	scores := detector.Scores(matrix)
	for i, score := range scores {
		if score <= ScoreThreshold {
			continue
		}
		report.Flagged = append(report.Flagged, Outlier{
			Index:  positions[i],
			Score:  score,
			Values: matrix[i],
		})
		if len(report.Flagged) >= MaxFlagged {
			break
		}
	}
	return report, nil
}

// numericRows reads the named columns and keeps the rows where every
// cell converts to a float. positions carries each kept row's place in
// the scan; dropped counts the rest.
func numericRows(ctx context.Context, store *storage.Store, table model.TableName, names []string) (matrix [][]float64, positions []int64, dropped int64, err error) {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("[%s]", n)
	}
	query := fmt.Sprintf("SELECT %s FROM [%s]", strings.Join(quoted, ", "), table)

	rows, err := store.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("scan table %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	values := make([]any, len(names))
	pointers := make([]any, len(names))
	for i := range values {
		pointers[i] = &values[i]
	}

	var position int64
	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, nil, 0, fmt.Errorf("scan row of %s: %w", table, err)
		}

		features := make([]float64, len(values))
		complete := true
		for i, v := range values {
			switch x := v.(type) {
			case int64:
				features[i] = float64(x)
			case float64:
				features[i] = x
			default:
				complete = false
			}
			if !complete {
				break
			}
		}
		if complete {
			matrix = append(matrix, features)
			positions = append(positions, position)
		} else {
			dropped++
		}
		position++
	}
	if err := rows.Err(); err != nil {
		return nil, nil, 0, fmt.Errorf("scan table %s: %w", table, err)
	}
	return matrix, positions, dropped, nil
}
