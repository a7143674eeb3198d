package model

import (
	"testing"
	"time"
)

func TestInferColumn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cells    []string
		expected ColumnType
		nulls    []int
	}{
		{
			name:     "all integers",
			cells:    []string{"1", "2", "-3"},
			expected: ColumnTypeInteger,
		},
		{
			name:     "integers with missing cells",
			cells:    []string{"1", "", "3", "nan"},
			expected: ColumnTypeInteger,
			nulls:    []int{1, 3},
		},
		{
			name:     "floats",
			cells:    []string{"1.5", "2", "3e2"},
			expected: ColumnTypeFloat,
		},
		{
			name:     "booleans case insensitive",
			cells:    []string{"true", "False", "TRUE"},
			expected: ColumnTypeBoolean,
		},
		{
			name:     "dates above the parse threshold",
			cells:    []string{"2024-01-01", "2024-01-02", "N/A"},
			expected: ColumnTypeDatetime,
			nulls:    []int{2},
		},
		{
			name:     "dates below the parse threshold",
			cells:    []string{"2024-01-01", "x", "y"},
			expected: ColumnTypeText,
		},
		{
			name:     "numbers mixed with text",
			cells:    []string{"1", "x"},
			expected: ColumnTypeText,
		},
		{
			name:     "time of day stays text",
			cells:    []string{"12:30:00", "13:45:10"},
			expected: ColumnTypeText,
		},
		{
			name:     "all missing",
			cells:    []string{"", "nan", "  "},
			expected: ColumnTypeText,
			nulls:    []int{0, 1, 2},
		},
		{
			name:     "empty column",
			cells:    nil,
			expected: ColumnTypeText,
		},
		{
			name:     "booleans mixed with text",
			cells:    []string{"true", "false", "maybe"},
			expected: ColumnTypeText,
		},
		{
			name:     "thousand separators stay text",
			cells:    []string{"1,000", "2,500"},
			expected: ColumnTypeText,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			col := InferColumn("c", tt.cells)
			if col.Type() != tt.expected {
				t.Fatalf("expected type %s, got %s", tt.expected, col.Type())
			}
			if col.Len() != len(tt.cells) {
				t.Fatalf("expected %d cells, got %d", len(tt.cells), col.Len())
			}

			nullSet := make(map[int]bool, len(tt.nulls))
			for _, i := range tt.nulls {
				nullSet[i] = true
			}
			for i := 0; i < col.Len(); i++ {
				if col.IsNull(i) != nullSet[i] {
					t.Errorf("row %d: expected null=%v, got null=%v", i, nullSet[i], col.IsNull(i))
				}
			}
		})
	}
}

func TestInferColumn_DatetimeDisambiguation(t *testing.T) {
	t.Parallel()

	// Ambiguous slash dates resolve month first, day-first input still
	// parses when the month position is out of range.
	col := InferColumn("d", []string{"1/2/2024", "13/1/2024"})
	if col.Type() != ColumnTypeDatetime {
		t.Fatalf("expected datetime column, got %s", col.Type())
	}

	want := []time.Time{
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC),
	}
	for i, w := range want {
		if !col.Time(i).Equal(w) {
			t.Errorf("row %d: expected %v, got %v", i, w, col.Time(i))
		}
	}
}

func TestInferColumn_TextKeepsCellsVerbatim(t *testing.T) {
	t.Parallel()

	cells := []string{"2024-01-01", " padded ", "y"}
	col := InferColumn("c", cells)
	if col.Type() != ColumnTypeText {
		t.Fatalf("expected text column, got %s", col.Type())
	}
	for i, cell := range cells {
		if col.Text(i) != cell {
			t.Errorf("row %d: expected %q, got %q", i, cell, col.Text(i))
		}
	}
}

func TestParseDatetime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    string
		ok       bool
		expected time.Time
	}{
		{
			name:     "ISO8601 with timezone",
			value:    "2024-03-01T10:30:00Z",
			ok:       true,
			expected: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			name:     "ISO8601 with fraction",
			value:    "2024-03-01T10:30:00.250",
			ok:       true,
			expected: time.Date(2024, 3, 1, 10, 30, 0, 250000000, time.UTC),
		},
		{
			name:     "date and time with space",
			value:    "2024-03-01 10:30:00",
			ok:       true,
			expected: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			name:     "date only",
			value:    "2024-03-01",
			ok:       true,
			expected: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "slash date with meridiem",
			value:    "1/2/2024 3:04:05 PM",
			ok:       true,
			expected: time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC),
		},
		{
			name:     "dot date day first fallback",
			value:    "31.1.2024",
			ok:       true,
			expected: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "impossible calendar date",
			value: "2024-02-30",
			ok:    false,
		},
		{
			name:  "plain word",
			value: "tomorrow",
			ok:    false,
		},
		{
			name:  "bare number",
			value: "20240301",
			ok:    false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := parseDatetime(tt.value)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got ok=%v", tt.ok, ok)
			}
			if tt.ok && !got.Equal(tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestNormalizeColumns(t *testing.T) {
	t.Parallel()

	labels := []string{"Name", "Score", "Visited At"}
	rows := [][]string{
		{"alice", "10", "2024-01-01"},
		{"bob", "20"},
	}

	columns := NormalizeColumns(labels, rows)
	if len(columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(columns))
	}

	names := []string{"name", "score", "visited_at"}
	types := []ColumnType{ColumnTypeText, ColumnTypeInteger, ColumnTypeDatetime}
	for i, c := range columns {
		if c.Name() != names[i] {
			t.Errorf("column %d: expected name %q, got %q", i, names[i], c.Name())
		}
		if c.Type() != types[i] {
			t.Errorf("column %d: expected type %s, got %s", i, types[i], c.Type())
		}
		if c.Len() != 2 {
			t.Errorf("column %d: expected 2 cells, got %d", i, c.Len())
		}
	}

	// The short second row pads the trailing column with a null.
	if !columns[2].IsNull(1) {
		t.Error("expected padded cell to be null")
	}
}
