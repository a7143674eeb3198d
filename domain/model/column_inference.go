// Package model provides the domain model for sheetsql.
package model

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// datetimeRatioThreshold is the fraction of non-missing cells that must
// parse as datetimes before a column commits to the datetime type.
// Spreadsheets routinely mix a few stray text entries into otherwise
// date-shaped columns, so requiring a full parse would reject real
// data. This is a heuristic, not a guarantee.
const datetimeRatioThreshold = 0.6

// Common datetime patterns to detect. Slash and dot dates list their
// month-first layouts before the day-first ones, so ambiguous dates
// resolve month-first and unambiguous day-first dates still parse.
var datetimePatterns = []struct {
	pattern *regexp.Regexp
	formats []string // Multiple formats for the same pattern
}{
	// ISO8601 formats with timezone
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`),
		[]string{time.RFC3339, time.RFC3339Nano},
	},
	// ISO8601 formats without timezone
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?$`),
		[]string{"2006-01-02T15:04:05", "2006-01-02T15:04:05.999999999"},
	},
	// ISO8601 date and time with space
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d+)?$`),
		[]string{"2006-01-02 15:04:05", "2006-01-02 15:04:05.999999999"},
	},
	// ISO8601 date only
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
		[]string{"2006-01-02"},
	},
	// Slash-separated dates with time
	{
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4} \d{1,2}:\d{2}:\d{2}( (AM|PM))?$`),
		[]string{"1/2/2006 15:04:05", "1/2/2006 3:04:05 PM", "2/1/2006 15:04:05"},
	},
	// Slash-separated dates
	{
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`),
		[]string{"1/2/2006", "2/1/2006"},
	},
	// Dot-separated dates with time
	{
		regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4} \d{1,2}:\d{2}:\d{2}$`),
		[]string{"1.2.2006 15:04:05", "2.1.2006 15:04:05"},
	},
	// Dot-separated dates
	{
		regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}$`),
		[]string{"1.2.2006", "2.1.2006"},
	},
}

// isMissingValue reports whether a raw cell or label represents a
// missing observation: blank after trimming, or a spreadsheet NaN
// literal.
func isMissingValue(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || strings.EqualFold(value, "nan")
}

// parseDatetime parses a single cell as a datetime. It reports whether
// any known pattern matched.
func parseDatetime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, dp := range datetimePatterns {
		if !dp.pattern.MatchString(value) {
			continue
		}
		// Try each format for this pattern
		for _, format := range dp.formats {
			if t, err := time.Parse(format, value); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// parseBool parses the boolean vocabulary used by spreadsheet exports.
func parseBool(value string) (b, ok bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// InferColumn inspects the raw cells of a single column and commits to
// the narrowest semantic type that explains every non-missing cell.
// Missing cells become nulls. The stages run in order: boolean,
// integer, float, then a bulk datetime parse that commits when the
// parsed fraction of non-missing cells reaches datetimeRatioThreshold.
// Columns that pass no stage stay text with cells kept verbatim.
func InferColumn(name string, cells []string) *Column {
	n := len(cells)
	valid := make([]bool, n)
	nonMissing := 0
	for i, cell := range cells {
		if !isMissingValue(cell) {
			valid[i] = true
			nonMissing++
		}
	}
	if nonMissing == 0 {
		return NewTextColumn(name, make([]string, n), valid)
	}

	if bools, ok := sniffBooleans(cells, valid); ok {
		return NewBooleanColumn(name, bools, valid)
	}
	if ints, ok := sniffIntegers(cells, valid); ok {
		return NewIntegerColumn(name, ints, valid)
	}
	if floats, ok := sniffFloats(cells, valid); ok {
		return NewFloatColumn(name, floats, valid)
	}
	if times, timesValid, ok := sniffDatetimes(cells, valid, nonMissing); ok {
		return NewDatetimeColumn(name, times, timesValid)
	}

	texts := make([]string, n)
	for i, cell := range cells {
		if valid[i] {
			texts[i] = cell
		}
	}
	return NewTextColumn(name, texts, valid)
}

// sniffBooleans reports whether every non-missing cell is a boolean
// literal.
func sniffBooleans(cells []string, valid []bool) ([]bool, bool) {
	out := make([]bool, len(cells))
	for i, cell := range cells {
		if !valid[i] {
			continue
		}
		b, ok := parseBool(cell)
		if !ok {
			return nil, false
		}
		out[i] = b
	}
	return out, true
}

// sniffIntegers reports whether every non-missing cell parses as a
// base-10 integer.
func sniffIntegers(cells []string, valid []bool) ([]int64, bool) {
	out := make([]int64, len(cells))
	for i, cell := range cells {
		if !valid[i] {
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// sniffFloats reports whether every non-missing cell parses as a float.
func sniffFloats(cells []string, valid []bool) ([]float64, bool) {
	out := make([]float64, len(cells))
	for i, cell := range cells {
		if !valid[i] {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// sniffDatetimes bulk-parses the non-missing cells as datetimes. It
// commits when the parsed fraction reaches datetimeRatioThreshold;
// cells that fail to parse become nulls.
func sniffDatetimes(cells []string, valid []bool, nonMissing int) ([]time.Time, []bool, bool) {
	times := make([]time.Time, len(cells))
	timesValid := make([]bool, len(cells))
	parsed := 0
	for i, cell := range cells {
		if !valid[i] {
			continue
		}
		if t, ok := parseDatetime(cell); ok {
			times[i] = t
			timesValid[i] = true
			parsed++
		}
	}
	if parsed == 0 || float64(parsed) < datetimeRatioThreshold*float64(nonMissing) {
		return nil, nil, false
	}
	return times, timesValid, true
}

// NormalizeColumns sanitizes the raw labels and infers a typed column
// for each source column. Rows shorter than the label list contribute
// missing cells to the remaining columns.
func NormalizeColumns(labels []string, rows [][]string) []*Column {
	names := SanitizeHeaders(labels)
	columns := make([]*Column, len(names))
	for i, name := range names {
		cells := make([]string, 0, len(rows))
		for _, row := range rows {
			if i < len(row) {
				cells = append(cells, row[i])
			} else {
				cells = append(cells, "")
			}
		}
		columns[i] = InferColumn(name, cells)
	}
	return columns
}
