// Package tabreport transforms flat BI exports into grouped, subtotaled
// report tables and derives the spreadsheet layout (merge regions, row
// styling, column widths) needed to render them. The package is purely
// functional: every stage consumes a complete row set and produces a new
// one; inputs are never mutated.
package tabreport

import (
	"fmt"
	"strconv"
	"strings"
)

// Row maps a column name to a scalar cell value (string, number, or nil).
type Row map[string]any

// Table is an ordered set of rows. Columns carries the column order, since
// Row itself is an unordered map.
type Table struct {
	Columns []string
	Rows    []Row
}

// HasColumn reports whether the table declares the named column.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// columnIndex returns the position of a column, or -1 if absent.
func (t Table) columnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// CellText renders a cell value the way it will appear in the sheet.
// Integral floats render without a decimal point, nil renders empty.
func CellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// parseNumber converts a raw cell value to float64. Strings may carry
// thousands separators ("1,204") which BI CSV exports commonly include.
// nil and empty strings convert to zero; anything else that fails to parse
// is reported by the caller as a DataTypeError.
func parseNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(x, ",", ""))
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
