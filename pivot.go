package tabreport

import (
	"errors"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// SubtotalSuffix is appended to the group key in a subtotal row's label
// column, e.g. "FALL 2025 Total".
const SubtotalSuffix = " Total"

// GrandTotalLabel is the group-column label of the final total row.
const GrandTotalLabel = "Grand Total"

// ErrNoRows is returned when a grouped report is requested over a dataset
// that is empty after filtering; no grand total can exist for it.
var ErrNoRows = errors.New("no data rows after filtering")

// PivotSpec describes how filtered rows become a grouped, subtotaled report.
type PivotSpec struct {
	// GroupColumn designates the grouping key. Groups appear in
	// first-occurrence order, never sorted.
	GroupColumn string

	// LabelColumns are the non-metric columns following the group column.
	// The first one receives the "<key> Total" subtotal label.
	LabelColumns []string

	// CategoryColumn and ValueColumn configure the optional long-to-wide
	// reshape: distinct category values become output columns fed from the
	// value column. Leave both empty for datasets that are already wide.
	CategoryColumn string
	ValueColumn    string

	// MetricColumns are summed into subtotal and grand-total rows.
	MetricColumns []string

	// ColumnOrder fixes the output column order. Empty means group column,
	// label columns, then metric columns.
	ColumnOrder []string
}

// reshapes reports whether a long-to-wide reshape is configured.
func (s PivotSpec) reshapes() bool {
	return s.CategoryColumn != "" && s.ValueColumn != ""
}

// outputColumns returns the final column order.
func (s PivotSpec) outputColumns() []string {
	if len(s.ColumnOrder) > 0 {
		return s.ColumnOrder
	}
	cols := make([]string, 0, 1+len(s.LabelColumns)+len(s.MetricColumns))
	cols = append(cols, s.GroupColumn)
	cols = append(cols, s.LabelColumns...)
	cols = append(cols, s.MetricColumns...)
	return cols
}

// Transform converts filtered rows into the role-tagged report sequence:
// one header row, data rows grouped in first-occurrence order, one subtotal
// row per group, and one grand-total row. The returned column list is the
// sheet's column order.
func (s PivotSpec) Transform(t Table) ([]TaggedRow, []string, error) {
	if err := s.validateSchema(t); err != nil {
		return nil, nil, err
	}

	rows := t.Rows
	if s.reshapes() {
		var err error
		rows, err = s.reshape(t)
		if err != nil {
			return nil, nil, err
		}
	}

	columns := s.outputColumns()
	rows, err := s.convertMetrics(rows)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, ErrNoRows
	}

	data := s.groupRows(rows, columns)
	tagged, err := s.assemble(data, columns)
	if err != nil {
		return nil, nil, err
	}
	return tagged, columns, nil
}

// validateSchema fails closed when a column the transformation needs is
// absent from the dataset.
func (s PivotSpec) validateSchema(t Table) error {
	if s.GroupColumn == "" {
		return &SchemaError{Column: "", Context: "pivot (no group column configured)"}
	}
	required := append([]string{s.GroupColumn}, s.LabelColumns...)
	if s.reshapes() {
		required = append(required, s.CategoryColumn, s.ValueColumn)
	} else {
		// Already-wide data must carry the metric columns itself.
		required = append(required, s.MetricColumns...)
	}
	for _, c := range required {
		if !t.HasColumn(c) {
			return &SchemaError{Column: c, Context: "pivot"}
		}
	}
	return nil
}

// reshape converts long-format rows (one row per category value) into wide
// rows keyed by the group and label columns. A key supplying the same
// category twice is an ambiguous collapse and fails.
func (s PivotSpec) reshape(t Table) ([]Row, error) {
	keyCols := append([]string{s.GroupColumn}, s.LabelColumns...)

	type wideEntry struct {
		row  Row
		seen map[string]bool
	}
	var order []string
	wide := make(map[string]*wideEntry)

	for _, in := range t.Rows {
		key := rowKey(in, keyCols)
		entry, ok := wide[key]
		if !ok {
			row := make(Row, len(keyCols)+4)
			for _, c := range keyCols {
				row[c] = in[c]
			}
			entry = &wideEntry{row: row, seen: make(map[string]bool)}
			wide[key] = entry
			order = append(order, key)
		}

		category := CellText(in[s.CategoryColumn])
		if entry.seen[category] {
			return nil, &AggregationConflictError{Key: key, Category: category}
		}
		entry.seen[category] = true
		entry.row[category] = in[s.ValueColumn]
	}

	out := make([]Row, len(order))
	for i, key := range order {
		out[i] = wide[key].row
	}
	return out, nil
}

// rowKey builds a composite key from the given columns.
func rowKey(row Row, cols []string) string {
	key := ""
	for i, c := range cols {
		if i > 0 {
			key += "\x1f"
		}
		key += CellText(row[c])
	}
	return key
}

// convertMetrics coerces every metric column to float64, producing new rows.
// Reshaped datasets may legitimately miss a metric column for some rows
// (a group with no occurrences of that measure); those convert to zero.
func (s PivotSpec) convertMetrics(rows []Row) ([]Row, error) {
	out := make([]Row, len(rows))
	for i, in := range rows {
		row := make(Row, len(in))
		for k, v := range in {
			row[k] = v
		}
		for _, m := range s.MetricColumns {
			f, ok := parseNumber(row[m])
			if !ok {
				return nil, &DataTypeError{Column: m, Row: i, Value: row[m]}
			}
			row[m] = f
		}
		out[i] = row
	}
	return out, nil
}

// groupRows tags every row as Data and orders them so groups are contiguous,
// in first-occurrence order of the group key. Intra-group order is the
// source encounter order.
func (s PivotSpec) groupRows(rows []Row, columns []string) []TaggedRow {
	var order []string
	grouped := make(map[string][]TaggedRow)

	for _, row := range rows {
		key := CellText(row[s.GroupColumn])
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], TaggedRow{
			Role:  RoleData,
			Group: key,
			Cells: projectRow(row, columns),
		})
	}

	var out []TaggedRow
	for _, key := range order {
		out = append(out, grouped[key]...)
	}
	return out
}

// assemble interleaves subtotal rows after each group's last data row,
// appends the grand-total row, and prefixes the header row. The grand total
// accumulated from subtotals is cross-checked against an independent sum
// over all data rows; the two must agree.
func (s PivotSpec) assemble(data []TaggedRow, columns []string) ([]TaggedRow, error) {
	subtotals, grand := sumByGroup(data, s.MetricColumns)

	if err := s.crossCheck(data, grand); err != nil {
		return nil, err
	}

	header := make(Row, len(columns))
	for _, c := range columns {
		header[c] = c
	}
	out := []TaggedRow{{Role: RoleHeader, Cells: header}}

	i := 0
	for _, st := range subtotals {
		for i < len(data) && data[i].Group == st.Group {
			out = append(out, data[i])
			i++
		}
		out = append(out, s.subtotalRow(st.Group, st.Sums))
	}
	out = append(out, s.grandTotalRow(grand))
	return out, nil
}

// subtotalRow builds the summary row for one group. The group column keeps
// the group key so the vertical merge over the group block stays exact; the
// first label column carries the "<key> Total" label.
func (s PivotSpec) subtotalRow(key string, sums map[string]float64) TaggedRow {
	row := make(Row, 1+len(s.LabelColumns)+len(s.MetricColumns))
	row[s.GroupColumn] = key
	for i, c := range s.LabelColumns {
		if i == 0 {
			row[c] = key + SubtotalSuffix
		} else {
			row[c] = ""
		}
	}
	for _, m := range s.MetricColumns {
		row[m] = sums[m]
	}
	return TaggedRow{Role: RoleSubtotal, Group: key, Cells: row}
}

// grandTotalRow builds the final summary row over all groups.
func (s PivotSpec) grandTotalRow(grand map[string]float64) TaggedRow {
	row := make(Row, 1+len(s.LabelColumns)+len(s.MetricColumns))
	row[s.GroupColumn] = GrandTotalLabel
	for _, c := range s.LabelColumns {
		row[c] = ""
	}
	for _, m := range s.MetricColumns {
		row[m] = grand[m]
	}
	return TaggedRow{Role: RoleGrandTotal, Cells: row}
}

// groupTotal holds one group's accumulated metric sums.
type groupTotal struct {
	Group string
	Sums  map[string]float64
}

// sumByGroup accumulates metric sums per group and overall. Only rows
// tagged Data participate; subtotal and grand-total rows are skipped, so
// running this over an already-assembled sequence cannot double-count.
func sumByGroup(rows []TaggedRow, metrics []string) ([]groupTotal, map[string]float64) {
	var order []string
	byGroup := make(map[string]map[string]float64)
	grand := make(map[string]float64, len(metrics))

	for _, r := range rows {
		if r.Role != RoleData {
			continue
		}
		sums, ok := byGroup[r.Group]
		if !ok {
			sums = make(map[string]float64, len(metrics))
			byGroup[r.Group] = sums
			order = append(order, r.Group)
		}
		for _, m := range metrics {
			f, _ := parseNumber(r.Cells[m])
			sums[m] += f
			grand[m] += f
		}
	}

	out := make([]groupTotal, len(order))
	for i, g := range order {
		out[i] = groupTotal{Group: g, Sums: byGroup[g]}
	}
	return out, grand
}

// crossCheck verifies the grand total accumulated through subtotals against
// an independent summation over all data rows. The two are required to
// agree; a mismatch means the aggregation itself is broken.
func (s PivotSpec) crossCheck(data []TaggedRow, grand map[string]float64) error {
	for _, m := range s.MetricColumns {
		values := make([]float64, 0, len(data))
		for _, r := range data {
			if r.Role != RoleData {
				continue
			}
			f, _ := parseNumber(r.Cells[m])
			values = append(values, f)
		}
		total, err := stats.Sum(values)
		if err != nil {
			return fmt.Errorf("grand total cross-check for %q: %w", m, err)
		}
		if math.Abs(total-grand[m]) > 1e-9 {
			return fmt.Errorf("grand total cross-check for %q: subtotal sum %v != data sum %v", m, grand[m], total)
		}
	}
	return nil
}
