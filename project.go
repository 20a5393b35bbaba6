package tabreport

// Projection is the unaggregated export view: a drop-list followed by a
// keep/reorder list. Values pass through unmodified and untyped.
type Projection struct {
	// Drop columns are removed when present; missing ones are ignored.
	Drop []string

	// Keep lists the output columns in their final order. Every keep column
	// must exist in the dataset.
	Keep []string
}

// Apply projects the table onto exactly the keep-list columns, in keep-list
// order. The output row count equals the input row count.
func (p Projection) Apply(t Table) (Table, error) {
	drop := make(map[string]bool, len(p.Drop))
	for _, c := range p.Drop {
		drop[c] = true
	}
	for _, c := range p.Keep {
		if drop[c] || !t.HasColumn(c) {
			return Table{}, &SchemaError{Column: c, Context: "raw projection"}
		}
	}

	out := Table{Columns: append([]string(nil), p.Keep...)}
	out.Rows = make([]Row, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = projectRow(row, p.Keep)
	}
	return out, nil
}
