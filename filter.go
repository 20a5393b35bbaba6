package tabreport

import (
	"strings"

	"github.com/expr-lang/expr/vm"
)

// Predicate marks rows for exclusion: any row whose Column equals Forbidden
// (trimmed, case-insensitive) is removed before grouping. BI exports use
// this for pre-aggregated placeholder rows, e.g. a dimension reading "All".
type Predicate struct {
	Column    string
	Forbidden string
}

// Filter removes non-substantive rows and unwanted columns ahead of any
// grouping or projection. It is side-effect-free: Apply returns a new Table.
type Filter struct {
	// DropColumns are removed from the output when present. Columns already
	// absent are ignored; exports add and remove junk columns freely.
	DropColumns []string

	// Exclude rows matching any predicate. Predicate columns must exist in
	// the dataset; a missing one is a SchemaError.
	Exclude []Predicate

	// Where is an optional boolean expression evaluated per row; rows for
	// which it returns false are removed. The row is bound to "r".
	Where string
}

// Apply returns the subsequence of rows satisfying none of the exclusion
// predicates and, when Where is set, satisfying the expression. Row order
// is preserved.
func (f Filter) Apply(t Table) (Table, error) {
	for _, p := range f.Exclude {
		if !t.HasColumn(p.Column) {
			return Table{}, &SchemaError{Column: p.Column, Context: "row filter"}
		}
	}

	columns := t.Columns
	if len(f.DropColumns) > 0 {
		drop := make(map[string]bool, len(f.DropColumns))
		for _, c := range f.DropColumns {
			drop[c] = true
		}
		columns = make([]string, 0, len(t.Columns))
		for _, c := range t.Columns {
			if !drop[c] {
				columns = append(columns, c)
			}
		}
	}

	var program *vm.Program
	if f.Where != "" {
		var err error
		program, err = compileRowExpr(f.Where)
		if err != nil {
			return Table{}, err
		}
	}

	out := Table{Columns: columns}
	for _, row := range t.Rows {
		if f.matchesExclusion(row) {
			continue
		}
		if program != nil {
			keep, err := evalRowExpr(program, f.Where, row)
			if err != nil {
				return Table{}, err
			}
			if !keep {
				continue
			}
		}
		out.Rows = append(out.Rows, projectRow(row, columns))
	}
	return out, nil
}

// matchesExclusion reports whether any predicate forbids the row.
func (f Filter) matchesExclusion(row Row) bool {
	for _, p := range f.Exclude {
		got := strings.TrimSpace(CellText(row[p.Column]))
		if strings.EqualFold(got, strings.TrimSpace(p.Forbidden)) {
			return true
		}
	}
	return false
}

// projectRow copies a row restricted to the given columns.
func projectRow(row Row, columns []string) Row {
	out := make(Row, len(columns))
	for _, c := range columns {
		if v, ok := row[c]; ok {
			out[c] = v
		}
	}
	return out
}
