package tabreport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wideFixture is the canonical grouped dataset: two F24 rows, one S25 row,
// already in wide form.
func wideFixture() Table {
	return Table{
		Columns: []string{"Term", "Program", "Count"},
		Rows: []Row{
			{"Term": "F24", "Program": "A", "Count": "10"},
			{"Term": "F24", "Program": "B", "Count": "5"},
			{"Term": "S25", "Program": "A", "Count": "3"},
		},
	}
}

func wideSpec() PivotSpec {
	return PivotSpec{
		GroupColumn:   "Term",
		LabelColumns:  []string{"Program"},
		MetricColumns: []string{"Count"},
	}
}

func TestPivot_SubtotalsAndGrandTotal(t *testing.T) {
	tagged, columns, err := wideSpec().Transform(wideFixture())
	require.NoError(t, err)
	assert.Equal(t, []string{"Term", "Program", "Count"}, columns)

	// Header; (F24,A,10); (F24,B,5); (F24 Total,15); (S25,A,3);
	// (S25 Total,3); (Grand Total,18).
	require.Len(t, tagged, 7)

	assert.Equal(t, RoleHeader, tagged[0].Role)
	assert.Equal(t, "Term", tagged[0].Cells["Term"])

	assert.Equal(t, RoleData, tagged[1].Role)
	assert.Equal(t, float64(10), tagged[1].Cells["Count"])
	assert.Equal(t, RoleData, tagged[2].Role)

	sub := tagged[3]
	assert.Equal(t, RoleSubtotal, sub.Role)
	assert.Equal(t, "F24", sub.Group)
	assert.Equal(t, "F24", sub.Cells["Term"])
	assert.Equal(t, "F24 Total", sub.Cells["Program"])
	assert.Equal(t, float64(15), sub.Cells["Count"])

	assert.Equal(t, RoleData, tagged[4].Role)
	assert.Equal(t, "S25", tagged[4].Group)

	sub = tagged[5]
	assert.Equal(t, RoleSubtotal, sub.Role)
	assert.Equal(t, "S25 Total", sub.Cells["Program"])
	assert.Equal(t, float64(3), sub.Cells["Count"])

	grand := tagged[6]
	assert.Equal(t, RoleGrandTotal, grand.Role)
	assert.Equal(t, GrandTotalLabel, grand.Cells["Term"])
	assert.Equal(t, float64(18), grand.Cells["Count"])
}

func TestPivot_GroupOrderIsFirstOccurrence(t *testing.T) {
	// S25 appears first and interleaves with F24; output must keep S25
	// first and gather each group's rows contiguously, never sorted.
	in := Table{
		Columns: []string{"Term", "Program", "Count"},
		Rows: []Row{
			{"Term": "S25", "Program": "A", "Count": 1},
			{"Term": "F24", "Program": "A", "Count": 2},
			{"Term": "S25", "Program": "B", "Count": 3},
		},
	}
	tagged, _, err := wideSpec().Transform(in)
	require.NoError(t, err)

	var groups []string
	for _, r := range tagged {
		if r.Role == RoleSubtotal {
			groups = append(groups, r.Group)
		}
	}
	assert.Equal(t, []string{"S25", "F24"}, groups)

	// S25 data rows stay in encounter order.
	assert.Equal(t, float64(1), tagged[1].Cells["Count"])
	assert.Equal(t, float64(3), tagged[2].Cells["Count"])
}

func TestPivot_RoleCompleteness(t *testing.T) {
	tagged, _, err := wideSpec().Transform(wideFixture())
	require.NoError(t, err)

	headers, grands := 0, 0
	subtotals := map[string]int{}
	for _, r := range tagged {
		switch r.Role {
		case RoleHeader:
			headers++
		case RoleGrandTotal:
			grands++
		case RoleSubtotal:
			subtotals[r.Group]++
		}
	}
	assert.Equal(t, 1, headers)
	assert.Equal(t, 1, grands)
	assert.Equal(t, map[string]int{"F24": 1, "S25": 1}, subtotals)
	assert.Equal(t, RoleHeader, tagged[0].Role)
	assert.Equal(t, RoleGrandTotal, tagged[len(tagged)-1].Role)
}

func TestPivot_Reshape(t *testing.T) {
	// Long format: one row per (key, measure) pair.
	in := Table{
		Columns: []string{"Term", "Program", "Measure Names", "Measure Values"},
		Rows: []Row{
			{"Term": "F24", "Program": "A", "Measure Names": "Submitted", "Measure Values": "12"},
			{"Term": "F24", "Program": "A", "Measure Names": "Admitted", "Measure Values": "7"},
			{"Term": "F24", "Program": "B", "Measure Names": "Submitted", "Measure Values": "4"},
		},
	}
	spec := PivotSpec{
		GroupColumn:    "Term",
		LabelColumns:   []string{"Program"},
		CategoryColumn: "Measure Names",
		ValueColumn:    "Measure Values",
		MetricColumns:  []string{"Submitted", "Admitted"},
	}

	tagged, columns, err := spec.Transform(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"Term", "Program", "Submitted", "Admitted"}, columns)

	// Two wide data rows, one subtotal, one grand total, one header.
	require.Len(t, tagged, 5)
	a := tagged[1]
	assert.Equal(t, float64(12), a.Cells["Submitted"])
	assert.Equal(t, float64(7), a.Cells["Admitted"])

	// Program B never reported an Admitted measure: zero-filled.
	b := tagged[2]
	assert.Equal(t, float64(4), b.Cells["Submitted"])
	assert.Equal(t, float64(0), b.Cells["Admitted"])

	sub := tagged[3]
	assert.Equal(t, float64(16), sub.Cells["Submitted"])
	assert.Equal(t, float64(7), sub.Cells["Admitted"])
}

func TestPivot_ReshapeConflict(t *testing.T) {
	in := Table{
		Columns: []string{"Term", "Program", "Measure Names", "Measure Values"},
		Rows: []Row{
			{"Term": "F24", "Program": "A", "Measure Names": "Submitted", "Measure Values": "12"},
			{"Term": "F24", "Program": "A", "Measure Names": "Submitted", "Measure Values": "8"},
		},
	}
	spec := PivotSpec{
		GroupColumn:    "Term",
		LabelColumns:   []string{"Program"},
		CategoryColumn: "Measure Names",
		ValueColumn:    "Measure Values",
		MetricColumns:  []string{"Submitted"},
	}

	_, _, err := spec.Transform(in)
	var conflict *AggregationConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Submitted", conflict.Category)
}

func TestPivot_DataTypeError(t *testing.T) {
	in := wideFixture()
	in.Rows[1]["Count"] = "not a number"

	_, _, err := wideSpec().Transform(in)
	var typeErr *DataTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "Count", typeErr.Column)
	assert.Equal(t, 1, typeErr.Row)
}

func TestPivot_ThousandsSeparators(t *testing.T) {
	in := Table{
		Columns: []string{"Term", "Program", "Count"},
		Rows:    []Row{{"Term": "F24", "Program": "A", "Count": "1,204"}},
	}
	tagged, _, err := wideSpec().Transform(in)
	require.NoError(t, err)
	assert.Equal(t, float64(1204), tagged[1].Cells["Count"])
}

func TestPivot_MissingColumns(t *testing.T) {
	in := Table{Columns: []string{"Term", "Program"}, Rows: []Row{{"Term": "F24", "Program": "A"}}}

	_, _, err := wideSpec().Transform(in)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "Count", schemaErr.Column)
}

func TestPivot_EmptyInput(t *testing.T) {
	in := Table{Columns: []string{"Term", "Program", "Count"}}
	_, _, err := wideSpec().Transform(in)
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestPivot_NoReshapeMode(t *testing.T) {
	// No category/value columns configured: filter+subtotal only, data
	// passes through wide.
	spec := wideSpec()
	assert.False(t, spec.reshapes())

	tagged, _, err := spec.Transform(wideFixture())
	require.NoError(t, err)
	assert.Len(t, tagged, 7)
}

func TestPivot_AggregationSkipsTaggedTotals(t *testing.T) {
	// Re-running the aggregation over an already-assembled sequence must
	// reproduce the same totals: subtotal and grand-total rows never feed
	// back into the sums.
	tagged, _, err := wideSpec().Transform(wideFixture())
	require.NoError(t, err)

	subtotals, grand := sumByGroup(tagged, []string{"Count"})
	require.Len(t, subtotals, 2)
	assert.Equal(t, float64(15), subtotals[0].Sums["Count"])
	assert.Equal(t, float64(3), subtotals[1].Sums["Count"])
	assert.Equal(t, float64(18), grand["Count"])

	// And once more over a sequence containing only the Data rows.
	var dataOnly []TaggedRow
	for _, r := range tagged {
		if r.Role == RoleData {
			dataOnly = append(dataOnly, r)
		}
	}
	subtotals2, grand2 := sumByGroup(dataOnly, []string{"Count"})
	assert.Equal(t, subtotals, subtotals2)
	assert.Equal(t, grand, grand2)
}

func TestPivot_ColumnOrderOverride(t *testing.T) {
	spec := wideSpec()
	spec.ColumnOrder = []string{"Term", "Program", "Count", "Extra"}

	tagged, columns, err := spec.Transform(wideFixture())
	require.NoError(t, err)
	assert.Equal(t, spec.ColumnOrder, columns)
	// The configured extra column renders empty.
	_, ok := tagged[1].Cells["Extra"]
	assert.False(t, ok)
}
