package tabreport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// admissionsFixture returns a small dataset in the shape the BI source
// exports: one placeholder "All" row mixed in with real program rows.
func admissionsFixture() Table {
	return Table{
		Columns: []string{"Term", "Program", "Count", "Noise"},
		Rows: []Row{
			{"Term": "F24", "Program": "A", "Count": "10", "Noise": "x"},
			{"Term": "F24", "Program": "All", "Count": "99", "Noise": "x"},
			{"Term": "F24", "Program": "B", "Count": "5", "Noise": "x"},
			{"Term": "S25", "Program": "A", "Count": "3", "Noise": "x"},
		},
	}
}

func TestFilter_ForbiddenValueExcluded(t *testing.T) {
	f := Filter{
		DropColumns: []string{"Noise"},
		Exclude:     []Predicate{{Column: "Program", Forbidden: "All"}},
	}

	out, err := f.Apply(admissionsFixture())
	require.NoError(t, err)

	assert.Equal(t, []string{"Term", "Program", "Count"}, out.Columns)
	require.Len(t, out.Rows, 3)
	for _, row := range out.Rows {
		assert.NotEqual(t, "All", row["Program"])
		assert.NotContains(t, row, "Noise")
	}
	// Order preserved.
	assert.Equal(t, "A", out.Rows[0]["Program"])
	assert.Equal(t, "B", out.Rows[1]["Program"])
	assert.Equal(t, "S25", out.Rows[2]["Term"])
}

func TestFilter_CaseInsensitiveTrimmedMatch(t *testing.T) {
	in := Table{
		Columns: []string{"Program"},
		Rows:    []Row{{"Program": "  ALL "}, {"Program": "Arts"}},
	}
	out, err := Filter{Exclude: []Predicate{{Column: "Program", Forbidden: "All"}}}.Apply(in)
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "Arts", out.Rows[0]["Program"])
}

func TestFilter_MissingPredicateColumn(t *testing.T) {
	f := Filter{Exclude: []Predicate{{Column: "Absent", Forbidden: "All"}}}
	_, err := f.Apply(admissionsFixture())

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "Absent", schemaErr.Column)
}

func TestFilter_DropMissingColumnIgnored(t *testing.T) {
	f := Filter{DropColumns: []string{"Never Existed"}}
	out, err := f.Apply(admissionsFixture())
	require.NoError(t, err)
	assert.Len(t, out.Rows, 4)
	assert.Equal(t, []string{"Term", "Program", "Count", "Noise"}, out.Columns)
}

func TestFilter_WhereExpression(t *testing.T) {
	f := Filter{Where: `r["Program"] != "All" && r["Term"] == "F24"`}
	out, err := f.Apply(admissionsFixture())
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "A", out.Rows[0]["Program"])
	assert.Equal(t, "B", out.Rows[1]["Program"])
}

func TestFilter_WhereExpressionErrors(t *testing.T) {
	_, err := Filter{Where: `r["Program" !=`}.Apply(admissionsFixture())
	assert.Error(t, err)

	_, err = Filter{Where: `r["Program"]`}.Apply(admissionsFixture())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected bool")
}

func TestFilter_EmptyFilterPassesThrough(t *testing.T) {
	in := admissionsFixture()
	out, err := Filter{}.Apply(in)
	require.NoError(t, err)
	assert.Equal(t, in.Columns, out.Columns)
	assert.Len(t, out.Rows, len(in.Rows))
}
