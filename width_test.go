package tabreport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeWidths_ContentPlusPadding(t *testing.T) {
	m := &SheetModel{
		Columns: []string{"Program"},
		Rows: []SheetRow{
			{Cells: []Cell{{Value: "Program"}}},
			{Cells: []Cell{{Value: "Data Analytics and Visualization"}}},
		},
	}
	widths := ComputeWidths(m, DefaultWidthOptions())
	require.Len(t, widths, 1)
	assert.Equal(t, float64(len("Data Analytics and Visualization")+5), widths[0])
}

func TestComputeWidths_CapAndFloor(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	m := &SheetModel{
		Columns: []string{"A", "B"},
		Rows: []SheetRow{
			{Cells: []Cell{{Value: string(long)}, {Value: nil}}},
		},
	}
	widths := ComputeWidths(m, WidthOptions{Padding: 5, Max: 100, Min: 15})
	assert.Equal(t, float64(100), widths[0]) // capped
	assert.Equal(t, float64(15), widths[1])  // header "B" alone falls to the floor
}

func TestComputeWidths_SkipsMergedCells(t *testing.T) {
	// A long label merged across several columns must not stretch the
	// first column; the column falls back to header/content length.
	m := &SheetModel{
		Columns: []string{"Term", "Program"},
		Rows: []SheetRow{
			{Cells: []Cell{{Value: "Term"}, {Value: "Program"}}},
			{Cells: []Cell{{Value: "An Extremely Long Grand Total Label"}, {Value: ""}}},
		},
		Merges: []MergeRegion{{StartRow: 1, EndRow: 1, StartCol: 0, EndCol: 1}},
	}
	widths := ComputeWidths(m, DefaultWidthOptions())
	assert.Equal(t, float64(len("Term")+5), widths[0])
	assert.Equal(t, float64(len("Program")+5), widths[1])
}

func TestComputeWidths_NumericRendering(t *testing.T) {
	// Floats holding integral values measure without a decimal tail.
	m := &SheetModel{
		Columns: []string{"N"},
		Rows:    []SheetRow{{Cells: []Cell{{Value: float64(1204)}}}},
	}
	widths := ComputeWidths(m, WidthOptions{Padding: 0, Max: 100, Min: 1})
	assert.Equal(t, float64(4), widths[0])
}
