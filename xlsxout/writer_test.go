package xlsxout

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/javajack/tabreport"
)

func sampleModel(name string) *tabreport.SheetModel {
	bold := tabreport.Style{Bold: true, HAlign: tabreport.AlignCenter}
	plain := tabreport.Style{HAlign: tabreport.AlignLeft}
	return &tabreport.SheetModel{
		Name:    name,
		Columns: []string{"Term", "Count"},
		Rows: []tabreport.SheetRow{
			{Role: tabreport.RoleHeader, Zebra: -1, Cells: []tabreport.Cell{
				{Value: "Term", Style: bold}, {Value: "Count", Style: bold},
			}},
			{Role: tabreport.RoleData, Zebra: 0, Cells: []tabreport.Cell{
				{Value: "Fall 2024", Style: plain}, {Value: 10.0, Style: plain},
			}},
			{Role: tabreport.RoleData, Zebra: 1, Cells: []tabreport.Cell{
				{Value: "Fall 2024", Style: plain}, {Value: 5.0, Style: plain},
			}},
		},
		Merges:       []tabreport.MergeRegion{{StartRow: 1, EndRow: 2, StartCol: 0, EndCol: 0}},
		Widths:       []float64{15, 15},
		FreezeHeader: true,
	}
}

// roundTrip writes the workbook and reopens it.
func roundTrip(t *testing.T, w *Writer) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	_, err := w.WriteTo(&buf)
	require.NoError(t, err)
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestAddSheet_RoundTrip(t *testing.T) {
	w := NewWriter()
	defer w.Close()
	require.NoError(t, w.AddSheet(sampleModel("Summary")))

	f := roundTrip(t, w)
	assert.Equal(t, []string{"Summary"}, f.GetSheetList())

	v, err := f.GetCellValue("Summary", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Fall 2024", v)

	merges, err := f.GetMergeCells("Summary")
	require.NoError(t, err)
	require.Len(t, merges, 1)
	assert.Equal(t, "A2", merges[0].GetStartAxis())
	assert.Equal(t, "A3", merges[0].GetEndAxis())
}

func TestAddSheet_MultipleSheets(t *testing.T) {
	w := NewWriter()
	defer w.Close()
	require.NoError(t, w.AddSheet(sampleModel("First")))
	require.NoError(t, w.AddSheet(sampleModel("Second")))

	f := roundTrip(t, w)
	assert.Equal(t, []string{"First", "Second"}, f.GetSheetList())
}

func TestAddSheet_TruncatesLongName(t *testing.T) {
	w := NewWriter()
	defer w.Close()
	long := strings.Repeat("x", 40)
	require.NoError(t, w.AddSheet(sampleModel(long)))

	f := roundTrip(t, w)
	assert.Equal(t, []string{strings.Repeat("x", 31)}, f.GetSheetList())
}

func TestStyleCache_ReusesDescriptors(t *testing.T) {
	w := NewWriter()
	defer w.Close()
	require.NoError(t, w.AddSheet(sampleModel("Summary")))

	// two distinct descriptors in the sample model
	assert.Len(t, w.styles, 2)
}

func TestWriteTo_EmptyWorkbook(t *testing.T) {
	w := NewWriter()
	defer w.Close()
	var buf bytes.Buffer
	_, err := w.WriteTo(&buf)
	assert.ErrorContains(t, err, "no sheets")
}
