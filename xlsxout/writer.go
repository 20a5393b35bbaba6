// Package xlsxout renders sheet models into an .xlsx workbook with
// excelize. It applies values, styles, merges, column widths, and freeze
// panes exactly as the model describes, adding no look of its own.
package xlsxout

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/javajack/tabreport"
)

// sheetNameLimit is the workbook format's hard cap on sheet name length.
const sheetNameLimit = 31

// Writer accumulates sheets into one workbook. Not safe for concurrent use;
// render models in parallel, then add them from one goroutine.
type Writer struct {
	f      *excelize.File
	styles map[tabreport.Style]int // descriptor -> registered style id
	sheets int
}

// NewWriter opens an empty workbook.
func NewWriter() *Writer {
	return &Writer{
		f:      excelize.NewFile(),
		styles: make(map[tabreport.Style]int),
	}
}

// AddSheet renders one model as the workbook's next sheet. The first sheet
// replaces the default empty one. Names longer than the format's 31-char
// limit are truncated.
func (w *Writer) AddSheet(m *tabreport.SheetModel) error {
	name := m.Name
	if len(name) > sheetNameLimit {
		name = name[:sheetNameLimit]
	}

	if w.sheets == 0 {
		if err := w.f.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("xlsxout: rename first sheet: %w", err)
		}
	} else if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("xlsxout: add sheet %q: %w", name, err)
	}
	w.sheets++

	for ri, row := range m.Rows {
		for ci, cell := range row.Cells {
			ref, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			if err != nil {
				return fmt.Errorf("xlsxout: cell (%d,%d): %w", ri, ci, err)
			}
			if err := w.f.SetCellValue(name, ref, cell.Value); err != nil {
				return fmt.Errorf("xlsxout: set %s!%s: %w", name, ref, err)
			}
			styleID, err := w.styleID(cell.Style)
			if err != nil {
				return err
			}
			if err := w.f.SetCellStyle(name, ref, ref, styleID); err != nil {
				return fmt.Errorf("xlsxout: style %s!%s: %w", name, ref, err)
			}
		}
	}

	for _, mr := range m.Merges {
		start, err := excelize.CoordinatesToCellName(mr.StartCol+1, mr.StartRow+1)
		if err != nil {
			return fmt.Errorf("xlsxout: merge start: %w", err)
		}
		end, err := excelize.CoordinatesToCellName(mr.EndCol+1, mr.EndRow+1)
		if err != nil {
			return fmt.Errorf("xlsxout: merge end: %w", err)
		}
		if err := w.f.MergeCell(name, start, end); err != nil {
			return fmt.Errorf("xlsxout: merge %s:%s: %w", start, end, err)
		}
	}

	for ci, width := range m.Widths {
		col, err := excelize.ColumnNumberToName(ci + 1)
		if err != nil {
			return fmt.Errorf("xlsxout: column %d: %w", ci, err)
		}
		if err := w.f.SetColWidth(name, col, col, width); err != nil {
			return fmt.Errorf("xlsxout: width %s: %w", col, err)
		}
	}

	if m.FreezeHeader {
		err := w.f.SetPanes(name, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
		if err != nil {
			return fmt.Errorf("xlsxout: freeze header: %w", err)
		}
	}
	return nil
}

// WriteTo serializes the workbook. At least one sheet must have been added.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	if w.sheets == 0 {
		return 0, fmt.Errorf("xlsxout: workbook has no sheets")
	}
	return w.f.WriteTo(out)
}

// SaveAs writes the workbook to a file path.
func (w *Writer) SaveAs(path string) error {
	if w.sheets == 0 {
		return fmt.Errorf("xlsxout: workbook has no sheets")
	}
	return w.f.SaveAs(path)
}

// Close releases the underlying workbook.
func (w *Writer) Close() error {
	return w.f.Close()
}

// styleID registers a style descriptor once and reuses its id thereafter.
// Workbooks cap the style table, so models sharing descriptors must share
// entries.
func (w *Writer) styleID(s tabreport.Style) (int, error) {
	if id, ok := w.styles[s]; ok {
		return id, nil
	}

	xs := &excelize.Style{
		Font:      &excelize.Font{Bold: s.Bold},
		Alignment: &excelize.Alignment{Horizontal: string(s.HAlign), Vertical: "center"},
		Border:    borders(s.Border),
	}
	if s.FillColor != "" {
		xs.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{s.FillColor}}
	}

	id, err := w.f.NewStyle(xs)
	if err != nil {
		return 0, fmt.Errorf("xlsxout: register style: %w", err)
	}
	w.styles[s] = id
	return id, nil
}

func borders(b tabreport.BorderSet) []excelize.Border {
	var out []excelize.Border
	for _, e := range []struct {
		kind string
		line tabreport.Line
	}{
		{"left", b.Left},
		{"right", b.Right},
		{"top", b.Top},
		{"bottom", b.Bottom},
	} {
		if e.line.Style == tabreport.LineNone {
			continue
		}
		out = append(out, excelize.Border{
			Type:  e.kind,
			Style: borderWeight(e.line.Style),
			Color: e.line.Color,
		})
	}
	return out
}

func borderWeight(s tabreport.LineStyle) int {
	if s == tabreport.LineMedium {
		return 2
	}
	return 1
}
