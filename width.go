package tabreport

import "unicode/utf8"

// WidthOptions bound the column width calculation.
type WidthOptions struct {
	Padding int // added to the longest content length
	Max     int // hard cap, guards against outlier content
	Min     int // floor for columns with no measurable content
}

// DefaultWidthOptions returns the report's established width constants.
func DefaultWidthOptions() WidthOptions {
	return WidthOptions{Padding: 5, Max: 100, Min: 15}
}

// ComputeWidths derives per-column display widths from rendered cell
// content: the longest cell (or header) in the column plus padding, capped.
// Cells covered by a merge region are skipped so a wide merged label (e.g.
// "Grand Total" spanning several columns) does not stretch one column;
// such columns fall back to their header length. Widths are independent
// per column and per sheet.
func ComputeWidths(m *SheetModel, o WidthOptions) []float64 {
	merged := make(map[[2]int]bool)
	for _, mr := range m.Merges {
		for r := mr.StartRow; r <= mr.EndRow; r++ {
			for c := mr.StartCol; c <= mr.EndCol; c++ {
				merged[[2]int{r, c}] = true
			}
		}
	}

	widths := make([]float64, len(m.Columns))
	for ci, name := range m.Columns {
		longest := utf8.RuneCountInString(name)
		for ri, row := range m.Rows {
			if merged[[2]int{ri, ci}] {
				continue
			}
			if ci >= len(row.Cells) {
				continue
			}
			if n := utf8.RuneCountInString(CellText(row.Cells[ci].Value)); n > longest {
				longest = n
			}
		}

		w := longest + o.Padding
		if longest == 0 {
			w = o.Min
		}
		if w > o.Max {
			w = o.Max
		}
		if w < o.Min {
			w = o.Min
		}
		widths[ci] = float64(w)
	}
	return widths
}
