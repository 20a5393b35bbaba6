package tabreport

// Alignment of a cell's content.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
)

// LineStyle is the weight of one border edge.
type LineStyle string

const (
	LineNone   LineStyle = ""
	LineThin   LineStyle = "thin"
	LineMedium LineStyle = "medium"
)

// Line is one border edge: weight plus RGB hex color.
type Line struct {
	Style LineStyle
	Color string
}

// BorderSet holds the four edges of one cell.
type BorderSet struct {
	Left, Right, Top, Bottom Line
}

// Style is the visual descriptor for one cell. It is a plain value type so
// writers can cache rendered styles by descriptor.
type Style struct {
	FillColor string // RGB hex, empty for no fill
	Bold      bool
	HAlign    Alignment
	Border    BorderSet
}

// Palette holds the fill and border colors used across a report. The zero
// value is not useful; use DefaultPalette.
type Palette struct {
	ZebraFill      string
	SubtotalFill   string
	GrandTotalFill string
	InnerBorder    string
	FrameBorder    string
}

// DefaultPalette mirrors the report's established look: light zebra
// striping, progressively darker total fills, white inner grid inside a
// medium black frame.
func DefaultPalette() Palette {
	return Palette{
		ZebraFill:      "F2F2F2",
		SubtotalFill:   "D9D9D9",
		GrandTotalFill: "C9C9C9",
		InnerBorder:    "FFFFFF",
		FrameBorder:    "000000",
	}
}

// StyleEngine maps structural metadata (role, zebra index, column kind,
// sheet position) to visual attributes. It never inspects cell values, so
// the mapping is testable in isolation from aggregation.
type StyleEngine struct {
	palette Palette
	metric  map[string]bool      // metric columns: center-aligned
	aligned map[string]Alignment // per-column overrides for label columns
	groupCol string
}

// NewStyleEngine builds a style engine for the given column configuration.
func NewStyleEngine(palette Palette, groupColumn string, metricColumns []string, overrides map[string]Alignment) *StyleEngine {
	metric := make(map[string]bool, len(metricColumns))
	for _, c := range metricColumns {
		metric[c] = true
	}
	return &StyleEngine{
		palette:  palette,
		metric:   metric,
		aligned:  overrides,
		groupCol: groupColumn,
	}
}

// Apply fills in the style of every cell in the model. Fill, font, and
// border depend only on the row's role and position; alignment additionally
// depends on the column kind.
func (e *StyleEngine) Apply(m *SheetModel) {
	lastRow := len(m.Rows) - 1
	lastCol := len(m.Columns) - 1

	for ri := range m.Rows {
		row := &m.Rows[ri]
		for ci := range row.Cells {
			row.Cells[ci].Style = e.cellStyle(row, m.Columns[ci], ri, ci, lastRow, lastCol)
		}
	}
}

// cellStyle computes one cell's descriptor.
func (e *StyleEngine) cellStyle(row *SheetRow, column string, ri, ci, lastRow, lastCol int) Style {
	s := Style{HAlign: e.alignment(row.Role, column)}

	switch row.Role {
	case RoleHeader:
		s.Bold = true
	case RoleData:
		if row.Zebra == 0 {
			s.FillColor = e.palette.ZebraFill
		}
	case RoleSubtotal:
		s.FillColor = e.palette.SubtotalFill
		s.Bold = true
	case RoleGrandTotal:
		s.FillColor = e.palette.GrandTotalFill
		s.Bold = true
	}

	s.Border = e.borders(row.Role, ri, ci, lastRow, lastCol)
	return s
}

// alignment: metric cells and header cells center; the group column centers
// so merged group labels sit mid-block; other label columns default left
// unless overridden.
func (e *StyleEngine) alignment(role RowRole, column string) Alignment {
	if role == RoleHeader {
		return AlignCenter
	}
	if e.metric[column] || column == e.groupCol {
		return AlignCenter
	}
	if a, ok := e.aligned[column]; ok {
		return a
	}
	return AlignLeft
}

// borders draws a thin white inner grid inside a medium frame. Header and
// total rows get medium horizontal rules; the sheet's outer edge is always
// medium.
func (e *StyleEngine) borders(role RowRole, ri, ci, lastRow, lastCol int) BorderSet {
	thin := Line{Style: LineThin, Color: e.palette.InnerBorder}
	medium := Line{Style: LineMedium, Color: e.palette.FrameBorder}

	b := BorderSet{Left: thin, Right: thin, Top: thin, Bottom: thin}
	if ci == 0 {
		b.Left = medium
	}
	if ci == lastCol {
		b.Right = medium
	}
	if ri == 0 {
		b.Top = medium
	}
	if ri == lastRow {
		b.Bottom = medium
	}
	switch role {
	case RoleHeader, RoleSubtotal, RoleGrandTotal:
		b.Top = medium
		b.Bottom = medium
	}
	return b
}
