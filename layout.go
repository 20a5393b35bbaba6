package tabreport

// MergeRegion is a rectangular block of the rendered sheet treated as one
// visual cell. Rows and columns are zero-based and inclusive.
type MergeRegion struct {
	StartRow, EndRow int
	StartCol, EndCol int
}

// Cell is a rendered cell: its value plus the visual style the writer
// should apply.
type Cell struct {
	Value any
	Style Style
}

// SheetRow is one rendered row with its structural metadata. Zebra is the
// ordinal of a Data row within its group modulo 2, -1 for non-data rows.
type SheetRow struct {
	Role  RowRole
	Group string
	Zebra int
	Cells []Cell
}

// SheetModel is everything a document writer needs to render one sheet:
// rows with styled cells, the merge-region set, and per-column widths.
// It is built once per view and must not be mutated after being handed off.
type SheetModel struct {
	Name         string
	Columns      []string
	Rows         []SheetRow
	Merges       []MergeRegion
	Widths       []float64
	FreezeHeader bool
}

// LayoutSpec tells the layout scan which columns carry group and label
// content, for merge-region derivation.
type LayoutSpec struct {
	GroupColumn  string
	LabelColumns []string
}

// scanState drives the single-pass layout scan. Transitions depend only on
// each row's role (and group key for boundary detection), never on values.
type scanState int

const (
	scanAwaitHeader scanState = iota
	scanBetweenGroups
	scanInGroup
	scanAtSubtotal
	scanDone
)

// BuildLayout scans a role-tagged row sequence once and produces the sheet
// rows plus merge regions: one vertical region per group in the group
// column spanning its Data and Subtotal rows, one horizontal region across
// a subtotal row's label columns, and one across the grand-total row's
// label cells. Any sequence that violates the role state machine fails
// with a LayoutError.
func BuildLayout(name string, columns []string, rows []TaggedRow, spec LayoutSpec) (*SheetModel, error) {
	groupCol := indexOf(columns, spec.GroupColumn)
	if groupCol < 0 {
		return nil, &SchemaError{Column: spec.GroupColumn, Context: "layout"}
	}
	firstLabel, lastLabel := -1, -1
	for _, c := range spec.LabelColumns {
		idx := indexOf(columns, c)
		if idx < 0 {
			return nil, &SchemaError{Column: c, Context: "layout"}
		}
		if firstLabel < 0 || idx < firstLabel {
			firstLabel = idx
		}
		if idx > lastLabel {
			lastLabel = idx
		}
	}

	m := &SheetModel{
		Name:         name,
		Columns:      append([]string(nil), columns...),
		FreezeHeader: true,
	}

	state := scanAwaitHeader
	currentGroup := ""
	groupStart := -1 // sheet row index of the current group's first data row
	zebra := 0

	closeGroup := func(endRow int) {
		// A single-cell region is not a merge; alignment still applies.
		if groupStart >= 0 && endRow > groupStart {
			m.Merges = append(m.Merges, MergeRegion{
				StartRow: groupStart, EndRow: endRow,
				StartCol: groupCol, EndCol: groupCol,
			})
		}
		groupStart = -1
	}

	for i, r := range rows {
		switch state {
		case scanDone:
			return nil, &LayoutError{Row: i, Message: "row after grand total"}

		case scanAwaitHeader:
			if r.Role != RoleHeader {
				return nil, &LayoutError{Row: i, Message: "sheet must start with the header row, got " + r.Role.String()}
			}
			state = scanBetweenGroups

		case scanBetweenGroups:
			switch r.Role {
			case RoleData:
				currentGroup = r.Group
				groupStart = i
				zebra = 0
				state = scanInGroup
			default:
				return nil, &LayoutError{Row: i, Message: r.Role.String() + " row without preceding data rows"}
			}

		case scanInGroup:
			switch r.Role {
			case RoleData:
				if r.Group != currentGroup {
					// Boundary by key change: previous group had no subtotal.
					closeGroup(i - 1)
					currentGroup = r.Group
					groupStart = i
					zebra = 0
				} else {
					zebra++
				}
			case RoleSubtotal:
				if r.Group != currentGroup {
					return nil, &LayoutError{Row: i, Message: "subtotal for group " + r.Group + " inside group " + currentGroup}
				}
				closeGroup(i) // region spans the group's data rows plus this subtotal
				if firstLabel >= 0 && lastLabel > firstLabel {
					m.Merges = append(m.Merges, MergeRegion{
						StartRow: i, EndRow: i,
						StartCol: firstLabel, EndCol: lastLabel,
					})
				}
				state = scanAtSubtotal
			case RoleGrandTotal:
				closeGroup(i - 1)
				appendGrandTotalMerge(m, i, groupCol, lastLabel)
				state = scanDone
			default:
				return nil, &LayoutError{Row: i, Message: "unexpected " + r.Role.String() + " row inside group"}
			}

		case scanAtSubtotal:
			switch r.Role {
			case RoleData:
				currentGroup = r.Group
				groupStart = i
				zebra = 0
				state = scanInGroup
			case RoleGrandTotal:
				appendGrandTotalMerge(m, i, groupCol, lastLabel)
				state = scanDone
			default:
				return nil, &LayoutError{Row: i, Message: "unexpected " + r.Role.String() + " row after subtotal"}
			}
		}

		m.Rows = append(m.Rows, renderRow(r, columns, zebra))
	}

	if state != scanDone {
		return nil, &LayoutError{Row: len(rows), Message: "sheet did not terminate with a grand total row"}
	}
	return m, nil
}

// appendGrandTotalMerge merges the grand-total label across the group and
// label columns when they span more than one cell.
func appendGrandTotalMerge(m *SheetModel, row, groupCol, lastLabel int) {
	if lastLabel > groupCol {
		m.Merges = append(m.Merges, MergeRegion{
			StartRow: row, EndRow: row,
			StartCol: groupCol, EndCol: lastLabel,
		})
	}
}

// renderRow projects a tagged row's cells into column order.
func renderRow(r TaggedRow, columns []string, zebra int) SheetRow {
	out := SheetRow{Role: r.Role, Group: r.Group, Zebra: -1}
	if r.Role == RoleData {
		out.Zebra = zebra % 2
	}
	out.Cells = make([]Cell, len(columns))
	for i, c := range columns {
		out.Cells[i] = Cell{Value: r.Cells[c]}
	}
	return out
}

func indexOf(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}
