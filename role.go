package tabreport

// RowRole tags a row with its structural purpose. Layout and styling are
// derived from roles alone, never from cell values.
type RowRole int

const (
	RoleHeader RowRole = iota
	RoleData
	RoleSubtotal
	RoleGrandTotal
)

func (r RowRole) String() string {
	switch r {
	case RoleHeader:
		return "header"
	case RoleData:
		return "data"
	case RoleSubtotal:
		return "subtotal"
	case RoleGrandTotal:
		return "grand total"
	default:
		return "unknown"
	}
}

// TaggedRow is a report row annotated with its role. Group carries the
// group key for Data and Subtotal rows and is empty otherwise.
type TaggedRow struct {
	Role  RowRole
	Group string
	Cells Row
}
