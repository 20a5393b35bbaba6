package tabreport

import "fmt"

// SchemaError reports a column that the configuration requires but the
// incoming dataset does not carry. The affected sheet cannot be generated.
type SchemaError struct {
	Column  string
	Context string // which stage needed the column
}

func (e *SchemaError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("schema: column %q not present in dataset", e.Column)
	}
	return fmt.Sprintf("schema: %s requires column %q, not present in dataset", e.Context, e.Column)
}

// DataTypeError reports a value that failed the required numeric conversion.
// Row is the zero-based index into the filtered input.
type DataTypeError struct {
	Column string
	Row    int
	Value  any
}

func (e *DataTypeError) Error() string {
	return fmt.Sprintf("data type: column %q row %d: cannot convert %v to a number", e.Column, e.Row, e.Value)
}

// AggregationConflictError reports an ambiguous collapse during the long-to-wide
// reshape: two input rows produce the same output cell.
type AggregationConflictError struct {
	Key      string // the non-pivot key shared by the conflicting rows
	Category string // the pivot category value both rows supply
}

func (e *AggregationConflictError) Error() string {
	return fmt.Sprintf("aggregation conflict: key %q has multiple values for category %q", e.Key, e.Category)
}

// LayoutError reports a row sequence that violates the row-role state
// machine. It indicates an internal invariant breach and is never
// user-recoverable.
type LayoutError struct {
	Row     int
	Message string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("layout: row %d: %s", e.Row, e.Message)
}
