package tabreport

// Options holds per-run rendering configuration shared by all sheets.
type Options struct {
	palette    Palette
	widths     WidthOptions
	alignments map[string]Alignment
}

func defaultOptions() *Options {
	return &Options{
		palette: DefaultPalette(),
		widths:  DefaultWidthOptions(),
	}
}

// Option configures sheet building.
type Option func(*Options)

// WithPalette overrides the fill and border colors.
func WithPalette(p Palette) Option {
	return func(o *Options) { o.palette = p }
}

// WithWidthOptions overrides the column width padding, cap, and floor.
func WithWidthOptions(w WidthOptions) Option {
	return func(o *Options) { o.widths = w }
}

// WithColumnAlignment overrides the horizontal alignment of a label column.
func WithColumnAlignment(column string, a Alignment) Option {
	return func(o *Options) {
		if o.alignments == nil {
			o.alignments = make(map[string]Alignment)
		}
		o.alignments[column] = a
	}
}

// ReportSpec describes one grouped, subtotaled report sheet.
type ReportSpec struct {
	SheetName string
	Filter    Filter
	Pivot     PivotSpec
}

// RawSpec describes one unaggregated export sheet.
type RawSpec struct {
	SheetName  string
	Filter     Filter
	Projection Projection
}

// BuildSheet runs the full grouped-report pipeline over raw rows:
// filter, pivot with subtotals and grand total, layout scan, styling,
// column widths. The sheet either fully builds or fails with one of the
// typed errors; there is no partial output.
func BuildSheet(t Table, spec ReportSpec, opts ...Option) (*SheetModel, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	filtered, err := spec.Filter.Apply(t)
	if err != nil {
		return nil, err
	}

	tagged, columns, err := spec.Pivot.Transform(filtered)
	if err != nil {
		return nil, err
	}

	model, err := BuildLayout(spec.SheetName, columns, tagged, LayoutSpec{
		GroupColumn:  spec.Pivot.GroupColumn,
		LabelColumns: spec.Pivot.LabelColumns,
	})
	if err != nil {
		return nil, err
	}

	engine := NewStyleEngine(o.palette, spec.Pivot.GroupColumn, spec.Pivot.MetricColumns, o.alignments)
	engine.Apply(model)
	model.Widths = ComputeWidths(model, o.widths)
	return model, nil
}

// BuildPlainSheet runs the export pipeline: filter, project onto the
// keep-list, and render with a bold header and computed widths. No
// grouping, totals, merges, or row fills apply.
func BuildPlainSheet(t Table, spec RawSpec, opts ...Option) (*SheetModel, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	filtered, err := spec.Filter.Apply(t)
	if err != nil {
		return nil, err
	}
	projected, err := spec.Projection.Apply(filtered)
	if err != nil {
		return nil, err
	}

	m := &SheetModel{
		Name:         spec.SheetName,
		Columns:      append([]string(nil), projected.Columns...),
		FreezeHeader: true,
	}

	header := SheetRow{Role: RoleHeader, Zebra: -1, Cells: make([]Cell, len(m.Columns))}
	for i, c := range m.Columns {
		header.Cells[i] = Cell{Value: c, Style: Style{Bold: true, HAlign: AlignCenter}}
	}
	m.Rows = append(m.Rows, header)

	for _, row := range projected.Rows {
		sr := SheetRow{Role: RoleData, Zebra: -1, Cells: make([]Cell, len(m.Columns))}
		for i, c := range m.Columns {
			sr.Cells[i] = Cell{Value: row[c]}
		}
		m.Rows = append(m.Rows, sr)
	}

	m.Widths = ComputeWidths(m, o.widths)
	return m, nil
}
