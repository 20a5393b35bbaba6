// Package config loads and validates the report run configuration:
// Tableau connection, workbook and view selection, per-sheet transform
// settings, output location, and mail distribution.
package config

import (
	"fmt"

	"github.com/javajack/tabreport"
)

// Config is the fully merged run configuration.
type Config struct {
	Tableau TableauConfig `koanf:"tableau"`
	Output  OutputConfig  `koanf:"output"`
	Mail    MailConfig    `koanf:"mail"`
	Style   StyleConfig   `koanf:"style"`
	Widths  WidthConfig   `koanf:"widths"`
	Sheets  []SheetConfig `koanf:"sheets"`
	Verbose bool          `koanf:"verbose"`
	NoEmail bool          `koanf:"no_email"`
}

// TableauConfig selects the site, the workbook, and the credentials. The
// token secret normally arrives via TABREPORT_TABLEAU__TOKEN_SECRET or a
// .env file rather than the YAML.
type TableauConfig struct {
	ServerURL      string `koanf:"server_url"`
	Site           string `koanf:"site"`
	TokenName      string `koanf:"token_name"`
	TokenSecret    string `koanf:"token_secret"`
	APIVersion     string `koanf:"api_version"`
	Project        string `koanf:"project"`
	NameContains   string `koanf:"name_contains"`
	TimeoutSeconds int    `koanf:"timeout_seconds"`
	MaxRetries     int    `koanf:"max_retries"`
}

// OutputConfig controls where the workbook lands.
type OutputConfig struct {
	Dir            string `koanf:"dir"`
	FilenamePrefix string `koanf:"filename_prefix"`
}

// MailConfig is the SMTP distribution list.
type MailConfig struct {
	Host          string   `koanf:"host"`
	Port          int      `koanf:"port"`
	Username      string   `koanf:"username"`
	Password      string   `koanf:"password"`
	From          string   `koanf:"from"`
	To            []string `koanf:"to"`
	CC            []string `koanf:"cc"`
	SubjectPrefix string   `koanf:"subject_prefix"`
	Greeting      string   `koanf:"greeting"`
	Signature     string   `koanf:"signature"`
}

// StyleConfig overrides the default report palette. Empty fields keep the
// defaults.
type StyleConfig struct {
	ZebraFill      string `koanf:"zebra_fill"`
	SubtotalFill   string `koanf:"subtotal_fill"`
	GrandTotalFill string `koanf:"grand_total_fill"`
	InnerBorder    string `koanf:"inner_border"`
	FrameBorder    string `koanf:"frame_border"`
}

// WidthConfig overrides the column width constants. Zero fields keep the
// defaults.
type WidthConfig struct {
	Padding int `koanf:"padding"`
	Max     int `koanf:"max"`
	Min     int `koanf:"min"`
}

// SheetConfig describes one sheet of the workbook: which view feeds it and
// how its rows are transformed. Kind selects the pipeline: "report" runs
// the grouped pivot with totals, "raw" exports filtered rows as-is.
type SheetConfig struct {
	Name       string       `koanf:"name"`
	View       string       `koanf:"view"` // viewUrlName or display name
	Kind       string       `koanf:"kind"`
	ViewFilter ViewFilter   `koanf:"view_filter"`
	Filter     FilterConfig `koanf:"filter"`
	Pivot      PivotConfig  `koanf:"pivot"`
	Keep       []string     `koanf:"keep"` // raw sheets: column keep-list
	Drop       []string     `koanf:"drop"` // raw sheets: columns to drop first
}

// ViewFilter narrows the server-side export before any local work.
type ViewFilter struct {
	Field  string   `koanf:"field"`
	Values []string `koanf:"values"`
}

// FilterConfig is the local row/column filter.
type FilterConfig struct {
	DropColumns []string        `koanf:"drop_columns"`
	Exclude     []ExcludeConfig `koanf:"exclude"`
	Where       string          `koanf:"where"`
}

// ExcludeConfig removes rows whose column equals the value.
type ExcludeConfig struct {
	Column string `koanf:"column"`
	Value  string `koanf:"value"`
}

// PivotConfig configures the grouped report transform.
type PivotConfig struct {
	GroupColumn    string   `koanf:"group_column"`
	LabelColumns   []string `koanf:"label_columns"`
	CategoryColumn string   `koanf:"category_column"`
	ValueColumn    string   `koanf:"value_column"`
	MetricColumns  []string `koanf:"metric_columns"`
	ColumnOrder    []string `koanf:"column_order"`
}

const (
	KindReport = "report"
	KindRaw    = "raw"
)

// filter converts the YAML filter block to the engine's type.
func (s SheetConfig) filter() tabreport.Filter {
	f := tabreport.Filter{
		DropColumns: s.Filter.DropColumns,
		Where:       s.Filter.Where,
	}
	for _, e := range s.Filter.Exclude {
		f.Exclude = append(f.Exclude, tabreport.Predicate{Column: e.Column, Forbidden: e.Value})
	}
	return f
}

// ReportSpec converts a report-kind sheet to the engine's spec.
func (s SheetConfig) ReportSpec() tabreport.ReportSpec {
	return tabreport.ReportSpec{
		SheetName: s.Name,
		Filter:    s.filter(),
		Pivot: tabreport.PivotSpec{
			GroupColumn:    s.Pivot.GroupColumn,
			LabelColumns:   s.Pivot.LabelColumns,
			CategoryColumn: s.Pivot.CategoryColumn,
			ValueColumn:    s.Pivot.ValueColumn,
			MetricColumns:  s.Pivot.MetricColumns,
			ColumnOrder:    s.Pivot.ColumnOrder,
		},
	}
}

// RawSpec converts a raw-kind sheet to the engine's spec.
func (s SheetConfig) RawSpec() tabreport.RawSpec {
	return tabreport.RawSpec{
		SheetName: s.Name,
		Filter:    s.filter(),
		Projection: tabreport.Projection{
			Drop: s.Drop,
			Keep: s.Keep,
		},
	}
}

// Options converts the style and width overrides into engine options.
func (c *Config) Options() []tabreport.Option {
	var opts []tabreport.Option

	p := tabreport.DefaultPalette()
	changed := false
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
			changed = true
		}
	}
	set(&p.ZebraFill, c.Style.ZebraFill)
	set(&p.SubtotalFill, c.Style.SubtotalFill)
	set(&p.GrandTotalFill, c.Style.GrandTotalFill)
	set(&p.InnerBorder, c.Style.InnerBorder)
	set(&p.FrameBorder, c.Style.FrameBorder)
	if changed {
		opts = append(opts, tabreport.WithPalette(p))
	}

	w := tabreport.DefaultWidthOptions()
	changed = false
	setN := func(dst *int, v int) {
		if v > 0 {
			*dst = v
			changed = true
		}
	}
	setN(&w.Padding, c.Widths.Padding)
	setN(&w.Max, c.Widths.Max)
	setN(&w.Min, c.Widths.Min)
	if changed {
		opts = append(opts, tabreport.WithWidthOptions(w))
	}
	return opts
}

// ValidationIssue is one problem found in the merged configuration.
type ValidationIssue struct {
	Field   string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// Validate reports every problem at once so a bad config file can be fixed
// in one pass.
func (c *Config) Validate() []ValidationIssue {
	var issues []ValidationIssue
	add := func(field, msg string) {
		issues = append(issues, ValidationIssue{Field: field, Message: msg})
	}

	if c.Tableau.ServerURL == "" {
		add("tableau.server_url", "required")
	}
	if c.Tableau.TokenName == "" {
		add("tableau.token_name", "required")
	}
	if c.Tableau.TokenSecret == "" {
		add("tableau.token_secret", "required (set TABREPORT_TABLEAU__TOKEN_SECRET)")
	}
	if c.Tableau.Project == "" {
		add("tableau.project", "required")
	}
	if c.Tableau.NameContains == "" {
		add("tableau.name_contains", "required")
	}
	if len(c.Sheets) == 0 {
		add("sheets", "at least one sheet is required")
	}

	seen := make(map[string]bool, len(c.Sheets))
	for i, s := range c.Sheets {
		key := fmt.Sprintf("sheets[%d]", i)
		if s.Name == "" {
			add(key+".name", "required")
		} else if seen[s.Name] {
			add(key+".name", fmt.Sprintf("duplicate sheet name %q", s.Name))
		}
		seen[s.Name] = true

		if s.View == "" {
			add(key+".view", "required")
		}
		switch s.Kind {
		case KindReport:
			if s.Pivot.GroupColumn == "" {
				add(key+".pivot.group_column", "required for report sheets")
			}
			reshape := s.Pivot.CategoryColumn != "" || s.Pivot.ValueColumn != ""
			if reshape && (s.Pivot.CategoryColumn == "" || s.Pivot.ValueColumn == "") {
				add(key+".pivot", "category_column and value_column must be set together")
			}
			if !reshape && len(s.Pivot.MetricColumns) == 0 {
				add(key+".pivot.metric_columns", "required when no category/value reshape is configured")
			}
		case KindRaw:
			if len(s.Keep) == 0 {
				add(key+".keep", "required for raw sheets")
			}
		default:
			add(key+".kind", fmt.Sprintf("must be %q or %q, got %q", KindReport, KindRaw, s.Kind))
		}
	}

	if !c.NoEmail && len(c.Mail.To) > 0 {
		if c.Mail.Host == "" {
			add("mail.host", "required when recipients are configured")
		}
		if c.Mail.From == "" {
			add("mail.from", "required when recipients are configured")
		}
	}
	return issues
}
