package formatter

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/artpar/cmsdesk/app"
	"github.com/artpar/cmsdesk/domain/content"
	"github.com/artpar/cmsdesk/domain/diff"
	"github.com/artpar/cmsdesk/domain/field"
	"github.com/artpar/cmsdesk/domain/node"
	"github.com/artpar/cmsdesk/domain/tree"
	"github.com/artpar/cmsdesk/ports"
)

const defaultMaxWidth = 60

var (
	addedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	removedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	modifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	equalStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	insertStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Underline(true)
	deleteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Strikethrough(true)
)

// TableFormatter formats output as aligned text tables.
type TableFormatter struct{}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

// Name returns the formatter name.
func (f *TableFormatter) Name() string {
	return "table"
}

// Description returns the formatter description.
func (f *TableFormatter) Description() string {
	return "Aligned text table output"
}

// FormatRows renders rows as an indented outline.
func (f *TableFormatter) FormatRows(w io.Writer, rows []tree.Row, opts FormatOptions) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No data.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !opts.NoHeader {
		fmt.Fprintln(tw, "FIELD\tTYPE\tVALUE")
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s%s %s\t%s\t%s\n",
			strings.Repeat("  ", r.Depth), marker(r), f.label(r), typeName(r), node.Summary(r.Value, width(opts)))
	}
	return tw.Flush()
}

func marker(r tree.Row) string {
	switch {
	case !r.Branch:
		return " "
	case r.Expanded:
		return "▾"
	default:
		return "▸"
	}
}

func (f *TableFormatter) label(r tree.Row) string {
	name := r.Key
	if r.Path.IsRoot() {
		name = "(root)"
	}
	if r.Field != nil && r.Field.Required {
		name += "*"
	}
	return name
}

// FormatDiff renders one line per path with a summary footer. With Color
// set, lines are colored by kind and string changes get an inline detail
// section below the table.
func (f *TableFormatter) FormatDiff(w io.Writer, results []diff.Result, opts FormatOptions) error {
	counts := diff.Summary(results)
	if opts.ChangesOnly {
		results = diff.Changes(results)
	}
	if len(results) == 0 {
		fmt.Fprintln(w, "No differences.")
		return nil
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	if !opts.NoHeader {
		fmt.Fprintln(tw, "STATUS\tPATH\tLEFT\tRIGHT")
	}
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			strings.ToUpper(string(r.Kind)), displayPath(r), side(r.Left, r.HasLeft, opts), side(r.Right, r.HasRight, opts))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	for i, line := range lines {
		if opts.Color {
			idx := i
			if !opts.NoHeader {
				idx--
			}
			if idx >= 0 {
				line = kindStyle(results[idx].Kind).Render(line)
			}
		}
		fmt.Fprintln(w, line)
	}

	if opts.Color {
		for _, r := range results {
			if spans, ok := r.StringChange(); ok {
				fmt.Fprintf(w, "\n%s: %s\n", displayPath(r), renderSpans(spans))
			}
		}
	}

	fmt.Fprintf(w, "\n%d modified, %d added, %d removed, %d equal\n",
		counts.Modified, counts.Added, counts.Removed, counts.Equal)
	return nil
}

func side(v node.Value, present bool, opts FormatOptions) string {
	if !present {
		return "-"
	}
	return node.Summary(v, width(opts))
}

func kindStyle(k diff.Kind) lipgloss.Style {
	switch k {
	case diff.Added:
		return addedStyle
	case diff.Removed:
		return removedStyle
	case diff.Modified:
		return modifiedStyle
	default:
		return equalStyle
	}
}

func renderSpans(spans []diff.Span) string {
	var b strings.Builder
	for _, s := range spans {
		switch s.Op {
		case diff.OpInsert:
			b.WriteString(insertStyle.Render(s.Text))
		case diff.OpDelete:
			b.WriteString(deleteStyle.Render(s.Text))
		default:
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// FormatModels formats models as a table.
func (f *TableFormatter) FormatModels(w io.Writer, models []content.Model, opts FormatOptions) error {
	if len(models) == 0 {
		fmt.Fprintln(w, "No models found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !opts.NoHeader {
		fmt.Fprintln(tw, "ID\tNAME\tIDENTIFIER\tFIELDS")
	}
	for _, m := range models {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", m.ID, truncate(m.Name, width(opts)), dash(m.Identifier), len(m.Fields))
	}
	return tw.Flush()
}

// FormatModel formats a model header followed by its field outline.
func (f *TableFormatter) FormatModel(w io.Writer, m content.Model, opts FormatOptions) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", m.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", m.Name)
	fmt.Fprintf(tw, "Identifier:\t%s\n", dash(m.Identifier))
	if m.Description != "" {
		fmt.Fprintf(tw, "Description:\t%s\n", m.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !opts.NoHeader {
		fmt.Fprintln(tw, "FIELD\tTYPE\tREQUIRED\tDEFAULT")
	}
	writeFields(tw, m.Fields, 0)
	if err := tw.Flush(); err != nil {
		return err
	}

	if warnings := SchemaWarnings(m.Fields); len(warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, msg := range warnings {
			fmt.Fprintf(w, "  %s\n", msg)
		}
	}
	return nil
}

func writeFields(w io.Writer, defs []field.Definition, depth int) {
	for _, d := range defs {
		def := "-"
		if d.DefaultValue != nil {
			def = node.Summary(*d.DefaultValue, defaultMaxWidth)
		}
		fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\n", strings.Repeat("  ", depth), d.Name, d.Type, yesNo(d.Required), def)
		writeFields(w, d.SubFields, depth+1)
	}
}

// FormatEntries formats entries as a table.
func (f *TableFormatter) FormatEntries(w io.Writer, entries []content.Entry, opts FormatOptions) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !opts.NoHeader {
		fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tUPDATED")
	}
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, truncate(e.Title(), width(opts)), dash(e.Status), formatTime(e.UpdatedAt))
	}
	return tw.Flush()
}

// FormatEntry formats entry metadata followed by its fully expanded data.
func (f *TableFormatter) FormatEntry(w io.Writer, e content.Entry, opts FormatOptions) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", e.ID)
	fmt.Fprintf(tw, "Model:\t%s\n", e.ModelID)
	fmt.Fprintf(tw, "Title:\t%s\n", e.Title())
	fmt.Fprintf(tw, "Status:\t%s\n", dash(e.Status))
	fmt.Fprintf(tw, "Updated:\t%s\n", formatTime(e.UpdatedAt))
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	rows := tree.Walk(e.Data, nil, tree.ExpandAll(e.Data, -1))
	return f.FormatRows(w, rows, opts)
}

// FormatSnapshots formats local history as a table.
func (f *TableFormatter) FormatSnapshots(w io.Writer, snaps []ports.Snapshot, opts FormatOptions) error {
	if len(snaps) == 0 {
		fmt.Fprintln(w, "No snapshots found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !opts.NoHeader {
		fmt.Fprintln(tw, "ID\tCREATED\tNOTE\tDATA")
	}
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, formatTime(s.CreatedAt), dash(truncate(s.Note, width(opts))), node.Summary(s.Data, width(opts)))
	}
	return tw.Flush()
}

// FormatImport lists each bundle entry with its action, then the changed
// paths of every update, then the totals.
func (f *TableFormatter) FormatImport(w io.Writer, r app.ImportReport, opts FormatOptions) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !opts.NoHeader {
		fmt.Fprintln(tw, "ENTRY\tACTION\tDETAIL")
	}
	for _, item := range r.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", dash(item.EntryID), item.Action, importDetail(item))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, item := range r.Items {
		if item.Action != app.ImportUpdate || len(item.Changes) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", item.EntryID)
		for _, c := range item.Changes {
			line := "  " + changeLine(c, opts)
			if opts.Color {
				line = kindStyle(c.Kind).Render(line)
			}
			fmt.Fprintln(w, line)
		}
	}

	prefix := "Imported:"
	if r.DryRun {
		prefix = "Dry run:"
	}
	fmt.Fprintf(w, "\n%s %d created, %d updated, %d unchanged, %d invalid\n",
		prefix, r.Created, r.Updated, r.Unchanged, r.Invalid)
	return nil
}

func importDetail(item app.ImportItem) string {
	switch item.Action {
	case app.ImportCreate:
		if item.NewID != "" {
			return "as " + item.NewID
		}
	case app.ImportUpdate:
		if len(item.Changes) == 1 {
			return "1 changed path"
		}
		return fmt.Sprintf("%d changed paths", len(item.Changes))
	case app.ImportInvalid:
		if len(item.Missing) > 0 {
			return "missing " + strings.Join(item.Missing, ", ")
		}
		return item.Reason
	}
	return "-"
}

// changeLine renders one diff result as "+ p: v", "- p: v" or "~ p: l -> r".
func changeLine(r diff.Result, opts FormatOptions) string {
	switch r.Kind {
	case diff.Added:
		return fmt.Sprintf("+ %s: %s", displayPath(r), node.Summary(r.Right, width(opts)))
	case diff.Removed:
		return fmt.Sprintf("- %s: %s", displayPath(r), node.Summary(r.Left, width(opts)))
	default:
		return fmt.Sprintf("~ %s: %s -> %s", displayPath(r), node.Summary(r.Left, width(opts)), node.Summary(r.Right, width(opts)))
	}
}

// FormatError formats an error message.
func (f *TableFormatter) FormatError(w io.Writer, err error) error {
	fmt.Fprintf(w, "Error: %s\n", err.Error())
	return nil
}

func width(opts FormatOptions) int {
	if opts.MaxWidth > 0 {
		return opts.MaxWidth
	}
	return defaultMaxWidth
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 3 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func init() {
	if err := Register(NewTableFormatter()); err != nil {
		fmt.Printf("failed to register table formatter: %v\n", err)
	}
}
