package formatter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/artpar/cmsdesk/app"
	"github.com/artpar/cmsdesk/domain/content"
	"github.com/artpar/cmsdesk/domain/diff"
	"github.com/artpar/cmsdesk/domain/tree"
	"github.com/artpar/cmsdesk/ports"
)

// JSONFormatter formats output as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Name returns the formatter name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Description returns the formatter description.
func (f *JSONFormatter) Description() string {
	return "JSON output format"
}

// FormatRows formats tree rows as JSON.
func (f *JSONFormatter) FormatRows(w io.Writer, rows []tree.Row, opts FormatOptions) error {
	views := rowViews(rows)
	return f.encode(w, listView[rowView]{Count: len(views), Data: views}, opts.Compact)
}

// FormatDiff formats a diff as JSON.
func (f *JSONFormatter) FormatDiff(w io.Writer, results []diff.Result, opts FormatOptions) error {
	return f.encode(w, buildDiffView(results, opts), opts.Compact)
}

// FormatModels formats models as JSON.
func (f *JSONFormatter) FormatModels(w io.Writer, models []content.Model, opts FormatOptions) error {
	views := modelViews(models)
	return f.encode(w, listView[modelView]{Count: len(views), Data: views}, opts.Compact)
}

// FormatModel formats one model as JSON.
func (f *JSONFormatter) FormatModel(w io.Writer, m content.Model, opts FormatOptions) error {
	return f.encode(w, buildModelView(m), opts.Compact)
}

// FormatEntries formats entries as JSON.
func (f *JSONFormatter) FormatEntries(w io.Writer, entries []content.Entry, opts FormatOptions) error {
	views := entryViews(entries)
	return f.encode(w, listView[entryView]{Count: len(views), Data: views}, opts.Compact)
}

// FormatEntry formats one entry with its data as JSON.
func (f *JSONFormatter) FormatEntry(w io.Writer, e content.Entry, opts FormatOptions) error {
	return f.encode(w, buildEntryView(e, true), opts.Compact)
}

// FormatSnapshots formats snapshots as JSON.
func (f *JSONFormatter) FormatSnapshots(w io.Writer, snaps []ports.Snapshot, opts FormatOptions) error {
	views := snapshotViews(snaps)
	return f.encode(w, listView[snapshotView]{Count: len(views), Data: views}, opts.Compact)
}

// FormatImport formats an import report as JSON.
func (f *JSONFormatter) FormatImport(w io.Writer, r app.ImportReport, opts FormatOptions) error {
	return f.encode(w, buildImportView(r), opts.Compact)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	return f.encode(w, errorView{Error: err.Error()}, false)
}

// encode writes JSON to the writer.
func (f *JSONFormatter) encode(w io.Writer, data any, compact bool) error {
	encoder := json.NewEncoder(w)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

func init() {
	if err := Register(NewJSONFormatter()); err != nil {
		fmt.Printf("failed to register json formatter: %v\n", err)
	}
}
