package formatter

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/artpar/cmsdesk/app"
	"github.com/artpar/cmsdesk/domain/content"
	"github.com/artpar/cmsdesk/domain/diff"
	"github.com/artpar/cmsdesk/domain/tree"
	"github.com/artpar/cmsdesk/ports"
)

// YAMLFormatter formats output as YAML.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Name returns the formatter name.
func (f *YAMLFormatter) Name() string {
	return "yaml"
}

// Description returns the formatter description.
func (f *YAMLFormatter) Description() string {
	return "YAML output format"
}

// FormatRows formats tree rows as YAML.
func (f *YAMLFormatter) FormatRows(w io.Writer, rows []tree.Row, opts FormatOptions) error {
	views := rowViews(rows)
	return f.encode(w, listView[rowView]{Count: len(views), Data: views})
}

// FormatDiff formats a diff as YAML.
func (f *YAMLFormatter) FormatDiff(w io.Writer, results []diff.Result, opts FormatOptions) error {
	return f.encode(w, buildDiffView(results, opts))
}

// FormatModels formats models as YAML.
func (f *YAMLFormatter) FormatModels(w io.Writer, models []content.Model, opts FormatOptions) error {
	views := modelViews(models)
	return f.encode(w, listView[modelView]{Count: len(views), Data: views})
}

// FormatModel formats one model as YAML.
func (f *YAMLFormatter) FormatModel(w io.Writer, m content.Model, opts FormatOptions) error {
	return f.encode(w, buildModelView(m))
}

// FormatEntries formats entries as YAML.
func (f *YAMLFormatter) FormatEntries(w io.Writer, entries []content.Entry, opts FormatOptions) error {
	views := entryViews(entries)
	return f.encode(w, listView[entryView]{Count: len(views), Data: views})
}

// FormatEntry formats one entry with its data as YAML.
func (f *YAMLFormatter) FormatEntry(w io.Writer, e content.Entry, opts FormatOptions) error {
	return f.encode(w, buildEntryView(e, true))
}

// FormatSnapshots formats snapshots as YAML.
func (f *YAMLFormatter) FormatSnapshots(w io.Writer, snaps []ports.Snapshot, opts FormatOptions) error {
	views := snapshotViews(snaps)
	return f.encode(w, listView[snapshotView]{Count: len(views), Data: views})
}

// FormatImport formats an import report as YAML.
func (f *YAMLFormatter) FormatImport(w io.Writer, r app.ImportReport, opts FormatOptions) error {
	return f.encode(w, buildImportView(r))
}

// FormatError formats an error as YAML.
func (f *YAMLFormatter) FormatError(w io.Writer, err error) error {
	return f.encode(w, errorView{Error: err.Error()})
}

// encode writes YAML to the writer.
func (f *YAMLFormatter) encode(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(data)
}

func init() {
	if err := Register(NewYAMLFormatter()); err != nil {
		fmt.Printf("failed to register yaml formatter: %v\n", err)
	}
}
