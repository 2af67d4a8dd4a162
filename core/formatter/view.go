package formatter

import (
	"time"

	"github.com/artpar/cmsdesk/app"
	"github.com/artpar/cmsdesk/domain/content"
	"github.com/artpar/cmsdesk/domain/diff"
	"github.com/artpar/cmsdesk/domain/field"
	"github.com/artpar/cmsdesk/domain/node"
	"github.com/artpar/cmsdesk/domain/tree"
	"github.com/artpar/cmsdesk/ports"
)

// The view types are the shared document shapes of the json and yaml
// formatters. node.Value keeps data key order in both encodings.

type rowView struct {
	Path     string      `json:"path" yaml:"path"`
	Key      string      `json:"key" yaml:"key"`
	Depth    int         `json:"depth" yaml:"depth"`
	Type     string      `json:"type" yaml:"type"`
	Branch   bool        `json:"branch" yaml:"branch"`
	Expanded bool        `json:"expanded,omitempty" yaml:"expanded,omitempty"`
	Children int         `json:"children,omitempty" yaml:"children,omitempty"`
	Value    *node.Value `json:"value,omitempty" yaml:"value,omitempty"`
}

type resultView struct {
	Path  string      `json:"path" yaml:"path"`
	Kind  diff.Kind   `json:"kind" yaml:"kind"`
	Left  *node.Value `json:"left,omitempty" yaml:"left,omitempty"`
	Right *node.Value `json:"right,omitempty" yaml:"right,omitempty"`
}

type diffView struct {
	Summary diff.Counts  `json:"summary" yaml:"summary"`
	Results []resultView `json:"results" yaml:"results"`
}

type importItemView struct {
	EntryID string           `json:"entry_id" yaml:"entry_id"`
	NewID   string           `json:"new_id,omitempty" yaml:"new_id,omitempty"`
	Action  app.ImportAction `json:"action" yaml:"action"`
	Reason  string           `json:"reason,omitempty" yaml:"reason,omitempty"`
	Missing []string         `json:"missing,omitempty" yaml:"missing,omitempty"`
	Changes []resultView     `json:"changes,omitempty" yaml:"changes,omitempty"`
}

type importView struct {
	ModelID   string           `json:"model_id" yaml:"model_id"`
	DryRun    bool             `json:"dry_run" yaml:"dry_run"`
	Created   int              `json:"created" yaml:"created"`
	Updated   int              `json:"updated" yaml:"updated"`
	Unchanged int              `json:"unchanged" yaml:"unchanged"`
	Invalid   int              `json:"invalid" yaml:"invalid"`
	Items     []importItemView `json:"items" yaml:"items"`
}

type modelView struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Identifier  string     `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      node.Value `json:"fields" yaml:"fields"`
	Warnings    []string   `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

type entryView struct {
	ID        string      `json:"id" yaml:"id"`
	ModelID   string      `json:"model_id" yaml:"model_id"`
	Status    string      `json:"status,omitempty" yaml:"status,omitempty"`
	Title     string      `json:"title" yaml:"title"`
	Data      *node.Value `json:"data,omitempty" yaml:"data,omitempty"`
	CreatedAt *time.Time  `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt *time.Time  `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

type snapshotView struct {
	ID        string     `json:"id" yaml:"id"`
	EntryID   string     `json:"entry_id" yaml:"entry_id"`
	Note      string     `json:"note,omitempty" yaml:"note,omitempty"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	Data      node.Value `json:"data" yaml:"data"`
}

type listView[T any] struct {
	Count int `json:"count" yaml:"count"`
	Data  []T `json:"data" yaml:"data"`
}

type errorView struct {
	Error string `json:"error" yaml:"error"`
}

func rowViews(rows []tree.Row) []rowView {
	out := make([]rowView, len(rows))
	for i, r := range rows {
		v := rowView{
			Path:     r.Path.String(),
			Key:      r.Key,
			Depth:    r.Depth,
			Type:     typeName(r),
			Branch:   r.Branch,
			Expanded: r.Expanded,
			Children: r.Children,
		}
		if !r.Branch {
			val := r.Value
			v.Value = &val
		}
		out[i] = v
	}
	return out
}

func buildDiffView(results []diff.Result, opts FormatOptions) diffView {
	if opts.ChangesOnly {
		results = diff.Changes(results)
	}
	return diffView{Summary: diff.Summary(results), Results: resultViews(results)}
}

func resultViews(results []diff.Result) []resultView {
	out := make([]resultView, len(results))
	for i, r := range results {
		v := resultView{Path: displayPath(r), Kind: r.Kind}
		if r.HasLeft {
			l := r.Left
			v.Left = &l
		}
		if r.HasRight {
			rv := r.Right
			v.Right = &rv
		}
		out[i] = v
	}
	return out
}

func buildImportView(r app.ImportReport) importView {
	out := importView{
		ModelID:   r.ModelID,
		DryRun:    r.DryRun,
		Created:   r.Created,
		Updated:   r.Updated,
		Unchanged: r.Unchanged,
		Invalid:   r.Invalid,
		Items:     make([]importItemView, len(r.Items)),
	}
	for i, item := range r.Items {
		v := importItemView{
			EntryID: item.EntryID,
			NewID:   item.NewID,
			Action:  item.Action,
			Reason:  item.Reason,
			Missing: item.Missing,
		}
		if len(item.Changes) > 0 {
			v.Changes = resultViews(item.Changes)
		}
		out.Items[i] = v
	}
	return out
}

func buildModelView(m content.Model) modelView {
	return modelView{
		ID:          m.ID,
		Name:        m.Name,
		Identifier:  m.Identifier,
		Description: m.Description,
		Fields:      field.ToValue(m.Fields),
		Warnings:    SchemaWarnings(m.Fields),
		CreatedAt:   timePtr(m.CreatedAt),
		UpdatedAt:   timePtr(m.UpdatedAt),
	}
}

func buildEntryView(e content.Entry, withData bool) entryView {
	v := entryView{
		ID:        e.ID,
		ModelID:   e.ModelID,
		Status:    e.Status,
		Title:     e.Title(),
		CreatedAt: timePtr(e.CreatedAt),
		UpdatedAt: timePtr(e.UpdatedAt),
	}
	if withData {
		data := e.Data
		v.Data = &data
	}
	return v
}

func snapshotViews(snaps []ports.Snapshot) []snapshotView {
	out := make([]snapshotView, len(snaps))
	for i, s := range snaps {
		out[i] = snapshotView{ID: s.ID, EntryID: s.EntryID, Note: s.Note, CreatedAt: s.CreatedAt, Data: s.Data}
	}
	return out
}

// SchemaWarnings lists the problems field.Validate finds in defs.
func SchemaWarnings(defs []field.Definition) []string {
	var out []string
	for _, err := range field.Problems(defs) {
		out = append(out, err.Error())
	}
	return out
}

func modelViews(models []content.Model) []modelView {
	out := make([]modelView, len(models))
	for i, m := range models {
		out[i] = buildModelView(m)
	}
	return out
}

func entryViews(entries []content.Entry) []entryView {
	out := make([]entryView, len(entries))
	for i, e := range entries {
		out[i] = buildEntryView(e, false)
	}
	return out
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// typeName is the field type when the schema names one, else the data kind.
func typeName(r tree.Row) string {
	if r.Field != nil {
		return string(r.Field.Type)
	}
	return r.Value.Kind().String()
}

func displayPath(r diff.Result) string {
	if r.Path.IsRoot() {
		return "(root)"
	}
	return r.Path.String()
}
