package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpar/cmsdesk/domain/content"
	"github.com/artpar/cmsdesk/domain/diff"
	"github.com/artpar/cmsdesk/domain/field"
	"github.com/artpar/cmsdesk/ports"
)

// Export collects a model and all of its entries into a bundle.
func (e *Editor) Export(ctx context.Context, modelID string) (content.Bundle, error) {
	model, err := e.deps.Models.GetModel(ctx, modelID)
	if err != nil {
		return content.Bundle{}, fmt.Errorf("load model %s: %w", modelID, err)
	}
	entries, err := e.allEntries(ctx, modelID)
	if err != nil {
		return content.Bundle{}, err
	}

	e.deps.Logger.Info().
		Str("model_id", modelID).
		Int("entries", len(entries)).
		Msg("model exported")
	return content.Bundle{
		Version:    content.BundleVersion,
		ExportedAt: e.deps.Clock.Now(),
		Model:      model,
		Entries:    entries,
	}, nil
}

// ImportAction says what Import did, or would do, with one bundle entry.
type ImportAction string

const (
	ImportCreate    ImportAction = "create"
	ImportUpdate    ImportAction = "update"
	ImportUnchanged ImportAction = "unchanged"
	ImportInvalid   ImportAction = "invalid" // skipped; Reason says why
)

// ImportItem reports one bundle entry.
type ImportItem struct {
	EntryID string        `json:"entry_id" yaml:"entry_id"`
	NewID   string        `json:"new_id,omitempty" yaml:"new_id,omitempty"`
	Action  ImportAction  `json:"action" yaml:"action"`
	Reason  string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Changes []diff.Result `json:"-" yaml:"-"`
	Missing []string      `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// ImportReport summarises an import.
type ImportReport struct {
	ModelID   string       `json:"model_id" yaml:"model_id"`
	DryRun    bool         `json:"dry_run" yaml:"dry_run"`
	Items     []ImportItem `json:"items" yaml:"items"`
	Created   int          `json:"created" yaml:"created"`
	Updated   int          `json:"updated" yaml:"updated"`
	Unchanged int          `json:"unchanged" yaml:"unchanged"`
	Invalid   int          `json:"invalid" yaml:"invalid"`
}

// Import writes bundle entries into the model the bundle names. An entry
// whose ID already exists is updated when its data differs, with the
// difference reported; any other entry is created. With dryRun nothing is
// written.
func (e *Editor) Import(ctx context.Context, b content.Bundle, dryRun bool) (ImportReport, error) {
	model, err := e.deps.Models.GetModel(ctx, b.Model.ID)
	if err != nil {
		return ImportReport{}, fmt.Errorf("load model %s: %w", b.Model.ID, err)
	}

	report := ImportReport{ModelID: model.ID, DryRun: dryRun}
	for _, in := range b.Entries {
		item, err := e.importEntry(ctx, model, in, dryRun)
		if err != nil {
			return report, err
		}
		switch item.Action {
		case ImportCreate:
			report.Created++
		case ImportUpdate:
			report.Updated++
		case ImportUnchanged:
			report.Unchanged++
		case ImportInvalid:
			report.Invalid++
		}
		report.Items = append(report.Items, item)
	}

	e.deps.Logger.Info().
		Str("model_id", model.ID).
		Bool("dry_run", dryRun).
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("unchanged", report.Unchanged).
		Int("invalid", report.Invalid).
		Msg("bundle imported")
	return report, nil
}

func (e *Editor) importEntry(ctx context.Context, model content.Model, in content.Entry, dryRun bool) (ImportItem, error) {
	item := ImportItem{EntryID: in.ID}

	var existing content.Entry
	found := false
	if in.ID != "" {
		var err error
		existing, err = e.deps.Entries.GetEntry(ctx, in.ID)
		switch {
		case err == nil:
			found = true
		case !errors.Is(err, ports.ErrNotFound):
			return item, fmt.Errorf("load entry %s: %w", in.ID, err)
		}
	}

	// an ID taken by another model's entry is never overwritten
	if found && existing.ModelID != "" && existing.ModelID != model.ID {
		item.Action = ImportInvalid
		item.Reason = fmt.Sprintf("entry belongs to model %s", existing.ModelID)
		return item, nil
	}

	if missing := field.CheckRequired(model.Fields, in.Data); len(missing) > 0 {
		item.Action = ImportInvalid
		item.Reason = "required fields missing"
		item.Missing = missing
		return item, nil
	}

	if !found {
		item.Action = ImportCreate
		if dryRun {
			return item, nil
		}
		created, err := e.deps.Entries.CreateEntry(ctx, model.ID, in.Data)
		if err != nil {
			return item, fmt.Errorf("create entry: %w", err)
		}
		item.NewID = created.ID
		return item, nil
	}

	e.deps.Metrics.RecordDiff("import")
	item.Changes = diff.Changes(diff.Diff(existing.Data, in.Data))
	if len(item.Changes) == 0 {
		item.Action = ImportUnchanged
		return item, nil
	}
	item.Action = ImportUpdate
	if dryRun {
		return item, nil
	}
	if _, err := e.deps.Entries.UpdateEntry(ctx, in.ID, in.Data); err != nil {
		return item, fmt.Errorf("update entry %s: %w", in.ID, err)
	}
	return item, nil
}
