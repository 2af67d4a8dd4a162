// Package app contains the editor service: sessions over one entry each,
// entry comparison, export and import.
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/cmsdesk/adapters/metrics"
	"github.com/artpar/cmsdesk/domain/content"
	"github.com/artpar/cmsdesk/domain/tree"
	"github.com/artpar/cmsdesk/ports"
	"github.com/rs/zerolog"
)

// DefaultHistoryLimit bounds the undo stack when no limit is configured.
const DefaultHistoryLimit = 100

// EditorDeps holds the editor's collaborators.
type EditorDeps struct {
	Models    ports.ModelStore
	Entries   ports.EntryStore
	Snapshots ports.SnapshotStore // optional
	Clock     ports.Clock
	IDs       ports.IDGenerator
	Logger    zerolog.Logger
	Metrics   *metrics.Collector // optional

	// HistoryLimit caps undo steps per session.
	HistoryLimit int
	// ExpandDepth is how many levels a new session opens; 0 opens none and
	// a negative value opens everything.
	ExpandDepth int
}

// Editor opens and tracks editing sessions. It is safe for concurrent use.
type Editor struct {
	deps EditorDeps

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewEditor creates an editor.
func NewEditor(deps EditorDeps) *Editor {
	if deps.HistoryLimit <= 0 {
		deps.HistoryLimit = DefaultHistoryLimit
	}
	return &Editor{
		deps:     deps,
		sessions: make(map[string]*Session),
	}
}

// Open loads an entry and its model and starts a session over it.
func (e *Editor) Open(ctx context.Context, entryID string) (*Session, error) {
	entry, err := e.deps.Entries.GetEntry(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("load entry %s: %w", entryID, err)
	}
	model, err := e.deps.Models.GetModel(ctx, entry.ModelID)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", entry.ModelID, err)
	}

	s := &Session{
		id:       e.deps.IDs.New(),
		deps:     &e.deps,
		model:    model,
		entry:    entry,
		working:  entry.Data,
		expanded: tree.ExpandAll(entry.Data, e.deps.ExpandDepth),
	}

	e.mu.Lock()
	e.sessions[s.id] = s
	e.mu.Unlock()
	e.deps.Metrics.SessionOpened()

	e.deps.Logger.Debug().
		Str("session_id", s.id).
		Str("entry_id", entry.ID).
		Str("model_id", model.ID).
		Msg("session opened")
	return s, nil
}

// Session returns an open session.
func (e *Editor) Session(id string) (*Session, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, ok := e.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ports.ErrNotFound)
	}
	return s, nil
}

// Sessions returns the IDs of open sessions in sorted order.
func (e *Editor) Sessions() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := make([]string, 0, len(e.sessions))
	for id := range e.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close discards a session and any unsaved edits.
func (e *Editor) Close(id string) error {
	e.mu.Lock()
	s, ok := e.sessions[id]
	delete(e.sessions, id)
	e.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %s: %w", id, ports.ErrNotFound)
	}
	e.deps.Metrics.SessionClosed()
	if s.Dirty() {
		e.deps.Logger.Warn().Str("session_id", id).Msg("session closed with unsaved changes")
	}
	return nil
}

// Model returns a model by ID.
func (e *Editor) Model(ctx context.Context, id string) (content.Model, error) {
	return e.deps.Models.GetModel(ctx, id)
}

// Models returns one page of models.
func (e *Editor) Models(ctx context.Context, page content.Page) (content.ListResult[content.Model], error) {
	return e.deps.Models.ListModels(ctx, page)
}

// Entry returns an entry by ID.
func (e *Editor) Entry(ctx context.Context, id string) (content.Entry, error) {
	return e.deps.Entries.GetEntry(ctx, id)
}

// DeleteEntry removes an entry from the CMS.
func (e *Editor) DeleteEntry(ctx context.Context, id string) error {
	if err := e.deps.Entries.DeleteEntry(ctx, id); err != nil {
		return err
	}
	e.deps.Logger.Info().Str("entry_id", id).Msg("entry deleted")
	return nil
}

// Search returns one page of the entries of a model matching query, a
// case-insensitive substring of the ID or of any text leaf. An empty query
// lists the model's entries.
func (e *Editor) Search(ctx context.Context, modelID, query string, page content.Page) (content.ListResult[content.Entry], error) {
	if query == "" {
		return e.deps.Entries.ListEntries(ctx, modelID, page)
	}

	all, err := e.allEntries(ctx, modelID)
	if err != nil {
		return content.ListResult[content.Entry]{}, err
	}
	matches := content.Filter(all, query)

	page = page.Normalize()
	start := min(page.Offset, len(matches))
	end := min(start+page.Limit, len(matches))
	return content.ListResult[content.Entry]{Items: matches[start:end], Total: len(matches)}, nil
}

// allEntries pages through every entry of a model.
func (e *Editor) allEntries(ctx context.Context, modelID string) ([]content.Entry, error) {
	var out []content.Entry
	page := content.Page{Limit: content.MaxPageSize}
	for {
		res, err := e.deps.Entries.ListEntries(ctx, modelID, page)
		if err != nil {
			return nil, fmt.Errorf("list entries of %s: %w", modelID, err)
		}
		out = append(out, res.Items...)
		if !res.HasMore(page) || len(res.Items) == 0 {
			return out, nil
		}
		page = page.Next()
	}
}

// History returns the locally recorded snapshots of an entry, newest first.
func (e *Editor) History(ctx context.Context, entryID string) ([]ports.Snapshot, error) {
	if e.deps.Snapshots == nil {
		return nil, errors.New("history: no snapshot store configured")
	}
	return e.deps.Snapshots.List(ctx, entryID)
}
