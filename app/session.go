package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/artpar/cmsdesk/domain/content"
	"github.com/artpar/cmsdesk/domain/diff"
	"github.com/artpar/cmsdesk/domain/edit"
	"github.com/artpar/cmsdesk/domain/field"
	"github.com/artpar/cmsdesk/domain/node"
	"github.com/artpar/cmsdesk/domain/path"
	"github.com/artpar/cmsdesk/domain/tree"
	"github.com/artpar/cmsdesk/ports"
)

// ErrSaveInProgress is returned when Save is called while another save of
// the same session has not finished.
var ErrSaveInProgress = errors.New("save already in progress")

// MissingFieldsError is returned by Save when required fields are empty.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "required fields missing: " + strings.Join(e.Fields, ", ")
}

// Session edits one entry. The working copy changes with every edit; the
// baseline is the data as last loaded or saved. Sessions are safe for
// concurrent use.
type Session struct {
	id   string
	deps *EditorDeps

	mu       sync.RWMutex
	model    content.Model
	entry    content.Entry // entry.Data is the baseline
	working  node.Value
	expanded path.Set
	undo     []node.Value
	redo     []node.Value
	saving   bool
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// Model returns the model of the edited entry.
func (s *Session) Model() content.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// Entry returns the entry as last loaded or saved.
func (s *Session) Entry() content.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entry
}

// Baseline returns the data as last loaded or saved.
func (s *Session) Baseline() node.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entry.Data
}

// Data returns the working copy.
func (s *Session) Data() node.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.working
}

// Rows returns the visible rows of the working copy.
func (s *Session) Rows() []tree.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tree.Walk(s.working, s.model.Fields, s.expanded)
}

// Expanded reports whether p is open.
func (s *Session) Expanded(p path.Path) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expanded.Has(p)
}

// Toggle flips the expansion of the branch at p and returns the new state.
func (s *Session) Toggle(p path.Path) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBranch(p); err != nil {
		return false, err
	}
	s.expanded = s.expanded.Toggle(p)
	return s.expanded.Has(p), nil
}

// Expand opens the branch at p.
func (s *Session) Expand(p path.Path) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBranch(p); err != nil {
		return err
	}
	s.expanded = s.expanded.With(p)
	return nil
}

// Collapse closes the branch at p. Descendants keep their state and show
// again when p is reopened.
func (s *Session) Collapse(p path.Path) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded = s.expanded.Without(p)
}

// ExpandAll opens every branch down to depth levels; a negative depth opens
// everything.
func (s *Session) ExpandAll(depth int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded = tree.ExpandAll(s.working, depth)
}

// CollapseAll closes every branch.
func (s *Session) CollapseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded = path.NewSet()
}

func (s *Session) checkBranch(p path.Path) error {
	v, ok := edit.Get(s.working, p)
	if !ok {
		return &edit.InvalidPathError{Path: p, Reason: "no node at path"}
	}
	if !v.IsBranch() {
		return &edit.InvalidPathError{Path: p, Reason: fmt.Sprintf("a %s has no children", v.Kind())}
	}
	return nil
}

// Get returns the working value at p.
func (s *Session) Get(p path.Path) (node.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := edit.Get(s.working, p)
	if !ok {
		return node.Value{}, &edit.InvalidPathError{Path: p, Reason: "no node at path"}
	}
	return v, nil
}

// Field returns the field definition describing p, or nil.
func (s *Session) Field(p path.Path) *field.Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tree.FieldAt(s.model.Fields, s.working, p)
}

// Set replaces the value at p.
func (s *Session) Set(p path.Path, v node.Value) error {
	return s.apply("set", func(cur node.Value) (node.Value, error) {
		return edit.SetAtPath(cur, p, v)
	})
}

// SetRaw parses raw input for the field at p and sets the result. Paths
// without a field definition take raw as a JSON literal, or as a string
// when it is not one.
func (s *Session) SetRaw(p path.Path, raw string) error {
	v, err := field.Coerce(s.Field(p), raw)
	if err != nil {
		return err
	}
	return s.Set(p, v)
}

// NewItem returns a fresh element for the list at p: an object of sub-field
// defaults when the list's field has sub-fields, else null.
func (s *Session) NewItem(p path.Path) node.Value {
	def := s.Field(p)
	if def == nil || len(def.SubFields) == 0 {
		return node.Null()
	}
	return field.Default(field.Definition{Type: field.TypeObject, SubFields: def.SubFields})
}

// Append adds v to the end of the list at p.
func (s *Session) Append(p path.Path, v node.Value) error {
	return s.apply("append", func(cur node.Value) (node.Value, error) {
		return edit.Append(cur, p, v)
	})
}

// Delete removes the node at p.
func (s *Session) Delete(p path.Path) error {
	err := s.apply("delete", func(cur node.Value) (node.Value, error) {
		return edit.Delete(cur, p)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded = s.expanded.WithoutPrefix(p)
	if last, ok := p.Last(); ok && last.Index {
		// later siblings shifted down; their open state no longer lines up
		parent := p.Parent()
		wasOpen := s.expanded.Has(parent)
		s.expanded = s.expanded.WithoutPrefix(parent)
		if wasOpen {
			s.expanded = s.expanded.With(parent)
		}
	}
	return nil
}

// Replace swaps the whole working copy, e.g. to restore a snapshot.
func (s *Session) Replace(v node.Value) error {
	return s.apply("replace", func(node.Value) (node.Value, error) {
		return v, nil
	})
}

// Discard drops all unsaved edits. It can be undone.
func (s *Session) Discard() {
	s.mu.RLock()
	base := s.entry.Data
	s.mu.RUnlock()
	s.Replace(base)
}

func (s *Session) apply(op string, fn func(node.Value) (node.Value, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.working)
	if err != nil {
		return err
	}
	s.pushUndo(s.working)
	s.redo = nil
	s.working = next
	s.deps.Metrics.RecordEdit(op)
	return nil
}

func (s *Session) pushUndo(v node.Value) {
	s.undo = append(s.undo, v)
	if over := len(s.undo) - s.deps.HistoryLimit; over > 0 {
		s.undo = append(s.undo[:0:0], s.undo[over:]...)
	}
}

// Undo reverts the last edit. It reports false when there is nothing to undo.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return false
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, s.working)
	s.working = prev
	s.deps.Metrics.RecordEdit("undo")
	return true
}

// Redo reapplies the last undone edit.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.redo) == 0 {
		return false
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.pushUndo(s.working)
	s.working = next
	s.deps.Metrics.RecordEdit("redo")
	return true
}

// CanUndo and CanRedo report whether history is available.
func (s *Session) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.undo) > 0
}

func (s *Session) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.redo) > 0
}

// Pending returns the changed paths between the baseline and the working
// copy. Equal paths are left out.
func (s *Session) Pending() []diff.Result {
	s.mu.RLock()
	base, work := s.entry.Data, s.working
	s.mu.RUnlock()

	s.deps.Metrics.RecordDiff("pending")
	return diff.Changes(diff.Diff(base, work))
}

// Dirty reports whether the working copy differs from the baseline.
func (s *Session) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !node.Equal(s.entry.Data, s.working)
}

// Missing returns the required fields that are absent or blank.
func (s *Session) Missing() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return field.CheckRequired(s.model.Fields, s.working)
}

// Save writes the complete working copy to the CMS, records a snapshot and
// makes the written data the new baseline. Edits made while the save is in
// flight stay in the working copy and remain pending. The store call runs
// without holding the session lock, so readers are never blocked by it.
func (s *Session) Save(ctx context.Context) (content.Entry, error) {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return content.Entry{}, ErrSaveInProgress
	}
	if missing := field.CheckRequired(s.model.Fields, s.working); len(missing) > 0 {
		s.mu.Unlock()
		return content.Entry{}, &MissingFieldsError{Fields: missing}
	}
	s.saving = true
	entryID := s.entry.ID
	sent := s.working
	s.mu.Unlock()

	updated, err := s.deps.Entries.UpdateEntry(ctx, entryID, sent)
	s.deps.Metrics.RecordSave(err)

	s.mu.Lock()
	s.saving = false
	if err != nil {
		s.mu.Unlock()
		s.deps.Logger.Error().Err(err).Str("entry_id", entryID).Msg("save failed")
		return content.Entry{}, fmt.Errorf("save entry %s: %w", entryID, err)
	}
	updated.Data = sent
	s.entry = updated
	s.mu.Unlock()

	s.record(ctx, entryID, sent)
	s.deps.Logger.Info().Str("entry_id", entryID).Str("session_id", s.id).Msg("entry saved")
	return updated, nil
}

// record stores a snapshot of saved data. Failures are logged, not
// returned: the CMS already holds the data.
func (s *Session) record(ctx context.Context, entryID string, data node.Value) {
	if s.deps.Snapshots == nil {
		return
	}
	snap := ports.Snapshot{
		ID:        s.deps.IDs.New(),
		EntryID:   entryID,
		Data:      data,
		Note:      "save",
		CreatedAt: s.deps.Clock.Now(),
	}
	if err := s.deps.Snapshots.Save(ctx, snap); err != nil {
		s.deps.Logger.Warn().Err(err).Str("entry_id", entryID).Msg("failed to record snapshot")
	}
}
