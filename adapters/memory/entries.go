package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/artpar/cmsdesk/domain/content"
	"github.com/artpar/cmsdesk/domain/node"
	"github.com/artpar/cmsdesk/ports"
)

// EntryStore is an in-memory implementation of ports.EntryStore.
// Entries list in insertion order.
type EntryStore struct {
	mu      sync.RWMutex
	entries map[string]content.Entry
	order   []string
	ids     ports.IDGenerator
	clock   ports.Clock
}

// NewEntryStore creates an empty entry store. ids and clock stamp created
// and updated entries.
func NewEntryStore(ids ports.IDGenerator, clock ports.Clock) *EntryStore {
	return &EntryStore{
		entries: make(map[string]content.Entry),
		ids:     ids,
		clock:   clock,
	}
}

// Put adds or replaces an entry as is.
func (s *EntryStore) Put(e content.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[e.ID]; !ok {
		s.order = append(s.order, e.ID)
	}
	s.entries[e.ID] = e
}

// Count returns the number of stored entries.
func (s *EntryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// ListEntries returns one page of entries of a model.
func (s *EntryStore) ListEntries(ctx context.Context, modelID string, page content.Page) (content.ListResult[content.Entry], error) {
	s.mu.RLock()
	var all []content.Entry
	for _, id := range s.order {
		if e := s.entries[id]; e.ModelID == modelID {
			all = append(all, e)
		}
	}
	s.mu.RUnlock()
	return paginate(all, page), nil
}

// GetEntry retrieves an entry by ID.
func (s *EntryStore) GetEntry(ctx context.Context, id string) (content.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return content.Entry{}, fmt.Errorf("entry %s: %w", id, ports.ErrNotFound)
	}
	return e, nil
}

// CreateEntry stores a new draft entry.
func (s *EntryStore) CreateEntry(ctx context.Context, modelID string, data node.Value) (content.Entry, error) {
	now := s.clock.Now()
	e := content.Entry{
		ID:        s.ids.New(),
		ModelID:   modelID,
		Status:    content.StatusDraft,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Put(e)
	return e, nil
}

// UpdateEntry replaces the data of an existing entry.
func (s *EntryStore) UpdateEntry(ctx context.Context, id string, data node.Value) (content.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return content.Entry{}, fmt.Errorf("entry %s: %w", id, ports.ErrNotFound)
	}
	e.Data = data
	e.UpdatedAt = s.clock.Now()
	s.entries[id] = e
	return e, nil
}

// DeleteEntry removes an entry.
func (s *EntryStore) DeleteEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("entry %s: %w", id, ports.ErrNotFound)
	}
	delete(s.entries, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Ensure interface compliance.
var _ ports.EntryStore = (*EntryStore)(nil)
