package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/cmsdesk/ports"
)

// SnapshotStore is an in-memory implementation of ports.SnapshotStore.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]ports.Snapshot
	byEntry   map[string][]string // entry ID -> snapshot IDs in save order
}

// NewSnapshotStore creates an empty snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[string]ports.Snapshot),
		byEntry:   make(map[string][]string),
	}
}

// Save records a snapshot.
func (s *SnapshotStore) Save(ctx context.Context, snap ports.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.snapshots[snap.ID]; exists {
		return fmt.Errorf("snapshot %s already exists", snap.ID)
	}
	s.snapshots[snap.ID] = snap
	s.byEntry[snap.EntryID] = append(s.byEntry[snap.EntryID], snap.ID)
	return nil
}

// List returns the snapshots of an entry, newest first.
func (s *SnapshotStore) List(ctx context.Context, entryID string) ([]ports.Snapshot, error) {
	s.mu.RLock()
	ids := s.byEntry[entryID]
	out := make([]ports.Snapshot, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = s.snapshots[id]
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Get retrieves a snapshot by ID.
func (s *SnapshotStore) Get(ctx context.Context, id string) (ports.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return ports.Snapshot{}, fmt.Errorf("snapshot %s: %w", id, ports.ErrNotFound)
	}
	return snap, nil
}

// Ensure interface compliance.
var _ ports.SnapshotStore = (*SnapshotStore)(nil)
