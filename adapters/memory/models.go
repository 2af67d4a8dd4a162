// Package memory provides in-memory stores for tests and offline mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/cmsdesk/domain/content"
	"github.com/artpar/cmsdesk/ports"
)

// ModelStore is an in-memory implementation of ports.ModelStore.
type ModelStore struct {
	mu     sync.RWMutex
	models map[string]content.Model
}

// NewModelStore creates a model store holding models.
func NewModelStore(models ...content.Model) *ModelStore {
	s := &ModelStore{models: make(map[string]content.Model)}
	for _, m := range models {
		s.models[m.ID] = m
	}
	return s
}

// Put adds or replaces a model.
func (s *ModelStore) Put(m content.Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[m.ID] = m
}

// ListModels returns one page of models ordered by name.
func (s *ModelStore) ListModels(ctx context.Context, page content.Page) (content.ListResult[content.Model], error) {
	s.mu.RLock()
	all := make([]content.Model, 0, len(s.models))
	for _, m := range s.models {
		all = append(all, m)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})
	return paginate(all, page), nil
}

// GetModel retrieves a model by ID.
func (s *ModelStore) GetModel(ctx context.Context, id string) (content.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.models[id]
	if !ok {
		return content.Model{}, fmt.Errorf("model %s: %w", id, ports.ErrNotFound)
	}
	return m, nil
}

func paginate[T any](all []T, page content.Page) content.ListResult[T] {
	page = page.Normalize()
	start := min(page.Offset, len(all))
	end := min(start+page.Limit, len(all))
	items := make([]T, end-start)
	copy(items, all[start:end])
	return content.ListResult[T]{Items: items, Total: len(all)}
}

// Ensure interface compliance.
var _ ports.ModelStore = (*ModelStore)(nil)
