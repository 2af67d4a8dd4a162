// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/artpar/cmsdesk/domain/content"
	"github.com/artpar/cmsdesk/domain/node"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// CMS Ports
// -----------------------------------------------------------------------------

// ModelStore supplies content models (schemas).
type ModelStore interface {
	// ListModels returns one page of models.
	ListModels(ctx context.Context, page content.Page) (content.ListResult[content.Model], error)

	// GetModel returns a model with its field definitions.
	GetModel(ctx context.Context, id string) (content.Model, error)
}

// EntryStore supplies and persists content entries.
type EntryStore interface {
	// ListEntries returns one page of entries of a model.
	ListEntries(ctx context.Context, modelID string, page content.Page) (content.ListResult[content.Entry], error)

	// GetEntry returns one entry.
	GetEntry(ctx context.Context, id string) (content.Entry, error)

	// CreateEntry stores a new entry and returns it as saved.
	CreateEntry(ctx context.Context, modelID string, data node.Value) (content.Entry, error)

	// UpdateEntry replaces the complete data of an entry.
	UpdateEntry(ctx context.Context, id string, data node.Value) (content.Entry, error)

	// DeleteEntry removes an entry.
	DeleteEntry(ctx context.Context, id string) error
}

// -----------------------------------------------------------------------------
// Local Ports
// -----------------------------------------------------------------------------

// Snapshot is a locally recorded version of an entry's data.
type Snapshot struct {
	ID        string
	EntryID   string
	Data      node.Value
	Note      string
	CreatedAt time.Time
}

// SnapshotStore records entry versions saved from this machine.
type SnapshotStore interface {
	// Save records a snapshot.
	Save(ctx context.Context, s Snapshot) error

	// List returns the snapshots of an entry, newest first.
	List(ctx context.Context, entryID string) ([]Snapshot, error)

	// Get returns one snapshot.
	Get(ctx context.Context, id string) (Snapshot, error)
}

// SettingsStore persists small local settings such as the API token.
type SettingsStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
