package memory

import (
	"github.com/artpar/cmsdesk/domain/content"
	"github.com/artpar/cmsdesk/ports"
)

// FromBundle builds stores seeded with an exported bundle. It backs the
// --offline mode, where edits stay in memory.
func FromBundle(b content.Bundle, ids ports.IDGenerator, clock ports.Clock) (*ModelStore, *EntryStore) {
	models := NewModelStore(b.Model)
	entries := NewEntryStore(ids, clock)
	for _, e := range b.Entries {
		entries.Put(e)
	}
	return models, entries
}
