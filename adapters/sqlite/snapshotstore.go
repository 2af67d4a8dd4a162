package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/artpar/cmsdesk/domain/node"
	"github.com/artpar/cmsdesk/ports"
)

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SnapshotStore implements ports.SnapshotStore using SQLite. Data is stored
// as ordered JSON text.
type SnapshotStore struct {
	db *DB
}

// NewSnapshotStore creates a new snapshot store.
func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Save records a snapshot.
func (s *SnapshotStore) Save(ctx context.Context, snap ports.Snapshot) error {
	data, err := snap.Data.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode snapshot data: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, entry_id, data, note, created_at) VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.EntryID, string(data), snap.Note, snap.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// List returns the snapshots of an entry, newest first.
func (s *SnapshotStore) List(ctx context.Context, entryID string) ([]ports.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entry_id, data, note, created_at FROM snapshots
		 WHERE entry_id = ? ORDER BY created_at DESC, rowid DESC`,
		entryID,
	)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []ports.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Get retrieves a snapshot by ID.
func (s *SnapshotStore) Get(ctx context.Context, id string) (ports.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, entry_id, data, note, created_at FROM snapshots WHERE id = ?`,
		id,
	)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.Snapshot{}, fmt.Errorf("snapshot %s: %w", id, ports.ErrNotFound)
	}
	return snap, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(sc scanner) (ports.Snapshot, error) {
	var (
		snap      ports.Snapshot
		data      string
		createdAt string
	)
	if err := sc.Scan(&snap.ID, &snap.EntryID, &data, &snap.Note, &createdAt); err != nil {
		return ports.Snapshot{}, err
	}

	v, err := node.Parse([]byte(data))
	if err != nil {
		return ports.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
	}
	snap.Data = v
	snap.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return snap, nil
}

// Ensure interface compliance.
var _ ports.SnapshotStore = (*SnapshotStore)(nil)
