package app

import (
	"context"
	"fmt"

	"github.com/artpar/cmsdesk/domain/diff"
	"github.com/artpar/cmsdesk/ports"
)

// Compare diffs the data of two entries, left against right.
func (e *Editor) Compare(ctx context.Context, leftID, rightID string) ([]diff.Result, error) {
	left, err := e.deps.Entries.GetEntry(ctx, leftID)
	if err != nil {
		return nil, fmt.Errorf("load entry %s: %w", leftID, err)
	}
	right, err := e.deps.Entries.GetEntry(ctx, rightID)
	if err != nil {
		return nil, fmt.Errorf("load entry %s: %w", rightID, err)
	}

	e.deps.Metrics.RecordDiff("entries")
	return diff.Diff(left.Data, right.Data), nil
}

// CompareSnapshot diffs a recorded snapshot (left) against the entry's
// current data in the CMS (right).
func (e *Editor) CompareSnapshot(ctx context.Context, entryID, snapshotID string) ([]diff.Result, error) {
	if e.deps.Snapshots == nil {
		return nil, fmt.Errorf("compare snapshot: no snapshot store configured")
	}
	snap, err := e.deps.Snapshots.Get(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", snapshotID, err)
	}
	if snap.EntryID != entryID {
		return nil, fmt.Errorf("snapshot %s of entry %s: %w", snapshotID, entryID, ports.ErrNotFound)
	}
	current, err := e.deps.Entries.GetEntry(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("load entry %s: %w", entryID, err)
	}

	e.deps.Metrics.RecordDiff("snapshot")
	return diff.Diff(snap.Data, current.Data), nil
}
