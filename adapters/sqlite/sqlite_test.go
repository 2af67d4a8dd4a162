package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/artpar/cmsdesk/adapters/sqlite"
	"github.com/artpar/cmsdesk/domain/node"
	"github.com/artpar/cmsdesk/ports"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "nested", "cmsdesk-test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	ran, err := db.Migrate(context.Background())
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if len(ran) != 0 {
		t.Errorf("second migrate applied %v, want nothing", ran)
	}
}

// -----------------------------------------------------------------------------
// SnapshotStore Tests
// -----------------------------------------------------------------------------

func TestSnapshotStore_SaveAndGet(t *testing.T) {
	store := sqlite.NewSnapshotStore(setupTestDB(t))
	ctx := context.Background()

	data, err := node.Parse([]byte(`{"zeta":1,"alpha":{"y":[1,"two",null],"x":true}}`))
	if err != nil {
		t.Fatal(err)
	}
	created := time.Date(2024, 2, 3, 4, 5, 6, 7000, time.UTC)

	err = store.Save(ctx, ports.Snapshot{ID: "snp_1", EntryID: "ent_1", Data: data, Note: "first", CreatedAt: created})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "snp_1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !node.Equal(got.Data, data) {
		t.Errorf("Data = %s, want %s", got.Data, data)
	}
	if strings.Join(got.Data.Keys(), ",") != "zeta,alpha" {
		t.Errorf("key order = %v", got.Data.Keys())
	}
	if got.Note != "first" || got.EntryID != "ent_1" {
		t.Errorf("snapshot = %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}

	if err := store.Save(ctx, ports.Snapshot{ID: "snp_1", EntryID: "ent_1", Data: data}); err == nil {
		t.Error("duplicate ID should fail")
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Get(missing) err = %v, want ErrNotFound", err)
	}
}

func TestSnapshotStore_ListNewestFirst(t *testing.T) {
	store := sqlite.NewSnapshotStore(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		snap := ports.Snapshot{
			ID:        id,
			EntryID:   "ent_1",
			Data:      node.Map(node.Entry{Key: "n", Value: node.Number(float64(i))}),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := store.Save(ctx, snap); err != nil {
			t.Fatalf("Save(%s): %v", id, err)
		}
	}
	store.Save(ctx, ports.Snapshot{ID: "x", EntryID: "ent_2", Data: node.Map(), CreatedAt: base})

	list, err := store.List(ctx, "ent_1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	var ids []string
	for _, s := range list {
		ids = append(ids, s.ID)
	}
	if strings.Join(ids, ",") != "c,b,a" {
		t.Errorf("ids = %v, want [c b a]", ids)
	}

	empty, err := store.List(ctx, "none")
	if err != nil || len(empty) != 0 {
		t.Errorf("List(none) = %v, %v", empty, err)
	}
}

// -----------------------------------------------------------------------------
// SettingsStore Tests
// -----------------------------------------------------------------------------

func TestSettingsStore(t *testing.T) {
	store := sqlite.NewSettingsStore(setupTestDB(t))
	ctx := context.Background()

	if _, err := store.Get(ctx, "cms.token"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Get on empty err = %v, want ErrNotFound", err)
	}

	if err := store.Set(ctx, "cms.token", "one"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "cms.token", "two"); err != nil {
		t.Fatalf("Set (update) failed: %v", err)
	}
	if v, err := store.Get(ctx, "cms.token"); err != nil || v != "two" {
		t.Errorf("Get = %q, %v; want two", v, err)
	}

	if err := store.Delete(ctx, "cms.token"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "cms.token"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("after Delete err = %v", err)
	}
}
