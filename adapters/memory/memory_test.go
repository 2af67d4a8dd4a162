package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/artpar/cmsdesk/adapters/clock"
	"github.com/artpar/cmsdesk/adapters/idgen"
	"github.com/artpar/cmsdesk/adapters/memory"
	"github.com/artpar/cmsdesk/domain/content"
	"github.com/artpar/cmsdesk/domain/node"
	"github.com/artpar/cmsdesk/ports"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// ModelStore tests

func TestModelStore_ListAndGet(t *testing.T) {
	store := memory.NewModelStore(
		content.Model{ID: "m2", Name: "Page"},
		content.Model{ID: "m1", Name: "Article"},
		content.Model{ID: "m3", Name: "Author"},
	)
	ctx := context.Background()

	list, err := store.ListModels(ctx, content.Page{Limit: 2})
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if list.Total != 3 || len(list.Items) != 2 {
		t.Fatalf("list = %+v", list)
	}
	if list.Items[0].Name != "Article" || list.Items[1].Name != "Author" {
		t.Errorf("order = %s, %s", list.Items[0].Name, list.Items[1].Name)
	}

	next, _ := store.ListModels(ctx, content.Page{Limit: 2, Offset: 2})
	if len(next.Items) != 1 || next.Items[0].ID != "m2" {
		t.Errorf("second page = %+v", next.Items)
	}

	beyond, _ := store.ListModels(ctx, content.Page{Limit: 2, Offset: 10})
	if len(beyond.Items) != 0 {
		t.Errorf("page beyond end = %+v", beyond.Items)
	}

	if _, err := store.GetModel(ctx, "nope"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("GetModel(nope) err = %v, want ErrNotFound", err)
	}
}

// EntryStore tests

func newEntryStore() *memory.EntryStore {
	return memory.NewEntryStore(idgen.NewSequential("ent_"), clock.NewFake(epoch))
}

func TestEntryStore_CRUD(t *testing.T) {
	store := newEntryStore()
	ctx := context.Background()
	data := node.Map(node.Entry{Key: "title", Value: node.String("Hi")})

	e, err := store.CreateEntry(ctx, "m1", data)
	if err != nil {
		t.Fatalf("CreateEntry failed: %v", err)
	}
	if e.ID != "ent_1" || e.Status != content.StatusDraft || !e.CreatedAt.Equal(epoch) {
		t.Errorf("created = %+v", e)
	}

	got, err := store.GetEntry(ctx, "ent_1")
	if err != nil || !node.Equal(got.Data, data) {
		t.Errorf("GetEntry = %+v, %v", got, err)
	}

	updated := node.Map(node.Entry{Key: "title", Value: node.String("Bye")})
	if _, err := store.UpdateEntry(ctx, "ent_1", updated); err != nil {
		t.Fatalf("UpdateEntry failed: %v", err)
	}
	got, _ = store.GetEntry(ctx, "ent_1")
	if !node.Equal(got.Data, updated) {
		t.Errorf("after update = %s", got.Data)
	}

	if err := store.DeleteEntry(ctx, "ent_1"); err != nil {
		t.Fatalf("DeleteEntry failed: %v", err)
	}
	if _, err := store.GetEntry(ctx, "ent_1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("after delete err = %v", err)
	}
	if err := store.DeleteEntry(ctx, "ent_1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("double delete err = %v", err)
	}
	if _, err := store.UpdateEntry(ctx, "ent_1", updated); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("update missing err = %v", err)
	}
}

func TestEntryStore_ListFiltersByModelInInsertionOrder(t *testing.T) {
	store := newEntryStore()
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		store.Put(content.Entry{ID: id, ModelID: "m1", Data: node.Map()})
	}
	store.Put(content.Entry{ID: "z", ModelID: "m2", Data: node.Map()})

	list, err := store.ListEntries(ctx, "m1", content.Page{})
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if list.Total != 3 {
		t.Errorf("Total = %d, want 3", list.Total)
	}
	var ids []string
	for _, e := range list.Items {
		ids = append(ids, e.ID)
	}
	if len(ids) != 3 || ids[0] != "c" || ids[1] != "a" || ids[2] != "b" {
		t.Errorf("ids = %v, want [c a b]", ids)
	}
}

func TestEntryStore_Concurrent(t *testing.T) {
	store := newEntryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.CreateEntry(ctx, "m1", node.Map())
		}()
	}
	wg.Wait()

	if store.Count() != 50 {
		t.Errorf("Count = %d, want 50", store.Count())
	}
}

// SnapshotStore tests

func TestSnapshotStore(t *testing.T) {
	store := memory.NewSnapshotStore()
	ctx := context.Background()

	for i, id := range []string{"s1", "s2", "s3"} {
		err := store.Save(ctx, ports.Snapshot{
			ID:        id,
			EntryID:   "e1",
			Data:      node.Map(node.Entry{Key: "v", Value: node.Number(float64(i))}),
			CreatedAt: epoch.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Save(%s) failed: %v", id, err)
		}
	}
	store.Save(ctx, ports.Snapshot{ID: "other", EntryID: "e2", CreatedAt: epoch})

	if err := store.Save(ctx, ports.Snapshot{ID: "s1", EntryID: "e1"}); err == nil {
		t.Error("duplicate Save should fail")
	}

	list, err := store.List(ctx, "e1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 || list[0].ID != "s3" || list[2].ID != "s1" {
		t.Errorf("List order = %v", list)
	}

	got, err := store.Get(ctx, "s2")
	if err != nil || got.EntryID != "e1" {
		t.Errorf("Get = %+v, %v", got, err)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Get(missing) err = %v", err)
	}
}

func TestFromBundle(t *testing.T) {
	b := content.Bundle{
		Model:   content.Model{ID: "m1", Name: "Article"},
		Entries: []content.Entry{{ID: "e1", ModelID: "m1", Data: node.Map()}},
	}
	models, entries := memory.FromBundle(b, idgen.NewSequential("n"), clock.NewFake(epoch))

	if _, err := models.GetModel(context.Background(), "m1"); err != nil {
		t.Errorf("GetModel: %v", err)
	}
	if _, err := entries.GetEntry(context.Background(), "e1"); err != nil {
		t.Errorf("GetEntry: %v", err)
	}
}
