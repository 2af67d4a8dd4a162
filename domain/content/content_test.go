package content

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/artpar/cmsdesk/domain/field"
	"github.com/artpar/cmsdesk/domain/node"
)

func sampleBundle(t *testing.T) Bundle {
	t.Helper()
	data, err := node.Parse([]byte(`{"title":"Hello","seo":{"slug":"hello","tags":["a","b"]},"views":10}`))
	if err != nil {
		t.Fatal(err)
	}
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return Bundle{
		Version:    BundleVersion,
		ExportedAt: ts,
		Model: Model{
			ID:   "mdl_1",
			Name: "Article",
			Fields: []field.Definition{
				{Name: "title", Type: field.TypeString, Required: true},
				{Name: "seo", Type: field.TypeObject, SubFields: []field.Definition{{Name: "slug", Type: field.TypeString}}},
			},
		},
		Entries: []Entry{
			{ID: "ent_1", ModelID: "mdl_1", Status: StatusDraft, Data: data, CreatedAt: ts, UpdatedAt: ts},
		},
	}
}

func TestBundle_RoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			b := sampleBundle(t)

			var buf bytes.Buffer
			if err := EncodeBundle(&buf, b, format); err != nil {
				t.Fatalf("EncodeBundle: %v", err)
			}
			back, err := DecodeBundle(&buf, format)
			if err != nil {
				t.Fatalf("DecodeBundle: %v", err)
			}

			if back.Model.Name != "Article" || len(back.Model.Fields) != 2 {
				t.Errorf("model = %+v", back.Model)
			}
			if len(back.Model.Fields[1].SubFields) != 1 {
				t.Errorf("seo sub-fields lost")
			}
			if len(back.Entries) != 1 {
				t.Fatalf("entries = %d", len(back.Entries))
			}
			got := back.Entries[0]
			if !node.Equal(got.Data, b.Entries[0].Data) {
				t.Errorf("data = %s, want %s", got.Data, b.Entries[0].Data)
			}
			if strings.Join(got.Data.Keys(), ",") != "title,seo,views" {
				t.Errorf("data key order = %v", got.Data.Keys())
			}
			if !got.UpdatedAt.Equal(b.Entries[0].UpdatedAt) {
				t.Errorf("UpdatedAt = %v", got.UpdatedAt)
			}
		})
	}
}

func TestDecodeBundle_RejectsNewerVersion(t *testing.T) {
	_, err := DecodeBundle(strings.NewReader(`{"version": 99, "model": {"id": "m"}}`), FormatJSON)
	if err == nil {
		t.Fatal("expected version error")
	}
}

func TestDecodeBundle_FillsModelID(t *testing.T) {
	src := `{"version":1,"model":{"id":"m1","name":"M","fields":[]},"entries":[{"id":"e1","data":{"a":1}}]}`
	b, err := DecodeBundle(strings.NewReader(src), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if b.Entries[0].ModelID != "m1" {
		t.Errorf("ModelID = %q, want m1", b.Entries[0].ModelID)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"out.yaml":     FormatYAML,
		"OUT.YML":      FormatYAML,
		"out.json":     FormatJSON,
		"no-extension": FormatJSON,
	}
	for name, want := range tests {
		if got := FormatFromPath(name); got != want {
			t.Errorf("FormatFromPath(%s) = %s, want %s", name, got, want)
		}
	}
}

func TestMatch(t *testing.T) {
	e := sampleBundle(t).Entries[0]

	tests := []struct {
		q    string
		want bool
	}{
		{"", true},
		{"HELLO", true},
		{"ent_1", true},
		{"b", true},
		{"10", true},
		{"missing", false},
	}
	for _, tt := range tests {
		if got := Match(e, tt.q); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.q, got, tt.want)
		}
	}

	if got := Filter([]Entry{e, {ID: "x", Data: node.Map()}}, "hello"); len(got) != 1 {
		t.Errorf("Filter = %d entries", len(got))
	}
}

func TestEntryTitle(t *testing.T) {
	e := sampleBundle(t).Entries[0]
	if e.Title() != "Hello" {
		t.Errorf("Title = %q", e.Title())
	}
	if (Entry{ID: "id_9", Data: node.Map()}).Title() != "id_9" {
		t.Error("Title should fall back to ID")
	}
}

func TestPage(t *testing.T) {
	p := Page{Limit: 0, Offset: -5}.Normalize()
	if p.Limit != DefaultPageSize || p.Offset != 0 {
		t.Errorf("Normalize = %+v", p)
	}
	if (Page{Limit: 500}).Normalize().Limit != MaxPageSize {
		t.Error("limit not clamped")
	}
	if n := (Page{Limit: 10, Offset: 20}).Next(); n.Offset != 30 {
		t.Errorf("Next = %+v", n)
	}

	r := ListResult[int]{Items: []int{1, 2}, Total: 5}
	if !r.HasMore(Page{Limit: 2}) {
		t.Error("HasMore should be true")
	}
	if r.HasMore(Page{Limit: 2, Offset: 3}) {
		t.Error("HasMore should be false on the last page")
	}
}
