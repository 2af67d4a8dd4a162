package tree

import (
	"fmt"
	"testing"

	"github.com/artpar/cmsdesk/domain/field"
	"github.com/artpar/cmsdesk/domain/node"
	"github.com/artpar/cmsdesk/domain/path"
	"github.com/google/go-cmp/cmp"
)

func mustParse(t *testing.T, src string) node.Value {
	t.Helper()
	v, err := node.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse %s: %v", src, err)
	}
	return v
}

// outline renders rows as "depth path" lines for comparison.
func outline(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		mark := " "
		if r.Branch {
			mark = "+"
			if r.Expanded {
				mark = "-"
			}
		}
		out[i] = fmt.Sprintf("%d%s%s", r.Depth, mark, r.Path)
	}
	return out
}

var articleDefs = []field.Definition{
	{Name: "a", Type: field.TypeString},
	{Name: "b", Type: field.TypeString},
	{Name: "c", Type: field.TypeNumber},
}

func TestWalk_SchemaOrderThenExtras(t *testing.T) {
	data := mustParse(t, `{"c":1,"a":2,"extra":3}`)

	got := outline(Walk(data, articleDefs, path.Set{}))
	want := []string{"0 a", "0 c", "0 extra"}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("root order mismatch (-want +got):\n%s", diff)
	}
}

func TestWalk_IsIdempotent(t *testing.T) {
	data := mustParse(t, `{"seo":{"slug":"x","tags":["a","b"]},"title":"T","blocks":[{"kind":"p"}]}`)
	defs := []field.Definition{
		{Name: "title", Type: field.TypeString},
		{Name: "seo", Type: field.TypeObject, SubFields: []field.Definition{{Name: "tags", Type: field.TypeList}}},
	}
	expanded := path.NewSet(path.Keys("seo"), path.Keys("seo", "tags"), path.Keys("blocks"))

	first := Walk(data, defs, expanded)
	second := Walk(data, defs, expanded)

	if diff := cmp.Diff(outline(first), outline(second)); diff != "" {
		t.Errorf("walk not idempotent:\n%s", diff)
	}
	for i := range first {
		if !node.Equal(first[i].Value, second[i].Value) {
			t.Errorf("row %d value differs", i)
		}
	}
}

func TestWalk_RecursesOnlyIntoExpanded(t *testing.T) {
	data := mustParse(t, `{"seo":{"slug":"x","tags":["a","b"]},"title":"T","blocks":[{"kind":"p","text":"hi"}]}`)
	defs := []field.Definition{
		{Name: "title", Type: field.TypeString},
		{Name: "seo", Type: field.TypeObject, SubFields: []field.Definition{
			{Name: "tags", Type: field.TypeList},
			{Name: "slug", Type: field.TypeString},
		}},
		{Name: "blocks", Type: field.TypeList, SubFields: []field.Definition{
			{Name: "text", Type: field.TypeString},
			{Name: "kind", Type: field.TypeString},
		}},
	}

	collapsed := outline(Walk(data, defs, path.Set{}))
	if diff := cmp.Diff([]string{"0 title", "0+seo", "0+blocks"}, collapsed); diff != "" {
		t.Errorf("collapsed mismatch (-want +got):\n%s", diff)
	}

	expanded := path.NewSet(
		path.Keys("seo"),
		path.Keys("blocks"),
		path.New(path.Key("blocks"), path.Idx(0)),
	)
	got := outline(Walk(data, defs, expanded))
	want := []string{
		"0 title",
		"0-seo",
		"1+seo.tags",
		"1 seo.slug",
		"0-blocks",
		"1-blocks[0]",
		"2 blocks[0].text",
		"2 blocks[0].kind",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("expanded mismatch (-want +got):\n%s", diff)
	}
}

func TestWalk_RowDetails(t *testing.T) {
	data := mustParse(t, `{"tags":["a","b"],"title":"T","n":null}`)
	defs := []field.Definition{{Name: "title", Type: field.TypeString, Required: true}}

	rows := Walk(data, defs, path.NewSet(path.Keys("tags")))

	title, ok := Find(rows, path.Keys("title"))
	if !ok || title.Field == nil || title.Field.Name != "title" || !title.Field.Required {
		t.Errorf("title row = %+v", title)
	}
	tags, _ := Find(rows, path.Keys("tags"))
	if !tags.Branch || !tags.Expanded || tags.Children != 2 || tags.Field != nil {
		t.Errorf("tags row = %+v", tags)
	}
	elem, ok := Find(rows, path.Keys("tags", "1"))
	if !ok || elem.Key != "[1]" || elem.Depth != 1 || elem.Branch {
		t.Errorf("tags[1] row = %+v", elem)
	}
	if s, _ := elem.Value.AsString(); s != "b" {
		t.Errorf("tags[1] value = %s", elem.Value)
	}
	n, _ := Find(rows, path.Keys("n"))
	if n.Branch {
		t.Error("null value must be a leaf")
	}
}

func TestWalk_MalformedSchemaDegrades(t *testing.T) {
	data := mustParse(t, `{"x":1,"y":{"z":2},"w":3}`)
	defs := []field.Definition{
		{Name: "w"},
		{Name: ""},
		{Name: "w", Type: "bogus"},
		{Name: "y", Type: field.TypeString, SubFields: []field.Definition{{Name: "missing"}}},
		{Name: "ghost", Type: field.TypeObject},
	}

	got := outline(Walk(data, defs, path.NewSet(path.Keys("y"))))
	want := []string{"0 w", "0-y", "1 y.z", "0 x"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("degraded order mismatch (-want +got):\n%s", diff)
	}

	if rows := Walk(data, nil, path.Set{}); len(rows) != 3 || rows[0].Key != "x" {
		t.Errorf("nil schema rows = %v", outline(rows))
	}
}

func TestWalk_NonMapRoots(t *testing.T) {
	list := mustParse(t, `[{"a":1},2]`)
	got := outline(Walk(list, nil, path.NewSet(path.New(path.Idx(0)))))
	if diff := cmp.Diff([]string{"0-[0]", "1 [0].a", "0 [1]"}, got); diff != "" {
		t.Errorf("list root mismatch:\n%s", diff)
	}

	if rows := Walk(node.String("x"), articleDefs, path.Set{}); len(rows) != 0 {
		t.Errorf("scalar root produced %d rows", len(rows))
	}
}

func TestRows_StopsEarly(t *testing.T) {
	data := mustParse(t, `{"a":{"b":{"c":1}},"d":2,"e":3}`)
	expanded := ExpandAll(data, -1)

	var seen []string
	for r := range Rows(data, nil, expanded) {
		seen = append(seen, r.Path.String())
		if len(seen) == 2 {
			break
		}
	}
	if diff := cmp.Diff([]string{"a", "a.b"}, seen); diff != "" {
		t.Errorf("early stop mismatch:\n%s", diff)
	}
}

func TestExpandAll(t *testing.T) {
	data := mustParse(t, `{"a":{"b":{"c":[{"d":1}]}},"x":1,"l":[1,[2]]}`)

	one := ExpandAll(data, 1)
	if one.Len() != 2 || !one.Has(path.Keys("a")) || !one.Has(path.Keys("l")) {
		t.Errorf("ExpandAll(1) = %v", one.Paths())
	}

	all := ExpandAll(data, -1)
	for _, p := range []path.Path{
		path.Keys("a", "b", "c"),
		path.New(path.Key("a"), path.Key("b"), path.Key("c"), path.Idx(0)),
		path.New(path.Key("l"), path.Idx(1)),
	} {
		if !all.Has(p) {
			t.Errorf("ExpandAll(-1) missing %s", p)
		}
	}
	if all.Has(path.Keys("x")) {
		t.Error("leaves must not be expanded")
	}
}

func TestFieldAt(t *testing.T) {
	data := mustParse(t, `{"blocks":[{"text":"hi"}],"tags":["a"],"seo":{"slug":"s"}}`)
	defs := []field.Definition{
		{Name: "blocks", Type: field.TypeList, SubFields: []field.Definition{{Name: "text", Type: field.TypeRichText}}},
		{Name: "tags", Type: field.TypeList},
		{Name: "seo", Type: field.TypeObject, SubFields: []field.Definition{{Name: "slug", Type: field.TypeString}}},
	}

	tests := []struct {
		p    path.Path
		want field.Type
	}{
		{path.Keys("seo", "slug"), field.TypeString},
		{path.Keys("blocks", "0", "text"), field.TypeRichText},
		{path.Keys("blocks", "0"), field.TypeObject},
		{path.Keys("tags"), field.TypeList},
		{path.Keys("tags", "0"), ""},
		{path.Keys("nope"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.p.String(), func(t *testing.T) {
			def := FieldAt(defs, data, tt.p)
			var got field.Type
			if def != nil {
				got = def.Type
			}
			if got != tt.want {
				t.Errorf("FieldAt(%s) type = %q, want %q", tt.p, got, tt.want)
			}
		})
	}
}
