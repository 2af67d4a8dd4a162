package diff

import (
	"strings"
	"testing"

	"github.com/artpar/cmsdesk/domain/node"
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

// rows renders results as "kind path" for comparison.
func rows(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = string(r.Kind) + " " + r.Path.String()
	}
	return out
}

func TestDiff_ScalarModify(t *testing.T) {
	results := Diff(mustParse(t, `{"title":"X"}`), mustParse(t, `{"title":"Y"}`))

	if len(results) != 1 {
		t.Fatalf("len = %d, want 1", len(results))
	}
	r := results[0]
	if r.Path.String() != "title" || r.Kind != Modified {
		t.Errorf("result = %s %s", r.Kind, r.Path)
	}
	if s, _ := r.Left.AsString(); s != "X" {
		t.Errorf("Left = %s", r.Left)
	}
	if s, _ := r.Right.AsString(); s != "Y" {
		t.Errorf("Right = %s", r.Right)
	}
}

func TestDiff_ArraysAreAtomic(t *testing.T) {
	results := Diff(mustParse(t, `{"tags":["a","b"]}`), mustParse(t, `{"tags":["b","a"]}`))

	if diff := cmp.Diff([]string{"modified tags"}, rows(results)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	same := Diff(mustParse(t, `{"tags":[{"a":1,"b":2}]}`), mustParse(t, `{"tags":[{"b":2,"a":1}]}`))
	if diff := cmp.Diff([]string{"equal tags"}, rows(same)); diff != "" {
		t.Errorf("list of equal maps mismatch:\n%s", diff)
	}
}

func TestDiff_KeyOrderDoesNotMatter(t *testing.T) {
	results := Diff(mustParse(t, `{"a":1,"b":2}`), mustParse(t, `{"b":2,"a":1}`))

	if diff := cmp.Diff([]string{"equal a", "equal b"}, rows(results)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDiff_NestedAndOrdering(t *testing.T) {
	left := mustParse(t, `{"title":"T","seo":{"slug":"a","old":1},"gone":{"x":1},"n":null}`)
	right := mustParse(t, `{"new":[1],"seo":{"fresh":true,"slug":"b"},"title":"T","n":{"k":1}}`)

	got := rows(Diff(left, right))
	want := []string{
		"equal title",
		"modified seo.slug",
		"removed seo.old",
		"added seo.fresh",
		"removed gone",
		"modified n",
		"added new",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDiff_ContainersNeverReportedAlone(t *testing.T) {
	results := Diff(mustParse(t, `{"a":{"b":{"c":1}}}`), mustParse(t, `{"a":{"b":{"c":1}}}`))
	for _, r := range results {
		if r.Left.Kind() == node.KindMap || r.Right.Kind() == node.KindMap {
			t.Errorf("container row emitted at %s", r.Path)
		}
	}
	if diff := cmp.Diff([]string{"equal a.b.c"}, rows(results)); diff != "" {
		t.Errorf("mismatch:\n%s", diff)
	}

	empty := Diff(mustParse(t, `{"a":{}}`), mustParse(t, `{"a":{}}`))
	if len(empty) != 0 {
		t.Errorf("empty maps produced %v", rows(empty))
	}
}

func TestDiff_TypeMismatch(t *testing.T) {
	results := Diff(mustParse(t, `{"a":{"x":1},"b":[1],"c":"1"}`), mustParse(t, `{"a":[1],"b":{"0":1},"c":1}`))
	if diff := cmp.Diff([]string{"modified a", "modified b", "modified c"}, rows(results)); diff != "" {
		t.Errorf("mismatch:\n%s", diff)
	}
}

func TestDiff_AddedRemovedCarrySubtree(t *testing.T) {
	results := Diff(mustParse(t, `{}`), mustParse(t, `{"meta":{"a":1,"b":2}}`))
	if len(results) != 1 {
		t.Fatalf("len = %d", len(results))
	}
	r := results[0]
	if r.Kind != Added || r.HasLeft || !r.HasRight || r.Right.Len() != 2 {
		t.Errorf("added row = %+v", r)
	}
}

func TestDiff_NonMapRoot(t *testing.T) {
	results := Diff(mustParse(t, `[1]`), mustParse(t, `[1]`))
	if len(results) != 1 || results[0].Kind != Equal || !results[0].Path.IsRoot() {
		t.Errorf("list roots = %v", rows(results))
	}
	results = Diff(mustParse(t, `{"a":1}`), node.Null())
	if len(results) != 1 || results[0].Kind != Modified {
		t.Errorf("map vs null = %v", rows(results))
	}
}

func TestDiff_AddedRemovedSymmetry(t *testing.T) {
	docs := []string{
		`{}`,
		`{"a":1}`,
		`{"a":{"b":1,"c":[1]},"d":"x"}`,
		`{"d":"y","a":{"c":[2],"e":null}}`,
		`{"z":{"y":{"x":1}}}`,
	}

	for _, ls := range docs {
		for _, rs := range docs {
			l, r := mustParse(t, ls), mustParse(t, rs)
			forward := index(Diff(l, r))
			backward := index(Diff(r, l))

			for p, k := range forward {
				switch k {
				case Added:
					if backward[p] != Removed {
						t.Errorf("%s vs %s: added %s not removed in reverse", ls, rs, p)
					}
				case Removed:
					if backward[p] != Added {
						t.Errorf("%s vs %s: removed %s not added in reverse", ls, rs, p)
					}
				}
			}
			for p, k := range backward {
				if (k == Added || k == Removed) && forward[p] == "" {
					t.Errorf("%s vs %s: %s %s missing forward", ls, rs, k, p)
				}
			}
		}
	}
}

func index(results []Result) map[string]Kind {
	m := make(map[string]Kind, len(results))
	for _, r := range results {
		m[r.Path.String()] = r.Kind
	}
	return m
}

func TestDiff_Deterministic(t *testing.T) {
	l := mustParse(t, `{"b":{"y":1,"x":2},"a":[1,2],"c":"s"}`)
	r := mustParse(t, `{"c":"t","a":[2,1],"d":true,"b":{"x":3}}`)

	first := rows(Diff(l, r))
	for i := 0; i < 20; i++ {
		if diff := cmp.Diff(first, rows(Diff(l, r))); diff != "" {
			t.Fatalf("run %d differs:\n%s", i, diff)
		}
	}
}

func TestSummaryAndChanges(t *testing.T) {
	results := Diff(mustParse(t, `{"a":1,"b":2,"c":3}`), mustParse(t, `{"a":1,"b":5,"d":4}`))

	c := Summary(results)
	if c != (Counts{Equal: 1, Modified: 1, Added: 1, Removed: 1}) {
		t.Errorf("Summary = %+v", c)
	}
	if c.Changed() != 3 {
		t.Errorf("Changed = %d", c.Changed())
	}
	if got := rows(Changes(results)); len(got) != 3 || got[0] != "modified b" {
		t.Errorf("Changes = %v", got)
	}
}

func TestTextDiff_Reconstructs(t *testing.T) {
	pairs := [][2]string{
		{"kitten", "sitting"},
		{"Hello world", "Hello brave new world"},
		{"", "abc"},
		{"same", "same"},
	}

	for _, p := range pairs {
		spans := TextDiff(p[0], p[1])
		var a, b strings.Builder
		for _, s := range spans {
			switch s.Op {
			case OpEqual:
				a.WriteString(s.Text)
				b.WriteString(s.Text)
			case OpDelete:
				a.WriteString(s.Text)
			case OpInsert:
				b.WriteString(s.Text)
			}
		}
		if a.String() != p[0] || b.String() != p[1] {
			t.Errorf("TextDiff(%q, %q) reconstructs %q -> %q", p[0], p[1], a.String(), b.String())
		}
	}
}

func TestResult_StringChange(t *testing.T) {
	r := Diff(mustParse(t, `{"t":"abc","n":1}`), mustParse(t, `{"t":"abd","n":2}`))

	if spans, ok := r[0].StringChange(); !ok || len(spans) == 0 {
		t.Errorf("StringChange on strings = %v, %v", spans, ok)
	}
	if _, ok := r[1].StringChange(); ok {
		t.Error("StringChange on numbers should be false")
	}
}
