// Package diff compares two versions of content data field by field.
package diff

import (
	"github.com/artpar/cmsdesk/domain/node"
	"github.com/artpar/cmsdesk/domain/path"
)

// Kind classifies one compared path.
type Kind string

const (
	Equal    Kind = "equal"
	Modified Kind = "modified"
	Added    Kind = "added"   // absent on the left, present on the right
	Removed  Kind = "removed" // present on the left, absent on the right
)

// Result is the comparison outcome for one path.
type Result struct {
	Path     path.Path
	Kind     Kind
	Left     node.Value
	Right    node.Value
	HasLeft  bool
	HasRight bool
}

// Diff compares left and right.
//
// At each map level keys are visited in left order, then remaining right
// order. Maps present on both sides are recursed into and never reported
// themselves. Lists are atomic: any difference, including order, is one
// Modified row for the whole list. Everything else, including kind
// mismatches, is Equal or Modified by structural equality. A key present on
// one side only is one Added or Removed row carrying the whole subtree.
func Diff(left, right node.Value) []Result {
	var out []Result
	if left.Kind() != node.KindMap || right.Kind() != node.KindMap {
		return append(out, compare(path.Root, left, right))
	}
	diffMaps(path.Root, left, right, &out)
	return out
}

func diffMaps(at path.Path, left, right node.Value, out *[]Result) {
	for _, k := range unionKeys(left, right) {
		p := path.Append(at, path.Key(k))
		lv, inLeft := left.Lookup(k)
		rv, inRight := right.Lookup(k)

		switch {
		case inLeft && !inRight:
			*out = append(*out, Result{Path: p, Kind: Removed, Left: lv, HasLeft: true})
		case !inLeft && inRight:
			*out = append(*out, Result{Path: p, Kind: Added, Right: rv, HasRight: true})
		case lv.Kind() == node.KindMap && rv.Kind() == node.KindMap:
			diffMaps(p, lv, rv, out)
		default:
			*out = append(*out, compare(p, lv, rv))
		}
	}
}

func compare(p path.Path, lv, rv node.Value) Result {
	kind := Modified
	if node.Equal(lv, rv) {
		kind = Equal
	}
	return Result{Path: p, Kind: kind, Left: lv, Right: rv, HasLeft: true, HasRight: true}
}

func unionKeys(left, right node.Value) []string {
	keys := left.Keys()
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
	}
	for _, k := range right.Keys() {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

// Counts tallies results by kind.
type Counts struct {
	Equal    int `json:"equal"`
	Modified int `json:"modified"`
	Added    int `json:"added"`
	Removed  int `json:"removed"`
}

// Changed returns the number of non-equal results.
func (c Counts) Changed() int {
	return c.Modified + c.Added + c.Removed
}

// Summary counts results by kind.
func Summary(results []Result) Counts {
	var c Counts
	for _, r := range results {
		switch r.Kind {
		case Equal:
			c.Equal++
		case Modified:
			c.Modified++
		case Added:
			c.Added++
		case Removed:
			c.Removed++
		}
	}
	return c
}

// Changes returns the results that are not Equal.
func Changes(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Kind != Equal {
			out = append(out, r)
		}
	}
	return out
}
