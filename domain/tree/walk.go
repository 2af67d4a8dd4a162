// Package tree turns content data and its schema into renderable rows.
//
// The walker is stateless: which branches are open is decided by the
// caller-held expanded set passed on every call. Recursion stops at closed
// branches, so work is bounded by what is visible, not by tree depth.
package tree

import (
	"iter"
	"strconv"

	"github.com/artpar/cmsdesk/domain/field"
	"github.com/artpar/cmsdesk/domain/node"
	"github.com/artpar/cmsdesk/domain/path"
)

// Row is one visible line of a tree view.
type Row struct {
	Path     path.Path
	Key      string // field name, or [i] for list elements
	Depth    int
	Value    node.Value
	Field    *field.Definition // nil when the schema has no matching field
	Branch   bool
	Expanded bool
	Children int
}

// Rows yields the visible rows of data depth first.
//
// Map children are ordered by the schema first (fields present in data, in
// definition order), then by any remaining data keys in their original
// order. List children follow index order. A missing or malformed schema
// falls back to data order.
func Rows(data node.Value, defs []field.Definition, expanded path.Set) iter.Seq[Row] {
	return func(yield func(Row) bool) {
		w := walker{expanded: expanded, yield: yield}
		switch data.Kind() {
		case node.KindMap:
			w.mapping(data, defs, path.Root, 0)
		case node.KindList:
			w.list(data, defs, path.Root, 0)
		}
	}
}

// Walk collects Rows into a slice.
func Walk(data node.Value, defs []field.Definition, expanded path.Set) []Row {
	var out []Row
	for r := range Rows(data, defs, expanded) {
		out = append(out, r)
	}
	return out
}

type walker struct {
	expanded path.Set
	yield    func(Row) bool
}

func (w *walker) mapping(data node.Value, defs []field.Definition, at path.Path, depth int) bool {
	for _, key := range OrderedKeys(data, defs) {
		val, _ := data.Lookup(key)

		var def *field.Definition
		if found, ok := field.Find(defs, key); ok {
			cp := *found
			def = &cp
		}

		p := path.Append(at, path.Key(key))
		if !w.emit(p, key, depth, val, def) {
			return false
		}
		if !w.descend(p, val, subFields(def), depth) {
			return false
		}
	}
	return true
}

func (w *walker) list(data node.Value, itemDefs []field.Definition, at path.Path, depth int) bool {
	for i, item := range data.Items() {
		p := path.Append(at, path.Idx(i))
		if !w.emit(p, "["+strconv.Itoa(i)+"]", depth, item, nil) {
			return false
		}
		if !w.descend(p, item, itemDefs, depth) {
			return false
		}
	}
	return true
}

func (w *walker) emit(p path.Path, key string, depth int, val node.Value, def *field.Definition) bool {
	return w.yield(Row{
		Path:     p,
		Key:      key,
		Depth:    depth,
		Value:    val,
		Field:    def,
		Branch:   val.IsBranch(),
		Expanded: val.IsBranch() && w.expanded.Has(p),
		Children: val.Len(),
	})
}

func (w *walker) descend(p path.Path, val node.Value, defs []field.Definition, depth int) bool {
	if !val.IsBranch() || !w.expanded.Has(p) {
		return true
	}
	switch val.Kind() {
	case node.KindMap:
		return w.mapping(val, defs, p, depth+1)
	case node.KindList:
		// elements of a list of objects share the list's sub-fields
		return w.list(val, defs, p, depth+1)
	}
	return true
}

func subFields(def *field.Definition) []field.Definition {
	if def == nil {
		return nil
	}
	return def.SubFields
}

// OrderedKeys returns the keys of a map value in display order: schema
// fields present in data first, in definition order, then the remaining
// data keys in encounter order. Fields absent from data are omitted.
// Blank or repeated schema names are ignored.
func OrderedKeys(data node.Value, defs []field.Definition) []string {
	keys := data.Keys()
	if len(defs) == 0 {
		return keys
	}

	out := make([]string, 0, len(keys))
	used := make(map[string]bool, len(keys))
	for _, d := range defs {
		if d.Name == "" || used[d.Name] || !data.Has(d.Name) {
			continue
		}
		used[d.Name] = true
		out = append(out, d.Name)
	}
	for _, k := range keys {
		if !used[k] {
			out = append(out, k)
		}
	}
	return out
}

// ExpandAll returns the paths of every branch in data down to depth levels.
// depth 1 opens only top-level branches; a negative depth opens everything.
func ExpandAll(data node.Value, depth int) path.Set {
	var paths []path.Path
	collectBranches(data, path.Root, depth, &paths)
	return path.NewSet(paths...)
}

func collectBranches(v node.Value, at path.Path, depth int, out *[]path.Path) {
	if depth == 0 {
		return
	}
	switch v.Kind() {
	case node.KindMap:
		for _, e := range v.Entries() {
			if !e.Value.IsBranch() {
				continue
			}
			p := path.Append(at, path.Key(e.Key))
			*out = append(*out, p)
			collectBranches(e.Value, p, depth-1, out)
		}
	case node.KindList:
		for i, item := range v.Items() {
			if !item.IsBranch() {
				continue
			}
			p := path.Append(at, path.Idx(i))
			*out = append(*out, p)
			collectBranches(item, p, depth-1, out)
		}
	}
}

// Find returns the row at p.
func Find(rows []Row, p path.Path) (Row, bool) {
	for _, r := range rows {
		if path.Equal(r.Path, p) {
			return r, true
		}
	}
	return Row{}, false
}

// FieldAt resolves the schema definition for the node at p, following
// sub-fields through maps and through list elements. It returns nil when any
// step has no matching definition.
func FieldAt(defs []field.Definition, data node.Value, p path.Path) *field.Definition {
	var def *field.Definition
	cur := data
	level := defs
	for _, seg := range p {
		switch cur.Kind() {
		case node.KindMap:
			found, ok := field.Find(level, seg.Name)
			if !ok {
				return nil
			}
			cp := *found
			def = &cp
			level = def.SubFields
			cur, _ = cur.Lookup(seg.Name)
		case node.KindList:
			i, ok := seg.Int()
			if !ok {
				return nil
			}
			cur, _ = cur.Index(i)
			if def == nil {
				// a root-level list keeps the top-level schema
				continue
			}
			if len(def.SubFields) == 0 {
				def, level = nil, nil
				continue
			}
			// elements of a list of objects are described by its sub-fields
			def = &field.Definition{Name: seg.Name, Type: field.TypeObject, SubFields: def.SubFields}
			level = def.SubFields
		default:
			return nil
		}
	}
	return def
}
