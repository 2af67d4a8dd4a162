// Package edit applies single-path changes to content data.
//
// Every operation returns a new root. Containers on the way to the target are
// copied one level each; everything else is shared with the input, which is
// never modified.
package edit

import (
	"errors"
	"fmt"

	"github.com/artpar/cmsdesk/domain/node"
	"github.com/artpar/cmsdesk/domain/path"
)

// ErrInvalidPath matches every *InvalidPathError via errors.Is.
var ErrInvalidPath = errors.New("invalid path")

// InvalidPathError reports a path that cannot address a node in the tree.
type InvalidPathError struct {
	Path   path.Path
	Reason string
}

func (e *InvalidPathError) Error() string {
	if len(e.Path) == 0 {
		return "invalid path (root): " + e.Reason
	}
	return fmt.Sprintf("invalid path %s: %s", e.Path, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidPath) true.
func (e *InvalidPathError) Is(target error) bool {
	return target == ErrInvalidPath
}

func invalid(p path.Path, format string, args ...any) error {
	return &InvalidPathError{Path: path.New(p...), Reason: fmt.Sprintf(format, args...)}
}

// Get returns the node at p. The empty path returns root.
func Get(root node.Value, p path.Path) (node.Value, bool) {
	cur := root
	for _, seg := range p {
		next, ok := child(cur, seg)
		if !ok {
			return node.Value{}, false
		}
		cur = next
	}
	return cur, true
}

func child(v node.Value, seg path.Segment) (node.Value, bool) {
	switch v.Kind() {
	case node.KindMap:
		return v.Lookup(seg.Name)
	case node.KindList:
		i, ok := seg.Int()
		if !ok {
			return node.Value{}, false
		}
		return v.Index(i)
	default:
		return node.Value{}, false
	}
}

// SetAtPath returns a copy of root with the node at p replaced by val.
//
// On a map the last segment sets or overwrites the key. On a list it
// replaces an existing element; an index at or past the end is rejected,
// use Append to grow a list.
func SetAtPath(root node.Value, p path.Path, val node.Value) (node.Value, error) {
	if len(p) == 0 {
		return node.Value{}, invalid(p, "path is empty")
	}
	return rewrite(root, p, 0, func(parent node.Value, seg path.Segment) (node.Value, error) {
		switch parent.Kind() {
		case node.KindMap:
			out, _ := parent.WithKey(seg.Name, val)
			return out, nil
		case node.KindList:
			i, err := index(parent, p, seg)
			if err != nil {
				return node.Value{}, err
			}
			out, _ := parent.WithIndex(i, val)
			return out, nil
		}
		return node.Value{}, invalid(p, "cannot set %q inside a %s", seg.Name, parent.Kind())
	})
}

// Append returns a copy of root with val added to the end of the list at p.
// The empty path appends to a list root.
func Append(root node.Value, p path.Path, val node.Value) (node.Value, error) {
	if len(p) == 0 {
		out, ok := root.WithAppended(val)
		if !ok {
			return node.Value{}, invalid(p, "root is a %s, not a list", root.Kind())
		}
		return out, nil
	}
	return rewrite(root, p, 0, func(parent node.Value, seg path.Segment) (node.Value, error) {
		target, ok := child(parent, seg)
		if !ok {
			return node.Value{}, invalid(p, "no node at %q", seg.Name)
		}
		grown, ok := target.WithAppended(val)
		if !ok {
			return node.Value{}, invalid(p, "cannot append to a %s", target.Kind())
		}
		switch parent.Kind() {
		case node.KindMap:
			out, _ := parent.WithKey(seg.Name, grown)
			return out, nil
		default:
			i, _ := seg.Int()
			out, _ := parent.WithIndex(i, grown)
			return out, nil
		}
	})
}

// Delete returns a copy of root without the node at p. Later list elements
// shift down by one.
func Delete(root node.Value, p path.Path) (node.Value, error) {
	if len(p) == 0 {
		return node.Value{}, invalid(p, "path is empty")
	}
	return rewrite(root, p, 0, func(parent node.Value, seg path.Segment) (node.Value, error) {
		switch parent.Kind() {
		case node.KindMap:
			out, ok := parent.WithoutKey(seg.Name)
			if !ok {
				return node.Value{}, invalid(p, "no key %q", seg.Name)
			}
			return out, nil
		case node.KindList:
			i, err := index(parent, p, seg)
			if err != nil {
				return node.Value{}, err
			}
			out, _ := parent.WithoutIndex(i)
			return out, nil
		}
		return node.Value{}, invalid(p, "cannot delete %q inside a %s", seg.Name, parent.Kind())
	})
}

// rewrite walks to the parent of the last segment of p, applies leaf to it,
// and rebuilds the containers on the way back up.
func rewrite(cur node.Value, p path.Path, depth int, leaf func(node.Value, path.Segment) (node.Value, error)) (node.Value, error) {
	seg := p[depth]
	if depth == len(p)-1 {
		return leaf(cur, seg)
	}

	switch cur.Kind() {
	case node.KindMap:
		next, ok := cur.Lookup(seg.Name)
		if !ok {
			return node.Value{}, invalid(p[:depth+1], "no key %q", seg.Name)
		}
		updated, err := rewrite(next, p, depth+1, leaf)
		if err != nil {
			return node.Value{}, err
		}
		out, _ := cur.WithKey(seg.Name, updated)
		return out, nil

	case node.KindList:
		i, err := index(cur, p[:depth+1], seg)
		if err != nil {
			return node.Value{}, err
		}
		next, _ := cur.Index(i)
		updated, err := rewrite(next, p, depth+1, leaf)
		if err != nil {
			return node.Value{}, err
		}
		out, _ := cur.WithIndex(i, updated)
		return out, nil

	default:
		return node.Value{}, invalid(p[:depth+1], "cannot descend into a %s", cur.Kind())
	}
}

func index(list node.Value, p path.Path, seg path.Segment) (int, error) {
	i, ok := seg.Int()
	if !ok {
		return 0, invalid(p, "list index %q is not a non-negative integer", seg.Name)
	}
	if i >= list.Len() {
		return 0, invalid(p, "index %d out of range (length %d)", i, list.Len())
	}
	return i, nil
}
