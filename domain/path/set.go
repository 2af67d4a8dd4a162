package path

import "sort"

// Set is a set of paths, used for the expanded rows of a tree view.
// Methods that change membership return a new Set.
type Set struct {
	m map[string]Path
}

// NewSet returns a set holding the given paths.
func NewSet(paths ...Path) Set {
	s := Set{m: make(map[string]Path, len(paths))}
	for _, p := range paths {
		s.m[p.Key()] = New(p...)
	}
	return s
}

// Has reports whether p is in the set.
func (s Set) Has(p Path) bool {
	_, ok := s.m[p.Key()]
	return ok
}

// Len returns the number of paths in the set.
func (s Set) Len() int { return len(s.m) }

// With returns a copy of s including p.
func (s Set) With(p Path) Set {
	out := s.clone()
	out.m[p.Key()] = New(p...)
	return out
}

// Without returns a copy of s excluding p.
func (s Set) Without(p Path) Set {
	out := s.clone()
	delete(out.m, p.Key())
	return out
}

// WithoutPrefix returns a copy of s excluding p and all its descendants.
func (s Set) WithoutPrefix(p Path) Set {
	out := Set{m: make(map[string]Path, len(s.m))}
	for k, q := range s.m {
		if !q.HasPrefix(p) {
			out.m[k] = q
		}
	}
	return out
}

// Toggle returns a copy of s with p's membership flipped.
func (s Set) Toggle(p Path) Set {
	if s.Has(p) {
		return s.Without(p)
	}
	return s.With(p)
}

// Paths returns the members ordered by their display string.
func (s Set) Paths() []Path {
	out := make([]Path, 0, len(s.m))
	for _, p := range s.m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

func (s Set) clone() Set {
	out := Set{m: make(map[string]Path, len(s.m)+1)}
	for k, p := range s.m {
		out.m[k] = p
	}
	return out
}
