package node

import (
	"strconv"
	"strings"
)

// Equal reports whether a and b hold the same structure.
// Lists are compared element by element in order. Maps are compared by key
// set and per-key value; key order does not matter.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindList:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.m.keys) != len(b.m.keys) {
			return false
		}
		for i, k := range a.m.keys {
			j, ok := b.m.index[k]
			if !ok || !Equal(a.m.vals[i], b.m.vals[j]) {
				return false
			}
		}
		return true
	}
	return false
}

// Summary renders v on a single line for display, truncated to max runes
// when max > 0. Branches render as their size.
func Summary(v Value, max int) string {
	var s string
	switch v.kind {
	case KindNull:
		s = "null"
	case KindBool:
		s = strconv.FormatBool(v.b)
	case KindNumber:
		s = formatNumber(v.n)
	case KindString:
		s = strconv.Quote(strings.ReplaceAll(v.s, "\n", " "))
	case KindList:
		s = plural(len(v.items), "item")
		s = "[" + s + "]"
	case KindMap:
		s = "{" + plural(len(v.m.keys), "key") + "}"
	}
	if max > 0 {
		r := []rune(s)
		if len(r) > max {
			if max <= 3 {
				return string(r[:max])
			}
			return string(r[:max-3]) + "..."
		}
	}
	return s
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}
