// Package path addresses nodes inside nested content data.
//
// A Path is an ordered list of segments. Each segment is either a map key or
// a list index. Index segments render as [i] but are stored and compared as
// the plain decimal index, so a segment's identity is its Name alone.
package path

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/artpar/cmsdesk/domain/node"
)

// ErrSyntax is returned by Parse for malformed path strings.
var ErrSyntax = errors.New("invalid path syntax")

// Segment is one step of a Path.
type Segment struct {
	// Name is the map key, or the decimal list index.
	Name string
	// Index marks a list index for display. It does not take part in equality.
	Index bool
}

// Key returns a map key segment.
func Key(name string) Segment {
	return Segment{Name: name}
}

// Idx returns a list index segment.
func Idx(i int) Segment {
	return Segment{Name: strconv.Itoa(i), Index: true}
}

// Int returns the segment as a non-negative list index.
func (s Segment) Int() (int, bool) {
	if s.Name == "" {
		return 0, false
	}
	for _, r := range s.Name {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s.Name)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Path locates a node from the root. The empty Path is the root itself.
type Path []Segment

// Root is the empty path.
var Root = Path{}

// New builds a path from segments.
func New(segs ...Segment) Path {
	p := make(Path, len(segs))
	copy(p, segs)
	return p
}

// Keys builds a path of map key segments.
func Keys(names ...string) Path {
	p := make(Path, len(names))
	for i, n := range names {
		p[i] = Key(n)
	}
	return p
}

// Append returns a new path one segment longer. p is never aliased.
func Append(p Path, seg Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// Append is the method form of Append.
func (p Path) Append(seg Segment) Path {
	return Append(p, seg)
}

// Depth returns the number of segments.
func (p Path) Depth() int { return len(p) }

// IsRoot reports whether p is the empty path.
func (p Path) IsRoot() bool { return len(p) == 0 }

// Parent returns p without its last segment. The root is its own parent.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Root
	}
	return New(p[:len(p)-1]...)
}

// Last returns the final segment.
func (p Path) Last() (Segment, bool) {
	if len(p) == 0 {
		return Segment{}, false
	}
	return p[len(p)-1], true
}

// Equal reports segment-wise equality.
func Equal(a, b Path) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			return false
		}
	}
	return true
}

// Equal is the method form of Equal.
func (p Path) Equal(o Path) bool { return Equal(p, o) }

// HasPrefix reports whether prefix is an ancestor of p or p itself.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	return Equal(p[:len(prefix)], prefix)
}

// Key returns a string usable as a map key. Equal paths share a Key.
func (p Path) Key() string {
	var b strings.Builder
	for i, s := range p {
		if i > 0 {
			b.WriteByte(0)
		}
		b.WriteString(s.Name)
	}
	return b.String()
}

// String renders p for display: title, a.b[0].c, ["odd.key"].
func (p Path) String() string {
	var b strings.Builder
	for i, s := range p {
		switch {
		case s.Index:
			b.WriteByte('[')
			b.WriteString(s.Name)
			b.WriteByte(']')
		case plainName(s.Name):
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(s.Name)
		default:
			b.WriteByte('[')
			b.WriteString(strconv.Quote(s.Name))
			b.WriteByte(']')
		}
	}
	return b.String()
}

func plainName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r == '.' || r == '[' || r == ']' || r == '"' || r == ' ' {
			return false
		}
	}
	return true
}

// Parse reads a path in the form produced by String.
// The empty string is the root.
func Parse(s string) (Path, error) {
	p := Path{}
	i := 0
	for i < len(s) {
		switch s[i] {
		case '.':
			if i == 0 || i+1 >= len(s) || s[i+1] == '.' || s[i+1] == '[' {
				return nil, fmt.Errorf("%w: unexpected '.' at %d in %q", ErrSyntax, i, s)
			}
			i++
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unclosed '[' in %q", ErrSyntax, s)
			}
			inner := s[i+1 : i+end]
			if strings.HasPrefix(inner, `"`) {
				// quoted keys may contain ']'
				q, rest, err := readQuoted(s[i+1:])
				if err != nil {
					return nil, fmt.Errorf("%w: %v in %q", ErrSyntax, err, s)
				}
				if !strings.HasPrefix(rest, "]") {
					return nil, fmt.Errorf("%w: expected ']' after key in %q", ErrSyntax, s)
				}
				p = append(p, Key(q))
				i = len(s) - len(rest) + 1
				if err := afterBracket(s, i); err != nil {
					return nil, err
				}
				continue
			}
			seg := Segment{Name: inner, Index: true}
			if _, ok := seg.Int(); !ok {
				return nil, fmt.Errorf("%w: index %q is not a non-negative integer", ErrSyntax, inner)
			}
			p = append(p, seg)
			i += end + 1
			if err := afterBracket(s, i); err != nil {
				return nil, err
			}
			continue
		case ']':
			return nil, fmt.Errorf("%w: unexpected ']' at %d in %q", ErrSyntax, i, s)
		}

		j := i
		for j < len(s) && s[j] != '.' && s[j] != '[' && s[j] != ']' {
			j++
		}
		p = append(p, Key(s[i:j]))
		i = j
	}
	return p, nil
}

// afterBracket checks that a closed bracket at s[:i] is followed by the end
// of the path or another separator.
func afterBracket(s string, i int) error {
	if i < len(s) && s[i] != '.' && s[i] != '[' {
		return fmt.Errorf("%w: expected '.' or '[' at %d in %q", ErrSyntax, i, s)
	}
	return nil
}

func readQuoted(s string) (string, string, error) {
	// s starts with '"'
	for j := 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '"':
			q, err := strconv.Unquote(s[:j+1])
			if err != nil {
				return "", "", err
			}
			return q, s[j+1:], nil
		}
	}
	return "", "", errors.New("unterminated quoted key")
}

// IsArrayIndexSegment reports whether seg addresses an element of parent:
// parent must be a list and seg a non-negative integer.
func IsArrayIndexSegment(parent node.Value, seg Segment) bool {
	if parent.Kind() != node.KindList {
		return false
	}
	_, ok := seg.Int()
	return ok
}
