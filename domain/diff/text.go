package diff

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op is the operation of a text span.
type Op string

const (
	OpEqual  Op = "equal"
	OpInsert Op = "insert"
	OpDelete Op = "delete"
)

// Span is a run of text in a character-level diff.
type Span struct {
	Op   Op     `json:"op"`
	Text string `json:"text"`
}

// TextDiff returns a character-level diff turning a into b, cleaned up for
// human reading.
func TextDiff(a, b string) []Span {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	spans := make([]Span, 0, len(diffs))
	for _, d := range diffs {
		var op Op
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		default:
			op = OpEqual
		}
		spans = append(spans, Span{Op: op, Text: d.Text})
	}
	return spans
}

// StringChange returns the text diff for a modified row whose sides are
// both strings.
func (r Result) StringChange() ([]Span, bool) {
	if r.Kind != Modified {
		return nil, false
	}
	a, okA := r.Left.AsString()
	b, okB := r.Right.AsString()
	if !okA || !okB {
		return nil, false
	}
	return TextDiff(a, b), true
}
