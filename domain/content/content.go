// Package content provides value types for CMS models and entries.
package content

import (
	"strings"
	"time"

	"github.com/artpar/cmsdesk/domain/field"
	"github.com/artpar/cmsdesk/domain/node"
)

// Model is a content schema (immutable value type).
type Model struct {
	ID          string
	Name        string
	Identifier  string // API identifier, e.g. "blogPost"
	Description string
	Fields      []field.Definition
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Entry status values.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Entry is one content instance of a model (immutable value type).
type Entry struct {
	ID        string
	ModelID   string
	Status    string
	Data      node.Value
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WithData returns a copy of the entry holding data.
func (e Entry) WithData(data node.Value) Entry {
	e.Data = data
	return e
}

// Title returns a short human label for the entry: the first non-empty
// string among common title keys, or the ID.
func (e Entry) Title() string {
	for _, k := range []string{"title", "name", "headline", "slug"} {
		if v, ok := e.Data.Lookup(k); ok {
			if s, ok := v.AsString(); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return e.ID
}

// Page selects a window of a list.
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// Normalize clamps the page to valid bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Next returns the following page.
func (p Page) Next() Page {
	p = p.Normalize()
	p.Offset += p.Limit
	return p
}

// ListResult is one page of items plus the total count.
type ListResult[T any] struct {
	Items []T
	Total int
}

// HasMore reports whether items exist beyond this page.
func (r ListResult[T]) HasMore(p Page) bool {
	p = p.Normalize()
	return p.Offset+len(r.Items) < r.Total
}

// Match reports whether entry matches a search query: a case-insensitive
// substring of the ID or of any string leaf in the data. The empty query
// matches everything.
func Match(e Entry, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(e.ID), q) {
		return true
	}
	return containsText(e.Data, q)
}

func containsText(v node.Value, q string) bool {
	switch v.Kind() {
	case node.KindString:
		s, _ := v.AsString()
		return strings.Contains(strings.ToLower(s), q)
	case node.KindNumber:
		return strings.Contains(v.String(), q)
	case node.KindList:
		for _, item := range v.Items() {
			if containsText(item, q) {
				return true
			}
		}
	case node.KindMap:
		for _, e := range v.Entries() {
			if containsText(e.Value, q) {
				return true
			}
		}
	}
	return false
}

// Filter returns the entries matching query.
func Filter(entries []Entry, query string) []Entry {
	var out []Entry
	for _, e := range entries {
		if Match(e, query) {
			out = append(out, e)
		}
	}
	return out
}
