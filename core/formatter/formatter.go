// Package formatter provides a pluggable output formatting system.
// Formatters render tree rows, diffs, models and entries as table, json or
// yaml output.
package formatter

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/artpar/cmsdesk/app"
	"github.com/artpar/cmsdesk/domain/content"
	"github.com/artpar/cmsdesk/domain/diff"
	"github.com/artpar/cmsdesk/domain/tree"
	"github.com/artpar/cmsdesk/ports"
)

// Formatter converts domain values to a specific output format.
type Formatter interface {
	// Name returns the formatter name (e.g., "table", "json", "yaml").
	Name() string

	// Description returns a human-readable description.
	Description() string

	// FormatRows formats the visible rows of an entry tree.
	FormatRows(w io.Writer, rows []tree.Row, opts FormatOptions) error

	// FormatDiff formats a structural diff.
	FormatDiff(w io.Writer, results []diff.Result, opts FormatOptions) error

	// FormatModels formats a list of models.
	FormatModels(w io.Writer, models []content.Model, opts FormatOptions) error

	// FormatModel formats one model with its fields.
	FormatModel(w io.Writer, m content.Model, opts FormatOptions) error

	// FormatEntries formats a list of entries.
	FormatEntries(w io.Writer, entries []content.Entry, opts FormatOptions) error

	// FormatEntry formats one entry with its data.
	FormatEntry(w io.Writer, e content.Entry, opts FormatOptions) error

	// FormatSnapshots formats the local history of an entry.
	FormatSnapshots(w io.Writer, snaps []ports.Snapshot, opts FormatOptions) error

	// FormatImport formats an import report with the diff of each update.
	FormatImport(w io.Writer, r app.ImportReport, opts FormatOptions) error

	// FormatError formats an error.
	FormatError(w io.Writer, err error) error
}

// FormatOptions configures formatting behavior.
type FormatOptions struct {
	// NoHeader disables header row for tabular formats.
	NoHeader bool

	// Compact minimizes whitespace (for json).
	Compact bool

	// Color enables ANSI color output.
	Color bool

	// MaxWidth truncates long values (0 = default of 60 for tables).
	MaxWidth int

	// ChangesOnly leaves equal paths out of diffs.
	ChangesOnly bool
}

// Registry manages registered formatters.
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
	defaultFmt string
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		formatters: make(map[string]Formatter),
		defaultFmt: "table",
	}
}

// Register adds a formatter to the registry.
func (r *Registry) Register(f Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formatters[f.Name()]; exists {
		return fmt.Errorf("formatter %q already registered", f.Name())
	}

	r.formatters[f.Name()] = f
	return nil
}

// Get returns a formatter by name.
func (r *Registry) Get(name string) (Formatter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.formatters[name]
	return f, ok
}

// Default returns the default formatter, or nil when none is registered.
func (r *Registry) Default() Formatter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.formatters[r.defaultFmt]; ok {
		return f
	}
	names := r.sortedNames()
	if len(names) == 0 {
		return nil
	}
	return r.formatters[names[0]]
}

// SetDefault sets the default formatter.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formatters[name]; !exists {
		return fmt.Errorf("formatter %q not registered", name)
	}

	r.defaultFmt = name
	return nil
}

// List returns all registered formatter names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames()
}

func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named formatter, or an error listing the known ones.
func (r *Registry) Lookup(name string) (Formatter, error) {
	if name == "" {
		if f := r.Default(); f != nil {
			return f, nil
		}
	}
	if f, ok := r.Get(name); ok {
		return f, nil
	}
	return nil, fmt.Errorf("unknown output format %q (available: %v)", name, r.List())
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter to the default registry.
func Register(f Formatter) error {
	return DefaultRegistry.Register(f)
}

// Get returns a formatter from the default registry.
func Get(name string) (Formatter, bool) {
	return DefaultRegistry.Get(name)
}

// Lookup returns a formatter from the default registry or an error.
func Lookup(name string) (Formatter, error) {
	return DefaultRegistry.Lookup(name)
}

// Default returns the default formatter from the default registry.
func Default() Formatter {
	return DefaultRegistry.Default()
}

// List returns all formatter names from the default registry.
func List() []string {
	return DefaultRegistry.List()
}
