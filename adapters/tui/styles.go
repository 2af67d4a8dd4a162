package tui

import (
	"github.com/artpar/cmsdesk/domain/diff"
	"github.com/charmbracelet/lipgloss"
)

// Palette used by the browser.
var (
	Accent = lipgloss.Color("#8BC34A")
	Muted  = lipgloss.Color("#6c7a89")
	Danger = lipgloss.Color("#e53935")
	Warn   = lipgloss.Color("#FFC107")
	Info   = lipgloss.Color("#2196F3")
)

// Styles holds the lipgloss styles for every element the browser draws.
type Styles struct {
	Title    lipgloss.Style
	Dirty    lipgloss.Style
	Branch   lipgloss.Style
	Leaf     lipgloss.Style
	Value    lipgloss.Style
	Type     lipgloss.Style
	Cursor   lipgloss.Style
	Required lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
	Help     lipgloss.Style

	Modified lipgloss.Style
	Added    lipgloss.Style
	Removed  lipgloss.Style
}

// DefaultStyles returns the standard colour scheme.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(Accent),
		Dirty:    lipgloss.NewStyle().Bold(true).Foreground(Warn),
		Branch:   lipgloss.NewStyle().Bold(true).Foreground(Info),
		Leaf:     lipgloss.NewStyle(),
		Value:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Type:     lipgloss.NewStyle().Foreground(Muted).Italic(true),
		Cursor:   lipgloss.NewStyle().Reverse(true),
		Required: lipgloss.NewStyle().Foreground(Danger),
		Status:   lipgloss.NewStyle().Foreground(Muted),
		Error:    lipgloss.NewStyle().Foreground(Danger).Bold(true),
		Help:     lipgloss.NewStyle().Foreground(Muted),
		Modified: lipgloss.NewStyle().Foreground(Warn),
		Added:    lipgloss.NewStyle().Foreground(Accent),
		Removed:  lipgloss.NewStyle().Foreground(Danger),
	}
}

// ForKind returns the style for a diff row kind.
func (s Styles) ForKind(k diff.Kind) lipgloss.Style {
	switch k {
	case diff.Modified:
		return s.Modified
	case diff.Added:
		return s.Added
	case diff.Removed:
		return s.Removed
	default:
		return s.Value
	}
}
