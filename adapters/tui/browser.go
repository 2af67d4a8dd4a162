// Package tui is an interactive terminal browser over an editing session.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/artpar/cmsdesk/app"
	"github.com/artpar/cmsdesk/domain/content"
	"github.com/artpar/cmsdesk/domain/diff"
	"github.com/artpar/cmsdesk/domain/node"
	"github.com/artpar/cmsdesk/domain/path"
	"github.com/artpar/cmsdesk/domain/tree"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type mode int

const (
	modeBrowse mode = iota
	modeEdit
	modeDiff
)

// chrome is the number of lines drawn around the row list.
const chrome = 6

type savedMsg struct {
	entry content.Entry
	err   error
}

// Model is the bubbletea model of the browser.
type Model struct {
	ctx     context.Context
	session *app.Session
	styles  Styles
	keys    keyMap
	help    help.Model
	input   textinput.Model
	spinner spinner.Model

	rows   []tree.Row
	cursor int
	offset int
	width  int
	height int

	mode        mode
	editing     path.Path
	pending     []diff.Result
	saving      bool
	status      string
	failed      bool
	confirmQuit bool
	quitting    bool
}

// New returns a browser over s. ctx bounds the saves it starts.
func New(ctx context.Context, s *app.Session) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "new value"
	ti.CharLimit = 4096
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:     ctx,
		session: s,
		styles:  DefaultStyles(),
		keys:    defaultKeys(),
		help:    help.New(),
		input:   ti,
		spinner: sp,
	}
	m.rows = s.Rows()
	return m
}

// Run starts the browser full screen and blocks until the user quits.
func Run(ctx context.Context, s *app.Session, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(New(ctx, s), opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(10, msg.Width-4)
		m.scroll()
		return m, nil

	case savedMsg:
		m.saving = false
		if msg.err != nil {
			m.fail(msg.err)
		} else {
			m.info(fmt.Sprintf("saved %s", msg.entry.ID))
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.saving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.mode {
		case modeEdit:
			return m.updateEdit(msg)
		case modeDiff:
			return m.updateDiff(msg)
		default:
			return m.updateBrowse(msg)
		}
	}

	if m.mode == modeEdit {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		if msg.String() == "ctrl+c" || m.confirmQuit || !m.session.Dirty() {
			m.quitting = true
			return m, tea.Quit
		}
		m.confirmQuit = true
		m.info("unsaved changes, press q again to quit")
		return m, nil
	}
	m.confirmQuit = false

	switch {
	case key.Matches(msg, m.keys.Up):
		m.move(-1)

	case key.Matches(msg, m.keys.Down):
		m.move(1)

	case key.Matches(msg, m.keys.Toggle):
		row, ok := m.current()
		if !ok {
			break
		}
		if !row.Branch {
			return m.startEdit(row)
		}
		if _, err := m.session.Toggle(row.Path); err != nil {
			m.fail(err)
		}
		m.refresh()

	case key.Matches(msg, m.keys.Expand):
		if row, ok := m.current(); ok && row.Branch {
			if err := m.session.Expand(row.Path); err != nil {
				m.fail(err)
			}
			m.refresh()
		}

	case key.Matches(msg, m.keys.Collapse):
		row, ok := m.current()
		if !ok {
			break
		}
		if row.Branch && row.Expanded {
			m.session.Collapse(row.Path)
			m.refresh()
			break
		}
		m.toParent()

	case key.Matches(msg, m.keys.Edit):
		if row, ok := m.current(); ok {
			return m.startEdit(row)
		}

	case key.Matches(msg, m.keys.Delete):
		row, ok := m.current()
		if !ok {
			break
		}
		if err := m.session.Delete(row.Path); err != nil {
			m.fail(err)
			break
		}
		m.info("deleted " + row.Path.String())
		m.refresh()

	case key.Matches(msg, m.keys.Undo):
		if m.session.Undo() {
			m.info("undone")
		} else {
			m.info("nothing to undo")
		}
		m.refresh()

	case key.Matches(msg, m.keys.Redo):
		if m.session.Redo() {
			m.info("redone")
		} else {
			m.info("nothing to redo")
		}
		m.refresh()

	case key.Matches(msg, m.keys.Save):
		if m.saving {
			m.info("save in progress")
			break
		}
		if !m.session.Dirty() {
			m.info("nothing to save")
			break
		}
		m.saving = true
		m.info("saving")
		return m, tea.Batch(m.save(), m.spinner.Tick)

	case key.Matches(msg, m.keys.Diff):
		m.pending = m.session.Pending()
		m.mode = modeDiff

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) startEdit(row tree.Row) (tea.Model, tea.Cmd) {
	if row.Branch {
		m.info("select a leaf to edit")
		return m, nil
	}
	m.mode = modeEdit
	m.editing = row.Path
	m.input.SetValue(editText(row.Value))
	m.input.CursorEnd()
	m.status = ""
	return m, m.input.Focus()
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		m.endEdit()
		m.info("edit cancelled")
		return m, nil
	case "enter":
		if err := m.session.SetRaw(m.editing, m.input.Value()); err != nil {
			m.fail(err)
			return m, nil
		}
		m.info("set " + m.editing.String())
		m.endEdit()
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) endEdit() {
	m.mode = modeBrowse
	m.editing = nil
	m.input.Blur()
	m.input.Reset()
}

func (m Model) updateDiff(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "esc", "d", "q", "enter":
		m.mode = modeBrowse
		m.pending = nil
	}
	return m, nil
}

func (m Model) save() tea.Cmd {
	ctx, s := m.ctx, m.session
	return func() tea.Msg {
		e, err := s.Save(ctx)
		return savedMsg{entry: e, err: err}
	}
}

// ----------------------------------------------------------------------------
// Cursor and rows
// ----------------------------------------------------------------------------

func (m Model) current() (tree.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return tree.Row{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) move(delta int) {
	m.cursor = max(0, min(len(m.rows)-1, m.cursor+delta))
	m.scroll()
}

// toParent moves the cursor to the closest row above with a smaller depth.
func (m *Model) toParent() {
	row, ok := m.current()
	if !ok {
		return
	}
	for i := m.cursor - 1; i >= 0; i-- {
		if m.rows[i].Depth < row.Depth {
			m.cursor = i
			m.scroll()
			return
		}
	}
}

// refresh reloads rows from the session and keeps the cursor on the same
// path when it is still visible.
func (m *Model) refresh() {
	var at path.Path
	if row, ok := m.current(); ok {
		at = row.Path
	}
	m.rows = m.session.Rows()
	for i, r := range m.rows {
		if at != nil && r.Path.Equal(at) {
			m.cursor = i
			m.scroll()
			return
		}
	}
	m.cursor = max(0, min(len(m.rows)-1, m.cursor))
	m.scroll()
}

func (m Model) visible() int {
	if m.height <= chrome {
		return len(m.rows)
	}
	return m.height - chrome
}

func (m *Model) scroll() {
	n := m.visible()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if n > 0 && m.cursor >= m.offset+n {
		m.offset = m.cursor - n + 1
	}
	m.offset = max(0, m.offset)
}

func (m *Model) info(s string) { m.status, m.failed = s, false }

func (m *Model) fail(err error) {
	var missing *app.MissingFieldsError
	if errors.As(err, &missing) {
		m.status = "required fields missing: " + strings.Join(missing.Fields, ", ")
	} else {
		m.status = err.Error()
	}
	m.failed = true
}

// editText is the initial input text for a leaf.
func editText(v node.Value) string {
	if s, ok := v.AsString(); ok {
		return s
	}
	if v.IsNull() {
		return ""
	}
	return v.String()
}

// ----------------------------------------------------------------------------
// Rendering
// ----------------------------------------------------------------------------

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")

	if m.mode == modeDiff {
		b.WriteString(m.diffView())
	} else {
		b.WriteString(m.rowsView())
	}
	b.WriteString("\n")

	if m.mode == modeEdit {
		b.WriteString(m.styles.Status.Render("edit "+m.editing.String()) + "\n")
		b.WriteString(m.input.View() + "\n")
	}
	b.WriteString(m.statusLine() + "\n")
	b.WriteString(m.styles.Help.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) header() string {
	title := m.session.Model().Name + " / " + m.session.Entry().Title()
	out := m.styles.Title.Render(title)
	if m.session.Dirty() {
		out += " " + m.styles.Dirty.Render("● modified")
	}
	return out
}

func (m Model) rowsView() string {
	if len(m.rows) == 0 {
		return m.styles.Status.Render("No data.") + "\n"
	}
	end := min(len(m.rows), m.offset+m.visible())
	var b strings.Builder
	for i := m.offset; i < end; i++ {
		line := m.renderRow(m.rows[i])
		if i == m.cursor {
			line = m.styles.Cursor.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) renderRow(r tree.Row) string {
	marker := " "
	if r.Branch {
		marker = "▸"
		if r.Expanded {
			marker = "▾"
		}
	}
	name := r.Key
	if r.Field != nil && r.Field.Required {
		name += m.styles.Required.Render("*")
	}
	indent := strings.Repeat("  ", r.Depth)
	width := max(20, m.width-len(indent)-len(r.Key)-6)

	if r.Branch {
		return indent + marker + " " + m.styles.Branch.Render(name) + " " +
			m.styles.Type.Render(node.Summary(r.Value, width))
	}
	return indent + marker + " " + m.styles.Leaf.Render(name) + ": " +
		m.styles.Value.Render(node.Summary(r.Value, width))
}

func (m Model) diffView() string {
	if len(m.pending) == 0 {
		return m.styles.Status.Render("No pending changes.") + "\n"
	}
	var b strings.Builder
	for _, r := range m.pending {
		b.WriteString(m.styles.ForKind(r.Kind).Render(diffLine(r)) + "\n")
	}
	c := diff.Summary(m.pending)
	fmt.Fprintf(&b, "\n%d modified, %d added, %d removed\n", c.Modified, c.Added, c.Removed)
	return b.String()
}

func diffLine(r diff.Result) string {
	const w = 40
	p := r.Path.String()
	if p == "" {
		p = "(root)"
	}
	switch r.Kind {
	case diff.Added:
		return fmt.Sprintf("+ %s: %s", p, node.Summary(r.Right, w))
	case diff.Removed:
		return fmt.Sprintf("- %s: %s", p, node.Summary(r.Left, w))
	default:
		return fmt.Sprintf("~ %s: %s -> %s", p, node.Summary(r.Left, w), node.Summary(r.Right, w))
	}
}

func (m Model) statusLine() string {
	switch {
	case m.saving:
		return m.spinner.View() + " " + m.styles.Status.Render(m.status)
	case m.status == "":
		return ""
	case m.failed:
		return m.styles.Error.Render(m.status)
	default:
		return m.styles.Status.Render(m.status)
	}
}
