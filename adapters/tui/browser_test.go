package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/artpar/cmsdesk/adapters/clock"
	"github.com/artpar/cmsdesk/adapters/idgen"
	"github.com/artpar/cmsdesk/adapters/memory"
	"github.com/artpar/cmsdesk/app"
	"github.com/artpar/cmsdesk/domain/content"
	"github.com/artpar/cmsdesk/domain/field"
	"github.com/artpar/cmsdesk/domain/node"
	"github.com/artpar/cmsdesk/domain/path"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

var articleModel = content.Model{
	ID:   "mdl_article",
	Name: "Article",
	Fields: []field.Definition{
		{Name: "title", Type: field.TypeString, Required: true},
		{Name: "views", Type: field.TypeNumber},
		{Name: "seo", Type: field.TypeObject, SubFields: []field.Definition{
			{Name: "slug", Type: field.TypeString},
		}},
		{Name: "tags", Type: field.TypeList},
	},
}

func newBrowser(t *testing.T) (Model, *app.Session, *memory.EntryStore) {
	t.Helper()
	epoch := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	entries := memory.NewEntryStore(idgen.NewSequential("ent_new_"), clock.NewFake(epoch))
	data, err := node.Parse([]byte(`{"title":"Hello","views":1,"seo":{"slug":"hello"},"tags":["a","b"]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	entries.Put(content.Entry{ID: "ent_1", ModelID: articleModel.ID, Data: data})

	editor := app.NewEditor(app.EditorDeps{
		Models:    memory.NewModelStore(articleModel),
		Entries:   entries,
		Snapshots: memory.NewSnapshotStore(),
		Clock:     clock.NewFake(epoch),
		IDs:       idgen.NewSequential("id_"),
		Logger:    zerolog.Nop(),
	})
	s, err := editor.Open(context.Background(), "ent_1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return New(context.Background(), s), s, entries
}

func press(t *testing.T, m Model, msgs ...tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyLeft  = tea.KeyMsg{Type: tea.KeyLeft}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keySpace = tea.KeyMsg{Type: tea.KeySpace}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func rowPaths(m Model) string {
	out := make([]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = r.Path.String()
	}
	return strings.Join(out, ",")
}

func valueAt(t *testing.T, s *app.Session, p string) node.Value {
	t.Helper()
	pp, err := path.Parse(p)
	if err != nil {
		t.Fatalf("path.Parse(%q): %v", p, err)
	}
	v, err := s.Get(pp)
	if err != nil {
		t.Fatalf("Get(%q): %v", p, err)
	}
	return v
}

// runSave executes a save command and returns the result message.
func runSave(t *testing.T, cmd tea.Cmd) savedMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a save command")
	}
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case savedMsg:
			return msg
		}
	}
	t.Fatal("save command produced no result")
	return savedMsg{}
}

// -----------------------------------------------------------------------------
// Navigation
// -----------------------------------------------------------------------------

func TestNavigation_MovesAndClamps(t *testing.T) {
	m, _, _ := newBrowser(t)

	if got := rowPaths(m); got != "title,views,seo,tags" {
		t.Fatalf("rows = %s", got)
	}

	m, _ = press(t, m, keyUp)
	if m.cursor != 0 {
		t.Errorf("cursor after up at top = %d, want 0", m.cursor)
	}

	m, _ = press(t, m, keyDown, runes("j"))
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.cursor)
	}

	m, _ = press(t, m, keyDown, keyDown, keyDown)
	if m.cursor != 3 {
		t.Errorf("cursor past end = %d, want 3", m.cursor)
	}

	m, _ = press(t, m, runes("k"))
	if m.cursor != 2 {
		t.Errorf("cursor after k = %d, want 2", m.cursor)
	}
}

func TestToggle_ExpandsAndCollapsesBranches(t *testing.T) {
	m, _, _ := newBrowser(t)
	m, _ = press(t, m, keyDown, keyDown, keyEnter)

	if got := rowPaths(m); got != "title,views,seo,seo.slug,tags" {
		t.Fatalf("rows after expand = %s", got)
	}
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want to stay on seo", m.cursor)
	}

	m, _ = press(t, m, keyDown, keyDown, keySpace)
	if got := rowPaths(m); got != "title,views,seo,seo.slug,tags,tags[0],tags[1]" {
		t.Fatalf("rows after expanding tags = %s", got)
	}

	// left on a leaf jumps to its parent, left on an open branch closes it
	m, _ = press(t, m, keyDown, keyLeft)
	if got := m.rows[m.cursor].Path.String(); got != "tags" {
		t.Errorf("cursor on %s, want tags", got)
	}
	m, _ = press(t, m, keyLeft)
	if got := rowPaths(m); got != "title,views,seo,seo.slug,tags" {
		t.Errorf("rows after collapse = %s", got)
	}
}

func TestScroll_KeepsCursorVisible(t *testing.T) {
	m, _, _ := newBrowser(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: chrome + 2})
	m = next.(Model)

	m, _ = press(t, m, keyDown, keyDown, keyDown)
	if m.offset != 2 {
		t.Errorf("offset = %d, want 2", m.offset)
	}
	m, _ = press(t, m, keyUp, keyUp, keyUp)
	if m.offset != 0 {
		t.Errorf("offset = %d, want 0", m.offset)
	}
}

// -----------------------------------------------------------------------------
// Editing
// -----------------------------------------------------------------------------

func TestEdit_AppliesValue(t *testing.T) {
	m, s, _ := newBrowser(t)

	m, _ = press(t, m, runes("e"))
	if m.mode != modeEdit {
		t.Fatalf("mode = %v, want edit", m.mode)
	}
	if got := m.input.Value(); got != "Hello" {
		t.Errorf("input = %q, want Hello", got)
	}

	m.input.SetValue("Bye")
	m, _ = press(t, m, keyEnter)
	if m.mode != modeBrowse {
		t.Errorf("mode = %v, want browse", m.mode)
	}
	if got := valueAt(t, s, "title"); !node.Equal(got, node.String("Bye")) {
		t.Errorf("title = %s, want \"Bye\"", got)
	}
	if !s.Dirty() {
		t.Error("expected session to be dirty")
	}
	if m.status != "set title" {
		t.Errorf("status = %q", m.status)
	}
}

func TestEdit_InvalidValueStaysInEditMode(t *testing.T) {
	m, s, _ := newBrowser(t)

	m, _ = press(t, m, keyDown, runes("e"))
	if got := m.input.Value(); got != "1" {
		t.Errorf("input = %q, want 1", got)
	}
	m.input.SetValue("lots")
	m, _ = press(t, m, keyEnter)

	if m.mode != modeEdit {
		t.Errorf("mode = %v, want edit", m.mode)
	}
	if !m.failed {
		t.Error("expected an error status")
	}
	if s.Dirty() {
		t.Error("invalid input must not change the entry")
	}
}

func TestEdit_EscCancels(t *testing.T) {
	m, s, _ := newBrowser(t)

	m, _ = press(t, m, keyEnter)
	if m.mode != modeEdit {
		t.Fatalf("enter on a leaf: mode = %v, want edit", m.mode)
	}
	m.input.SetValue("ignored")
	m, _ = press(t, m, keyEsc)

	if m.mode != modeBrowse {
		t.Errorf("mode = %v, want browse", m.mode)
	}
	if s.Dirty() {
		t.Error("cancelled edit changed the entry")
	}
}

func TestEdit_BranchIsRejected(t *testing.T) {
	m, _, _ := newBrowser(t)
	m, _ = press(t, m, keyDown, keyDown, runes("e"))
	if m.mode != modeBrowse {
		t.Errorf("mode = %v, want browse", m.mode)
	}
	if m.status == "" {
		t.Error("expected a status message")
	}
}

func TestUndoRedo(t *testing.T) {
	m, s, _ := newBrowser(t)
	m, _ = press(t, m, runes("e"))
	m.input.SetValue("Bye")
	m, _ = press(t, m, keyEnter)

	m, _ = press(t, m, runes("u"))
	if got := valueAt(t, s, "title"); !node.Equal(got, node.String("Hello")) {
		t.Errorf("title after undo = %s", got)
	}
	if s.Dirty() {
		t.Error("expected clean session after undo")
	}

	m, _ = press(t, m, runes("r"))
	if got := valueAt(t, s, "title"); !node.Equal(got, node.String("Bye")) {
		t.Errorf("title after redo = %s", got)
	}

	m, _ = press(t, m, runes("r"))
	if m.status != "nothing to redo" {
		t.Errorf("status = %q, want nothing to redo", m.status)
	}
}

func TestDelete_RemovesNode(t *testing.T) {
	m, s, _ := newBrowser(t)
	m, _ = press(t, m, keyDown, keyDown, keyDown, runes("x"))

	pp, _ := path.Parse("tags")
	if _, err := s.Get(pp); err == nil {
		t.Error("expected tags to be removed")
	}
	if m.status != "deleted tags" {
		t.Errorf("status = %q", m.status)
	}
	if m.cursor >= len(m.rows) {
		t.Errorf("cursor %d out of range %d", m.cursor, len(m.rows))
	}
}

// -----------------------------------------------------------------------------
// Saving and pending changes
// -----------------------------------------------------------------------------

func TestSave_WritesEntry(t *testing.T) {
	m, s, entries := newBrowser(t)
	m, _ = press(t, m, runes("e"))
	m.input.SetValue("Bye")
	m, _ = press(t, m, keyEnter)

	m, cmd := press(t, m, runes("s"))
	if !m.saving {
		t.Fatal("expected saving state")
	}
	msg := runSave(t, cmd)
	if msg.err != nil {
		t.Fatalf("save: %v", msg.err)
	}

	next, _ := m.Update(msg)
	m = next.(Model)
	if m.saving {
		t.Error("saving flag not cleared")
	}
	if m.status != "saved ent_1" {
		t.Errorf("status = %q", m.status)
	}
	if s.Dirty() {
		t.Error("expected clean session after save")
	}

	stored, err := entries.GetEntry(context.Background(), "ent_1")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	title, _ := stored.Data.Lookup("title")
	if !node.Equal(title, node.String("Bye")) {
		t.Errorf("stored title = %s", title)
	}
}

func TestSave_CleanSessionIsNoop(t *testing.T) {
	m, _, _ := newBrowser(t)
	m, cmd := press(t, m, runes("s"))
	if cmd != nil || m.saving {
		t.Error("clean session should not start a save")
	}
	if m.status != "nothing to save" {
		t.Errorf("status = %q", m.status)
	}
}

func TestSave_MissingRequiredField(t *testing.T) {
	m, _, _ := newBrowser(t)
	m, _ = press(t, m, runes("x"))

	m, cmd := press(t, m, runes("s"))
	msg := runSave(t, cmd)
	next, _ := m.Update(msg)
	m = next.(Model)

	if !m.failed {
		t.Fatal("expected a failed status")
	}
	if !strings.Contains(m.status, "title") {
		t.Errorf("status = %q, want the missing field named", m.status)
	}
}

func TestDiffView_ShowsPending(t *testing.T) {
	m, _, _ := newBrowser(t)
	m, _ = press(t, m, runes("e"))
	m.input.SetValue("Bye")
	m, _ = press(t, m, keyEnter, runes("d"))

	if m.mode != modeDiff {
		t.Fatalf("mode = %v, want diff", m.mode)
	}
	if len(m.pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(m.pending))
	}
	view := m.View()
	if !strings.Contains(view, `~ title: "Hello" -> "Bye"`) {
		t.Errorf("diff view missing change:\n%s", view)
	}

	m, _ = press(t, m, keyEsc)
	if m.mode != modeBrowse {
		t.Errorf("mode = %v, want browse", m.mode)
	}
}

// -----------------------------------------------------------------------------
// Quitting and rendering
// -----------------------------------------------------------------------------

func TestQuit_CleanSession(t *testing.T) {
	m, _, _ := newBrowser(t)
	m, cmd := press(t, m, runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if m.View() != "" {
		t.Error("expected empty view after quit")
	}
}

func TestQuit_DirtySessionAsksTwice(t *testing.T) {
	m, _, _ := newBrowser(t)
	m, _ = press(t, m, runes("e"))
	m.input.SetValue("Bye")
	m, _ = press(t, m, keyEnter)

	m, cmd := press(t, m, runes("q"))
	if cmd != nil {
		t.Fatal("first q on a dirty session should not quit")
	}
	if !m.confirmQuit {
		t.Error("expected confirmQuit")
	}

	_, cmd = press(t, m, runes("q"))
	if cmd == nil {
		t.Fatal("second q should quit")
	}
}

func TestView_RendersHeaderAndRows(t *testing.T) {
	m, _, _ := newBrowser(t)
	view := m.View()

	for _, want := range []string{"Article / Hello", "title", `"Hello"`, "seo", "{1 key}", "[2 items]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "modified") {
		t.Error("clean session rendered as modified")
	}
}
