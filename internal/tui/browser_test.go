package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/bookcase/internal/catalog"
	"github.com/blackwell-systems/bookcase/internal/form"
	"github.com/blackwell-systems/bookcase/internal/library"
	"github.com/blackwell-systems/bookcase/internal/lookup"
	"github.com/blackwell-systems/bookcase/internal/store"
)

type memStore struct {
	books  []catalog.Book
	nextID int
	err    error
	calls  []string
}

func (s *memStore) ListAll(ctx context.Context) ([]catalog.Book, error) {
	s.calls = append(s.calls, "list")
	if s.err != nil {
		return nil, s.err
	}
	return append([]catalog.Book(nil), s.books...), nil
}

func (s *memStore) Create(ctx context.Context, b catalog.Book, route store.Route) (catalog.Book, error) {
	s.calls = append(s.calls, "create:"+route.String())
	if s.err != nil {
		return catalog.Book{}, s.err
	}
	s.nextID++
	b.ID = fmt.Sprintf("new-%d", s.nextID)
	s.books = append(s.books, b)
	return b, nil
}

func (s *memStore) Update(ctx context.Context, id string, p store.Patch) (catalog.Book, error) {
	s.calls = append(s.calls, "update:"+id)
	if s.err != nil {
		return catalog.Book{}, s.err
	}
	for i := range s.books {
		if s.books[i].ID == id {
			s.books[i] = p.Apply(s.books[i])
			return s.books[i], nil
		}
	}
	return catalog.Book{}, store.ErrNotFound
}

func (s *memStore) Remove(ctx context.Context, id string) error {
	s.calls = append(s.calls, "delete:"+id)
	if s.err != nil {
		return s.err
	}
	for i := range s.books {
		if s.books[i].ID == id {
			s.books = append(s.books[:i], s.books[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type stubFinder struct {
	rec lookup.Record
	err error
}

func (f stubFinder) Lookup(ctx context.Context, isbn string) (lookup.Record, error) {
	return f.rec, f.err
}

// harness drives a Model synchronously: jobs are queued instead of run in
// goroutines and flush feeds their outcomes back through Update.
type harness struct {
	t     *testing.T
	m     Model
	store *memStore
	jobs  []library.Job
}

func fixtures() []catalog.Book {
	return []catalog.Book{
		{ID: "b1", Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593", UserRating: 5, ReadStatus: true, Notes: "Spice"},
		{ID: "b2", Title: "Neuromancer", Author: "William Gibson", ISBN: "9780441569595", UserRating: 4, Notes: "Cyberspace"},
	}
}

func newHarness(t *testing.T, finder lookup.Finder) *harness {
	t.Helper()
	st := &memStore{books: fixtures()}
	h := &harness{t: t, store: st}
	m := New(Options{Session: library.New(st, finder), ToastDuration: time.Millisecond})
	m.exec = func(j library.Job) tea.Cmd {
		h.jobs = append(h.jobs, j)
		return nil
	}
	h.m = m
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	h.m.Init()
	h.flush()
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

func (h *harness) press(k string) tea.Cmd {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+u":
		msg = tea.KeyMsg{Type: tea.KeyCtrlU}
	case "ctrl+c":
		msg = tea.KeyMsg{Type: tea.KeyCtrlC}
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	return h.send(msg)
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.press(string(r))
	}
}

func (h *harness) flush() {
	for len(h.jobs) > 0 {
		j := h.jobs[0]
		h.jobs = h.jobs[1:]
		h.send(jobDoneMsg(j.Run(context.Background())))
	}
}

func (h *harness) titles() []string {
	var out []string
	for _, it := range h.m.list.Items() {
		out = append(out, it.(BookItem).Book.Title)
	}
	return out
}

func TestInitLoadsBooks(t *testing.T) {
	h := newHarness(t, nil)

	assert.Equal(t, []string{"Dune", "Neuromancer"}, h.titles())
	assert.Equal(t, "2 books loaded", h.m.toast.Text)
	assert.False(t, h.m.session.Busy())
	assert.Contains(t, h.m.View(), "Neuromancer")
}

func TestSearchFiltersLive(t *testing.T) {
	h := newHarness(t, nil)

	h.press("/")
	require.True(t, h.m.searching)
	h.typeText("gibson")
	assert.Equal(t, []string{"Neuromancer"}, h.titles())
	assert.Equal(t, "gibson", h.m.session.Query())

	h.press("enter")
	assert.False(t, h.m.searching)
	assert.Equal(t, []string{"Neuromancer"}, h.titles(), "query survives leaving the input")

	h.press("esc")
	assert.Equal(t, "", h.m.session.Query())
	assert.Len(t, h.titles(), 2)
}

func TestSearchWithoutMatchesShowsHint(t *testing.T) {
	h := newHarness(t, nil)

	h.press("/")
	h.typeText("zzz")
	assert.Empty(t, h.titles())
	assert.Contains(t, h.m.View(), "No books match your search.")
}

func TestCreateDialogAddsBook(t *testing.T) {
	h := newHarness(t, nil)

	h.press("a")
	require.NotNil(t, h.m.form)
	assert.True(t, h.m.session.Selection().State().CreateDialogOpen)

	h.typeText("Hyperion")
	h.press("tab")
	h.typeText("Dan Simmons")
	h.press("tab")
	h.typeText("9780553283686")
	h.press("tab")
	h.typeText("4")
	h.press("enter")
	require.True(t, h.m.form.confirming)
	h.press("y")
	require.Len(t, h.jobs, 1)
	h.flush()

	assert.Nil(t, h.m.form)
	assert.False(t, h.m.session.Selection().State().CreateDialogOpen)
	assert.Equal(t, []string{"Dune", "Neuromancer", "Hyperion"}, h.titles())
	assert.Equal(t, library.MsgAdded, h.m.toast.Text)
	assert.Contains(t, h.store.calls, "create:manual")
}

func TestCreateDialogShowsFieldErrors(t *testing.T) {
	h := newHarness(t, nil)

	h.press("a")
	h.typeText("Du")
	h.press("enter")
	h.press("y")

	require.NotNil(t, h.m.form, "invalid input keeps the dialog open")
	assert.Empty(t, h.jobs)
	assert.Equal(t, "Title must be at least 3 characters", h.m.form.errs[form.FieldTitle])
	assert.Equal(t, "Author is required", h.m.form.errs[form.FieldAuthor])
	assert.False(t, h.m.form.confirming)
	assert.Equal(t, library.MsgInvalid, h.m.toast.Text)
	assert.Contains(t, h.m.View(), "Author is required")
}

func TestCreateDuplicateISBNIsRefused(t *testing.T) {
	h := newHarness(t, nil)

	h.press("a")
	h.typeText("Dune Again")
	h.press("tab")
	h.typeText("Frank Herbert")
	h.press("tab")
	h.typeText("978-0441013593")
	h.press("tab")
	h.typeText("3")
	h.press("enter")
	h.press("y")

	assert.Empty(t, h.jobs)
	assert.Equal(t, library.MsgDuplicate, h.m.toast.Text)
	assert.Len(t, h.titles(), 2)
}

func TestCreateDialogCancel(t *testing.T) {
	h := newHarness(t, nil)

	h.press("a")
	h.typeText("Something")
	h.press("esc")

	assert.Nil(t, h.m.form)
	assert.False(t, h.m.session.Selection().State().CreateDialogOpen)
}

func TestEditUpdatesBookAndClosesDetails(t *testing.T) {
	h := newHarness(t, nil)

	h.press("enter")
	require.Equal(t, "b1", h.m.session.Selection().State().ActiveID)
	assert.Contains(t, h.m.View(), "Book Details")

	h.press("e")
	require.NotNil(t, h.m.form)
	assert.Equal(t, "Dune", h.m.form.Input().Title)

	h.press("ctrl+u")
	h.typeText("Dune Messiah")
	h.press("enter")
	h.press("y")
	require.Len(t, h.jobs, 1)
	h.flush()

	assert.Nil(t, h.m.form)
	assert.False(t, h.m.session.Selection().State().HasActive())
	assert.Equal(t, library.MsgUpdated, h.m.toast.Text)
	assert.Equal(t, []string{"Dune Messiah", "Neuromancer"}, h.titles())
	assert.Contains(t, h.store.calls, "update:b1")
}

func TestEditRequiresNotes(t *testing.T) {
	h := newHarness(t, nil)

	h.press("enter")
	h.press("e")
	for i := 0; i < 5; i++ {
		h.press("tab")
	}
	h.press("ctrl+u")
	h.press("enter")
	h.press("y")

	require.NotNil(t, h.m.form)
	assert.Empty(t, h.jobs)
	assert.Equal(t, "Notes are required", h.m.form.errs[form.FieldNotes])
	assert.Equal(t, 5, h.m.form.focused, "focus jumps to the first failing field")
}

func TestEditToggleReadStatus(t *testing.T) {
	h := newHarness(t, nil)

	h.press("down")
	h.press("enter")
	require.Equal(t, "b2", h.m.session.Selection().State().ActiveID)
	h.press("e")
	for i := 0; i < 4; i++ {
		h.press("tab")
	}
	h.press(" ")
	h.press("enter")
	h.press("y")
	h.flush()

	b, ok := h.m.session.Book("b2")
	require.True(t, ok)
	assert.True(t, b.ReadStatus)
}

func TestDeleteConfirmation(t *testing.T) {
	h := newHarness(t, nil)

	h.press("enter")
	h.press("d")
	require.True(t, h.m.session.Selection().State().DeleteDialogOpen)
	assert.Contains(t, h.m.View(), deletePrompt)

	h.press("n")
	assert.False(t, h.m.session.Selection().State().DeleteDialogOpen)
	assert.Empty(t, h.jobs)

	h.press("d")
	h.press("y")
	require.Len(t, h.jobs, 1)
	h.flush()

	assert.Equal(t, []string{"Neuromancer"}, h.titles())
	assert.False(t, h.m.session.Selection().State().HasActive())
	assert.Equal(t, library.MsgDeleted, h.m.toast.Text)
}

func TestFailedDeleteKeepsBook(t *testing.T) {
	h := newHarness(t, nil)
	h.store.err = &store.TransportError{Op: "delete", Status: 500}

	h.press("enter")
	h.press("d")
	h.press("y")
	h.flush()

	assert.Len(t, h.titles(), 2)
	assert.Equal(t, library.MsgDeleteFailed, h.m.toast.Text)
	assert.Equal(t, library.Error, h.m.toast.Level)
	assert.True(t, h.m.session.Selection().State().HasActive())
}

func TestLookupAndAddToList(t *testing.T) {
	rec := lookup.Record{
		Book: catalog.Book{
			Title:      "Snow Crash",
			Author:     "Neal Stephenson",
			ISBN:       "9780553380958",
			UserRating: lookup.DefaultRating,
			ReadStatus: true,
			Notes:      lookup.DefaultNotes,
		},
		Publishers: []string{"Bantam"},
	}
	h := newHarness(t, stubFinder{rec: rec})

	h.press("i")
	require.True(t, h.m.lookupOpen)
	h.typeText("978-0553380958")
	h.press("enter")
	require.Len(t, h.jobs, 1)
	h.flush()

	_, ok := h.m.session.Draft()
	require.True(t, ok)
	assert.False(t, h.m.isbn.Focused())
	assert.Contains(t, h.m.View(), "Bantam")

	h.press("enter")
	require.Len(t, h.jobs, 1)
	h.flush()

	assert.Equal(t, []string{"Dune", "Neuromancer", "Snow Crash"}, h.titles())
	assert.Contains(t, h.store.calls, "create:quick")
	_, ok = h.m.session.Draft()
	assert.False(t, ok)
}

func TestLookupRejectsMalformedISBN(t *testing.T) {
	h := newHarness(t, stubFinder{err: lookup.ErrNotFound})

	h.press("i")
	h.typeText("12345")
	h.press("enter")

	assert.Empty(t, h.jobs)
	assert.Equal(t, "Invalid ISBN number", h.m.isbnErr)
}

func TestLookupNotFound(t *testing.T) {
	h := newHarness(t, stubFinder{err: fmt.Errorf("isbn 9780000000002: %w", lookup.ErrNotFound)})

	h.press("i")
	h.typeText("9780000000002")
	h.press("enter")
	h.flush()

	assert.Equal(t, library.MsgLookupNone, h.m.toast.Text)
	_, ok := h.m.session.Draft()
	assert.False(t, ok)
}

func TestRefreshWhileLoadingIsRefused(t *testing.T) {
	h := newHarness(t, nil)

	h.press("r")
	require.Len(t, h.jobs, 1)
	h.press("r")
	assert.Len(t, h.jobs, 1)
	assert.Equal(t, library.MsgBusy, h.m.toast.Text)
	h.flush()
	assert.False(t, h.m.session.Busy())
}

func TestToastClearsOnlyForItsOwnTick(t *testing.T) {
	h := newHarness(t, nil)
	h.m.notify(library.Notice{Text: "first"})
	first := h.m.toastSeq
	h.m.notify(library.Notice{Text: "second"})

	h.send(clearToastMsg{seq: first})
	assert.Equal(t, "second", h.m.toast.Text)

	h.send(clearToastMsg{seq: h.m.toastSeq})
	assert.True(t, h.m.toast.Empty())
}

func TestQuit(t *testing.T) {
	h := newHarness(t, nil)

	cmd := h.press("q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, h.m.View())
}

func TestPadOrTruncate(t *testing.T) {
	assert.Equal(t, "Dune  ", padOrTruncate("Dune", 6))
	assert.Equal(t, "Neur…", padOrTruncate("Neuromancer", 5))
	assert.Equal(t, "", padOrTruncate("x", 0))
}

func TestRenderFooterBarHighlightsActive(t *testing.T) {
	out := RenderFooterBar([]ShortcutEntry{
		{Key: "search", Label: "/ search"},
		{Key: "", Label: "q quit"},
	}, "search")

	assert.Contains(t, out, "[ / search ]")
	assert.Contains(t, out, "•")
	assert.True(t, strings.Contains(out, "q quit"))
}
