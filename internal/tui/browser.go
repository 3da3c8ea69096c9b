// Package tui is the interactive terminal front end of bookcase: one
// bubbletea program with the book list, search, details panel, forms and
// dialogs.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/blackwell-systems/bookcase/internal/form"
	"github.com/blackwell-systems/bookcase/internal/library"
	"github.com/blackwell-systems/bookcase/internal/selection"
	"github.com/blackwell-systems/bookcase/internal/store"
)

// Options configures the browser.
type Options struct {
	Context       context.Context
	Session       *library.Session
	ToastDuration time.Duration
	Logger        *slog.Logger
}

// jobDoneMsg carries a finished job back onto the event loop.
type jobDoneMsg library.Outcome

// clearToastMsg hides the toast it was scheduled for. Newer toasts have a
// higher seq and survive.
type clearToastMsg struct{ seq int }

// Model is the root bubbletea model.
type Model struct {
	ctx      context.Context
	session  *library.Session
	log      *slog.Logger
	toastFor time.Duration
	keys     keyMap

	// exec turns a job into a command; replaced in tests
	exec func(library.Job) tea.Cmd

	list     list.Model
	search   textinput.Model
	spinner  spinner.Model
	spinning bool

	searching bool
	form      *bookForm

	lookupOpen bool
	isbn       textinput.Model
	isbnErr    string

	toast     library.Notice
	toastSeq  int
	activeCmd string

	width, height int
	quitting      bool
}

// New builds the browser model around sess.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	toastFor := opts.ToastDuration
	if toastFor <= 0 {
		toastFor = 3 * time.Second
	}

	l := list.New(nil, bookDelegate{}, 0, 0)
	l.Title = "Books"
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.PaginationStyle = StyleHelp

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "title, author or isbn"
	search.CharLimit = 100

	isbn := textinput.New()
	isbn.Prompt = "│ "
	isbn.Placeholder = "9780441013593"
	isbn.CharLimit = 17
	isbn.Width = 20

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = StyleHighlight

	m := Model{
		ctx:      ctx,
		session:  opts.Session,
		log:      logger,
		toastFor: toastFor,
		keys:     newKeyMap(),
		list:     l,
		search:   search,
		spinner:  sp,
		isbn:     isbn,
	}
	m.exec = m.runJob
	m.syncList()
	return m
}

// Init starts the initial load.
func (m Model) Init() tea.Cmd {
	job, err := m.session.BeginLoad()
	if err != nil {
		return nil
	}
	return tea.Batch(m.exec(job), m.spinner.Tick)
}

func (m Model) runJob(job library.Job) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return jobDoneMsg(job.Run(ctx))
	}
}

// start hands job to exec and makes sure the spinner is running.
func (m *Model) start(job library.Job) tea.Cmd {
	m.log.Debug("job started", "action", job.Action.String())
	cmds := []tea.Cmd{m.exec(job)}
	if !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m *Model) notify(n library.Notice) tea.Cmd {
	if n.Empty() {
		return nil
	}
	m.toastSeq++
	m.toast = n
	seq := m.toastSeq
	return tea.Tick(m.toastFor, func(time.Time) tea.Msg {
		return clearToastMsg{seq: seq}
	})
}

// refuse shows the notice for a Begin error. Field errors go inline into
// the open form as well.
func (m *Model) refuse(err error) tea.Cmd {
	var ferrs form.Errors
	var cmds []tea.Cmd
	if errors.As(err, &ferrs) && m.form != nil {
		cmds = append(cmds, m.form.SetErrors(ferrs))
	}
	if m.form != nil {
		m.form.submitted = false
		m.form.confirming = false
	}
	m.log.Debug("action refused", "err", err)
	cmds = append(cmds, m.notify(library.NoticeFor(err)))
	return tea.Batch(cmds...)
}

// syncList rebuilds the list from the visible books, keeping the cursor
// on the same book when it is still visible.
func (m *Model) syncList() {
	var keep string
	if it, ok := m.list.SelectedItem().(BookItem); ok {
		keep = it.Book.ID
	}
	visible := m.session.Visible()
	m.list.SetItems(toItems(visible))
	for i, b := range visible {
		if b.ID == keep {
			m.list.Select(i)
			return
		}
	}
	if n := len(visible); n > 0 && m.list.Index() >= n {
		m.list.Select(n - 1)
	}
}

// syncForm closes a form whose dialog the session has closed.
func (m *Model) syncForm() {
	if m.form == nil {
		return
	}
	st := m.session.Selection().State()
	switch m.form.kind {
	case formCreate:
		if !st.CreateDialogOpen {
			m.form = nil
		}
	case formEdit:
		if !st.HasActive() || st.Mode != selection.Editing {
			m.form = nil
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h, v := StyleBorder.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-chromeHeight)
		m.search.Width = msg.Width - h - 4
		return m, nil

	case ClearActiveCmdMsg:
		m.activeCmd = ""
		if m.form != nil {
			m.form.Update(msg)
		}
		return m, nil

	case clearToastMsg:
		if msg.seq == m.toastSeq {
			m.toast = library.Notice{}
		}
		return m, nil

	case spinner.TickMsg:
		if !m.session.Busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case jobDoneMsg:
		return m.handleOutcome(library.Outcome(msg))

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.forward(msg)
}

// forward passes non-key messages (cursor blink) to the focused input.
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.form != nil:
		cmd = m.form.Update(msg)
	case m.lookupOpen:
		m.isbn, cmd = m.isbn.Update(msg)
	case m.searching:
		m.search, cmd = m.search.Update(msg)
	}
	return m, cmd
}

func (m Model) handleOutcome(o library.Outcome) (tea.Model, tea.Cmd) {
	if o.Err != nil {
		m.log.Warn("request failed", "action", o.Action.String(), "id", o.ID, "err", o.Err)
	}
	n := m.session.Complete(o)

	var cmds []tea.Cmd
	if fields := rejectedFields(o.Err); fields != nil && m.form != nil {
		cmds = append(cmds, m.form.SetErrors(fields))
	} else if o.Err != nil && m.form != nil {
		m.form.submitted = false
		m.form.confirming = false
	}
	if o.Action == library.ActionLookup && o.Err == nil {
		m.isbn.Blur()
		m.isbnErr = ""
	}

	m.syncForm()
	m.syncList()
	cmds = append(cmds, m.notify(n))
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	switch {
	case m.form != nil:
		return m.handleFormKey(msg)
	case m.lookupOpen:
		return m.handleLookupKey(msg)
	case m.session.Selection().State().DeleteDialogOpen:
		return m.handleDeleteKey(msg)
	case m.session.Selection().State().HasActive():
		return m.handleDetailsKey(msg)
	case m.searching:
		return m.handleSearchKey(msg)
	}
	return m.handleListKey(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sel := m.session.Selection()
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case msg.String() == "esc":
		if m.session.Query() != "" {
			m.search.SetValue("")
			m.session.SetSearchQuery("")
			m.syncList()
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.activeCmd = "search"
		return m, tea.Batch(m.search.Focus(), HighlightCmd())

	case key.Matches(msg, m.keys.Details):
		if it, ok := m.list.SelectedItem().(BookItem); ok {
			sel.OpenDetails(it.Book.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Create):
		sel.OpenCreateDialog()
		m.form = newCreateForm(m.keys)
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Lookup):
		m.lookupOpen = true
		m.isbnErr = ""
		m.isbn.SetValue("")
		return m, m.isbn.Focus()

	case key.Matches(msg, m.keys.Refresh):
		m.activeCmd = "refresh"
		job, err := m.session.BeginLoad()
		if err != nil {
			return m, tea.Batch(m.refuse(err), HighlightCmd())
		}
		return m, tea.Batch(m.start(job), HighlightCmd())
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.session.SetSearchQuery("")
		m.syncList()
		return m, nil
	case "up", "down":
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.session.Query() {
		m.session.SetSearchQuery(m.search.Value())
		m.syncList()
	}
	return m, cmd
}

func (m Model) handleDetailsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sel := m.session.Selection()
	book, ok := m.session.ActiveBook()
	if !ok {
		return m, m.notify(library.Notice{Level: library.Warning, Text: library.MsgGone})
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		sel.CloseDetails()
		return m, nil

	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Edit):
		if err := sel.EnterEditMode(); err != nil {
			return m, m.refuse(err)
		}
		m.form = newEditForm(book, m.keys)
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Delete):
		if err := sel.OpenDeleteConfirmation(); err != nil {
			return m, m.refuse(err)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		job, err := m.session.BeginDelete()
		if err != nil {
			return m, m.refuse(err)
		}
		return m, m.start(job)

	case key.Matches(msg, m.keys.Cancel):
		m.session.Selection().CancelDeleteConfirmation()
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	cmd := f.Update(msg)

	switch {
	case f.canceled:
		if f.kind == formCreate {
			m.session.Selection().CloseCreateDialog()
		} else {
			m.session.Selection().ExitEditMode()
		}
		m.form = nil
		return m, nil

	case f.submitted:
		var (
			job library.Job
			err error
		)
		if f.kind == formCreate {
			job, err = m.session.BeginCreate(f.Input())
		} else {
			job, err = m.session.BeginUpdate(f.Input())
		}
		if err != nil {
			return m, tea.Batch(cmd, m.refuse(err))
		}
		f.errs = nil
		f.submitted = false
		f.confirming = false
		return m, tea.Batch(cmd, m.start(job))
	}
	return m, cmd
}

func (m Model) handleLookupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	_, hasDraft := m.session.Draft()

	if msg.String() == "esc" {
		m.lookupOpen = false
		m.isbn.Blur()
		m.session.ClearDraft()
		return m, nil
	}

	if !m.isbn.Focused() {
		switch {
		case hasDraft && (msg.String() == "enter" || key.Matches(msg, m.keys.Create)):
			job, err := m.session.BeginAddDraft()
			if err != nil {
				return m, m.refuse(err)
			}
			return m, m.start(job)
		case key.Matches(msg, m.keys.Lookup):
			return m, m.isbn.Focus()
		case key.Matches(msg, m.keys.Quit):
			m.lookupOpen = false
			m.session.ClearDraft()
			return m, nil
		}
		return m, nil
	}

	if msg.String() == "enter" {
		job, err := m.session.BeginLookup(m.isbn.Value())
		if err != nil {
			var ferrs form.Errors
			if errors.As(err, &ferrs) {
				m.isbnErr = ferrs[form.FieldISBN]
			}
			return m, m.refuse(err)
		}
		m.isbnErr = ""
		return m, m.start(job)
	}

	var cmd tea.Cmd
	m.isbn, cmd = m.isbn.Update(msg)
	return m, cmd
}

// rejectedFields returns the per-field messages of a server rejection.
func rejectedFields(err error) form.Errors {
	var rej *store.RejectedError
	if errors.As(err, &rej) && len(rej.Fields) > 0 {
		out := make(form.Errors, len(rej.Fields))
		for k, v := range rej.Fields {
			out[k] = v
		}
		return out
	}
	return nil
}

// Run starts the browser on the alternate screen and blocks until the user
// quits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
