// Package library ties the catalog, the selection controller, the form
// validator and the remote clients into the create, edit, lookup and delete
// workflows.
//
// A Session is driven by a single event loop. Begin* methods validate on the
// caller's goroutine and hand back a Job that performs only I/O; the Outcome
// of that job is fed back through Complete on the same loop.
package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/blackwell-systems/bookcase/internal/catalog"
	"github.com/blackwell-systems/bookcase/internal/form"
	"github.com/blackwell-systems/bookcase/internal/lookup"
	"github.com/blackwell-systems/bookcase/internal/selection"
	"github.com/blackwell-systems/bookcase/internal/store"
)

var (
	// ErrInFlight is returned when the same action is already waiting on the network.
	ErrInFlight = errors.New("request already in progress")
	// ErrNotEditing is returned by BeginUpdate outside edit mode.
	ErrNotEditing = errors.New("details panel is not in edit mode")
	// ErrNotConfirmed is returned by BeginDelete while the confirmation dialog is closed.
	ErrNotConfirmed = errors.New("delete has not been confirmed")
	// ErrNoDraft is returned by BeginAddDraft when no lookup result is held.
	ErrNoDraft = errors.New("no looked-up book to add")
)

// Action names a workflow that talks to the network.
type Action int

const (
	ActionLoad Action = iota
	ActionCreate
	ActionLookup
	ActionAddDraft
	ActionUpdate
	ActionDelete
	ActionImport
)

func (a Action) String() string {
	switch a {
	case ActionLoad:
		return "load"
	case ActionCreate:
		return "create"
	case ActionLookup:
		return "lookup"
	case ActionAddDraft:
		return "add-draft"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	case ActionImport:
		return "import"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Job is the I/O half of a workflow. It must not touch session state.
type Job struct {
	Action Action
	run    func(ctx context.Context) Outcome
}

// Run performs the request and returns its outcome.
func (j Job) Run(ctx context.Context) Outcome {
	if j.run == nil {
		return Outcome{Action: j.Action, Err: errors.New("empty job")}
	}
	o := j.run(ctx)
	o.Action = j.Action
	return o
}

// Outcome is the result of a Job, applied with Session.Complete.
type Outcome struct {
	Action Action
	ID     string
	Book   catalog.Book
	Books  []catalog.Book
	Record lookup.Record
	Err    error
}

// Session owns all per-run state of the client.
type Session struct {
	catalog *catalog.State
	sel     *selection.Controller
	books   store.Books
	finder  lookup.Finder
	draft   *lookup.Record
	pending map[Action]bool
}

// New creates an empty session. finder may be nil when lookups are disabled.
func New(books store.Books, finder lookup.Finder) *Session {
	return &Session{
		catalog: catalog.NewState(),
		sel:     selection.New(),
		books:   books,
		finder:  finder,
		pending: make(map[Action]bool),
	}
}

// Selection exposes the controller for UI navigation (open/close panels
// and dialogs).
func (s *Session) Selection() *selection.Controller { return s.sel }

// Books returns every book in arrival order.
func (s *Session) Books() []catalog.Book { return s.catalog.Books() }

// Visible returns the books matching the current search query.
func (s *Session) Visible() []catalog.Book { return s.catalog.Visible() }

// Query returns the current search query.
func (s *Session) Query() string { return s.catalog.Query() }

// SetSearchQuery updates the filter.
func (s *Session) SetSearchQuery(q string) { s.catalog.SetSearchQuery(q) }

// Book resolves id against the catalog.
func (s *Session) Book(id string) (catalog.Book, bool) { return s.catalog.ByID(id) }

// ActiveBook resolves the selection against the catalog. A selection that
// points at a book no longer present is cleared.
func (s *Session) ActiveBook() (catalog.Book, bool) {
	st := s.sel.State()
	if !st.HasActive() {
		return catalog.Book{}, false
	}
	b, ok := s.catalog.ByID(st.ActiveID)
	if !ok {
		s.sel.Forget(st.ActiveID)
		return catalog.Book{}, false
	}
	return b, true
}

// Draft returns the last successful lookup, if it has not been added yet.
func (s *Session) Draft() (lookup.Record, bool) {
	if s.draft == nil {
		return lookup.Record{}, false
	}
	return *s.draft, true
}

// ClearDraft discards the lookup result.
func (s *Session) ClearDraft() { s.draft = nil }

// InFlight reports whether a is waiting on the network.
func (s *Session) InFlight(a Action) bool { return s.pending[a] }

// Busy reports whether any request is outstanding.
func (s *Session) Busy() bool {
	for _, p := range s.pending {
		if p {
			return true
		}
	}
	return false
}

func (s *Session) start(a Action, run func(ctx context.Context) Outcome) (Job, error) {
	if s.pending[a] {
		return Job{}, fmt.Errorf("%s: %w", a, ErrInFlight)
	}
	s.pending[a] = true
	return Job{Action: a, run: run}, nil
}

// BeginLoad fetches the full list.
func (s *Session) BeginLoad() (Job, error) {
	books := s.books
	return s.start(ActionLoad, func(ctx context.Context) Outcome {
		list, err := books.ListAll(ctx)
		return Outcome{Books: list, Err: err}
	})
}

// BeginCreate validates in with the quick-add rules and creates it through
// the manual route.
func (s *Session) BeginCreate(in form.Input) (Job, error) {
	if s.pending[ActionCreate] {
		return Job{}, fmt.Errorf("%s: %w", ActionCreate, ErrInFlight)
	}
	b, errs := form.Validate(in, form.QuickAdd)
	if errs != nil {
		return Job{}, errs
	}
	if s.catalog.HasISBN(b.ISBN, "") {
		return Job{}, fmt.Errorf("create %s: %w", b.ISBN, catalog.ErrDuplicateISBN)
	}
	return s.start(ActionCreate, s.createJob(b, store.RouteManual))
}

// BeginLookup queries the lookup service for isbn.
func (s *Session) BeginLookup(isbn string) (Job, error) {
	if s.pending[ActionLookup] {
		return Job{}, fmt.Errorf("%s: %w", ActionLookup, ErrInFlight)
	}
	if s.finder == nil {
		return Job{}, errors.New("isbn lookup is not configured")
	}
	isbn = form.NormalizeISBN(isbn)
	if isbn == "" {
		return Job{}, form.Errors{form.FieldISBN: "ISBN is required"}
	}
	if !form.ISBNPattern.MatchString(isbn) {
		return Job{}, form.Errors{form.FieldISBN: "Invalid ISBN number"}
	}
	finder := s.finder
	return s.start(ActionLookup, func(ctx context.Context) Outcome {
		rec, err := finder.Lookup(ctx, isbn)
		return Outcome{Record: rec, Book: rec.Book, Err: err}
	})
}

// BeginAddDraft creates the held lookup result through the quick route.
func (s *Session) BeginAddDraft() (Job, error) {
	if s.pending[ActionAddDraft] {
		return Job{}, fmt.Errorf("%s: %w", ActionAddDraft, ErrInFlight)
	}
	if s.draft == nil {
		return Job{}, ErrNoDraft
	}
	b := s.draft.Book
	if s.catalog.HasISBN(b.ISBN, "") {
		return Job{}, fmt.Errorf("add %s: %w", b.ISBN, catalog.ErrDuplicateISBN)
	}
	return s.start(ActionAddDraft, s.createJob(b, store.RouteQuick))
}

// BeginImport creates a complete record, such as one read from a file,
// through the quick route. It must satisfy the stored-record rules.
func (s *Session) BeginImport(b catalog.Book) (Job, error) {
	if s.pending[ActionImport] {
		return Job{}, fmt.Errorf("%s: %w", ActionImport, ErrInFlight)
	}
	if b.Persisted() {
		return Job{}, fmt.Errorf("import %s: %w", b.ID, store.ErrAlreadyPersisted)
	}
	b, errs := form.ValidateBook(b, form.Stored)
	if errs != nil {
		return Job{}, errs
	}
	if s.catalog.HasISBN(b.ISBN, "") {
		return Job{}, fmt.Errorf("import %s: %w", b.ISBN, catalog.ErrDuplicateISBN)
	}
	return s.start(ActionImport, s.createJob(b, store.RouteQuick))
}

func (s *Session) createJob(b catalog.Book, route store.Route) func(ctx context.Context) Outcome {
	books := s.books
	return func(ctx context.Context) Outcome {
		created, err := books.Create(ctx, b, route)
		return Outcome{ID: created.ID, Book: created, Err: err}
	}
}

// BeginUpdate validates in with the full-edit rules and patches the active
// book. The details panel must be in edit mode.
func (s *Session) BeginUpdate(in form.Input) (Job, error) {
	if s.pending[ActionUpdate] {
		return Job{}, fmt.Errorf("%s: %w", ActionUpdate, ErrInFlight)
	}
	st := s.sel.State()
	if !st.HasActive() {
		return Job{}, selection.ErrNoActiveBook
	}
	if st.Mode != selection.Editing {
		return Job{}, ErrNotEditing
	}
	before, ok := s.ActiveBook()
	if !ok {
		return Job{}, fmt.Errorf("update %s: %w", st.ActiveID, catalog.ErrNotFound)
	}
	after, errs := form.Validate(in, form.FullEdit)
	if errs != nil {
		return Job{}, errs
	}
	if s.catalog.HasISBN(after.ISBN, before.ID) {
		return Job{}, fmt.Errorf("update %s: %w", before.ID, catalog.ErrDuplicateISBN)
	}

	id := before.ID
	patch := store.Diff(before, after)
	books := s.books
	return s.start(ActionUpdate, func(ctx context.Context) Outcome {
		updated, err := books.Update(ctx, id, patch)
		if err != nil {
			return Outcome{ID: id, Err: err}
		}
		if updated.Title == "" {
			// empty acknowledgement: the server accepted the patch as sent
			updated = patch.Apply(before)
		}
		updated.ID = id
		return Outcome{ID: id, Book: updated}
	})
}

// BeginDelete removes the active book. The confirmation dialog must be open.
func (s *Session) BeginDelete() (Job, error) {
	if s.pending[ActionDelete] {
		return Job{}, fmt.Errorf("%s: %w", ActionDelete, ErrInFlight)
	}
	st := s.sel.State()
	if !st.HasActive() {
		return Job{}, selection.ErrNoActiveBook
	}
	if !st.DeleteDialogOpen {
		return Job{}, ErrNotConfirmed
	}
	id := st.ActiveID
	books := s.books
	return s.start(ActionDelete, func(ctx context.Context) Outcome {
		return Outcome{ID: id, Err: books.Remove(ctx, id)}
	})
}

// Complete applies an outcome and returns the notice to show. Failures
// leave the catalog untouched.
func (s *Session) Complete(o Outcome) Notice {
	delete(s.pending, o.Action)

	switch o.Action {
	case ActionLoad:
		if o.Err != nil {
			return failure(o.Err, MsgLoadFailed)
		}
		s.catalog.SetBooks(o.Books)
		if id := s.sel.State().ActiveID; id != "" {
			if _, ok := s.catalog.ByID(id); !ok {
				s.sel.Forget(id)
			}
		}
		return Notice{Level: Info, Text: fmt.Sprintf("%d %s loaded", len(o.Books), plural(len(o.Books), "book", "books"))}

	case ActionCreate, ActionAddDraft, ActionImport:
		if o.Err != nil {
			return failure(o.Err, MsgAddFailed)
		}
		if err := s.catalog.Insert(o.Book); err != nil {
			return NoticeFor(err)
		}
		switch o.Action {
		case ActionAddDraft:
			s.draft = nil
		case ActionCreate:
			s.sel.CloseCreateDialog()
		}
		return Notice{Level: Success, Text: MsgAdded}

	case ActionLookup:
		if o.Err != nil {
			return failure(o.Err, MsgLookupFailed)
		}
		rec := o.Record
		s.draft = &rec
		return Notice{Level: Info, Text: fmt.Sprintf("Found %q by %s", rec.Book.Title, rec.Book.Author)}

	case ActionUpdate:
		if o.Err != nil {
			return failure(o.Err, MsgUpdateFailed)
		}
		if err := s.catalog.ApplyUpdate(o.ID, o.Book); err != nil {
			return NoticeFor(err)
		}
		s.sel.CloseDetails()
		return Notice{Level: Success, Text: MsgUpdated}

	case ActionDelete:
		if o.Err != nil {
			return failure(o.Err, MsgDeleteFailed)
		}
		s.sel.Forget(o.ID)
		if err := s.catalog.ApplyRemoval(o.ID); err != nil && !errors.Is(err, catalog.ErrNotFound) {
			return NoticeFor(err)
		}
		return Notice{Level: Success, Text: MsgDeleted}
	}
	return Notice{}
}

// Abandon releases a job that will not be run.
func (s *Session) Abandon(job Job) {
	delete(s.pending, job.Action)
}

// Run executes job and applies its outcome. The returned error is the
// outcome's error, for callers that exit on failure.
func (s *Session) Run(ctx context.Context, job Job) (Notice, error) {
	o := job.Run(ctx)
	return s.Complete(o), o.Err
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
