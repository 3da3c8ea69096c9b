package catalog

import "fmt"

// State is the in-memory catalog of one session: the authoritative book list
// in arrival order plus the current search query. The visible view is derived
// from both and recomputed whenever either changes.
//
// State is not safe for concurrent use; it is owned by a single event loop.
type State struct {
	books   []Book
	query   string
	visible []Book
}

// NewState returns an empty catalog.
func NewState() *State {
	s := &State{}
	s.recompute()
	return s
}

// SetBooks replaces the whole list, typically after a full fetch.
func (s *State) SetBooks(books []Book) {
	s.books = cloneBooks(books)
	s.recompute()
}

// SetSearchQuery changes the filter applied to the visible view.
func (s *State) SetSearchQuery(q string) {
	s.query = q
	s.recompute()
}

// Insert appends b unless another entry already uses its ISBN.
func (s *State) Insert(b Book) error {
	if s.HasISBN(b.ISBN, "") {
		return fmt.Errorf("insert %q: %w", b.ISBN, ErrDuplicateISBN)
	}
	s.books = append(s.books, b)
	s.recompute()
	return nil
}

// ApplyUpdate replaces the entry with the given id in place. The replacement
// keeps id even if b carries a different one.
func (s *State) ApplyUpdate(id string, b Book) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	if s.HasISBN(b.ISBN, id) {
		return fmt.Errorf("update %s: %w", id, ErrDuplicateISBN)
	}
	b.ID = id
	s.books[idx] = b
	s.recompute()
	return nil
}

// ApplyRemoval drops the entry with the given id.
func (s *State) ApplyRemoval(id string) error {
	books, ok := Remove(s.books, id)
	if !ok {
		return fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}
	s.books = books
	s.recompute()
	return nil
}

// HasISBN reports whether a book other than exceptID already uses isbn.
func (s *State) HasISBN(isbn, exceptID string) bool {
	for _, b := range s.books {
		if b.ISBN == isbn && (exceptID == "" || b.ID != exceptID) {
			return true
		}
	}
	return false
}

// ByID resolves id against the current list.
func (s *State) ByID(id string) (Book, bool) {
	if id == "" {
		return Book{}, false
	}
	b := ByID(s.books, id)
	if b == nil {
		return Book{}, false
	}
	return *b, true
}

// Books returns a copy of the authoritative list.
func (s *State) Books() []Book { return cloneBooks(s.books) }

// Visible returns a copy of the filtered view.
func (s *State) Visible() []Book { return cloneBooks(s.visible) }

// Query returns the current search query.
func (s *State) Query() string { return s.query }

// Len is the size of the authoritative list.
func (s *State) Len() int { return len(s.books) }

func (s *State) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.books {
		if s.books[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) recompute() {
	s.visible = Filter{Search: s.query}.Apply(s.books)
}

func cloneBooks(books []Book) []Book {
	dup := make([]Book, len(books))
	copy(dup, books)
	return dup
}
