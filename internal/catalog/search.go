package catalog

import "strings"

// Filter narrows a book list. Zero-value fields are ignored.
type Filter struct {
	Search string // case-insensitive substring of title, author or ISBN
	Read   *bool  // restrict to read (true) or unread (false) books
}

// Apply returns the books matching every set criterion, in their original
// order. The result is always a fresh slice.
func (f Filter) Apply(books []Book) []Book {
	out := make([]Book, 0, len(books))
	for _, b := range books {
		if f.Read != nil && b.ReadStatus != *f.Read {
			continue
		}
		if f.Search != "" && !Matches(b, f.Search) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Matches reports whether q occurs, ignoring case, in the title, author or
// ISBN of b. An empty query matches everything.
func Matches(b Book, q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(b.Title), q) ||
		strings.Contains(strings.ToLower(b.Author), q) ||
		strings.Contains(strings.ToLower(b.ISBN), q)
}

// ByID returns the first book with the given ID, or nil.
func ByID(books []Book, id string) *Book {
	for i := range books {
		if books[i].ID == id {
			return &books[i]
		}
	}
	return nil
}

// Remove removes a book by ID. Returns the updated slice and whether a book
// was actually removed.
func Remove(books []Book, id string) ([]Book, bool) {
	for i, b := range books {
		if b.ID == id {
			return append(books[:i], books[i+1:]...), true
		}
	}
	return books, false
}
