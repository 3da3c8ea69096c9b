package store

import (
	"context"
	"fmt"
	"net/http"

	"github.com/blackwell-systems/bookcase/internal/catalog"
)

// Route selects which create endpoint receives a new book.
type Route int

const (
	// RouteManual posts to /books/manual, used for hand-entered books.
	RouteManual Route = iota
	// RouteQuick posts to /books, used for lookup drafts.
	RouteQuick
)

func (r Route) String() string {
	if r == RouteQuick {
		return "quick"
	}
	return "manual"
}

// Patch is a partial update. Only non-nil fields are sent.
type Patch struct {
	Title      *string  `json:"title,omitempty"`
	Author     *string  `json:"author,omitempty"`
	ISBN       *string  `json:"isbn,omitempty"`
	UserRating *float64 `json:"userRating,omitempty"`
	ReadStatus *bool    `json:"readStatus,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
}

// Empty reports whether the patch would change nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Author == nil && p.ISBN == nil &&
		p.UserRating == nil && p.ReadStatus == nil && p.Notes == nil
}

// FullPatch carries every editable field of b.
func FullPatch(b catalog.Book) Patch {
	return Patch{
		Title:      &b.Title,
		Author:     &b.Author,
		ISBN:       &b.ISBN,
		UserRating: &b.UserRating,
		ReadStatus: &b.ReadStatus,
		Notes:      &b.Notes,
	}
}

// Diff returns a patch holding only the fields that differ between before
// and after.
func Diff(before, after catalog.Book) Patch {
	var p Patch
	if before.Title != after.Title {
		p.Title = &after.Title
	}
	if before.Author != after.Author {
		p.Author = &after.Author
	}
	if before.ISBN != after.ISBN {
		p.ISBN = &after.ISBN
	}
	if before.UserRating != after.UserRating {
		p.UserRating = &after.UserRating
	}
	if before.ReadStatus != after.ReadStatus {
		p.ReadStatus = &after.ReadStatus
	}
	if before.Notes != after.Notes {
		p.Notes = &after.Notes
	}
	return p
}

// Apply returns b with the patch's fields written over it.
func (p Patch) Apply(b catalog.Book) catalog.Book {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.ISBN != nil {
		b.ISBN = *p.ISBN
	}
	if p.UserRating != nil {
		b.UserRating = *p.UserRating
	}
	if p.ReadStatus != nil {
		b.ReadStatus = *p.ReadStatus
	}
	if p.Notes != nil {
		b.Notes = *p.Notes
	}
	return b
}

// ListAll fetches every book in server order.
func (c *Client) ListAll(ctx context.Context) ([]catalog.Book, error) {
	var books []catalog.Book
	if err := c.doJSON(ctx, "list books", http.MethodGet, c.url("books"), nil, &books); err != nil {
		return nil, err
	}
	if books == nil {
		books = []catalog.Book{}
	}
	return books, nil
}

// Create persists b through route and returns the stored record with its
// server-assigned id and timestamps.
func (c *Client) Create(ctx context.Context, b catalog.Book, route Route) (catalog.Book, error) {
	if b.Persisted() {
		return catalog.Book{}, fmt.Errorf("create book: %w", ErrAlreadyPersisted)
	}
	endpoint := c.url("books", "manual")
	if route == RouteQuick {
		endpoint = c.url("books")
	}
	var created catalog.Book
	if err := c.doJSON(ctx, "create book", http.MethodPost, endpoint, b, &created); err != nil {
		return catalog.Book{}, err
	}
	if !created.Persisted() {
		return catalog.Book{}, &TransportError{Op: "create book", Status: http.StatusOK, Body: "response has no id"}
	}
	return created, nil
}

// Update sends p as a PATCH for id and returns the updated record.
func (c *Client) Update(ctx context.Context, id string, p Patch) (catalog.Book, error) {
	if id == "" {
		return catalog.Book{}, fmt.Errorf("update book: %w", ErrNotFound)
	}
	var updated catalog.Book
	if err := c.doJSON(ctx, "update book", http.MethodPatch, c.url("books", id), p, &updated); err != nil {
		return catalog.Book{}, err
	}
	if updated.ID == "" {
		updated.ID = id
	}
	return updated, nil
}

// Remove deletes id.
func (c *Client) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("delete book: %w", ErrNotFound)
	}
	return c.doJSON(ctx, "delete book", http.MethodDelete, c.url("books", id), nil, nil)
}

// Get fetches a single book.
func (c *Client) Get(ctx context.Context, id string) (catalog.Book, error) {
	if id == "" {
		return catalog.Book{}, fmt.Errorf("get book: %w", ErrNotFound)
	}
	var b catalog.Book
	if err := c.doJSON(ctx, "get book", http.MethodGet, c.url("books", id), nil, &b); err != nil {
		return catalog.Book{}, err
	}
	return b, nil
}
