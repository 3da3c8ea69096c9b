package catalog

import (
	"errors"
	"math"
	"strings"
	"time"
)

// MaxRating is the top of the 1–5 user rating scale.
const MaxRating = 5

var (
	// ErrNotFound is returned when no book in the catalog has the requested id.
	ErrNotFound = errors.New("book not found in catalog")
	// ErrDuplicateISBN is returned when a book's ISBN is already held by another entry.
	ErrDuplicateISBN = errors.New("this book already exists in the library")
)

// Book is one record of the personal library as exchanged with the backend.
// ID, CreatedAt and UpdatedAt are assigned by the server and stay empty on
// records that have not been persisted yet.
type Book struct {
	ID         string     `json:"id,omitempty" yaml:"id,omitempty"`
	Title      string     `json:"title" yaml:"title"`
	Author     string     `json:"author" yaml:"author"`
	ISBN       string     `json:"isbn" yaml:"isbn"`
	UserRating float64    `json:"userRating" yaml:"user_rating"`
	ReadStatus bool       `json:"readStatus" yaml:"read_status"`
	Notes      string     `json:"notes" yaml:"notes,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty" yaml:"updated_at,omitempty"`
}

// Persisted reports whether the record carries a server-assigned id.
func (b Book) Persisted() bool {
	return b.ID != ""
}

// ReadLabel is the human label for ReadStatus.
func (b Book) ReadLabel() string {
	if b.ReadStatus {
		return "Read"
	}
	return "Not Read"
}

// NotesOrPlaceholder returns the notes, or "No Notes" when they are blank.
func (b Book) NotesOrPlaceholder() string {
	if strings.TrimSpace(b.Notes) == "" {
		return "No Notes"
	}
	return b.Notes
}

// FilledStars returns how many of the five stars are filled for rating.
// Non-integer ratings are floored and the result is clamped to [0, MaxRating].
func FilledStars(rating float64) int {
	if math.IsNaN(rating) || rating <= 0 {
		return 0
	}
	n := int(math.Floor(rating))
	if n > MaxRating {
		return MaxRating
	}
	return n
}

// Stars renders rating as five glyphs, filled first.
func Stars(rating float64) string {
	filled := FilledStars(rating)
	return strings.Repeat("★", filled) + strings.Repeat("☆", MaxRating-filled)
}
