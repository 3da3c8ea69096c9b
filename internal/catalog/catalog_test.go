package catalog_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/bookcase/internal/catalog"
)

var sampleYAML = []byte(`
- id: b1
  title: "Dune"
  author: "Frank Herbert"
  isbn: "9780441172719"
  user_rating: 5
  read_status: true
  notes: "Spice must flow"

- id: b2
  title: "Nineteen Eighty-Four"
  author: "George Orwell"
  isbn: "9780451524935"
  user_rating: 4
`)

func sampleBooks() []catalog.Book {
	return []catalog.Book{
		{ID: "b1", Title: "Dune", Author: "Frank Herbert", ISBN: "9780441172719", UserRating: 5, ReadStatus: true},
		{ID: "b2", Title: "Nineteen Eighty-Four", Author: "George Orwell", ISBN: "9780451524935", UserRating: 4},
		{ID: "b3", Title: "Great Expectations", Author: "Charles Dickens", ISBN: "9780141439563", UserRating: 3},
		{ID: "b4", Title: "Emma", Author: "Jane Austen", ISBN: "014143958X", UserRating: 2, ReadStatus: true},
	}
}

func ids(books []catalog.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

// --- Parse / Marshal ---

func TestParse_ValidYAML(t *testing.T) {
	books, err := catalog.Parse(sampleYAML)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "b1", books[0].ID)
	assert.Equal(t, 5.0, books[0].UserRating)
	assert.True(t, books[0].ReadStatus)
	assert.False(t, books[1].ReadStatus)
}

func TestParse_Empty(t *testing.T) {
	books, err := catalog.Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := catalog.Parse([]byte("- [unclosed"))
	assert.Error(t, err)
}

func TestParseJSON_WireFields(t *testing.T) {
	data := []byte(`[{"id":"x","title":"Emma","author":"Jane Austen","isbn":"014143958X","userRating":3.7,"readStatus":true,"notes":"","createdAt":"2026-01-02T03:04:05Z"}]`)
	books, err := catalog.ParseJSON(data)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, 3.7, books[0].UserRating)
	require.NotNil(t, books[0].CreatedAt)
	assert.Nil(t, books[0].UpdatedAt)
}

func TestMarshal_RoundTrip(t *testing.T) {
	orig := sampleBooks()
	data, err := catalog.Marshal(orig)
	require.NoError(t, err)

	got, err := catalog.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}

func TestMarshalJSON_NilIsEmptyArray(t *testing.T) {
	data, err := catalog.MarshalJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestMarshalJSON_OmitsUnsavedID(t *testing.T) {
	data, err := catalog.MarshalJSON([]catalog.Book{{Title: "Emma"}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"id"`)
	assert.Contains(t, string(data), `"userRating"`)
}

// --- Stars ---

func TestFilledStars(t *testing.T) {
	tests := []struct {
		rating float64
		want   int
	}{
		{0, 0},
		{-2, 0},
		{1, 1},
		{3.9, 3},
		{4.5, 4},
		{5, 5},
		{7, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, catalog.FilledStars(tt.rating), "rating %v", tt.rating)
	}
	assert.Equal(t, "★★★☆☆", catalog.Stars(3.2))
}

// --- Filter ---

func TestFilter_Empty(t *testing.T) {
	books := sampleBooks()
	assert.Equal(t, books, catalog.Filter{}.Apply(books))
}

func TestFilter_Search(t *testing.T) {
	books := sampleBooks()
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"title", "dune", []string{"b1"}},
		{"title upper", "EMMA", []string{"b4"}},
		{"author", "orwell", []string{"b2"}},
		{"isbn substring", "4314395", []string{"b3", "b4"}},
		{"isbn check char lower", "58x", []string{"b4"}},
		{"shared letters", "en", []string{"b2", "b3", "b4"}},
		{"no match", "xyz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := catalog.Filter{Search: tt.query}.Apply(books)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilter_Read(t *testing.T) {
	read, unread := true, false
	books := sampleBooks()
	assert.Equal(t, []string{"b1", "b4"}, ids(catalog.Filter{Read: &read}.Apply(books)))
	assert.Equal(t, []string{"b2", "b3"}, ids(catalog.Filter{Read: &unread}.Apply(books)))
	assert.Equal(t, []string{"b4"}, ids(catalog.Filter{Read: &read, Search: "austen"}.Apply(books)))
}

func TestFilter_SubsequenceProperty(t *testing.T) {
	books := sampleBooks()
	for _, q := range []string{"", "e", "E", "ar", "978", "x", "herbert", "zzz", " "} {
		got := catalog.Filter{Search: q}.Apply(books)

		// every element matches and relative order is preserved
		j := 0
		for _, v := range got {
			assert.True(t, catalog.Matches(v, q), "query %q: %q does not match", q, v.Title)
			for j < len(books) && books[j].ID != v.ID {
				j++
			}
			require.Less(t, j, len(books), "query %q: result is not a subsequence", q)
			j++
		}
		// and nothing matching was dropped
		n := 0
		for _, b := range books {
			if strings.Contains(strings.ToLower(b.Title+"\x00"+b.Author+"\x00"+b.ISBN), strings.ToLower(q)) {
				n++
			}
		}
		assert.Len(t, got, n, "query %q", q)
	}
}

func TestByID(t *testing.T) {
	books := sampleBooks()
	b := catalog.ByID(books, "b3")
	require.NotNil(t, b)
	assert.Equal(t, "Great Expectations", b.Title)
	assert.Nil(t, catalog.ByID(books, "nope"))
}

func TestRemove(t *testing.T) {
	books, ok := catalog.Remove(sampleBooks(), "b2")
	assert.True(t, ok)
	assert.Equal(t, []string{"b1", "b3", "b4"}, ids(books))

	books, ok = catalog.Remove(books, "b2")
	assert.False(t, ok)
	assert.Len(t, books, 3)
}

// --- State ---

func TestState_StartsEmpty(t *testing.T) {
	s := catalog.NewState()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Visible())
	assert.Equal(t, "", s.Query())
}

func TestState_DuneScenario(t *testing.T) {
	s := catalog.NewState()
	book1 := catalog.Book{ID: "1", Title: "Dune", Author: "Herbert", ISBN: "A"}
	s.SetBooks([]catalog.Book{book1})

	s.SetSearchQuery("dune")
	assert.Equal(t, []catalog.Book{book1}, s.Visible())

	s.SetSearchQuery("xyz")
	assert.Empty(t, s.Visible())

	s.SetSearchQuery("")
	assert.Equal(t, s.Books(), s.Visible())
}

func TestState_InsertDuplicateISBN(t *testing.T) {
	s := catalog.NewState()
	s.SetBooks(sampleBooks())
	before := s.Books()

	err := s.Insert(catalog.Book{Title: "Dune Messiah", Author: "Frank Herbert", ISBN: "9780441172719"})
	assert.True(t, errors.Is(err, catalog.ErrDuplicateISBN))
	assert.Equal(t, before, s.Books())
}

func TestState_InsertRecomputesVisible(t *testing.T) {
	s := catalog.NewState()
	s.SetBooks(sampleBooks())
	s.SetSearchQuery("herbert")
	require.Len(t, s.Visible(), 1)

	require.NoError(t, s.Insert(catalog.Book{ID: "b5", Title: "Children of Dune", Author: "Frank Herbert", ISBN: "9780441104024"}))
	assert.Equal(t, []string{"b1", "b5"}, ids(s.Visible()))
	assert.Equal(t, 5, s.Len())
}

func TestState_ApplyUpdatePreservesPosition(t *testing.T) {
	s := catalog.NewState()
	s.SetBooks(sampleBooks())

	upd := catalog.Book{ID: "ignored", Title: "1984", Author: "George Orwell", ISBN: "9780451524935", UserRating: 5}
	require.NoError(t, s.ApplyUpdate("b2", upd))

	assert.Equal(t, []string{"b1", "b2", "b3", "b4"}, ids(s.Books()))
	got, ok := s.ByID("b2")
	require.True(t, ok)
	assert.Equal(t, "1984", got.Title)
}

func TestState_ApplyUpdateDuplicateISBN(t *testing.T) {
	s := catalog.NewState()
	s.SetBooks(sampleBooks())
	before := s.Books()

	err := s.ApplyUpdate("b2", catalog.Book{Title: "x", Author: "y", ISBN: "9780441172719"})
	assert.ErrorIs(t, err, catalog.ErrDuplicateISBN)
	assert.Equal(t, before, s.Books())

	// keeping its own ISBN is fine
	assert.NoError(t, s.ApplyUpdate("b1", catalog.Book{Title: "Dune", Author: "Herbert", ISBN: "9780441172719"}))
}

func TestState_UpdateRemoveUpdate(t *testing.T) {
	s := catalog.NewState()
	s.SetBooks(sampleBooks())
	b := sampleBooks()[2]
	b.Notes = "reread"

	require.NoError(t, s.ApplyUpdate("b3", b))
	require.NoError(t, s.ApplyRemoval("b3"))
	before := s.Books()

	err := s.ApplyUpdate("b3", b)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Equal(t, before, s.Books())

	assert.ErrorIs(t, s.ApplyRemoval("b3"), catalog.ErrNotFound)
}

func TestState_AccessorsReturnCopies(t *testing.T) {
	s := catalog.NewState()
	s.SetBooks(sampleBooks())

	books := s.Books()
	books[0].Title = "mutated"
	visible := s.Visible()
	visible[1].Title = "mutated"

	got, _ := s.ByID("b1")
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, "Nineteen Eighty-Four", s.Visible()[1].Title)
}

func TestState_SetBooksDoesNotAlias(t *testing.T) {
	in := sampleBooks()
	s := catalog.NewState()
	s.SetBooks(in)
	in[0].Title = "mutated"

	got, _ := s.ByID("b1")
	assert.Equal(t, "Dune", got.Title)
}

func TestState_ByIDEmpty(t *testing.T) {
	s := catalog.NewState()
	s.SetBooks([]catalog.Book{{Title: "unsaved", ISBN: "1"}})
	_, ok := s.ByID("")
	assert.False(t, ok)
}

func TestBook_Labels(t *testing.T) {
	b := catalog.Book{ReadStatus: true, Notes: "  "}
	assert.Equal(t, "Read", b.ReadLabel())
	assert.Equal(t, "No Notes", b.NotesOrPlaceholder())
	assert.False(t, b.Persisted())
}
