// Package form validates user-entered book fields before they are sent to
// the store.
package form

import (
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/blackwell-systems/bookcase/internal/catalog"
)

// Profile selects the rule set.
type Profile int

const (
	// QuickAdd is used by the create dialog: notes are optional, titles and
	// authors need at least three characters.
	QuickAdd Profile = iota
	// FullEdit is used by the details panel: read status and notes are required.
	FullEdit
	// Stored is the minimum every persisted record satisfies. The server
	// checks patched records against it.
	Stored
)

func (p Profile) String() string {
	switch p {
	case FullEdit:
		return "full-edit"
	case Stored:
		return "stored"
	default:
		return "quick-add"
	}
}

// Field names used as Errors keys. They match the JSON wire names.
const (
	FieldTitle      = "title"
	FieldAuthor     = "author"
	FieldISBN       = "isbn"
	FieldUserRating = "userRating"
	FieldReadStatus = "readStatus"
	FieldNotes      = "notes"
)

// ISBNPattern is the accepted lexical form: optional 978/979 prefix, nine
// digits and a digit or X check character.
var ISBNPattern = regexp.MustCompile(`^(97(8|9))?\d{9}(\d|X)$`)

// Input is the raw text of a book form. UserRating is kept as typed so that
// non-numeric input can be reported. A nil ReadStatus means the user has not
// chosen one.
type Input struct {
	Title      string
	Author     string
	ISBN       string
	UserRating string
	ReadStatus *bool
	Notes      string
}

// InputFromBook fills an Input with the values of an existing record, as the
// edit form does when it opens.
func InputFromBook(b catalog.Book) Input {
	read := b.ReadStatus
	in := Input{
		Title:      b.Title,
		Author:     b.Author,
		ISBN:       b.ISBN,
		ReadStatus: &read,
		Notes:      b.Notes,
	}
	if b.UserRating != 0 {
		in.UserRating = strconv.FormatFloat(b.UserRating, 'f', -1, 64)
	}
	return in
}

// Errors maps a field name to a human-readable message. Each field carries
// at most one message: the first rule it failed.
type Errors map[string]string

// Error implements error.
func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, f := range e.Fields() {
		parts = append(parts, f+": "+e[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the failing field names in a stable order.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for f := range e {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// AddError records message for field unless the field already has one.
func (e Errors) AddError(field, message string) {
	if _, exists := e[field]; !exists {
		e[field] = message
	}
}

type quickAdd struct {
	Title      string `json:"title" validate:"required,min=3"`
	Author     string `json:"author" validate:"required,min=3"`
	ISBN       string `json:"isbn" validate:"required,isbnpattern"`
	UserRating *int   `json:"userRating" validate:"required,min=1,max=5"`
	Notes      string `json:"notes"`
}

type fullEdit struct {
	Title      string `json:"title" validate:"required"`
	Author     string `json:"author" validate:"required"`
	ISBN       string `json:"isbn" validate:"required,isbnpattern"`
	UserRating *int   `json:"userRating" validate:"required,min=1,max=5"`
	ReadStatus *bool  `json:"readStatus" validate:"required"`
	Notes      string `json:"notes" validate:"required"`
}

type stored struct {
	Title      string `json:"title" validate:"required"`
	Author     string `json:"author" validate:"required"`
	ISBN       string `json:"isbn" validate:"required,isbnpattern"`
	UserRating *int   `json:"userRating" validate:"required,min=1,max=5"`
	Notes      string `json:"notes"`
}

var messages = map[Profile]map[string]string{
	QuickAdd: {
		"title.required":      "Title is required",
		"title.min":           "Title must be at least 3 characters",
		"author.required":     "Author is required",
		"author.min":          "Author name must be at least 3 characters",
		"isbn.required":       "ISBN is required",
		"isbn.isbnpattern":    "Invalid ISBN number",
		"userRating.required": "Rating is required",
		"userRating.min":      "Rating must be at least 1",
		"userRating.max":      "Rating must be at most 5",
	},
	FullEdit: {
		"title.required":      "Title is required",
		"author.required":     "Author is required",
		"isbn.required":       "ISBN is required",
		"isbn.isbnpattern":    "Invalid ISBN number",
		"userRating.required": "User Rating is required",
		"userRating.min":      "Rating must be at least 1",
		"userRating.max":      "Rating must be at most 5",
		"readStatus.required": "Read Status is required",
		"notes.required":      "Notes are required",
	},
	Stored: {
		"title.required":      "Title is required",
		"author.required":     "Author is required",
		"isbn.required":       "ISBN is required",
		"isbn.isbnpattern":    "Invalid ISBN number",
		"userRating.required": "Rating is required",
		"userRating.min":      "Rating must be at least 1",
		"userRating.max":      "Rating must be at most 5",
	},
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("isbnpattern", func(fl validator.FieldLevel) bool {
			return ISBNPattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// NormalizeISBN strips the hyphens and spaces people type between ISBN groups.
func NormalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	return strings.ReplaceAll(isbn, " ", "")
}

// Validate checks in against profile. On success it returns the normalized
// record (trimmed strings, integral rating) and a nil Errors. Otherwise it
// reports every failing field at once.
func Validate(in Input, profile Profile) (catalog.Book, Errors) {
	errs := Errors{}

	title := strings.TrimSpace(in.Title)
	author := strings.TrimSpace(in.Author)
	isbn := NormalizeISBN(strings.TrimSpace(in.ISBN))
	notes := strings.TrimSpace(in.Notes)

	rating, ratingErr := parseRating(in.UserRating)
	if ratingErr != "" {
		errs.AddError(FieldUserRating, ratingErr)
	}

	var target any
	switch profile {
	case FullEdit:
		target = &fullEdit{Title: title, Author: author, ISBN: isbn, UserRating: rating, ReadStatus: in.ReadStatus, Notes: notes}
	case Stored:
		target = &stored{Title: title, Author: author, ISBN: isbn, UserRating: rating, Notes: notes}
	default:
		profile = QuickAdd
		target = &quickAdd{Title: title, Author: author, ISBN: isbn, UserRating: rating, Notes: notes}
	}

	if err := engine().Struct(target); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			errs.AddError("form", err.Error())
		}
		for _, fe := range verrs {
			errs.AddError(fe.Field(), message(profile, fe))
		}
	}

	if len(errs) > 0 {
		return catalog.Book{}, errs
	}

	b := catalog.Book{
		Title:      title,
		Author:     author,
		ISBN:       isbn,
		UserRating: float64(*rating),
		Notes:      notes,
	}
	if in.ReadStatus != nil {
		b.ReadStatus = *in.ReadStatus
	}
	return b, nil
}

// ValidateBook runs profile against an already decoded record, as the
// server does with request bodies.
func ValidateBook(b catalog.Book, profile Profile) (catalog.Book, Errors) {
	normalized, errs := Validate(InputFromBook(b), profile)
	if errs != nil {
		return catalog.Book{}, errs
	}
	normalized.ID = b.ID
	normalized.CreatedAt = b.CreatedAt
	normalized.UpdatedAt = b.UpdatedAt
	return normalized, nil
}

func parseRating(raw string) (*int, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ""
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, "Rating must be a number"
	}
	if f != math.Trunc(f) {
		return nil, "Rating must be a whole number"
	}
	// keep absurd values out of int overflow; max=5 still rejects them
	f = math.Max(math.Min(f, 1e6), -1e6)
	n := int(f)
	return &n, ""
}

func message(p Profile, fe validator.FieldError) string {
	if msg, ok := messages[p][fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return fe.Field() + " is invalid"
}
