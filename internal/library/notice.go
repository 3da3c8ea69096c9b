package library

import (
	"errors"

	"github.com/blackwell-systems/bookcase/internal/catalog"
	"github.com/blackwell-systems/bookcase/internal/form"
	"github.com/blackwell-systems/bookcase/internal/lookup"
	"github.com/blackwell-systems/bookcase/internal/selection"
	"github.com/blackwell-systems/bookcase/internal/store"
)

// Level is the severity of a notice.
type Level int

const (
	Info Level = iota
	Success
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Notice is a short message for the user, shown as a toast in the TUI and
// as a status line in the CLI.
type Notice struct {
	Level Level
	Text  string
}

// Empty reports whether there is nothing to show.
func (n Notice) Empty() bool { return n.Text == "" }

// User-facing messages.
const (
	MsgAdded        = "Book added successfully"
	MsgAddFailed    = "Failed to add the book. Please try again."
	MsgUpdated      = "Book updated successfully!"
	MsgUpdateFailed = "Failed to update the book. Please try again."
	MsgDeleted      = "Book deleted successfully!"
	MsgDeleteFailed = "Failed to delete the book. Please try again."
	MsgNoSelection  = "No book selected for deletion."
	MsgDuplicate    = "This book already exists in the library"
	MsgLoadFailed   = "Failed to load books. Please try again."
	MsgLookupFailed = "Failed to fetch book details. Please try again."
	MsgLookupNone   = "No book found for this ISBN"
	MsgGone         = "This book no longer exists. Refresh the list."
	MsgInvalid      = "Please fix the highlighted fields"
	MsgBusy         = "Still working on the previous request"
)

// NoticeFor turns an error returned by a Begin method or a store/lookup
// call into a notice.
func NoticeFor(err error) Notice {
	var ferrs form.Errors
	var rej *store.RejectedError
	switch {
	case err == nil:
		return Notice{}
	case errors.As(err, &ferrs):
		return Notice{Level: Error, Text: MsgInvalid}
	case errors.Is(err, ErrInFlight):
		return Notice{Level: Info, Text: MsgBusy}
	case errors.Is(err, catalog.ErrDuplicateISBN), errors.Is(err, store.ErrConflict):
		return Notice{Level: Warning, Text: MsgDuplicate}
	case errors.Is(err, selection.ErrNoActiveBook):
		return Notice{Level: Warning, Text: MsgNoSelection}
	case errors.Is(err, store.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		return Notice{Level: Warning, Text: MsgGone}
	case errors.Is(err, lookup.ErrNotFound):
		return Notice{Level: Warning, Text: MsgLookupNone}
	case errors.As(err, &rej):
		return Notice{Level: Error, Text: rej.Error()}
	default:
		return Notice{Level: Error, Text: err.Error()}
	}
}

// failure maps the well-known errors and falls back to generic.
func failure(err error, generic string) Notice {
	if errors.Is(err, store.ErrTransport) || errors.Is(err, lookup.ErrTransport) {
		return Notice{Level: Error, Text: generic}
	}
	n := NoticeFor(err)
	if n.Level == Error && !errors.As(err, new(*store.RejectedError)) {
		n.Text = generic
	}
	return n
}
