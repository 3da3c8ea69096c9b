// Package selection tracks which book the details panel targets and which
// dialogs are open.
package selection

import "errors"

// ErrNoActiveBook is returned by operations that need a book to be open.
var ErrNoActiveBook = errors.New("no book selected")

// Mode is the details panel mode.
type Mode int

const (
	Viewing Mode = iota
	Editing
)

func (m Mode) String() string {
	if m == Editing {
		return "editing"
	}
	return "viewing"
}

// State is a snapshot of the controller. ActiveID refers to a book by id
// only; resolve it against the catalog at use time.
type State struct {
	ActiveID         string
	Mode             Mode
	CreateDialogOpen bool
	DeleteDialogOpen bool
}

// HasActive reports whether a book is open in the details panel.
func (s State) HasActive() bool { return s.ActiveID != "" }

// Controller is the selection and mode state machine. The zero value is the
// initial state: nothing active, Viewing, both dialogs closed.
type Controller struct {
	st State
}

// New returns a controller in its initial state.
func New() *Controller { return &Controller{} }

// State returns a snapshot.
func (c *Controller) State() State { return c.st }

// OpenDetails targets id in Viewing mode. Any open delete dialog belongs to
// the previous book and is closed.
func (c *Controller) OpenDetails(id string) {
	if id == "" {
		c.CloseDetails()
		return
	}
	c.st.ActiveID = id
	c.st.Mode = Viewing
	c.st.DeleteDialogOpen = false
}

// EnterEditMode switches the active book to Editing.
func (c *Controller) EnterEditMode() error {
	if !c.st.HasActive() {
		return ErrNoActiveBook
	}
	c.st.Mode = Editing
	return nil
}

// ExitEditMode returns to Viewing without closing the panel.
func (c *Controller) ExitEditMode() {
	c.st.Mode = Viewing
}

// CloseDetails clears the active book, resets the mode and closes the
// delete dialog.
func (c *Controller) CloseDetails() {
	c.st.ActiveID = ""
	c.st.Mode = Viewing
	c.st.DeleteDialogOpen = false
}

// OpenDeleteConfirmation opens the delete dialog for the active book.
func (c *Controller) OpenDeleteConfirmation() error {
	if !c.st.HasActive() {
		return ErrNoActiveBook
	}
	c.st.DeleteDialogOpen = true
	return nil
}

// CancelDeleteConfirmation closes the delete dialog.
func (c *Controller) CancelDeleteConfirmation() {
	c.st.DeleteDialogOpen = false
}

// OpenCreateDialog opens the create dialog. It does not depend on the
// active book.
func (c *Controller) OpenCreateDialog() { c.st.CreateDialogOpen = true }

// CloseCreateDialog closes the create dialog.
func (c *Controller) CloseCreateDialog() { c.st.CreateDialogOpen = false }

// Forget closes the details panel if it targets id. Used after id has been
// removed from the catalog.
func (c *Controller) Forget(id string) {
	if id != "" && c.st.ActiveID == id {
		c.CloseDetails()
	}
}
