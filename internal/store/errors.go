package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common book store errors.
var (
	// ErrNotFound is returned when the target book no longer exists server-side.
	ErrNotFound = errors.New("book not found on server")
	// ErrConflict is returned when the server already holds a book with the same ISBN.
	ErrConflict = errors.New("conflict: book already exists")
	// ErrTransport matches every *TransportError.
	ErrTransport = errors.New("book store unreachable")
	// ErrValidationRejected matches every *RejectedError.
	ErrValidationRejected = errors.New("book rejected by server")
	// ErrAlreadyPersisted is returned by Create for a record that already has an id.
	ErrAlreadyPersisted = errors.New("book already has an id")
)

// TransportError reports a network failure or an unexpected response.
// Status is zero when no response was received.
type TransportError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.Status, e.Body)
	default:
		return fmt.Sprintf("%s: server returned %d", e.Op, e.Status)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTransport) hold.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// RejectedError is a 400/422 response. Fields holds per-field messages when
// the server sent them.
type RejectedError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *RejectedError) Error() string {
	if len(e.Fields) == 0 {
		if e.Message == "" {
			return fmt.Sprintf("book rejected by server (%d)", e.Status)
		}
		return "book rejected by server: " + e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "book rejected by server: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidationRejected) hold.
func (e *RejectedError) Is(target error) bool { return target == ErrValidationRejected }
