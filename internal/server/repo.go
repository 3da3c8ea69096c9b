// Package server is a small REST backend for the /books resource. It backs
// the client during development and in end-to-end tests.
package server

import (
	"context"
	"errors"

	"github.com/blackwell-systems/bookcase/internal/catalog"
)

var (
	// ErrNotFound is returned when no book has the requested id.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a book with the same ISBN already exists.
	ErrConflict = errors.New("conflict")
)

// UpdateFunc computes the new version of a book from the stored one. An
// error aborts the update and is returned unchanged.
type UpdateFunc func(current catalog.Book) (catalog.Book, error)

// Repository stores books. Implementations keep insertion order for List
// and enforce ISBN uniqueness.
type Repository interface {
	List(ctx context.Context) ([]catalog.Book, error)
	Get(ctx context.Context, id string) (catalog.Book, error)
	Create(ctx context.Context, b catalog.Book) (catalog.Book, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (catalog.Book, error)
	Delete(ctx context.Context, id string) error
}
