package server

import (
	"context"
	"sync"

	"github.com/blackwell-systems/bookcase/internal/catalog"
	"github.com/blackwell-systems/bookcase/internal/form"
)

// MemoryRepo is a Repository held in process memory.
type MemoryRepo struct {
	mu     sync.RWMutex
	order  []string                // ids in insertion order
	byID   map[string]catalog.Book // id -> book
	byISBN map[string]string       // normalized ISBN -> id
}

var _ Repository = (*MemoryRepo)(nil)

// NewMemoryRepo returns an empty repository.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]catalog.Book), byISBN: make(map[string]string)}
}

func (r *MemoryRepo) List(_ context.Context) ([]catalog.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]catalog.Book, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, copyBook(r.byID[id]))
	}
	return out, nil
}

func (r *MemoryRepo) Get(_ context.Context, id string) (catalog.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byID[id]
	if !ok {
		return catalog.Book{}, ErrNotFound
	}
	return copyBook(b), nil
}

func (r *MemoryRepo) Create(_ context.Context, b catalog.Book) (catalog.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.ID == "" {
		return catalog.Book{}, ErrConflict
	}
	if _, ok := r.byID[b.ID]; ok {
		return catalog.Book{}, ErrConflict
	}
	key := form.NormalizeISBN(b.ISBN)
	if _, exists := r.byISBN[key]; exists {
		return catalog.Book{}, ErrConflict
	}
	r.byISBN[key] = b.ID
	r.byID[b.ID] = copyBook(b)
	r.order = append(r.order, b.ID)
	return copyBook(b), nil
}

func (r *MemoryRepo) Update(_ context.Context, id string, fn UpdateFunc) (catalog.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[id]
	if !ok {
		return catalog.Book{}, ErrNotFound
	}
	next, err := fn(copyBook(cur))
	if err != nil {
		return catalog.Book{}, err
	}
	next.ID = id

	oldKey, newKey := form.NormalizeISBN(cur.ISBN), form.NormalizeISBN(next.ISBN)
	if newKey != oldKey {
		if owner, exists := r.byISBN[newKey]; exists && owner != id {
			return catalog.Book{}, ErrConflict
		}
		delete(r.byISBN, oldKey)
		r.byISBN[newKey] = id
	}
	r.byID[id] = copyBook(next)
	return copyBook(next), nil
}

func (r *MemoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byISBN, form.NormalizeISBN(b.ISBN))
	delete(r.byID, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func copyBook(b catalog.Book) catalog.Book {
	if b.CreatedAt != nil {
		t := *b.CreatedAt
		b.CreatedAt = &t
	}
	if b.UpdatedAt != nil {
		t := *b.UpdatedAt
		b.UpdatedAt = &t
	}
	return b
}
