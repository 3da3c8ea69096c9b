package server_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/bookcase/internal/catalog"
	"github.com/blackwell-systems/bookcase/internal/server"
)

func TestMemoryRepo_CreateListOrder(t *testing.T) {
	ctx := context.Background()
	r := server.NewMemoryRepo()
	for i, isbn := range []string{"0000000003", "0000000001", "0000000002"} {
		_, err := r.Create(ctx, catalog.Book{ID: string(rune('a' + i)), ISBN: isbn})
		require.NoError(t, err)
	}
	books, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "a", books[0].ID)
	assert.Equal(t, "c", books[2].ID)
}

func TestMemoryRepo_Conflicts(t *testing.T) {
	ctx := context.Background()
	r := server.NewMemoryRepo()
	_, err := r.Create(ctx, catalog.Book{ID: "1", ISBN: "9780441172719"})
	require.NoError(t, err)

	_, err = r.Create(ctx, catalog.Book{ID: "2", ISBN: "978-0441172719"})
	assert.ErrorIs(t, err, server.ErrConflict, "normalized ISBN collides")
	_, err = r.Create(ctx, catalog.Book{ID: "1", ISBN: "0000000001"})
	assert.ErrorIs(t, err, server.ErrConflict, "duplicate id")
	_, err = r.Create(ctx, catalog.Book{ISBN: "0000000001"})
	assert.ErrorIs(t, err, server.ErrConflict, "missing id")
}

func TestMemoryRepo_UpdateReindexesISBN(t *testing.T) {
	ctx := context.Background()
	r := server.NewMemoryRepo()
	_, _ = r.Create(ctx, catalog.Book{ID: "1", ISBN: "0000000001"})
	_, _ = r.Create(ctx, catalog.Book{ID: "2", ISBN: "0000000002"})

	_, err := r.Update(ctx, "2", func(b catalog.Book) (catalog.Book, error) {
		b.ISBN = "0000000001"
		return b, nil
	})
	assert.ErrorIs(t, err, server.ErrConflict)

	got, err := r.Update(ctx, "2", func(b catalog.Book) (catalog.Book, error) {
		b.ISBN = "0000000003"
		b.ID = "ignored"
		return b, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "2", got.ID)

	// the old ISBN is free again
	_, err = r.Create(ctx, catalog.Book{ID: "3", ISBN: "0000000002"})
	assert.NoError(t, err)
}

func TestMemoryRepo_UpdateAbort(t *testing.T) {
	ctx := context.Background()
	r := server.NewMemoryRepo()
	_, _ = r.Create(ctx, catalog.Book{ID: "1", Title: "before", ISBN: "0000000001"})
	boom := errors.New("boom")

	_, err := r.Update(ctx, "1", func(b catalog.Book) (catalog.Book, error) { return catalog.Book{}, boom })
	assert.ErrorIs(t, err, boom)
	b, _ := r.Get(ctx, "1")
	assert.Equal(t, "before", b.Title)

	_, err = r.Update(ctx, "nope", func(b catalog.Book) (catalog.Book, error) { return b, nil })
	assert.ErrorIs(t, err, server.ErrNotFound)
}

func TestMemoryRepo_Delete(t *testing.T) {
	ctx := context.Background()
	r := server.NewMemoryRepo()
	_, _ = r.Create(ctx, catalog.Book{ID: "1", ISBN: "0000000001"})
	_, _ = r.Create(ctx, catalog.Book{ID: "2", ISBN: "0000000002"})

	require.NoError(t, r.Delete(ctx, "1"))
	assert.ErrorIs(t, r.Delete(ctx, "1"), server.ErrNotFound)
	_, err := r.Get(ctx, "1")
	assert.ErrorIs(t, err, server.ErrNotFound)

	books, _ := r.List(ctx)
	require.Len(t, books, 1)
	assert.Equal(t, "2", books[0].ID)
}

func TestMemoryRepo_ConcurrentCreateOneWinner(t *testing.T) {
	ctx := context.Background()
	r := server.NewMemoryRepo()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.Create(ctx, catalog.Book{ID: string(rune('A' + i)), ISBN: "9780441172719"})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
