package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/blackwell-systems/bookcase/internal/catalog"
)

const schema = `
CREATE TABLE IF NOT EXISTS books (
	id          TEXT PRIMARY KEY,
	seq         BIGSERIAL,
	title       TEXT NOT NULL,
	author      TEXT NOT NULL,
	isbn        TEXT NOT NULL UNIQUE,
	user_rating DOUBLE PRECISION NOT NULL,
	read_status BOOLEAN NOT NULL DEFAULT FALSE,
	notes       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
)`

const bookColumns = `id, title, author, isbn, user_rating, read_status, notes, created_at, updated_at`

// uniqueViolation is the PostgreSQL error code for a unique constraint failure.
const uniqueViolation = "23505"

// PostgresRepo is a Repository backed by a PostgreSQL books table.
type PostgresRepo struct {
	DB *sql.DB
}

var _ Repository = (*PostgresRepo)(nil)

// OpenPostgres connects to dsn, verifies the connection and creates the
// books table if it does not exist.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepo, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(15 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresRepo{DB: db}, nil
}

// Close releases the connection pool.
func (r *PostgresRepo) Close() error { return r.DB.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (catalog.Book, error) {
	var (
		b                catalog.Book
		created, updated time.Time
	)
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.UserRating, &b.ReadStatus, &b.Notes, &created, &updated)
	if err != nil {
		return catalog.Book{}, err
	}
	created, updated = created.UTC(), updated.UTC()
	b.CreatedAt, b.UpdatedAt = &created, &updated
	return b, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]catalog.Book, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer func() { _ = rows.Close() }()

	books := []catalog.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("list books: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (catalog.Book, error) {
	b, err := scanBook(r.DB.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Book{}, ErrNotFound
	}
	if err != nil {
		return catalog.Book{}, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

func (r *PostgresRepo) Create(ctx context.Context, b catalog.Book) (catalog.Book, error) {
	if b.ID == "" || b.CreatedAt == nil || b.UpdatedAt == nil {
		return catalog.Book{}, fmt.Errorf("create book: id and timestamps must be set")
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO books (`+bookColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.Title, b.Author, b.ISBN, b.UserRating, b.ReadStatus, b.Notes, *b.CreatedAt, *b.UpdatedAt)
	if err != nil {
		return catalog.Book{}, translate("create book", err)
	}
	return b, nil
}

func (r *PostgresRepo) Update(ctx context.Context, id string, fn UpdateFunc) (catalog.Book, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return catalog.Book{}, fmt.Errorf("update book: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := scanBook(tx.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Book{}, ErrNotFound
	}
	if err != nil {
		return catalog.Book{}, fmt.Errorf("update book: %w", err)
	}

	next, err := fn(cur)
	if err != nil {
		return catalog.Book{}, err
	}
	next.ID = id
	if next.UpdatedAt == nil {
		now := time.Now().UTC()
		next.UpdatedAt = &now
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE books SET title = $2, author = $3, isbn = $4, user_rating = $5, read_status = $6, notes = $7, updated_at = $8 WHERE id = $1`,
		id, next.Title, next.Author, next.ISBN, next.UserRating, next.ReadStatus, next.Notes, *next.UpdatedAt)
	if err != nil {
		return catalog.Book{}, translate("update book", err)
	}
	if err := tx.Commit(); err != nil {
		return catalog.Book{}, fmt.Errorf("update book: %w", err)
	}
	next.CreatedAt = cur.CreatedAt
	return next, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// translate maps a unique constraint violation to ErrConflict.
func translate(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}
