package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/blackwell-systems/bookcase/internal/catalog"
	"github.com/blackwell-systems/bookcase/internal/form"
	"github.com/blackwell-systems/bookcase/internal/store"
)

const maxBodyBytes = 1 << 20

// Handler serves the /books resource.
type Handler struct {
	repo   Repository
	log    *slog.Logger
	limits RateLimit
	now    func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithRateLimit enables per-client rate limiting.
func WithRateLimit(rl RateLimit) Option {
	return func(h *Handler) { h.limits = rl }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// NewHandler creates a Handler over repo. A nil logger discards output.
func NewHandler(repo Repository, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &Handler{repo: repo, log: logger, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the router with middleware applied.
//
//	GET    /books          list all books in insertion order
//	POST   /books          create (quick add)
//	POST   /books/manual   create (manual entry)
//	GET    /books/{id}     fetch one book
//	PATCH  /books/{id}     partial update
//	DELETE /books/{id}     delete
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.recoverPanic)
	r.Use(h.logRequests)
	if h.limits.Enabled() {
		r.Use(h.rateLimit)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.errorResponse(w, r, http.StatusMethodNotAllowed, "the "+r.Method+" method is not supported for this resource")
	})

	r.Route("/books", func(r chi.Router) {
		r.Get("/", h.listBooks)
		r.Post("/", h.createBook(form.Stored))
		r.Post("/manual", h.createBook(form.QuickAdd))
		r.Get("/{id}", h.showBook)
		r.Patch("/{id}", h.updateBook)
		r.Delete("/{id}", h.deleteBook)
	})
	return r
}

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.repo.List(r.Context())
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *Handler) showBook(w http.ResponseWriter, r *http.Request) {
	b, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.repoErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// createBook validates the body with profile: hand-entered books get the
// add-dialog rules, lookup drafts only the stored-record floor.
func (h *Handler) createBook(profile form.Profile) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in catalog.Book
		if err := readJSON(w, r, &in); err != nil {
			h.errorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}

		b, errs := form.ValidateBook(in, profile)
		if errs != nil {
			h.errorResponse(w, r, http.StatusUnprocessableEntity, map[string]string(errs))
			return
		}

		now := h.now().UTC()
		b.ID = uuid.NewString()
		b.CreatedAt, b.UpdatedAt = &now, &now

		created, err := h.repo.Create(r.Context(), b)
		if err != nil {
			h.repoErrorResponse(w, r, err)
			return
		}
		h.log.Info("book created",
			slog.String("id", created.ID),
			slog.String("isbn", created.ISBN),
			slog.String("profile", profile.String()),
		)
		w.Header().Set("Location", "/books/"+created.ID)
		writeJSON(w, http.StatusCreated, created)
	}
}

func (h *Handler) updateBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var p store.Patch
	if err := readJSON(w, r, &p); err != nil {
		h.errorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.repo.Update(r.Context(), id, func(cur catalog.Book) (catalog.Book, error) {
		next, errs := form.ValidateBook(p.Apply(cur), form.Stored)
		if errs != nil {
			return catalog.Book{}, errs
		}
		if !p.Empty() {
			now := h.now().UTC()
			next.UpdatedAt = &now
		}
		return next, nil
	})
	var errs form.Errors
	if errors.As(err, &errs) {
		h.errorResponse(w, r, http.StatusUnprocessableEntity, map[string]string(errs))
		return
	}
	if err != nil {
		h.repoErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.repoErrorResponse(w, r, err)
		return
	}
	h.log.Info("book deleted", slog.String("id", id))
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// readJSON decodes exactly one JSON value of at most maxBodyBytes, rejecting
// unknown fields.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &syntaxErr):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxErr.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &typeErr):
			if typeErr.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", typeErr.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", typeErr.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return fmt.Errorf("body contains unknown key %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
		case errors.As(err, &maxErr):
			return fmt.Errorf("body must not be larger than %d bytes", maxErr.Limit)
		default:
			return err
		}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func (h *Handler) logError(r *http.Request, err error) {
	h.log.Error(err.Error(),
		slog.String("request_method", r.Method),
		slog.String("request_url", r.URL.String()),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	writeJSON(w, status, map[string]any{"error": message})
}

func (h *Handler) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	h.logError(r, err)
	h.errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func (h *Handler) repoErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		h.errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
	case errors.Is(err, ErrConflict):
		h.errorResponse(w, r, http.StatusConflict, catalog.ErrDuplicateISBN.Error())
	default:
		h.serverErrorResponse(w, r, err)
	}
}
