package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/bookcase/internal/catalog"
	"github.com/blackwell-systems/bookcase/internal/form"
	"github.com/blackwell-systems/bookcase/internal/library"
	"github.com/blackwell-systems/bookcase/internal/selection"
	"github.com/blackwell-systems/bookcase/internal/server"
	"github.com/blackwell-systems/bookcase/internal/store"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newHandler(t *testing.T, opts ...server.Option) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]server.Option{server.WithClock(func() time.Time { return fixedNow })}, opts...)
	return server.NewHandler(server.NewMemoryRepo(), logger, opts...).Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

const emma = `{"title":"Emma","author":"Jane Austen","isbn":"014143958X","userRating":4,"readStatus":false,"notes":""}`

func TestCreateBook_201(t *testing.T) {
	h := newHandler(t)
	w := do(t, h, http.MethodPost, "/books/manual", emma)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out catalog.Book
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "/books/"+out.ID, w.Header().Get("Location"))
	require.NotNil(t, out.CreatedAt)
	assert.True(t, fixedNow.Equal(*out.CreatedAt))

	w = do(t, h, http.MethodGet, "/books", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []catalog.Book
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, out.ID, list[0].ID)
}

func TestCreateBook_Validation(t *testing.T) {
	h := newHandler(t)
	w := do(t, h, http.MethodPost, "/books/manual", `{"title":"It","author":"Stephen King","isbn":"1234","userRating":4}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Error map[string]string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, map[string]string{
		"title": "Title must be at least 3 characters",
		"isbn":  "Invalid ISBN number",
	}, body.Error)

	// the quick route only applies the stored-record floor
	w = do(t, h, http.MethodPost, "/books", `{"title":"It","author":"Stephen King","isbn":"9781501142970","userRating":4}`)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestCreateBook_BadBodies(t *testing.T) {
	h := newHandler(t)
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", "body must not be empty"},
		{"syntax", `{"title":`, "badly-formed JSON"},
		{"unknown key", `{"title":"Emma","shelf":"x"}`, "unknown key"},
		{"wrong type", `{"title":7}`, `incorrect JSON type for field "title"`},
		{"two values", emma + emma, "single JSON value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/books/manual", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}

func TestCreateBook_Conflict(t *testing.T) {
	h := newHandler(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/books/manual", emma).Code)
	w := do(t, h, http.MethodPost, "/books", emma)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateAndDelete(t *testing.T) {
	h := newHandler(t)
	w := do(t, h, http.MethodPost, "/books/manual", emma)
	var created catalog.Book
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))

	w = do(t, h, http.MethodPatch, "/books/"+created.ID, `{"userRating":5,"notes":"witty"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated catalog.Book
	require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
	assert.Equal(t, 5.0, updated.UserRating)
	assert.Equal(t, "witty", updated.Notes)
	assert.Equal(t, "Emma", updated.Title)

	w = do(t, h, http.MethodPatch, "/books/"+created.ID, `{"userRating":9}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, http.MethodGet, "/books/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userRating":5`)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/books/"+created.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/books/"+created.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPatch, "/books/"+created.ID, `{"notes":"x"}`).Code)
}

func TestRoutingErrors(t *testing.T) {
	h := newHandler(t)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/shelves", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPut, "/books", "").Code)
}

func TestRateLimit(t *testing.T) {
	h := newHandler(t, server.WithRateLimit(server.RateLimit{RPS: 0.001, Burst: 2}))
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/books", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/books", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodGet, "/books", "").Code)
}

// The store client and the session against the real handler.
func TestSessionEndToEnd(t *testing.T) {
	srv := httptest.NewServer(newHandler(t))
	t.Cleanup(srv.Close)
	client, err := store.New(srv.URL, store.Options{Timeout: 2 * time.Second})
	require.NoError(t, err)

	ctx := context.Background()
	s := library.New(client, nil)
	run := func(job library.Job, err error) library.Notice {
		t.Helper()
		require.NoError(t, err)
		n, err := s.Run(ctx, job)
		require.NoError(t, err)
		return n
	}

	run(s.BeginLoad())
	assert.Empty(t, s.Books())

	n := run(s.BeginCreate(form.Input{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441172719", UserRating: "5"}))
	assert.Equal(t, library.MsgAdded, n.Text)
	require.Len(t, s.Books(), 1)
	id := s.Books()[0].ID

	s.Selection().OpenDetails(id)
	require.NoError(t, s.Selection().EnterEditMode())
	in := form.InputFromBook(s.Books()[0])
	in.Notes = "spice"
	n = run(s.BeginUpdate(in))
	assert.Equal(t, library.MsgUpdated, n.Text)

	remote, err := client.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "spice", remote.Notes)

	s.Selection().OpenDetails(id)
	require.NoError(t, s.Selection().OpenDeleteConfirmation())
	n = run(s.BeginDelete())
	assert.Equal(t, library.MsgDeleted, n.Text)
	assert.Empty(t, s.Books())
	assert.Equal(t, selection.State{}, s.Selection().State())

	list, err := client.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := server.NewHandler(server.NewMemoryRepo(), nil)
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, "127.0.0.1:0", h, ready) }()

	addr := <-ready
	resp, err := http.Post("http://"+addr+"/books/manual", "application/json", bytes.NewBufferString(emma))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
