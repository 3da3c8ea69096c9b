// Package lookup fetches book metadata by ISBN from Open Library.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blackwell-systems/bookcase/internal/catalog"
)

const (
	// DefaultBaseURL is the public Open Library endpoint.
	DefaultBaseURL = "https://openlibrary.org"
	defaultTimeout = 10 * time.Second

	// Defaults applied to every draft; the user adjusts them after saving.
	DefaultRating = 4
	DefaultNotes  = "A must read classic book"
	UnknownAuthor = "Unknown"
)

var (
	// ErrNotFound is returned when Open Library has no entry for the ISBN.
	ErrNotFound = errors.New("no book found for this ISBN")
	// ErrTransport matches every *TransportError.
	ErrTransport = errors.New("ISBN lookup failed")
)

// TransportError reports a network failure, a non-2xx response or an
// undecodable body.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("isbn lookup: %v", e.Err)
	}
	return fmt.Sprintf("isbn lookup: status %d", e.Status)
}

func (e *TransportError) Unwrap() error        { return e.Err }
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Finder is implemented by *Client.
type Finder interface {
	Lookup(ctx context.Context, isbn string) (Record, error)
}

var _ Finder = (*Client)(nil)

// Record is a lookup result. Book is a draft ready to be created; the other
// fields are informational and are not stored.
type Record struct {
	Book        catalog.Book
	Subtitle    string
	Publishers  []string
	PublishDate string
	Pages       int
	CoverURL    string
}

// Client queries the Open Library books API. Each lookup is a single attempt.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
}

// New creates a Client. An empty baseURL selects DefaultBaseURL; a nil
// httpClient gets one with timeout (or a default).
func New(baseURL string, timeout time.Duration, httpClient *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      httpClient,
		userAgent: "bookcase/dev",
	}
}

// WithUserAgent sets the User-Agent sent with requests.
func (c *Client) WithUserAgent(ua string) *Client {
	if ua != "" {
		c.userAgent = ua
	}
	return c
}

type olBook struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Authors  []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Publishers []struct {
		Name string `json:"name"`
	} `json:"publishers"`
	PublishDate   string `json:"publish_date"`
	NumberOfPages int    `json:"number_of_pages"`
	Cover         struct {
		Large  string `json:"large"`
		Medium string `json:"medium"`
	} `json:"cover"`
}

// Lookup fetches isbn and maps it to a draft. It never touches catalog state.
func (c *Client) Lookup(ctx context.Context, isbn string) (Record, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return Record{}, fmt.Errorf("isbn lookup: %w", ErrNotFound)
	}
	key := "ISBN:" + isbn
	q := url.Values{}
	q.Set("bibkeys", key)
	q.Set("format", "json")
	q.Set("jscmd", "data")
	reqURL := c.baseURL + "/api/books?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Record{}, fmt.Errorf("isbn lookup: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return Record{}, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return Record{}, fmt.Errorf("isbn lookup %s: %w", isbn, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Record{}, &TransportError{Status: resp.StatusCode, Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))}
	}

	var payload map[string]olBook
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Record{}, &TransportError{Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	ob, ok := payload[key]
	if !ok || strings.TrimSpace(ob.Title) == "" {
		return Record{}, fmt.Errorf("isbn lookup %s: %w", isbn, ErrNotFound)
	}
	return mapRecord(isbn, ob), nil
}

func mapRecord(isbn string, ob olBook) Record {
	author := UnknownAuthor
	if len(ob.Authors) > 0 && strings.TrimSpace(ob.Authors[0].Name) != "" {
		author = strings.TrimSpace(ob.Authors[0].Name)
	}
	publishers := make([]string, 0, len(ob.Publishers))
	for _, p := range ob.Publishers {
		if p.Name != "" {
			publishers = append(publishers, p.Name)
		}
	}
	cover := ob.Cover.Large
	if cover == "" {
		cover = ob.Cover.Medium
	}
	return Record{
		Book: catalog.Book{
			Title:      strings.TrimSpace(ob.Title),
			Author:     author,
			ISBN:       isbn,
			UserRating: DefaultRating,
			ReadStatus: true,
			Notes:      DefaultNotes,
		},
		Subtitle:    ob.Subtitle,
		Publishers:  publishers,
		PublishDate: ob.PublishDate,
		Pages:       ob.NumberOfPages,
		CoverURL:    cover,
	}
}
