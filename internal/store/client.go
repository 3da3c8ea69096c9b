// Package store is the JSON REST client for the /books resource.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blackwell-systems/bookcase/internal/catalog"
)

const (
	// DefaultBaseURL is where the development backend listens.
	DefaultBaseURL   = "http://localhost:3000"
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "bookcase/dev"
	maxErrorBody     = 512
)

// Books is the set of operations the session needs from the store.
// *Client implements it; tests substitute fakes.
type Books interface {
	ListAll(ctx context.Context) ([]catalog.Book, error)
	Create(ctx context.Context, b catalog.Book, route Route) (catalog.Book, error)
	Update(ctx context.Context, id string, p Patch) (catalog.Book, error)
	Remove(ctx context.Context, id string) error
}

var _ Books = (*Client)(nil)

// Options tunes a Client. Zero values select defaults.
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

// Client talks to the book store over HTTP. Every call is a single attempt.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

// New creates a Client for baseURL. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, opts Options) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Client{baseURL: base, http: hc, userAgent: ua}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// url builds an endpoint URL from path segments. Segments are escaped.
func (c *Client) url(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.baseURL.JoinPath(escaped...).String()
}

// doJSON sends body (if non-nil) as JSON and decodes the response into out
// (if non-nil).
func (c *Client) doJSON(ctx context.Context, op, method, reqURL string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(op, resp); err != nil {
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// checkStatus returns a typed error for non-2xx responses.
func checkStatus(op string, resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", op, ErrConflict)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return decodeRejection(resp.StatusCode, body)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &TransportError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
}

// decodeRejection understands {"error": "msg"} and {"error": {"field": "msg"}}.
func decodeRejection(status int, body []byte) *RejectedError {
	rej := &RejectedError{Status: status}
	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Error) == 0 {
		rej.Message = strings.TrimSpace(string(body))
		if len(rej.Message) > maxErrorBody {
			rej.Message = rej.Message[:maxErrorBody]
		}
		return rej
	}
	var fields map[string]string
	if err := json.Unmarshal(env.Error, &fields); err == nil {
		rej.Fields = fields
		return rej
	}
	var msg string
	if err := json.Unmarshal(env.Error, &msg); err == nil {
		rej.Message = msg
		return rej
	}
	rej.Message = string(env.Error)
	return rej
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse base url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
