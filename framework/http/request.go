package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ErrEmptyBody is returned by Bind for a request without a body.
var ErrEmptyBody = errors.New("empty request body")

// Request wraps *http.Request with small helpers for service handlers.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// Bind decodes a JSON body into v.
func (req *Request) Bind(v any) error {
	defer req.raw.Body.Close()
	body, err := io.ReadAll(req.raw.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return ErrEmptyBody
	}
	return json.Unmarshal(body, v)
}

// Query returns a query string value, or the fallback.
func (req *Request) Query(key string, fallback ...string) string {
	if v := req.raw.URL.Query().Get(key); v != "" {
		return v
	}
	return first(fallback, "")
}

// RouteParam returns a URL parameter, e.g. {id}.
func (req *Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}

// IsJSON reports whether the request sends or accepts JSON.
func (req *Request) IsJSON() bool {
	return strings.Contains(req.raw.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(req.raw.Header.Get("Accept"), "application/json")
}
