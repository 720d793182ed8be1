package http

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MaxMemory bounds the in-memory part of multipart parsing.
const MaxMemory = 32 << 20 // 32 MB

// Request wraps *http.Request with read helpers for modules.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// Body returns the request body.
func (req *Request) Body() io.ReadCloser { return req.raw.Body }

// ── Read helpers ─────────────────────────────────────────────────────────────

// Query returns a query-string value, or fallback when it is empty.
func (req *Request) Query(key string, fallback ...string) string {
	v := req.raw.URL.Query().Get(key)
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}

// RouteParam returns a URL route parameter.
func (req *Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}

// Header returns a request header value.
func (req *Request) Header(key string) string {
	return req.raw.Header.Get(key)
}

// Method returns the HTTP method.
func (req *Request) Method() string { return req.raw.Method }

// Path returns the URL path.
func (req *Request) Path() string { return req.raw.URL.Path }

// ContentType returns the Content-Type header value.
func (req *Request) ContentType() string {
	return req.raw.Header.Get("Content-Type")
}
