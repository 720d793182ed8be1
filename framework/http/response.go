package http

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
)

// ── Response ─────────────────────────────────────────────────────────────────

// Response is what modules and pipeline hooks produce. Nothing reaches the
// wire until the engine calls Write.
type Response struct {
	StatusCode  int
	ContentType string
	Headers     http.Header

	// Contents streams the body. nil means no body.
	Contents func(w io.Writer) error
}

// WithHeader sets a header and returns the response for chaining.
//
//	return http.Text(200, "ok").WithHeader("Cache-Control", "no-store")
func (res *Response) WithHeader(key, value string) *Response {
	if res.Headers == nil {
		res.Headers = make(http.Header)
	}
	res.Headers.Set(key, value)
	return res
}

// Write sends the response to w.
func (res *Response) Write(w http.ResponseWriter) error {
	for k, vs := range res.Headers {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if res.ContentType != "" {
		w.Header().Set("Content-Type", res.ContentType)
	}
	status := res.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if res.Contents == nil {
		return nil
	}
	return res.Contents(w)
}

// ── JSON responses ────────────────────────────────────────────────────────────

// JSON builds a JSON response.
//
//	return http.JSON(http.StatusOK, map[string]any{"message": "ok"}), nil
func JSON(status int, data any) *Response {
	return &Response{
		StatusCode:  status,
		ContentType: "application/json",
		Contents: func(w io.Writer) error {
			return json.NewEncoder(w).Encode(data)
		},
	}
}

// Success builds 200 JSON: {"data": v}
func Success(v any) *Response {
	return JSON(http.StatusOK, envelope{"data": v})
}

// Created builds 201 JSON: {"data": v}
func Created(v any) *Response {
	return JSON(http.StatusCreated, envelope{"data": v})
}

// NoContent builds 204 with no body.
func NoContent() *Response {
	return &Response{StatusCode: http.StatusNoContent}
}

// Error builds a JSON error response.
//
//	return http.Error(http.StatusNotFound, "Resource not found"), nil
func Error(status int, message string) *Response {
	return JSON(status, envelope{"message": message})
}

// NotFound builds 404.
func NotFound(message ...string) *Response {
	return Error(http.StatusNotFound, first(message, "Not found."))
}

// MethodNotAllowed builds 405.
func MethodNotAllowed(message ...string) *Response {
	return Error(http.StatusMethodNotAllowed, first(message, "Method not allowed."))
}

// ServerError builds 500.
func ServerError(message ...string) *Response {
	return Error(http.StatusInternalServerError, first(message, "Server Error."))
}

// ── Other bodies ─────────────────────────────────────────────────────────────

// Text builds a plain-text response.
func Text(status int, body string) *Response {
	return Bytes(status, "text/plain; charset=utf-8", []byte(body))
}

// Bytes builds a response from an in-memory body.
func Bytes(status int, contentType string, body []byte) *Response {
	return &Response{
		StatusCode:  status,
		ContentType: contentType,
		Contents: func(w io.Writer) error {
			_, err := w.Write(body)
			return err
		},
	}
}

// File builds a response that streams the file at path. The file is opened
// when the body is written.
func File(path, contentType string) *Response {
	return &Response{
		StatusCode:  http.StatusOK,
		ContentType: contentType,
		Contents: func(w io.Writer) error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = io.Copy(w, f)
			return err
		},
	}
}

// RedirectTo builds a 302 redirect.
func RedirectTo(url string) *Response {
	return (&Response{StatusCode: http.StatusFound}).WithHeader("Location", url)
}

// ── Helpers ──────────────────────────────────────────────────────────────────

type envelope map[string]any

func first(ss []string, fallback string) string {
	if len(ss) > 0 && ss[0] != "" {
		return ss[0]
	}
	return fallback
}
