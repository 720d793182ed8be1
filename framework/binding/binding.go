// Package binding decodes request bodies into structs. Deserializers are a
// framework collection: the container hands every registered Deserializer
// to the Binder, and the first one that accepts the content type wins.
//
//	var payload struct {
//	    Name string `json:"name"`
//	}
//	if err := binder.Bind(ctx.Request, &payload); err != nil { ... }
package binding

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	gohttp "github.com/km-arc/go-twostep/framework/http"
)

var (
	ErrEmptyBody          = errors.New("binding: empty request body")
	ErrUnsupportedContent = errors.New("binding: no deserializer for content type")
)

// Deserializer decodes one family of content types.
type Deserializer interface {
	CanDeserialize(contentType string) bool
	Deserialize(req *gohttp.Request, v any) error
}

// ── Binder ───────────────────────────────────────────────────────────────────

// Binder picks a Deserializer for each request.
type Binder struct {
	deserializers []Deserializer
}

// NewBinder receives every registered Deserializer, in registration order.
func NewBinder(deserializers []Deserializer) *Binder {
	return &Binder{deserializers: deserializers}
}

// Bind decodes the request body into v.
func (b *Binder) Bind(req *gohttp.Request, v any) error {
	ct := mediaType(req.ContentType())
	for _, d := range b.deserializers {
		if d.CanDeserialize(ct) {
			return d.Deserialize(req, v)
		}
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedContent, ct)
}

// Len returns the number of deserializers.
func (b *Binder) Len() int { return len(b.deserializers) }

func mediaType(ct string) string {
	if ct == "" {
		return "application/x-www-form-urlencoded"
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mt
}

// ── JSON ─────────────────────────────────────────────────────────────────────

// JSONDeserializer handles application/json and any +json media type.
type JSONDeserializer struct{}

func NewJSONDeserializer() *JSONDeserializer { return &JSONDeserializer{} }

func (*JSONDeserializer) CanDeserialize(ct string) bool {
	return ct == "application/json" || strings.HasSuffix(ct, "+json")
}

func (*JSONDeserializer) Deserialize(req *gohttp.Request, v any) error {
	body := req.Body()
	if body == nil {
		return ErrEmptyBody
	}
	defer body.Close()
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return ErrEmptyBody
	}
	return json.Unmarshal(raw, v)
}

// ── Form ─────────────────────────────────────────────────────────────────────

// FormDeserializer handles urlencoded and multipart forms. Fields map via
// their `json:"name"` tags.
type FormDeserializer struct{}

func NewFormDeserializer() *FormDeserializer { return &FormDeserializer{} }

func (*FormDeserializer) CanDeserialize(ct string) bool {
	return ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data"
}

func (*FormDeserializer) Deserialize(req *gohttp.Request, v any) error {
	raw := req.Raw()
	if strings.HasPrefix(mediaType(req.ContentType()), "multipart/") {
		if err := raw.ParseMultipartForm(gohttp.MaxMemory); err != nil {
			return err
		}
		return bindForm(raw.MultipartForm.Value, v)
	}
	if err := raw.ParseForm(); err != nil {
		return err
	}
	return bindForm(raw.PostForm, v)
}

// bindForm maps form values onto v with a JSON round-trip, so nested structs
// and json tags keep working.
func bindForm(values map[string][]string, v any) error {
	m := make(map[string]any, len(values))
	for k, vals := range values {
		if len(vals) == 1 {
			m[k] = vals[0]
		} else {
			m[k] = vals
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
