package module_test

import (
	"testing"

	gohttp "github.com/km-arc/go-twostep/framework/http"
	"github.com/km-arc/go-twostep/framework/module"
)

func noop(*gohttp.Context) (*gohttp.Response, error) { return nil, nil }

type photos struct{}

func (photos) Index(*gohttp.Context) (*gohttp.Response, error)   { return nil, nil }
func (photos) Store(*gohttp.Context) (*gohttp.Response, error)   { return nil, nil }
func (photos) Show(*gohttp.Context) (*gohttp.Response, error)    { return nil, nil }
func (photos) Update(*gohttp.Context) (*gohttp.Response, error)  { return nil, nil }
func (photos) Destroy(*gohttp.Context) (*gohttp.Response, error) { return nil, nil }

func TestBase_RoutesAndPrefixes(t *testing.T) {
	var m module.Base
	m.Get("/", noop)
	m.Prefix("/api/v1/", func() {
		m.Post("users", noop)
		m.Prefix("/admin", func() {
			m.Delete("/users/{id}", noop)
		})
	})
	m.Put("/after", noop)

	want := []struct{ method, path string }{
		{"GET", "/"},
		{"POST", "/api/v1/users"},
		{"DELETE", "/api/v1/admin/users/{id}"},
		{"PUT", "/after"},
	}

	got := m.Routes()
	if len(got) != len(want) {
		t.Fatalf("got %d routes want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Method != w.method || got[i].Path != w.path {
			t.Errorf("route %d: got %s %s want %s %s", i, got[i].Method, got[i].Path, w.method, w.path)
		}
	}
}

func TestBase_Resource(t *testing.T) {
	var m module.Base
	m.Resource("/photos", photos{})
	if got := len(m.Routes()); got != 6 {
		t.Errorf("got %d routes want 6", got)
	}
}

func TestBase_Any(t *testing.T) {
	var m module.Base
	m.Any("/ping", noop)
	if got := len(m.Routes()); got != 7 {
		t.Errorf("got %d routes want 7", got)
	}
}
