package conventions_test

import (
	"strings"
	"testing"

	"github.com/km-arc/go-twostep/framework/conventions"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(c *conventions.Conventions)
		valid   bool
		message string
	}{
		{"defaults", func(*conventions.Conventions) {}, true, ""},
		{"good static", func(c *conventions.Conventions) { c.AddStaticDirectory("/assets", "./public") }, true, ""},
		{"relative path", func(c *conventions.Conventions) { c.AddStaticDirectory("assets", "./public") }, false, "must start with /"},
		{"root path", func(c *conventions.Conventions) { c.AddStaticDirectory("/", "./public") }, false, "cannot be the root"},
		{"duplicate", func(c *conventions.Conventions) {
			c.AddStaticDirectory("/a", "x").AddStaticDirectory("/a", "y")
		}, false, "declared twice"},
		{"empty dir", func(c *conventions.Conventions) { c.AddStaticDirectory("/a", " ") }, false, "directory is empty"},
		{"no views", func(c *conventions.Conventions) { c.ViewLocations = nil }, false, "no view locations"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := conventions.New()
			tt.setup(c)
			ok, msg := c.Validate()
			if ok != tt.valid {
				t.Fatalf("valid: got %v want %v (%s)", ok, tt.valid, msg)
			}
			if !strings.Contains(msg, tt.message) {
				t.Errorf("message: got %q want it to contain %q", msg, tt.message)
			}
		})
	}
}

func TestInstanceRegistrations(t *testing.T) {
	c := conventions.New()
	regs := c.InstanceRegistrations()
	if len(regs) != 1 || regs[0].Instance != c {
		t.Errorf("got %+v", regs)
	}
}

func TestClone(t *testing.T) {
	c := conventions.New().AddStaticDirectory("/assets", "./public")
	cp := c.Clone()
	cp.AddStaticDirectory("/media", "./media")
	cp.ViewLocations[0] = "templates"

	if len(c.StaticContent) != 1 {
		t.Errorf("static content: got %d want 1", len(c.StaticContent))
	}
	if c.ViewLocations[0] != "views" {
		t.Errorf("view location: got %q want %q", c.ViewLocations[0], "views")
	}
	if len(cp.StaticContent) != 2 {
		t.Errorf("clone static content: got %d want 2", len(cp.StaticContent))
	}
}
