// Package conventions holds the naming and path conventions the framework
// follows: where static content is served from and where views live.
package conventions

import (
	"fmt"
	"slices"
	"strings"

	"github.com/km-arc/go-twostep/framework/registration"
)

// StaticDirectory maps a request path prefix to a directory on disk.
type StaticDirectory struct {
	RequestPath string
	Directory   string
}

// Conventions is mutated by the customizer during Initialise and read-only
// afterwards.
type Conventions struct {
	StaticContent []StaticDirectory
	ViewLocations []string
}

// New returns the default conventions: no static content, views under
// views/ and views/{module}/.
func New() *Conventions {
	return &Conventions{
		ViewLocations: []string{"views", "views/{module}"},
	}
}

// Clone returns a copy that can be changed without touching c.
func (c *Conventions) Clone() *Conventions {
	return &Conventions{
		StaticContent: slices.Clone(c.StaticContent),
		ViewLocations: slices.Clone(c.ViewLocations),
	}
}

// AddStaticDirectory serves dir under requestPath.
//
//	conv.AddStaticDirectory("/assets", "./public")
func (c *Conventions) AddStaticDirectory(requestPath, dir string) *Conventions {
	c.StaticContent = append(c.StaticContent, StaticDirectory{RequestPath: requestPath, Directory: dir})
	return c
}

// Validate reports whether the conventions are usable. On failure the
// message lists every problem, one per line.
func (c *Conventions) Validate() (bool, string) {
	var problems []string

	seen := make(map[string]bool, len(c.StaticContent))
	for i, s := range c.StaticContent {
		switch {
		case !strings.HasPrefix(s.RequestPath, "/"):
			problems = append(problems, fmt.Sprintf("static content %d: request path %q must start with /", i, s.RequestPath))
		case s.RequestPath == "/":
			problems = append(problems, fmt.Sprintf("static content %d: request path cannot be the root", i))
		case seen[s.RequestPath]:
			problems = append(problems, fmt.Sprintf("static content %d: request path %q is declared twice", i, s.RequestPath))
		}
		seen[s.RequestPath] = true
		if strings.TrimSpace(s.Directory) == "" {
			problems = append(problems, fmt.Sprintf("static content %d: directory is empty", i))
		}
	}

	if len(c.ViewLocations) == 0 {
		problems = append(problems, "no view locations defined")
	}
	for i, v := range c.ViewLocations {
		if strings.TrimSpace(v) == "" {
			problems = append(problems, fmt.Sprintf("view location %d is empty", i))
		}
	}

	if len(problems) > 0 {
		return false, strings.Join(problems, "\n")
	}
	return true, ""
}

// InstanceRegistrations makes the conventions injectable.
func (c *Conventions) InstanceRegistrations() []registration.InstanceRegistration {
	return []registration.InstanceRegistration{
		{RegistrationType: registration.TypeOf[*Conventions](), Instance: c},
	}
}
