// Package catalog is the explicit type catalog the bootstrapper discovers
// implementations from. Go has no runtime type scanning, so packages list
// their constructors in init():
//
//	func init() {
//	    catalog.Register(NewHomeModule)
//	}
//
// Later the bootstrapper asks the catalog for everything that satisfies a
// capability:
//
//	entries := catalog.Default.AssignableTo(registration.TypeOf[module.Module](), catalog.All)
package catalog

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/km-arc/go-twostep/framework/registration"
)

// Strategy selects which entries a lookup considers.
type Strategy int

const (
	All              Strategy = iota // framework and application entries
	ExcludeFramework                 // application entries only
	OnlyFramework                    // framework entries only
)

func (s Strategy) String() string {
	switch s {
	case All:
		return "all"
	case ExcludeFramework:
		return "exclude-framework"
	case OnlyFramework:
		return "only-framework"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Entry is one catalogued constructor.
type Entry struct {
	Type        reflect.Type
	Constructor any
	Framework   bool
}

// Catalog holds constructors in insertion order. The zero value is ready to
// use and safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	entries []Entry
	index   map[reflect.Type]int
}

// Default is the process-wide catalog filled by init() functions.
var Default = &Catalog{}

// New creates an empty catalog.
func New() *Catalog { return &Catalog{} }

// Add catalogues an application constructor.
func (c *Catalog) Add(ctor any) error { return c.add(ctor, false) }

// AddFramework catalogues a constructor that ships with the framework.
func (c *Catalog) AddFramework(ctor any) error { return c.add(ctor, true) }

// MustAdd is Add that panics on error. Meant for init().
func (c *Catalog) MustAdd(ctor any) {
	if err := c.Add(ctor); err != nil {
		panic(err)
	}
}

// Register adds ctor to Default.
func Register(ctor any) { Default.MustAdd(ctor) }

func (c *Catalog) add(ctor any, framework bool) error {
	t := registration.ConstructedType(ctor)
	if t == nil {
		return fmt.Errorf("catalog: %T is not a constructor", ctor)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index == nil {
		c.index = make(map[reflect.Type]int)
	}
	// Re-adding a type replaces its constructor in place.
	if i, ok := c.index[t]; ok {
		c.entries[i] = Entry{Type: t, Constructor: ctor, Framework: framework}
		return nil
	}
	c.index[t] = len(c.entries)
	c.entries = append(c.entries, Entry{Type: t, Constructor: ctor, Framework: framework})
	return nil
}

// Entries returns a copy of every entry in insertion order.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Entry(nil), c.entries...)
}

// Len returns the number of catalogued types.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// AssignableTo returns every entry whose type is assignable to capability
// and matches strategy, in insertion order. The capability itself is never
// returned when it is an interface.
func (c *Catalog) AssignableTo(capability reflect.Type, strategy Strategy) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Entry
	for _, e := range c.entries {
		switch strategy {
		case ExcludeFramework:
			if e.Framework {
				continue
			}
		case OnlyFramework:
			if !e.Framework {
				continue
			}
		}
		if e.Type.AssignableTo(capability) {
			out = append(out, e)
		}
	}
	return out
}

// Constructors is AssignableTo reduced to the constructors.
func (c *Catalog) Constructors(capability reflect.Type, strategy Strategy) []any {
	entries := c.AssignableTo(capability, strategy)
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = e.Constructor
	}
	return out
}

// Implementing is the generic form of AssignableTo.
//
//	tasks := catalog.Implementing[bootstrap.ApplicationStartup](catalog.Default, catalog.All)
func Implementing[T any](c *Catalog, strategy Strategy) []Entry {
	return c.AssignableTo(registration.TypeOf[T](), strategy)
}
