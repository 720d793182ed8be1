package app

import (
	"github.com/km-arc/go-twostep/framework/bootstrap"
	"github.com/km-arc/go-twostep/framework/catalog"
	"github.com/km-arc/go-twostep/framework/container"
	"github.com/km-arc/go-twostep/framework/environment"
	"github.com/km-arc/go-twostep/framework/registration"
)

func init() {
	Register(catalog.Default)
}

// Register catalogues every discoverable type of the application.
func Register(c *catalog.Catalog) {
	c.MustAdd(NewHomeModule)
	c.MustAdd(NewSecurityHeaders)
	c.MustAdd(NewPoweredBy)
	c.MustAdd(NewClockProvider)
}

// Customizer wires the services the catalog cannot describe.
type Customizer struct {
	bootstrap.BaseCustomizer

	// Debug shows error text in 500 responses.
	Debug bool
}

func (c Customizer) ConfigureApplicationContainer(b container.Builder) error {
	if err := b.AddType(registration.TypeOf[Greeter](), NewGreeter, container.Singleton); err != nil {
		return err
	}
	return b.AddType(registration.TypeOf[*Visit](), NewVisit, container.Scoped)
}

func (c Customizer) Configure(env *environment.Environment) {
	env.Tracing(true, c.Debug)
}
