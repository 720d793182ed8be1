// Package app is the example application: one module, a couple of startup
// tasks and a registration provider, all discovered through the catalog.
package app

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/km-arc/go-twostep/framework/config"
	"github.com/km-arc/go-twostep/framework/registration"
)

// Greeter builds greetings. It is a process-wide singleton.
type Greeter interface {
	Greet(name string) string
}

type greeter struct{ app string }

func NewGreeter(cfg *config.AppConfig) Greeter {
	return &greeter{app: cfg.Name}
}

func (g *greeter) Greet(name string) string {
	if name == "" {
		name = "world"
	}
	return fmt.Sprintf("Hello %s, from %s", name, g.app)
}

// Clock is registered by ClockProvider.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// ClockProvider registers the system clock.
type ClockProvider struct {
	registration.BaseProvider
}

func NewClockProvider() *ClockProvider { return &ClockProvider{} }

func (*ClockProvider) TypeRegistrations() []registration.TypeRegistration {
	return []registration.TypeRegistration{{
		RegistrationType: registration.TypeOf[Clock](),
		Constructor:      func() Clock { return systemClock{} },
		Lifetime:         registration.Singleton,
	}}
}

// Visit is created once per request scope.
type Visit struct {
	ID      uuid.UUID
	Started time.Time
}

func NewVisit(clock Clock) *Visit {
	return &Visit{ID: uuid.New(), Started: clock.Now()}
}
