package config

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/km-arc/go-twostep/framework/registration"
)

// ErrInvalidInternal is returned by Internal.Validate.
var ErrInvalidInternal = errors.New("config: internal configuration is invalid")

// Internal is the bundle of framework registrations the bootstrapper applies
// at step 4. Replace individual framework services with Override before
// handing it to the bootstrapper.
type Internal struct {
	TypeRegistrations           []registration.TypeRegistration
	CollectionTypeRegistrations []registration.CollectionTypeRegistration
}

// IsValid reports whether Validate succeeds.
func (i *Internal) IsValid() bool { return i.Validate() == nil }

// Validate checks that every registration names a service and a
// constructor whose result satisfies it.
func (i *Internal) Validate() error {
	if i == nil {
		return fmt.Errorf("%w: nil", ErrInvalidInternal)
	}
	for _, r := range i.TypeRegistrations {
		if err := check(r.RegistrationType, r.Constructor); err != nil {
			return err
		}
	}
	for _, r := range i.CollectionTypeRegistrations {
		if r.RegistrationType == nil {
			return fmt.Errorf("%w: collection without a type", ErrInvalidInternal)
		}
		for _, ctor := range r.Constructors {
			if err := check(r.RegistrationType, ctor); err != nil {
				return err
			}
		}
	}
	return nil
}

func check(service reflect.Type, ctor any) error {
	if service == nil {
		return fmt.Errorf("%w: registration without a type", ErrInvalidInternal)
	}
	impl := registration.ConstructedType(ctor)
	if impl == nil {
		return fmt.Errorf("%w: %s has no constructor", ErrInvalidInternal, service)
	}
	if !impl.AssignableTo(service) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrInvalidInternal, impl, service)
	}
	return nil
}

// Override swaps the constructor of the type registration for service,
// keeping its lifetime. It appends a Singleton registration when service is
// not part of the bundle yet.
//
//	internal.Override(registration.TypeOf[environment.Configurator](), NewMyConfigurator)
func (i *Internal) Override(service reflect.Type, ctor any) *Internal {
	for n := range i.TypeRegistrations {
		if i.TypeRegistrations[n].RegistrationType == service {
			i.TypeRegistrations[n].Constructor = ctor
			return i
		}
	}
	i.TypeRegistrations = append(i.TypeRegistrations, registration.TypeRegistration{
		RegistrationType: service,
		Constructor:      ctor,
		Lifetime:         registration.Singleton,
	})
	return i
}
