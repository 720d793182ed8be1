package bootstrap

import (
	"fmt"

	"github.com/km-arc/go-twostep/framework/container"
	"github.com/km-arc/go-twostep/framework/registration"
)

// containerLifetime translates a registration lifetime. PerRequest is
// rejected: request-scoped services are only created by the scope manager.
func containerLifetime(l registration.Lifetime) (container.Lifetime, error) {
	if err := registration.ValidateLifetime(l); err != nil {
		return 0, err
	}
	if l == registration.Singleton {
		return container.Singleton, nil
	}
	return container.Transient, nil
}

func registerTypes(b container.Builder, regs []registration.TypeRegistration) error {
	for _, r := range regs {
		lt, err := containerLifetime(r.Lifetime)
		if err != nil {
			return fmt.Errorf("register %s: %w", r.RegistrationType, err)
		}
		if err := b.AddType(r.RegistrationType, r.Constructor, lt); err != nil {
			return err
		}
	}
	return nil
}

func registerCollections(b container.Builder, regs []registration.CollectionTypeRegistration) error {
	for _, r := range regs {
		lt, err := containerLifetime(r.Lifetime)
		if err != nil {
			return fmt.Errorf("register collection %s: %w", r.RegistrationType, err)
		}
		for _, ctor := range r.Constructors {
			if err := b.AddType(r.RegistrationType, ctor, lt); err != nil {
				return err
			}
		}
	}
	return nil
}

func registerInstances(b container.Builder, regs []registration.InstanceRegistration) error {
	for _, r := range regs {
		if err := b.AddInstance(r.RegistrationType, r.Instance); err != nil {
			return err
		}
	}
	return nil
}

// registerProvider applies every registration of p.
func registerProvider(b container.Builder, p registration.Provider) error {
	if err := registerTypes(b, p.TypeRegistrations()); err != nil {
		return err
	}
	if err := registerCollections(b, p.CollectionTypeRegistrations()); err != nil {
		return err
	}
	return registerInstances(b, p.InstanceRegistrations())
}
