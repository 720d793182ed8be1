package registration_test

import (
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/km-arc/go-twostep/framework/registration"
)

type widget struct{}

func newWidget() *widget { return &widget{} }

type gadget struct{}

func newGadget() (*gadget, error) { return &gadget{}, nil }

// ── Lifetime ─────────────────────────────────────────────────────────────────

func TestValidateLifetime(t *testing.T) {
	tests := []struct {
		name     string
		lifetime registration.Lifetime
		want     error
	}{
		{"transient", registration.Transient, nil},
		{"singleton", registration.Singleton, nil},
		{"per-request", registration.PerRequest, registration.ErrInvalidLifetime},
		{"unknown", registration.Lifetime(42), registration.ErrUnsupportedLifetime},
		{"negative", registration.Lifetime(-1), registration.ErrUnsupportedLifetime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := registration.ValidateLifetime(tt.lifetime)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("got %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLifetime_String(t *testing.T) {
	if got := registration.PerRequest.String(); got != "per-request" {
		t.Errorf("got %q want %q", got, "per-request")
	}
	if got := registration.Lifetime(9).String(); got != "lifetime(9)" {
		t.Errorf("got %q want %q", got, "lifetime(9)")
	}
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func TestTypeOf_Interface(t *testing.T) {
	got := registration.TypeOf[io.Writer]()
	if got.Kind() != reflect.Interface {
		t.Errorf("TypeOf[io.Writer]: got kind %s want interface", got.Kind())
	}
}

func TestConstructedType(t *testing.T) {
	if got := registration.ConstructedType(newWidget); got != reflect.TypeOf(&widget{}) {
		t.Errorf("newWidget: got %v", got)
	}
	if got := registration.ConstructedType(newGadget); got != reflect.TypeOf(&gadget{}) {
		t.Errorf("newGadget: got %v", got)
	}
	if got := registration.ConstructedType("not a func"); got != nil {
		t.Errorf("string: got %v want nil", got)
	}
	if got := registration.ConstructedType(nil); got != nil {
		t.Errorf("nil: got %v want nil", got)
	}
}

func TestTypeRegistration_ImplementationType(t *testing.T) {
	r := registration.TypeRegistration{
		RegistrationType: registration.TypeOf[any](),
		Constructor:      newWidget,
		Lifetime:         registration.Singleton,
	}
	if got := r.ImplementationType(); got != reflect.TypeOf(&widget{}) {
		t.Errorf("got %v", got)
	}
}

func TestModules_DuplicatesCollapse(t *testing.T) {
	mods := registration.Modules(newWidget, newGadget, newWidget, "junk")
	if len(mods) != 2 {
		t.Fatalf("got %d modules want 2", len(mods))
	}
	if mods[0].ModuleType != reflect.TypeOf(&widget{}) {
		t.Errorf("first module: got %v", mods[0].ModuleType)
	}
	if mods[1].ModuleType != reflect.TypeOf(&gadget{}) {
		t.Errorf("second module: got %v", mods[1].ModuleType)
	}
}

func TestBaseProvider_RegistersNothing(t *testing.T) {
	var p registration.Provider = registration.BaseProvider{}
	if p.TypeRegistrations() != nil || p.CollectionTypeRegistrations() != nil || p.InstanceRegistrations() != nil {
		t.Error("BaseProvider should return nil slices")
	}
}
