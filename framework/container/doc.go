// Package container provides the reflection-driven IoC container the
// bootstrapper composes the application with. It implements only what the
// composition root needs: three lifetimes, collections, staged resolution and
// disposable scopes.
//
// # Overview
//
// Services are keyed by reflect.Type. An implementation is a constructor
// function: its parameters are resolved from the container and its first
// result is the instance. A second error result is honoured.
//
// The container is split into two capabilities. A Builder collects
// registrations; Build freezes it and returns the root Resolver. Stage
// returns a provisional resolver while the builder stays open, which is how
// registration providers get constructed before their own registrations are
// applied.
//
// # Container Lifecycle
//
//  1. Create: c := container.New()
//  2. Register: c.AddType / c.AddFactory / c.AddInstance
//  3. Build: root, err := c.Build()
//  4. Per request: scope := root.CreateScope(); defer scope.Dispose()
//
// # Registrations
//
//	// Transient: new instance every Resolve
//	c.AddType(registration.TypeOf[*Mailer](), NewMailer, container.Transient)
//
//	// Singleton: built once at the root, shared by every scope
//	c.AddType(registration.TypeOf[Cache](), NewMemoryCache, container.Singleton)
//
//	// Scoped: built once per scope, refused at the root
//	c.AddType(registration.TypeOf[*UnitOfWork](), NewUnitOfWork, container.Scoped)
//
//	// Pre-built value, never closed by the container
//	c.AddInstance(registration.TypeOf[*config.Config](), cfg)
//
// # Resolving
//
//	// Untyped
//	raw, err := root.Resolve(registration.TypeOf[Cache]())
//
//	// Generic
//	cache, err := container.Resolve[Cache](root)
//
// # Collections
//
// Registering the same service several times builds a collection.
// Resolve returns the last registration; ResolveMany returns all of them in
// registration order. A constructor parameter of type []T that is not itself
// registered receives every registration of T.
//
//	c.AddType(registration.TypeOf[Deserializer](), NewJSONDeserializer, container.Singleton)
//	c.AddType(registration.TypeOf[Deserializer](), NewFormDeserializer, container.Singleton)
//
//	func NewBinder(ds []Deserializer) *Binder { ... } // receives both
//
// # Disposal
//
// Every io.Closer a resolver builds (transient, scoped, or singleton at the
// root) is closed by that resolver's Dispose, in reverse creation order.
// Registered instances are never closed. Dispose is idempotent.
package container
