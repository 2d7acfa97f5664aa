// Package nasc provides the singleton registry and bean lifecycle engine
// behind a hierarchical, type-safe bean factory.
//
// Nasc (Old Irish: "Link" or "Bond") manages a set of named, typed
// components ("beans") whose creation may depend on other beans. It
// guarantees at-most-one instance per singleton name under concurrent
// lookup, detects and resolves circular references through staged exposure
// of partially-initialized instances, tracks inter-bean dependency
// relationships to drive reverse-dependency-order destruction, and supports
// aliases, containment, and factory-bean indirection behind a pluggable
// post-processor pipeline.
//
// # Quick start
//
//	c := nasc.New()
//	c.RegisterDefinition(&registry.Definition{
//	    Name:        "logger",
//	    Constructor: NewConsoleLogger,
//	})
//	logger, err := c.GetBean("logger")
//
// # Circular references
//
// Two singletons that depend on each other resolve cleanly as long as the
// side resolved first exposes an early reference before its own dependency
// is requested:
//
//	// A has a field `B *B inject:""`, B has a field `A *A inject:""`.
//	c.RegisterDefinition(&registry.Definition{Name: "a", Type: reflect.TypeOf(&A{}), Autowire: registry.AutowireByType})
//	c.RegisterDefinition(&registry.Definition{Name: "b", Type: reflect.TypeOf(&B{}), Autowire: registry.AutowireByType})
//	a, _ := c.GetBean("a") // succeeds, a.B and b.A reference the same pair
//
// DependsOn entries and constructor parameters are resolved before the
// instance exists, so a cycle made only of those fails with
// CurrentlyInCreationError.
//
// # Aliases
//
//	c.RegisterAlias("db", "primary-db")
//	c.GetBean("primary-db") // resolves through to "db"
//
// # Scopes
//
// "singleton" (default, cached and shared) and "prototype" (fresh instance
// every call, untracked after return) are reserved scope names. Custom
// scopes register a Scope implementation under any other name via
// WithScope.
package nasc
