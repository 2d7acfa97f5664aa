// Package alias provides a thread-safe, bidirectional mapping between
// alternate bean names and their canonical name.
package alias

import (
	"fmt"
	"sync"
)

// CycleError is returned when registering an alias would create a cycle in
// the alias chain.
type CycleError struct {
	Alias  string
	Target string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cannot register alias %q for name %q: would create a cycle", e.Alias, e.Target)
}

// OverrideError is returned when an alias is already bound to a different
// name and overriding has not been allowed.
type OverrideError struct {
	Alias    string
	Existing string
	New      string
}

func (e *OverrideError) Error() string {
	return fmt.Sprintf("alias %q already points to %q, cannot rebind to %q", e.Alias, e.Existing, e.New)
}

// NotFoundError is returned when removing an alias that is not registered.
type NotFoundError struct {
	Alias string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no alias registered for %q", e.Alias)
}

// CollisionError is returned by ResolveAliases when a transformation maps two
// distinct aliases onto the same new string.
type CollisionError struct {
	NewName string
	First   string
	Second  string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("alias transformation collision: both %q and %q map to %q", e.First, e.Second, e.NewName)
}

// Registry is a bidirectional map from alias to canonical name. All mutating
// operations serialize on an internal mutex; reads take a snapshot of the
// backing map under a read lock so callers never observe a half-written
// chain.
type Registry struct {
	mu sync.RWMutex
	// aliasToName maps alias -> the name it was registered against. The name
	// itself may be another alias; canonical resolution follows the chain.
	aliasToName map[string]string
	// allowOverride controls whether re-registering an existing alias to a
	// different target succeeds (true) or fails with OverrideError (false).
	allowOverride bool
}

// New creates an empty alias registry. By default re-registering an alias
// under a different target is rejected; pass AllowOverride to relax that.
func New(opts ...Option) *Registry {
	r := &Registry{
		aliasToName: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// AllowOverride permits RegisterAlias to silently rebind an existing alias
// to a new target instead of failing.
func AllowOverride() Option {
	return func(r *Registry) { r.allowOverride = true }
}

// RegisterAlias binds alias -> name. If alias == name, any existing binding
// for alias is removed and the call is a no-op success. Fails with
// CycleError if alias is already reachable from name through the existing
// chain, or OverrideError if alias is already bound elsewhere and overrides
// are disallowed.
func (r *Registry) RegisterAlias(name, aliasName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if aliasName == name {
		delete(r.aliasToName, aliasName)
		return nil
	}

	if existing, ok := r.aliasToName[aliasName]; ok && existing != name {
		if !r.allowOverride {
			return &OverrideError{Alias: aliasName, Existing: existing, New: name}
		}
	}

	// A cycle exists if name, followed through the alias chain, ever reaches
	// aliasName.
	for cur, ok := name, true; ok; cur, ok = r.aliasToName[cur] {
		if cur == aliasName {
			return &CycleError{Alias: aliasName, Target: name}
		}
	}

	r.aliasToName[aliasName] = name
	return nil
}

// RemoveAlias unbinds alias. Fails with NotFoundError if it was not present.
func (r *Registry) RemoveAlias(aliasName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.aliasToName[aliasName]; !ok {
		return &NotFoundError{Alias: aliasName}
	}
	delete(r.aliasToName, aliasName)
	return nil
}

// IsAlias reports whether name is registered as an alias key.
func (r *Registry) IsAlias(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.aliasToName[name]
	return ok
}

// CanonicalName follows the alias chain starting at name until it reaches a
// name that is not itself an alias, and returns that name. If name is not an
// alias, it is returned unchanged. Termination is guaranteed by the
// acyclicity invariant enforced by RegisterAlias.
func (r *Registry) CanonicalName(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cur := name
	for {
		next, ok := r.aliasToName[cur]
		if !ok {
			return cur
		}
		cur = next
	}
}

// Aliases returns every string whose transitive resolution ends at name, in
// no particular order.
func (r *Registry) Aliases(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for aliasName := range r.aliasToName {
		cur := aliasName
		for {
			next, ok := r.aliasToName[cur]
			if !ok {
				break
			}
			cur = next
		}
		if cur == name {
			out = append(out, aliasName)
		}
	}
	return out
}

// Resolver transforms a string, e.g. for placeholder substitution over a
// frozen set of names.
type Resolver func(string) string

// ResolveAliases applies fn to every key and value in the registry. If a
// transformed key equals its transformed value, the entry is dropped. If two
// distinct original aliases transform to the same new key, ResolveAliases
// fails with CollisionError and leaves the registry unmodified.
func (r *Registry) ResolveAliases(fn Resolver) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[string]string, len(r.aliasToName))
	seenBy := make(map[string]string, len(r.aliasToName))

	for aliasName, target := range r.aliasToName {
		newAlias := fn(aliasName)
		newTarget := fn(target)

		if prior, ok := seenBy[newAlias]; ok && prior != aliasName {
			return &CollisionError{NewName: newAlias, First: prior, Second: aliasName}
		}
		seenBy[newAlias] = aliasName

		if newAlias == newTarget {
			continue
		}
		next[newAlias] = newTarget
	}

	r.aliasToName = next
	return nil
}

// Snapshot returns a copy of the alias -> target map, safe for the caller to
// retain and mutate.
func (r *Registry) Snapshot() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.aliasToName))
	for k, v := range r.aliasToName {
		out[k] = v
	}
	return out
}
