// Package singleton implements the three-tier singleton cache, the
// create-or-get creation protocol, dependency/containment bookkeeping, and
// reverse-dependency-order destruction at the heart of the bean registry.
package singleton

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Producer is a deferred, non-blocking, side-effect-free function that
// yields the early reference for a bean currently in creation. It must be
// safe to invoke while the registry's singleton mutex is held.
type Producer func() (interface{}, error)

// Factory produces the final instance for a bean. Unlike Producer, it may
// block, run arbitrary user code, and recursively resolve other beans; the
// registry never holds its own mutex while Factory runs.
type Factory func() (interface{}, error)

// Set is a small string-keyed set used to carry "this call's own creation
// chain" (the exclusions set of §4.2.2) across recursive resolution without
// relying on thread-local state.
type Set map[string]struct{}

// With returns a new Set containing every member of s plus name. s is not
// mutated.
func (s Set) With(name string) Set {
	next := make(Set, len(s)+1)
	for k := range s {
		next[k] = struct{}{}
	}
	next[name] = struct{}{}
	return next
}

// Contains reports whether name is a member of s. A nil Set contains
// nothing.
func (s Set) Contains(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s[name]
	return ok
}

// CreationNotAllowedError is returned when a lookup is attempted while the
// registry is tearing down.
type CreationNotAllowedError struct {
	Name string
}

func (e *CreationNotAllowedError) Error() string {
	return fmt.Sprintf("singleton %q currently unavailable: registry is destroying singletons", e.Name)
}

// CurrentlyInCreationError is returned when a cycle is detected that cannot
// be broken by early exposure.
type CurrentlyInCreationError struct {
	Name string
}

func (e *CurrentlyInCreationError) Error() string {
	return fmt.Sprintf("requested bean %q is currently in creation: unresolvable circular reference", e.Name)
}

// AlreadyRegisteredError is returned by RegisterSingleton when a
// final instance already occupies the primary cache for name.
type AlreadyRegisteredError struct {
	Name string
}

func (e *AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("singleton %q already registered; refusing to replace it", e.Name)
}

// record tracks one in-flight creation so unrelated concurrent callers for
// the same name can wait for it instead of racing the factory.
type record struct {
	done  chan struct{}
	value interface{}
	err   error
}

// Registry is the three-tier singleton cache plus creation-in-progress
// tracking. The zero value is not usable; construct with New.
type Registry struct {
	// mu is "the singleton mutex": it guards the three tiers, the
	// registered-name order, the in-creation set, and in-flight creation
	// records. Collaborators needing atomic compound operations across these
	// structures acquire it via Mutex().
	mu sync.Mutex

	primary   map[string]interface{}
	early     map[string]interface{}
	producers map[string]Producer

	registeredNames []string
	inCreation      map[string]struct{}
	inProgress      map[string]*record

	destroying bool

	deps *depGraph
	disp *disposableMap

	logger *zap.Logger
}

// New creates an empty singleton registry. A nil logger disables lifecycle
// logging.
func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		primary:    make(map[string]interface{}),
		early:      make(map[string]interface{}),
		producers:  make(map[string]Producer),
		inCreation: make(map[string]struct{}),
		inProgress: make(map[string]*record),
		deps:       newDepGraph(),
		disp:       newDisposableMap(),
		logger:     logger,
	}
}

// Mutex exposes the singleton mutex as a sync.Locker so extensions (e.g. the
// factorybean package) can participate in the same critical sections
// instead of maintaining a second, easily-desynchronized lock.
func (r *Registry) Mutex() sync.Locker {
	return &r.mu
}

// GetSingleton implements the three-tier lookup of §4.2.1. If allowEarly is
// false, only the primary cache is consulted.
func (r *Registry) GetSingleton(name string, allowEarly bool) (interface{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getSingletonLocked(name, allowEarly)
}

func (r *Registry) getSingletonLocked(name string, allowEarly bool) (interface{}, bool) {
	if v, ok := r.primary[name]; ok {
		return v, true
	}
	if _, inCreation := r.inCreation[name]; !inCreation || !allowEarly {
		return nil, false
	}
	if v, ok := r.early[name]; ok {
		return v, true
	}
	producer, ok := r.producers[name]
	if !ok {
		return nil, false
	}
	// Consume the producer exactly once, while holding the lock.
	delete(r.producers, name)
	value, err := producer()
	if err != nil {
		r.logger.Warn("early reference producer failed", zap.String("bean", name), zap.Error(err))
		return nil, false
	}
	r.early[name] = value
	return value, true
}

// ContainsSingleton reports whether name has a fully-initialized instance in
// the primary cache.
func (r *Registry) ContainsSingleton(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.primary[name]
	return ok
}

// SingletonNames returns the canonical names that have completed creation,
// in registration order.
func (r *Registry) SingletonNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.registeredNames))
	copy(out, r.registeredNames)
	return out
}

// SingletonCount returns the number of fully-initialized singletons.
func (r *Registry) SingletonCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.registeredNames)
}

// RegisterSingleton eagerly publishes an already-constructed instance. It
// fails with AlreadyRegisteredError if name is already present, preserving
// the idempotence boundary: registration never silently replaces.
func (r *Registry) RegisterSingleton(name string, instance interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.primary[name]; exists {
		return &AlreadyRegisteredError{Name: name}
	}
	r.addSingletonLocked(name, instance)
	return nil
}

func (r *Registry) addSingletonLocked(name string, instance interface{}) {
	r.primary[name] = instance
	delete(r.early, name)
	delete(r.producers, name)
	r.registeredNames = append(r.registeredNames, name)
	r.logger.Debug("singleton registered", zap.String("bean", name))
}

// AddProducer registers a tier-3 deferred producer for name, to be consumed
// by the next allow-early lookup. It may only be called while name is in
// the in-creation set (i.e. from within that name's own Factory).
func (r *Registry) AddProducer(name string, p Producer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.primary[name]; exists {
		return fmt.Errorf("cannot register early producer for %q: already fully created", name)
	}
	if _, inCreation := r.inCreation[name]; !inCreation {
		return fmt.Errorf("cannot register early producer for %q: not currently in creation", name)
	}
	r.producers[name] = p
	return nil
}

// RemoveSingleton drops name from every tier and from the in-creation set.
// GetOrCreate clears the early and producer tiers the same way, inline, when
// a creation fails, so no half-created entry survives.
func (r *Registry) RemoveSingleton(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.primary, name)
	delete(r.early, name)
	delete(r.producers, name)
	delete(r.inCreation, name)
	for i, n := range r.registeredNames {
		if n == name {
			r.registeredNames = append(r.registeredNames[:i], r.registeredNames[i+1:]...)
			break
		}
	}
}

// GetOrCreate implements the create-or-get protocol of §4.2.2. exclusions is
// the calling resolution's own creation chain: if name is already in
// progress and is a member of exclusions, this call is part of that very
// creation (a reentrant cycle) and fails fast with
// CurrentlyInCreationError rather than deadlocking. If name is in progress
// and NOT a member of exclusions, this is an unrelated concurrent caller for
// the same name; it waits for the in-flight creation and adopts its result,
// guaranteeing exactly one Factory invocation.
func (r *Registry) GetOrCreate(name string, exclusions Set, factory Factory) (interface{}, error) {
	r.mu.Lock()
	if v, ok := r.primary[name]; ok {
		r.mu.Unlock()
		return v, nil
	}
	if r.destroying {
		r.mu.Unlock()
		return nil, &CreationNotAllowedError{Name: name}
	}
	if rec, inProgress := r.inProgress[name]; inProgress {
		if exclusions.Contains(name) {
			r.mu.Unlock()
			return nil, &CurrentlyInCreationError{Name: name}
		}
		r.mu.Unlock()
		<-rec.done
		return rec.value, rec.err
	}

	r.inCreation[name] = struct{}{}
	rec := &record{done: make(chan struct{})}
	r.inProgress[name] = rec
	r.mu.Unlock()

	r.logger.Debug("singleton creation started", zap.String("bean", name))
	value, err := factory()

	r.mu.Lock()
	if err != nil {
		// Mirrors the IllegalState recheck of §4.2.2 step 5: a reentrant
		// path may have landed a result in the primary cache while this
		// factory was unwinding its own failure.
		if v, ok := r.primary[name]; ok {
			value, err = v, nil
		}
	}

	delete(r.inProgress, name)
	delete(r.inCreation, name)

	if err != nil {
		delete(r.early, name)
		delete(r.producers, name)
	}

	if err == nil {
		if v, exists := r.primary[name]; exists {
			value = v
		} else {
			r.addSingletonLocked(name, value)
		}
	}

	rec.value, rec.err = value, err
	close(rec.done)
	r.mu.Unlock()

	if err != nil {
		r.logger.Debug("singleton creation failed", zap.String("bean", name), zap.Error(err))
	} else {
		r.logger.Debug("singleton creation completed", zap.String("bean", name))
	}
	return value, err
}

// BeginDestruction marks the registry as tearing down; subsequent GetOrCreate
// calls fail with CreationNotAllowedError.
func (r *Registry) BeginDestruction() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroying = true
}

// Destroying reports whether BeginDestruction has been called.
func (r *Registry) Destroying() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.destroying
}
