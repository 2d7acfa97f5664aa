package singleton

import (
	"sync"

	"go.uber.org/zap"
)

// DestroyFunc tears down one bean. Errors are logged, never propagated: per
// §7, destruction errors must not block best-effort teardown of the rest of
// the graph.
type DestroyFunc func() error

// disposableMap is an insertion-ordered, independently-locked map from
// canonical name to teardown callback.
type disposableMap struct {
	mu    sync.Mutex
	hooks map[string]DestroyFunc
	order []string
}

func newDisposableMap() *disposableMap {
	return &disposableMap{hooks: make(map[string]DestroyFunc)}
}

func (d *disposableMap) register(name string, fn DestroyFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.hooks[name]; !exists {
		d.order = append(d.order, name)
	}
	d.hooks[name] = fn
}

func (d *disposableMap) take(name string) (DestroyFunc, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn, ok := d.hooks[name]
	if ok {
		delete(d.hooks, name)
		for i, n := range d.order {
			if n == name {
				d.order = append(d.order[:i], d.order[i+1:]...)
				break
			}
		}
	}
	return fn, ok
}

func (d *disposableMap) orderedNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// RegisterDisposable records a teardown callback for name, to be invoked
// during destruction.
func (r *Registry) RegisterDisposable(name string, fn DestroyFunc) {
	r.disp.register(name, fn)
}

// HasDisposable reports whether name has a teardown callback registered.
func (r *Registry) HasDisposable(name string) bool {
	r.disp.mu.Lock()
	defer r.disp.mu.Unlock()
	_, ok := r.disp.hooks[name]
	return ok
}

// DestroySingleton tears down one bean per §4.2.5: removes it from every
// cache tier and the registered-name order, removes its disposable record,
// recursively destroys its dependents first, invokes its own teardown hook
// (logging, never propagating, any error), recursively destroys its
// contained beans, then scrubs it from the dependency graph.
func (r *Registry) DestroySingleton(name string) {
	r.mu.Lock()
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
	r.mu.Unlock()

	fn, hadHook := r.disp.take(name)

	for _, dependent := range r.deps.dependentsSnapshot(name) {
		r.DestroySingleton(dependent)
	}

	if hadHook {
		if err := fn(); err != nil {
			r.logger.Warn("bean destruction hook failed", zap.String("bean", name), zap.Error(err))
		}
	}

	for _, inner := range r.deps.containedSnapshot(name) {
		r.DestroySingleton(inner)
	}

	r.deps.forget(name)
}

// DestroySingletons tears down every singleton in reverse registration
// order, marking destruction in progress first so no new creation can start
// mid-teardown, then clears every auxiliary structure.
func (r *Registry) DestroySingletons() {
	r.BeginDestruction()

	names := r.disp.orderedNames()
	for i := len(names) - 1; i >= 0; i-- {
		r.DestroySingleton(names[i])
	}

	// Anything still cached without a disposable hook (no teardown
	// registered) is dropped directly, in reverse registration order.
	r.mu.Lock()
	remaining := make([]string, len(r.registeredNames))
	copy(remaining, r.registeredNames)
	r.mu.Unlock()
	for i := len(remaining) - 1; i >= 0; i-- {
		r.DestroySingleton(remaining[i])
	}

	r.mu.Lock()
	r.primary = make(map[string]interface{})
	r.early = make(map[string]interface{})
	r.producers = make(map[string]Producer)
	r.registeredNames = nil
	r.inCreation = make(map[string]struct{})
	r.inProgress = make(map[string]*record)
	r.mu.Unlock()
}
