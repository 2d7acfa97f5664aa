package nasc

import "sync"

// Disposable is implemented by beans that need explicit teardown beyond
// (or instead of) a definition's DestroyHook. Both are honored: if a bean
// implements Disposable, its Dispose is invoked alongside any DestroyHook
// during destruction.
type Disposable interface {
	Dispose() error
}

// Initializable is implemented by beans that want a simple post-construction
// hook without a caller having to set InitHook on the definition explicitly.
type Initializable interface {
	Initialize() error
}

// Scope is a pluggable instance cache for a custom scope name. "singleton"
// and "prototype" are handled directly by the façade and never reach a
// Scope implementation; any other registry.Scope value is looked up here.
type Scope interface {
	// Get returns the cached instance for name, creating it via factory on
	// first request within this scope.
	Get(name string, factory func() (interface{}, error)) (interface{}, error)
	// Remove evicts name from the scope's cache, returning the evicted
	// instance if one was present.
	Remove(name string) (interface{}, bool)
}

// simpleScope is a minimal Scope: one flat instance cache with no nested
// child scopes, grounded in the teacher's per-scope instance map but
// stripped of the type-keyed / parent-delegating machinery that belonged to
// the teacher's own Lifetime model instead of this registry's Scope names.
type simpleScope struct {
	mu        sync.Mutex
	instances map[string]interface{}
}

// NewSimpleScope creates a Scope backed by a flat, name-keyed instance
// cache. Suitable for request-scoped or job-scoped custom lifetimes
// registered via WithScope.
func NewSimpleScope() Scope {
	return &simpleScope{instances: make(map[string]interface{})}
}

func (s *simpleScope) Get(name string, factory func() (interface{}, error)) (interface{}, error) {
	s.mu.Lock()
	if v, ok := s.instances[name]; ok {
		s.mu.Unlock()
		return v, nil
	}
	s.mu.Unlock()

	v, err := factory()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.instances[name]; ok {
		return existing, nil
	}
	s.instances[name] = v
	return v, nil
}

func (s *simpleScope) Remove(name string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.instances[name]
	delete(s.instances, name)
	return v, ok
}
