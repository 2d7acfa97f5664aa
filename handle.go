package nasc

// earlyReferenceHandle names a producer staged for a bean currently in
// creation. Go's garbage collector handles reference cycles between real
// objects on its own; this handle exists purely so the staging step that
// breaks a circular dependency is a named, symmetric operation rather than
// an inline closure scattered across the creation path.
type earlyReferenceHandle struct {
	name string
	raw  interface{}
}

func newEarlyReferenceHandle(name string, raw interface{}) earlyReferenceHandle {
	return earlyReferenceHandle{name: name, raw: raw}
}

// producer returns the singleton.Producer this handle stages: a function
// that hands back the already-constructed instance, consumed at most once
// by a sibling resolving the other side of a cycle.
func (h earlyReferenceHandle) producer() func() (interface{}, error) {
	return func() (interface{}, error) { return h.raw, nil }
}

// AccessControlContext is an optional capability token threaded through
// resolution. A nil context means unrestricted access; a non-nil one is
// consulted by Allow before a name is resolved, letting an embedding
// application gate which names may be resolved from a given call site
// without the façade itself knowing anything about permissions.
type AccessControlContext struct {
	allow func(name string) bool
}

// NewAccessControlContext wraps allow as an AccessControlContext. A nil
// allow function permits everything.
func NewAccessControlContext(allow func(name string) bool) *AccessControlContext {
	return &AccessControlContext{allow: allow}
}

// Allow reports whether name may be created under this context.
func (c *AccessControlContext) Allow(name string) bool {
	if c == nil || c.allow == nil {
		return true
	}
	return c.allow(name)
}
