// Package factorybean implements the factory-bean registry extension of
// §4.3: a cache for the products of factory-bean indirection, routed
// through a caller-supplied post-processing pipeline.
package factorybean

import (
	"github.com/nascore/nasc/singleton"
)

// FactoryBean is anything that produces another object on demand instead of
// being the final product itself.
type FactoryBean interface {
	// IsSingleton reports whether this factory-bean's product should be
	// cached and reused.
	IsSingleton() bool
	// Produce builds the product. It may return a nil interface value to
	// mean "no object available".
	Produce() (interface{}, error)
}

// NullBean is the sentinel substituted for a nil product produced outside a
// creation frame, preserving identity semantics for downstream nil checks:
// callers can compare against this exact value instead of juggling
// untyped nils behind interfaces.
type NullBean struct{}

// Null is the shared null-bean sentinel.
var Null = &NullBean{}

// PostProcess runs the caller's post-processing pipeline over a freshly
// produced object and returns the (possibly wrapped) result.
type PostProcess func(name string, object interface{}) (interface{}, error)

// CurrentlyInCreationError mirrors singleton.CurrentlyInCreationError for
// the specific case of a factory-bean yielding a nil product while its name
// is in creation.
type CurrentlyInCreationError struct {
	Name string
}

func (e *CurrentlyInCreationError) Error() string {
	return "factory-bean " + e.Name + " produced no object while currently in creation"
}

// Registry caches factory-bean products, keyed by the factory-bean's
// canonical name, layered on top of an underlying singleton.Registry.
type Registry struct {
	underlying *singleton.Registry

	products map[string]interface{}
}

// New creates a factory-bean registry backed by underlying.
func New(underlying *singleton.Registry) *Registry {
	return &Registry{
		underlying: underlying,
		products:   make(map[string]interface{}),
	}
}

// GetObjectFromFactory implements §4.3's get-object-from-factory. name is
// the factory-bean's own canonical name; inCreation reports whether name is
// currently undergoing its own creation (used to decide whether
// post-processing may run right now or must be deferred).
func (r *Registry) GetObjectFromFactory(factory FactoryBean, name string, shouldPostProcess bool, inCreation func() bool, postProcess PostProcess) (interface{}, error) {
	if factory.IsSingleton() && r.underlying.ContainsSingleton(name) {
		return r.getSingletonProduct(factory, name, shouldPostProcess, inCreation, postProcess)
	}

	object, err := factory.Produce()
	if err != nil {
		return nil, err
	}
	object, err = r.substituteNil(object, name, inCreation)
	if err != nil {
		return nil, err
	}

	if shouldPostProcess {
		object, err = postProcess(name, object)
		if err != nil {
			return nil, err
		}
	}
	return object, nil
}

func (r *Registry) getSingletonProduct(factory FactoryBean, name string, shouldPostProcess bool, inCreation func() bool, postProcess PostProcess) (interface{}, error) {
	r.underlying.Mutex().Lock()
	if cached, ok := r.products[name]; ok {
		r.underlying.Mutex().Unlock()
		return cached, nil
	}
	r.underlying.Mutex().Unlock()

	object, err := factory.Produce()
	if err != nil {
		return nil, err
	}

	r.underlying.Mutex().Lock()
	if cached, ok := r.products[name]; ok {
		// A reentrant call already populated the cache; discard our product
		// and hand back the one already published.
		r.underlying.Mutex().Unlock()
		return cached, nil
	}
	r.underlying.Mutex().Unlock()

	object, err = r.substituteNil(object, name, inCreation)
	if err != nil {
		return nil, err
	}

	if shouldPostProcess && !inCreation() {
		var ppErr error
		object, ppErr = postProcess(name, object)
		if ppErr != nil {
			return nil, ppErr
		}
	} else if shouldPostProcess {
		// In creation: hand back the non-post-processed object without
		// caching it, per §4.3.
		return object, nil
	}

	if r.underlying.ContainsSingleton(name) {
		r.underlying.Mutex().Lock()
		r.products[name] = object
		r.underlying.Mutex().Unlock()
	}

	return object, nil
}

func (r *Registry) substituteNil(object interface{}, name string, inCreation func() bool) (interface{}, error) {
	if object != nil {
		return object, nil
	}
	if inCreation() {
		return nil, &CurrentlyInCreationError{Name: name}
	}
	return Null, nil
}

// RemoveProduct drops the cached product for name. Destroying the underlying
// singleton with the same name does not call it, so a product stays cached
// until RemoveProduct is called.
func (r *Registry) RemoveProduct(name string) {
	r.underlying.Mutex().Lock()
	defer r.underlying.Mutex().Unlock()
	delete(r.products, name)
}
