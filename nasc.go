// Package nasc ties the alias registry, singleton registry, factory-bean
// registry, and bean definition registry together behind a single
// hierarchical façade: Container.
package nasc

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nascore/nasc/alias"
	"github.com/nascore/nasc/factorybean"
	"github.com/nascore/nasc/registry"
	"github.com/nascore/nasc/singleton"
)

// BeanFactory is the subset of Container's surface a parent factory must
// expose for hierarchical delegation: a name not defined locally is looked
// up here before being reported as missing.
type BeanFactory interface {
	GetBean(name string) (interface{}, error)
	ContainsBean(name string) bool
	IsSingleton(name string) (bool, error)
	IsPrototype(name string) (bool, error)
	GetType(name string) (reflect.Type, error)
	GetAliases(name string) []string
}

// BeanPostProcessor hooks into every bean's initialization, before and
// after its init hook runs, and may substitute the instance it is given
// for another value (e.g. a decorator) as long as proxy generation is not
// what's being implemented — this engine does not support identity-
// changing early exposure, so a post-processor that changes identity
// breaks the circular-reference contract for that bean.
type BeanPostProcessor interface {
	PostProcessBeforeInitialization(name string, bean interface{}) (interface{}, error)
	PostProcessAfterInitialization(name string, bean interface{}) (interface{}, error)
}

// DestructionAwareBeanPostProcessor additionally runs just before a
// singleton bean's own destroy hook.
type DestructionAwareBeanPostProcessor interface {
	BeanPostProcessor
	PostProcessBeforeDestruction(name string, bean interface{}) error
}

// FactoryFunc is the signature for a bean definition's Factory field: an
// escape hatch that bypasses reflective construction entirely. Unlike
// constructor/DependsOn resolution, a factory function's recursive GetBean
// calls start a fresh top-level creation chain — factories are meant for
// beans with no circular dependency on the bean currently under
// construction; constructor injection plus DependsOn is the path that
// participates in the shared chain and can be early-exposed.
type FactoryFunc func(c *Container) (interface{}, error)

// Container is the bean-factory façade: canonical name resolution, the
// three-tier-lookup-first GetBean protocol, parent delegation, the full
// creation pipeline (dependency resolution, instantiation, autowiring,
// post-processing, destruction registration), and factory-bean
// indirection.
type Container struct {
	aliases      *alias.Registry
	definitions  *registry.Registry
	singletons   *singleton.Registry
	factoryBeans *factorybean.Registry

	parent         BeanFactory
	postProcessors []BeanPostProcessor
	scopes         map[string]Scope
	accessControl  *AccessControlContext
	providers      []*providerEntry

	pendingEagerInit []string
	pendingFreeze    bool

	logger          *zap.Logger
	reflectionCache *reflectionCache
}

// New constructs an empty Container. Definitions, aliases, and singletons
// are registered against it before Freeze locks the definition registry
// and eagerly instantiates every non-lazy singleton.
func New(opts ...ContainerOption) *Container {
	c := &Container{
		aliases:         alias.New(),
		definitions:     registry.New(),
		reflectionCache: newReflectionCache(),
		scopes:          make(map[string]Scope),
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.singletons = singleton.New(c.logger)
	c.factoryBeans = factorybean.New(c.singletons)
	return c
}

// RegisterDefinition adds def to the definition registry. Fails if the name
// collides with an existing definition or an existing alias, or if the
// registry is frozen.
func (c *Container) RegisterDefinition(def *registry.Definition) error {
	if def != nil && c.aliases.IsAlias(def.Name) {
		return &DefinitionStoreError{Name: def.Name, Reason: "name is already registered as an alias"}
	}
	return c.definitions.Register(def)
}

// RegisterAlias binds aliasName to name. Fails if aliasName collides with an
// existing bean definition name.
func (c *Container) RegisterAlias(name, aliasName string) error {
	if c.definitions.IsNameInUse(aliasName) {
		return &DefinitionStoreError{Name: aliasName, Reason: "name is already registered as a bean definition"}
	}
	return c.aliases.RegisterAlias(name, aliasName)
}

// RegisterSingleton eagerly publishes an already-constructed instance under
// name, bypassing the definition/constructor pipeline entirely.
func (c *Container) RegisterSingleton(name string, instance interface{}) error {
	return c.singletons.RegisterSingleton(name, instance)
}

// Freeze locks the definition registry against further Register/Remove
// calls and eagerly instantiates every non-lazy singleton definition plus
// any names named by a loaded ContainerConfig's EagerInit list.
func (c *Container) Freeze() error {
	c.definitions.Freeze()

	names := append([]string{}, c.pendingEagerInit...)
	for _, name := range c.definitions.Names() {
		def, err := c.definitions.Get(name)
		if err != nil {
			continue
		}
		if def.Scope == registry.ScopeSingleton && !def.Lazy {
			names = append(names, name)
		}
	}
	for _, name := range names {
		if _, err := c.GetBean(name); err != nil {
			return err
		}
	}
	return nil
}

// Close tears down every singleton in reverse dependency/registration order.
func (c *Container) Close() {
	c.singletons.DestroySingletons()
}

// canonicalName strips any factory-dereference prefix and follows the alias
// chain to the underlying registered name.
func (c *Container) canonicalName(name string) string {
	return c.aliases.CanonicalName(splitFactoryPrefix(name).bare)
}

func (c *Container) containsLocalBean(canonical string) bool {
	return c.definitions.Contains(canonical) || c.singletons.ContainsSingleton(canonical)
}

// ContainsLocalBean reports whether name resolves to a definition or
// published singleton in this container specifically, without consulting a
// parent factory.
func (c *Container) ContainsLocalBean(name string) bool {
	return c.containsLocalBean(c.canonicalName(name))
}

// ContainsBean reports whether name resolves locally or, failing that,
// through the parent factory chain.
func (c *Container) ContainsBean(name string) bool {
	canonical := c.canonicalName(name)
	if c.containsLocalBean(canonical) {
		return true
	}
	if c.parent != nil {
		return c.parent.ContainsBean(name)
	}
	return false
}

// IsSingleton reports whether name names a singleton-scoped bean.
func (c *Container) IsSingleton(name string) (bool, error) {
	canonical := c.canonicalName(name)
	if def, err := c.definitions.Get(canonical); err == nil {
		return def.Scope == registry.ScopeSingleton, nil
	}
	if c.singletons.ContainsSingleton(canonical) {
		return true, nil
	}
	if c.parent != nil {
		return c.parent.IsSingleton(name)
	}
	return false, &NoSuchBeanError{Name: canonical}
}

// IsPrototype reports whether name names a prototype-scoped bean.
func (c *Container) IsPrototype(name string) (bool, error) {
	canonical := c.canonicalName(name)
	if def, err := c.definitions.Get(canonical); err == nil {
		return def.Scope == registry.ScopePrototype, nil
	}
	if c.parent != nil {
		return c.parent.IsPrototype(name)
	}
	return false, &NoSuchBeanError{Name: canonical}
}

// IsTypeMatch reports whether name's advertised or actual type is
// assignable to t.
func (c *Container) IsTypeMatch(name string, t reflect.Type) (bool, error) {
	typ, err := c.GetType(name)
	if err != nil {
		return false, err
	}
	if typ == nil || t == nil {
		return false, nil
	}
	return typ == t || typ.AssignableTo(t), nil
}

// GetType reports name's advertised type (from its definition) or, failing
// that, the runtime type of its published singleton instance.
func (c *Container) GetType(name string) (reflect.Type, error) {
	canonical := c.canonicalName(name)
	if def, err := c.definitions.Get(canonical); err == nil && def.Type != nil {
		return def.Type, nil
	}
	if v, ok := c.singletons.GetSingleton(canonical, false); ok {
		return reflect.TypeOf(v), nil
	}
	if c.parent != nil {
		return c.parent.GetType(name)
	}
	return nil, &NoSuchBeanError{Name: canonical}
}

// GetAliases returns every alias that resolves to name.
func (c *Container) GetAliases(name string) []string {
	return c.aliases.Aliases(c.canonicalName(name))
}

// GetBean resolves name to an instance: a three-tier singleton lookup
// first, then parent delegation if the name is unknown locally, then the
// full creation pipeline for a local definition.
func (c *Container) GetBean(name string) (interface{}, error) {
	c.applyPendingFreeze()
	return c.getBean(name, newCreationChain(c.logger))
}

// applyPendingFreeze lazily freezes the definition registry on first lookup
// when a loaded ContainerConfig asked for it, since Freeze must run after
// every RegisterDefinition call and WithConfig is applied at construction
// time, before any of those calls have happened.
func (c *Container) applyPendingFreeze() {
	if !c.pendingFreeze {
		return
	}
	c.pendingFreeze = false
	if err := c.Freeze(); err != nil {
		c.logger.Warn("deferred freeze from loaded config failed", zap.Error(err))
	}
}

// GetBeanContext behaves like GetBean, but stamps (or reuses) a resolution
// trace ID carried on ctx and attaches it to the log lines the façade emits
// through this call's creation chain. The singleton registry's own lifecycle
// lines use the container logger and do not carry the trace ID.
func (c *Container) GetBeanContext(ctx context.Context, name string) (interface{}, error) {
	c.applyPendingFreeze()
	traceID := resolutionTraceID(ctx)
	logger := c.logger.With(zap.String("trace", traceID.String()))
	return c.getBean(name, newCreationChain(logger))
}

type traceIDKey struct{}

// resolutionTraceID extracts a trace ID previously attached to ctx via
// WithResolutionTraceID, or mints a new one.
func resolutionTraceID(ctx context.Context) uuid.UUID {
	if ctx != nil {
		if v, ok := ctx.Value(traceIDKey{}).(uuid.UUID); ok {
			return v
		}
	}
	return uuid.New()
}

// WithResolutionTraceID attaches id to ctx for a subsequent GetBeanContext
// call, letting a caller correlate its own logs with the container's.
func WithResolutionTraceID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, traceIDKey{}, id)
}

// GetBeanAs resolves name and fails with NotOfRequiredTypeError unless the
// result is assignable to t.
func (c *Container) GetBeanAs(name string, t reflect.Type) (interface{}, error) {
	obj, err := c.GetBean(name)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return obj, nil
	}
	actual := reflect.TypeOf(obj)
	if obj == nil || !actual.AssignableTo(t) {
		return nil, &NotOfRequiredTypeError{Name: c.canonicalName(name), Required: t, Actual: actual}
	}
	return obj, nil
}

// GetBeanByType resolves the unique definition advertising type t. Fails
// with NoUniqueBeanError if more than one definition matches and none is
// primary. If no definition matches, it returns the first registered
// singleton assignable to t, or fails with NoSuchBeanError if there is none.
func (c *Container) GetBeanByType(t reflect.Type) (interface{}, error) {
	return c.resolveByType(t, newCreationChain(c.logger))
}

// GetBeansByTag resolves every definition carrying tag among its Tags.
func (c *Container) GetBeansByTag(tag string) ([]interface{}, error) {
	defs := c.definitions.ByTag(tag)
	out := make([]interface{}, 0, len(defs))
	for _, def := range defs {
		obj, err := c.GetBean(def.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

// GetBeanWithArgs bypasses normal dependency resolution for a single
// prototype-scoped bean's constructor parameters, substituting args
// positionally. Only valid for prototype-scoped definitions with a
// Constructor.
func (c *Container) GetBeanWithArgs(name string, args ...interface{}) (interface{}, error) {
	canonical := c.canonicalName(name)
	def, err := c.definitions.Get(canonical)
	if err != nil {
		return nil, &NoSuchBeanError{Name: canonical}
	}
	if def.Scope != registry.ScopePrototype {
		return nil, &IllegalStateError{Msg: fmt.Sprintf("explicit constructor arguments only supported for prototype-scoped beans; %q is %q", canonical, def.Scope)}
	}
	if def.Constructor == nil {
		return nil, &IllegalStateError{Msg: fmt.Sprintf("bean %q has no constructor to pass explicit arguments to", canonical)}
	}

	info, err := parseConstructor(def.Constructor)
	if err != nil {
		return nil, err
	}
	if len(args) != len(info.paramTypes) {
		return nil, &IllegalStateError{Msg: fmt.Sprintf("bean %q constructor expects %d argument(s), got %d", canonical, len(info.paramTypes), len(args))}
	}

	params := make([]reflect.Value, len(args))
	for i, a := range args {
		params[i] = reflect.ValueOf(a)
	}
	results := info.fn.Call(params)
	instance := results[0].Interface()
	if info.returnsError {
		if ev := results[1]; !ev.IsNil() {
			return nil, ev.Interface().(error)
		}
	}

	chain := newCreationChain(c.logger).with(canonical)
	if def.Autowire == registry.AutowireByType {
		if err := c.autowireFields(instance, chain); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

func (c *Container) getBean(requested string, chain *creationChain) (interface{}, error) {
	t := splitFactoryPrefix(requested)
	canonical := c.aliases.CanonicalName(t.bare)

	if c.accessControl != nil && !c.accessControl.Allow(canonical) {
		return nil, &IllegalStateError{Msg: fmt.Sprintf("access denied for bean %q", canonical)}
	}

	if inst, ok := c.singletons.GetSingleton(canonical, true); ok {
		return c.finishLookup(canonical, inst, t.wantsFactory, chain)
	}

	if !c.containsLocalBean(canonical) {
		if c.parent != nil {
			return c.parent.GetBean(requested)
		}
		return nil, &NoSuchBeanError{Name: canonical}
	}

	def, err := c.definitions.Get(canonical)
	if err != nil {
		return nil, &NoSuchBeanError{Name: canonical}
	}

	var instance interface{}
	switch def.Scope {
	case registry.ScopePrototype:
		instance, err = c.createPrototype(canonical, def, chain)
	case registry.ScopeSingleton:
		instance, err = c.createSingleton(canonical, def, chain)
	default:
		instance, err = c.createScoped(canonical, def, chain)
	}
	if err != nil {
		return nil, err
	}
	return c.finishLookup(canonical, instance, t.wantsFactory, chain)
}

// finishLookup implements the factory-bean indirection routing of §4.4: a
// resolved value that implements FactoryBean is, unless the caller asked
// for the factory itself via the "&" prefix, routed through the
// factory-bean registry to obtain its product.
func (c *Container) finishLookup(canonical string, instance interface{}, wantsFactory bool, chain *creationChain) (interface{}, error) {
	fb, isFactoryBean := instance.(factorybean.FactoryBean)
	if !isFactoryBean {
		if wantsFactory {
			return nil, &NotOfRequiredTypeError{Name: canonical, Required: reflect.TypeOf((*factorybean.FactoryBean)(nil)).Elem(), Actual: reflect.TypeOf(instance)}
		}
		return instance, nil
	}
	if wantsFactory {
		return instance, nil
	}

	inCreation := func() bool { return chain.contains(canonical) }
	product, err := c.factoryBeans.GetObjectFromFactory(fb, canonical, true, inCreation, c.postProcessProduct)
	if err != nil {
		return nil, err
	}
	if product == factorybean.Null {
		return nil, nil
	}
	return product, nil
}

func (c *Container) postProcessProduct(name string, object interface{}) (interface{}, error) {
	return c.applyPostProcessorsAfterInit(name, object)
}

func (c *Container) createSingleton(name string, def *registry.Definition, chain *creationChain) (interface{}, error) {
	instance, err := c.singletons.GetOrCreate(name, chain.names, func() (interface{}, error) {
		return c.instantiateAndWire(name, def, chain.with(name))
	})
	if err != nil {
		return nil, c.wrapCreationError(name, err, chain)
	}
	return instance, nil
}

// createPrototype performs no caching: per §9, prototype scope never
// touches the singleton registry, so cycle detection here is the façade's
// own creationChain membership check rather than GetOrCreate's exclusions
// mechanism.
func (c *Container) createPrototype(name string, def *registry.Definition, chain *creationChain) (interface{}, error) {
	if chain.contains(name) {
		return nil, &singleton.CurrentlyInCreationError{Name: name}
	}
	instance, err := c.instantiateAndWire(name, def, chain.with(name))
	if err != nil {
		return nil, c.wrapCreationError(name, err, chain)
	}
	return instance, nil
}

func (c *Container) createScoped(name string, def *registry.Definition, chain *creationChain) (interface{}, error) {
	scope, ok := c.scopes[string(def.Scope)]
	if !ok {
		return nil, &IllegalStateError{Msg: fmt.Sprintf("no scope registered for name %q", def.Scope)}
	}
	if chain.contains(name) {
		return nil, &singleton.CurrentlyInCreationError{Name: name}
	}
	instance, err := scope.Get(name, func() (interface{}, error) {
		return c.instantiateAndWire(name, def, chain.with(name))
	})
	if err != nil {
		return nil, c.wrapCreationError(name, err, chain)
	}
	return instance, nil
}

// wrapCreationError leaves the well-known, already-typed error kinds alone
// and wraps everything else as a CreationError carrying this call's
// suppressed sibling failures, then records itself as suppressed for any
// further sibling branch still unwinding in the same top-level call.
func (c *Container) wrapCreationError(name string, err error, chain *creationChain) error {
	switch err.(type) {
	case *singleton.CurrentlyInCreationError, *singleton.CreationNotAllowedError,
		*NoSuchBeanError, *NoUniqueBeanError, *NotOfRequiredTypeError, *IllegalStateError:
		return err
	}
	wrapped := NewCreationError(name, err, chain.suppressed.snapshot())
	chain.suppressed.add(wrapped)
	return wrapped
}

func (c *Container) instantiateAndWire(name string, def *registry.Definition, chain *creationChain) (instance interface{}, err error) {
	for _, dep := range def.DependsOn {
		depCanonical := c.canonicalName(dep)
		c.singletons.RegisterDependent(depCanonical, name)
		if _, derr := c.getBean(dep, chain); derr != nil {
			return nil, derr
		}
	}

	switch {
	case def.Factory != nil:
		instance, err = c.invokeFactory(def)
	case def.Constructor != nil:
		var info *constructorInfo
		info, err = parseConstructor(def.Constructor)
		if err == nil {
			instance, err = c.invokeConstructor(info, chain)
		}
	default:
		instance, err = c.instantiateZeroValue(def)
	}
	if err != nil {
		return nil, err
	}

	if def.Scope == registry.ScopeSingleton {
		handle := newEarlyReferenceHandle(name, instance)
		if perr := c.singletons.AddProducer(name, handle.producer()); perr != nil {
			chain.logger.Debug("early exposure unavailable", zap.String("bean", name), zap.Error(perr))
		}
	}

	if def.Autowire == registry.AutowireByType {
		if werr := c.autowireFields(instance, chain); werr != nil {
			return nil, werr
		}
	}

	instance, err = c.applyPostProcessorsBeforeInit(name, instance)
	if err != nil {
		return nil, err
	}

	if initable, ok := instance.(Initializable); ok {
		if ierr := initable.Initialize(); ierr != nil {
			return nil, ierr
		}
	}
	if def.InitHook != nil {
		if ierr := def.InitHook(instance); ierr != nil {
			return nil, ierr
		}
	}

	instance, err = c.applyPostProcessorsAfterInit(name, instance)
	if err != nil {
		return nil, err
	}

	c.registerDestruction(name, def, instance)

	return instance, nil
}

func (c *Container) invokeFactory(def *registry.Definition) (interface{}, error) {
	fn, ok := def.Factory.(FactoryFunc)
	if !ok {
		return nil, fmt.Errorf("factory for bean %q has unsupported type %T, want nasc.FactoryFunc", def.Name, def.Factory)
	}
	return fn(c)
}

func (c *Container) instantiateZeroValue(def *registry.Definition) (interface{}, error) {
	if def.Type == nil {
		return nil, &DefinitionStoreError{Name: def.Name, Reason: "definition has neither Constructor nor Factory nor Type to instantiate"}
	}
	if def.Type.Kind() == reflect.Ptr {
		return reflect.New(def.Type.Elem()).Interface(), nil
	}
	return reflect.New(def.Type).Elem().Interface(), nil
}

func (c *Container) registerDestruction(name string, def *registry.Definition, instance interface{}) {
	if def.Scope != registry.ScopeSingleton {
		return
	}
	disposable, isDisposable := instance.(Disposable)
	daps := c.destructionAwarePostProcessors()
	if def.DestroyHook == nil && !isDisposable && len(daps) == 0 {
		return
	}

	c.singletons.RegisterDisposable(name, func() error {
		var errs []error
		for _, pp := range daps {
			if err := pp.PostProcessBeforeDestruction(name, instance); err != nil {
				errs = append(errs, err)
			}
		}
		if isDisposable {
			if err := disposable.Dispose(); err != nil {
				errs = append(errs, err)
			}
		}
		if def.DestroyHook != nil {
			if err := def.DestroyHook(instance); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) == 0 {
			return nil
		}
		return fmt.Errorf("destruction errors for %q: %v", name, errs)
	})
}

func (c *Container) applyPostProcessorsBeforeInit(name string, bean interface{}) (interface{}, error) {
	var err error
	for _, pp := range c.postProcessors {
		bean, err = pp.PostProcessBeforeInitialization(name, bean)
		if err != nil {
			return nil, err
		}
	}
	return bean, nil
}

func (c *Container) applyPostProcessorsAfterInit(name string, bean interface{}) (interface{}, error) {
	var err error
	for _, pp := range c.postProcessors {
		bean, err = pp.PostProcessAfterInitialization(name, bean)
		if err != nil {
			return nil, err
		}
	}
	return bean, nil
}

func (c *Container) destructionAwarePostProcessors() []DestructionAwareBeanPostProcessor {
	var out []DestructionAwareBeanPostProcessor
	for _, pp := range c.postProcessors {
		if d, ok := pp.(DestructionAwareBeanPostProcessor); ok {
			out = append(out, d)
		}
	}
	return out
}

func (c *Container) resolveByType(t reflect.Type, chain *creationChain) (interface{}, error) {
	defs := c.definitions.ByType(t)
	if len(defs) == 0 {
		if v, ok := c.singletonByType(t); ok {
			return v, nil
		}
		return nil, &NoSuchBeanError{Name: t.String()}
	}
	if len(defs) > 1 && !defs[0].Primary {
		names := make([]string, len(defs))
		for i, d := range defs {
			names[i] = d.Name
		}
		return nil, &NoUniqueBeanError{Type: t, Candidates: names}
	}
	return c.getBean(defs[0].Name, chain)
}

func (c *Container) singletonByType(t reflect.Type) (interface{}, bool) {
	for _, name := range c.singletons.SingletonNames() {
		v, ok := c.singletons.GetSingleton(name, false)
		if ok && reflect.TypeOf(v) != nil && reflect.TypeOf(v).AssignableTo(t) {
			return v, true
		}
	}
	return nil, false
}
