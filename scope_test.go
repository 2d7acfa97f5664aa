package nasc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nascore/nasc/registry"
)

type disposableService struct {
	disposed bool
}

func (d *disposableService) Dispose() error {
	if d.disposed {
		return errors.New("already disposed")
	}
	d.disposed = true
	return nil
}

type initializableService struct {
	initialized bool
}

func (i *initializableService) Initialize() error {
	i.initialized = true
	return nil
}

type failingDisposable struct{}

func (f *failingDisposable) Dispose() error {
	return errors.New("disposal failed")
}

func TestSimpleScope_ReusesInstanceWithinScope(t *testing.T) {
	scope := NewSimpleScope()

	calls := 0
	factory := func() (interface{}, error) {
		calls++
		return &disposableService{}, nil
	}

	a, err := scope.Get("widget", factory)
	require.NoError(t, err)
	b, err := scope.Get("widget", factory)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, calls)
}

func TestSimpleScope_DistinctNamesDoNotShareAnInstance(t *testing.T) {
	scope := NewSimpleScope()

	a, err := scope.Get("a", func() (interface{}, error) { return &disposableService{}, nil })
	require.NoError(t, err)
	b, err := scope.Get("b", func() (interface{}, error) { return &disposableService{}, nil })
	require.NoError(t, err)

	assert.NotSame(t, a, b)
}

func TestSimpleScope_RemoveEvictsAndReturnsInstance(t *testing.T) {
	scope := NewSimpleScope()
	instance, err := scope.Get("widget", func() (interface{}, error) { return &disposableService{}, nil })
	require.NoError(t, err)

	evicted, ok := scope.Remove("widget")
	assert.True(t, ok)
	assert.Same(t, instance, evicted)

	_, ok = scope.Remove("widget")
	assert.False(t, ok)
}

func TestSimpleScope_FactoryErrorIsNotCached(t *testing.T) {
	scope := NewSimpleScope()

	_, err := scope.Get("widget", func() (interface{}, error) { return nil, errors.New("boom") })
	assert.Error(t, err)

	_, ok := scope.Remove("widget")
	assert.False(t, ok)
}

func TestContainer_CustomScope_ReusedAcrossGetBean(t *testing.T) {
	const jobScope = "job"
	c := New(WithScope(jobScope, NewSimpleScope()))
	require.NoError(t, c.RegisterDefinition(&registry.Definition{
		Name: "widget", Scope: registry.Scope(jobScope), Constructor: func() *disposableService { return &disposableService{} },
	}))

	a, err := c.GetBean("widget")
	require.NoError(t, err)
	b, err := c.GetBean("widget")
	require.NoError(t, err)

	assert.Same(t, a, b)
}

func TestContainer_CustomScope_DistinctScopeInstancesAreIsolated(t *testing.T) {
	const jobScope = "job"
	scopeA := NewSimpleScope()
	scopeB := NewSimpleScope()

	containerA := New(WithScope(jobScope, scopeA))
	containerB := New(WithScope(jobScope, scopeB))

	def := &registry.Definition{Name: "widget", Scope: registry.Scope(jobScope), Constructor: func() *disposableService { return &disposableService{} }}
	require.NoError(t, containerA.RegisterDefinition(def))
	require.NoError(t, containerB.RegisterDefinition(def))

	a, err := containerA.GetBean("widget")
	require.NoError(t, err)
	b, err := containerB.GetBean("widget")
	require.NoError(t, err)

	assert.NotSame(t, a, b)
}

func TestContainer_UnregisteredCustomScopeFails(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterDefinition(&registry.Definition{
		Name: "widget", Scope: registry.Scope("job"), Constructor: func() *disposableService { return &disposableService{} },
	}))

	_, err := c.GetBean("widget")
	var illegal *IllegalStateError
	assert.ErrorAs(t, err, &illegal)
}

func TestInitializable_InitializeCalledAfterConstruction(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterDefinition(&registry.Definition{
		Name: "widget", Scope: registry.ScopeSingleton, Constructor: func() *initializableService { return &initializableService{} },
	}))

	instance, err := c.GetBean("widget")
	require.NoError(t, err)
	assert.True(t, instance.(*initializableService).initialized)
}

func TestDisposable_DisposeCalledOnClose(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterDefinition(&registry.Definition{
		Name: "widget", Scope: registry.ScopeSingleton, Constructor: func() *disposableService { return &disposableService{} },
	}))

	instance, err := c.GetBean("widget")
	require.NoError(t, err)
	require.False(t, instance.(*disposableService).disposed)

	c.Close()
	assert.True(t, instance.(*disposableService).disposed)
}

func TestDisposable_PrototypeNeverRegisteredForDestruction(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterDefinition(&registry.Definition{
		Name: "widget", Scope: registry.ScopePrototype, Constructor: func() *disposableService { return &disposableService{} },
	}))

	instance, err := c.GetBean("widget")
	require.NoError(t, err)

	c.Close()
	assert.False(t, instance.(*disposableService).disposed)
}

func TestDestroyHook_RunsAlongsideDisposable(t *testing.T) {
	c := New()
	hookRan := false
	require.NoError(t, c.RegisterDefinition(&registry.Definition{
		Name:        "widget",
		Scope:       registry.ScopeSingleton,
		Constructor: func() *disposableService { return &disposableService{} },
		DestroyHook: func(interface{}) error { hookRan = true; return nil },
	}))

	instance, err := c.GetBean("widget")
	require.NoError(t, err)

	c.Close()
	assert.True(t, hookRan)
	assert.True(t, instance.(*disposableService).disposed)
}

func TestDisposable_FailingDisposalDoesNotPreventOthers(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterDefinition(&registry.Definition{
		Name: "failing", Scope: registry.ScopeSingleton, Constructor: func() *failingDisposable { return &failingDisposable{} },
	}))
	second := &disposableService{}
	require.NoError(t, c.RegisterDefinition(&registry.Definition{
		Name: "widget", Scope: registry.ScopeSingleton, Constructor: func() *disposableService { return second },
	}))

	_, err := c.GetBean("failing")
	require.NoError(t, err)
	_, err = c.GetBean("widget")
	require.NoError(t, err)

	assert.NotPanics(t, func() { c.Close() })
	assert.True(t, second.disposed)
}
