package singleton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestroySingletons_ReverseOrderRespectsDependents(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.RegisterSingleton("x", struct{}{}))
	require.NoError(t, r.RegisterSingleton("y", struct{}{}))
	require.NoError(t, r.RegisterSingleton("z", struct{}{}))

	// y depends on x, so y must be destroyed before x even though plain
	// reverse registration order would put x right after z.
	r.RegisterDependent("x", "y")

	var order []string
	r.RegisterDisposable("x", func() error { order = append(order, "x"); return nil })
	r.RegisterDisposable("y", func() error { order = append(order, "y"); return nil })
	r.RegisterDisposable("z", func() error { order = append(order, "z"); return nil })

	r.DestroySingletons()

	assert.Equal(t, []string{"z", "y", "x"}, order)
}

func TestDestroySingletons_ClearsEverything(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.RegisterSingleton("a", struct{}{}))
	r.RegisterDisposable("a", func() error { return nil })

	r.DestroySingletons()

	assert.False(t, r.ContainsSingleton("a"))
	assert.Equal(t, 0, r.SingletonCount())
	assert.True(t, r.Destroying())
}

func TestDestroySingleton_NoHookNoDependents_NoSideEffects(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.RegisterSingleton("a", struct{}{}))

	r.DestroySingleton("a")

	assert.False(t, r.ContainsSingleton("a"))
}

func TestDestroySingleton_ErrorsLoggedNotPropagated(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.RegisterSingleton("a", struct{}{}))
	r.RegisterDisposable("a", func() error { return assert.AnError })

	assert.NotPanics(t, func() { r.DestroySingleton("a") })
	assert.False(t, r.ContainsSingleton("a"))
}

func TestDestroySingleton_ContainedBeansDestroyedToo(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.RegisterSingleton("outer", struct{}{}))
	require.NoError(t, r.RegisterSingleton("inner", struct{}{}))
	r.RegisterContained("inner", "outer")

	var destroyed []string
	r.RegisterDisposable("inner", func() error { destroyed = append(destroyed, "inner"); return nil })
	r.RegisterDisposable("outer", func() error { destroyed = append(destroyed, "outer"); return nil })

	r.DestroySingleton("outer")

	// Containment implies a dependency edge inner->outer, so inner (the
	// dependent) is torn down before outer's own teardown hook runs.
	assert.Equal(t, []string{"inner", "outer"}, destroyed)
	assert.False(t, r.ContainsSingleton("inner"))
}

func TestRegisterSingleton_DestroyedThenAbsent(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.RegisterSingleton("a", 1))
	require.True(t, r.ContainsSingleton("a"))
	r.DestroySingletons()
	assert.False(t, r.ContainsSingleton("a"))
}
