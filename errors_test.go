package nasc

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoSuchBeanError_Message(t *testing.T) {
	err := &NoSuchBeanError{Name: "widget"}
	assert.Contains(t, err.Error(), "widget")
}

func TestNoUniqueBeanError_Message(t *testing.T) {
	type Widget interface{}
	err := &NoUniqueBeanError{
		Type:       reflect.TypeOf((*Widget)(nil)).Elem(),
		Candidates: []string{"a", "b"},
	}
	msg := err.Error()
	assert.Contains(t, msg, "a")
	assert.Contains(t, msg, "b")
	assert.Contains(t, msg, "2 candidates")
}

func TestNotOfRequiredTypeError_Message(t *testing.T) {
	err := &NotOfRequiredTypeError{
		Name:     "widget",
		Required: reflect.TypeOf(""),
		Actual:   reflect.TypeOf(0),
	}
	msg := err.Error()
	assert.Contains(t, msg, "widget")
	assert.Contains(t, msg, "string")
	assert.Contains(t, msg, "int")
}

func TestDefinitionStoreError_Message(t *testing.T) {
	err := &DefinitionStoreError{Name: "widget", Reason: "collides with an alias"}
	msg := err.Error()
	assert.Contains(t, msg, "widget")
	assert.Contains(t, msg, "collides with an alias")
}

func TestIllegalStateError_Message(t *testing.T) {
	err := &IllegalStateError{Msg: "registry already frozen"}
	assert.Contains(t, err.Error(), "registry already frozen")
}

func TestCreationError_UnwrapAndSuppressed(t *testing.T) {
	cause := errors.New("boom")
	suppressed := []error{errors.New("sibling failure")}

	err := NewCreationError("widget", cause, suppressed)

	assert.Equal(t, "widget", err.Name)
	assert.ErrorContains(t, err, "boom")
	assert.ErrorContains(t, err, "1 suppressed")
	assert.Equal(t, suppressed, err.Suppressed())

	unwrapped := errors.Unwrap(err)
	assert.ErrorContains(t, unwrapped, "boom")
}

func TestCreationError_NoSuppressedOmitsCount(t *testing.T) {
	err := NewCreationError("widget", errors.New("boom"), nil)
	assert.NotContains(t, err.Error(), "suppressed")
}

func TestSuppressionBuffer_IgnoresNil(t *testing.T) {
	buf := newSuppressionBuffer()
	buf.add(nil)
	assert.Empty(t, buf.snapshot())
}

func TestSuppressionBuffer_BoundedAtLimit(t *testing.T) {
	buf := newSuppressionBuffer()
	for i := 0; i < suppressedErrorLimit+25; i++ {
		buf.add(errors.New("failure"))
	}
	assert.Len(t, buf.snapshot(), suppressedErrorLimit)
}

func TestSuppressionBuffer_SnapshotIsACopy(t *testing.T) {
	buf := newSuppressionBuffer()
	buf.add(errors.New("first"))

	snap := buf.snapshot()
	snap[0] = errors.New("mutated")

	assert.ErrorContains(t, buf.snapshot()[0], "first")
}

func TestWrapCreationError_PassesThroughKnownKinds(t *testing.T) {
	c := New()
	chain := newCreationChain(c.logger)

	known := []error{
		&NoSuchBeanError{Name: "x"},
		&NoUniqueBeanError{Type: reflect.TypeOf(0)},
		&NotOfRequiredTypeError{Name: "x"},
		&IllegalStateError{Msg: "x"},
	}
	for _, want := range known {
		got := c.wrapCreationError("x", want, chain)
		assert.Same(t, want, got)
	}
}

func TestWrapCreationError_WrapsUnknownKinds(t *testing.T) {
	c := New()
	chain := newCreationChain(c.logger)

	got := c.wrapCreationError("x", errors.New("unexpected"), chain)

	var creationErr *CreationError
	assert.ErrorAs(t, got, &creationErr)
	assert.Equal(t, "x", creationErr.Name)
}
