package nasc

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// NoSuchBeanError is returned when a requested name resolves to no
// definition, no registered singleton, and no parent factory willing to
// serve it.
type NoSuchBeanError struct {
	Name string
}

func (e *NoSuchBeanError) Error() string {
	return fmt.Sprintf("no bean named %q is defined", e.Name)
}

// NoUniqueBeanError is returned by a type-based lookup when more than one
// candidate matches and none is marked primary.
type NoUniqueBeanError struct {
	Type       reflect.Type
	Candidates []string
}

func (e *NoUniqueBeanError) Error() string {
	return fmt.Sprintf("no unique bean of type %v: %d candidates (%s), none marked primary",
		e.Type, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

// NotOfRequiredTypeError is returned when a resolved bean cannot be used as
// the type the caller requested.
type NotOfRequiredTypeError struct {
	Name     string
	Required reflect.Type
	Actual   reflect.Type
}

func (e *NotOfRequiredTypeError) Error() string {
	return fmt.Sprintf("bean %q is of type %v, not assignable to required type %v", e.Name, e.Actual, e.Required)
}

// DefinitionStoreError is returned when a bean definition cannot be
// registered, removed, or looked up for reasons outside the definition
// registry's own error types (e.g. a name collision with an existing
// alias).
type DefinitionStoreError struct {
	Name   string
	Reason string
}

func (e *DefinitionStoreError) Error() string {
	return fmt.Sprintf("bean definition store error for %q: %s", e.Name, e.Reason)
}

// IllegalStateError is returned when an operation is attempted against the
// façade in a state that makes it meaningless, e.g. resolving a name the
// access-control context denies, a custom scope with no registered Scope, or
// explicit constructor arguments for a bean that is not prototype-scoped.
// Registering a definition after Freeze fails with registry.FrozenError
// instead, and WithParent replaces any earlier parent without an error.
type IllegalStateError struct {
	Msg string
}

func (e *IllegalStateError) Error() string {
	return "illegal container state: " + e.Msg
}

// CreationError wraps the failure of a single bean's creation with its
// canonical name and any suppressed causes accumulated from sibling
// creations started (and abandoned) within the same top-level GetBean call.
// The wrapped cause (see Unwrap) carries a stack trace captured with
// github.com/pkg/errors at the point of failure; formatting that cause with
// %+v prints it. Error itself formats the cause with %v and prints no trace.
type CreationError struct {
	Name       string
	cause      error
	suppressed []error
}

// NewCreationError wraps cause as the creation failure for name, capturing a
// stack trace at the call site.
func NewCreationError(name string, cause error, suppressed []error) *CreationError {
	return &CreationError{
		Name:       name,
		cause:      errors.WithStack(cause),
		suppressed: suppressed,
	}
}

func (e *CreationError) Error() string {
	msg := fmt.Sprintf("error creating bean %q: %v", e.Name, e.cause)
	if len(e.suppressed) > 0 {
		msg += fmt.Sprintf(" (%d suppressed related error(s))", len(e.suppressed))
	}
	return msg
}

// Unwrap returns the primary cause, making CreationError compatible with
// errors.Is/errors.As.
func (e *CreationError) Unwrap() error { return e.cause }

// Suppressed returns the related errors recorded while this bean's creation
// was in flight, most commonly from sibling branches of the same resolution
// that failed but were not the branch ultimately reported.
func (e *CreationError) Suppressed() []error { return e.suppressed }
