package nasc

import (
	"fmt"
	"reflect"
)

// constructorInfo holds metadata about a parsed constructor function.
// Supported signatures:
//   - func() *T
//   - func() (*T, error)
//   - func(Dep1, Dep2, ...) *T
//   - func(Dep1, Dep2, ...) (*T, error)
type constructorInfo struct {
	fn           reflect.Value
	paramTypes   []reflect.Type
	returnsError bool
}

func parseConstructor(constructor interface{}) (*constructorInfo, error) {
	if constructor == nil {
		return nil, fmt.Errorf("constructor cannot be nil")
	}

	fnValue := reflect.ValueOf(constructor)
	fnType := fnValue.Type()
	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %v", fnType.Kind())
	}

	numOut := fnType.NumOut()
	if numOut == 0 || numOut > 2 {
		return nil, fmt.Errorf("constructor must return (T) or (T, error), got %d return values", numOut)
	}

	returnsError := false
	if numOut == 2 {
		errIface := reflect.TypeOf((*error)(nil)).Elem()
		if !fnType.Out(1).Implements(errIface) {
			return nil, fmt.Errorf("constructor's second return value must be error, got %v", fnType.Out(1))
		}
		returnsError = true
	}

	numParams := fnType.NumIn()
	paramTypes := make([]reflect.Type, numParams)
	for i := 0; i < numParams; i++ {
		paramTypes[i] = fnType.In(i)
	}

	return &constructorInfo{fn: fnValue, paramTypes: paramTypes, returnsError: returnsError}, nil
}

// invokeConstructor resolves info's parameters by type, in the given
// creation chain, and calls the constructor.
func (c *Container) invokeConstructor(info *constructorInfo, chain *creationChain) (interface{}, error) {
	params := make([]reflect.Value, len(info.paramTypes))
	for i, paramType := range info.paramTypes {
		resolved, err := c.resolveByType(paramType, chain)
		if err != nil {
			return nil, fmt.Errorf("resolving constructor parameter %d (%v): %w", i, paramType, err)
		}
		if resolved == nil {
			params[i] = reflect.Zero(paramType)
			continue
		}
		params[i] = reflect.ValueOf(resolved)
	}

	results := info.fn.Call(params)
	instance := results[0].Interface()

	if info.returnsError {
		if errVal := results[1]; !errVal.IsNil() {
			return nil, errVal.Interface().(error)
		}
	}
	return instance, nil
}
