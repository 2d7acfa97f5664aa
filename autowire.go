package nasc

import (
	"fmt"
	"reflect"
	"strings"
)

// injectTagOptions are the parsed contents of an `inject:"..."` struct tag.
type injectTagOptions struct {
	skip     bool   // `inject:"-"`: never inject this field
	optional bool   // don't fail if the named/typed bean can't be resolved
	name     string // explicit bean name; empty means "resolve by field type"
}

// parseInjectTag parses an inject struct tag. Supported forms:
//   - `inject:""`              - resolve by field type
//   - `inject:"beanName"`      - resolve the given canonical name
//   - `inject:"optional"`      - resolve by type, skip silently if absent
//   - `inject:"beanName,optional"` - combine a name with optional
func parseInjectTag(tag string) injectTagOptions {
	var opts injectTagOptions
	if tag == "-" {
		opts.skip = true
		return opts
	}
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
			continue
		case part == "optional":
			opts.optional = true
		case strings.HasPrefix(part, "name="):
			opts.name = strings.TrimPrefix(part, "name=")
		default:
			opts.name = part
		}
	}
	return opts
}

type injectableField struct {
	field   reflect.StructField
	value   reflect.Value
	options injectTagOptions
}

func (c *Container) injectableFields(structValue reflect.Value) []injectableField {
	var out []injectableField

	typ := structValue.Type()
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
		structValue = structValue.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return out
	}

	for _, cached := range c.reflectionCache.getFieldInfo(typ) {
		if !cached.isInjectable {
			continue
		}
		opts := parseInjectTag(cached.tag.Get("inject"))
		if opts.skip {
			continue
		}
		out = append(out, injectableField{
			field:   typ.Field(cached.index),
			value:   structValue.Field(cached.index),
			options: opts,
		})
	}
	return out
}

// autowireFields populates every `inject`-tagged exported field of
// instance, resolving each through the same creation chain as the bean
// being constructed so that fields pointing at beans still in progress
// benefit from early exposure exactly like constructor/DependsOn edges do.
func (c *Container) autowireFields(instance interface{}, chain *creationChain) error {
	value := reflect.ValueOf(instance)
	if value.Kind() != reflect.Ptr || value.Elem().Kind() != reflect.Struct {
		return nil
	}

	for _, f := range c.injectableFields(value) {
		if err := c.injectField(f, chain); err != nil {
			return fmt.Errorf("failed to inject field %s: %w", f.field.Name, err)
		}
	}
	return nil
}

func (c *Container) injectField(f injectableField, chain *creationChain) error {
	if !f.value.CanSet() {
		return fmt.Errorf("field %s is not settable (not exported?)", f.field.Name)
	}

	var resolved interface{}
	var err error
	if f.options.name != "" {
		resolved, err = c.getBean(f.options.name, chain)
	} else {
		resolved, err = c.resolveByType(f.field.Type, chain)
	}

	if err != nil {
		if f.options.optional {
			return nil
		}
		return err
	}

	resolvedValue := reflect.ValueOf(resolved)
	if resolved == nil || !resolvedValue.Type().AssignableTo(f.field.Type) {
		if f.options.optional {
			return nil
		}
		return &NotOfRequiredTypeError{Name: f.field.Name, Required: f.field.Type, Actual: reflect.TypeOf(resolved)}
	}

	f.value.Set(resolvedValue)
	return nil
}
