package nasc

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nascore/nasc/registry"
)

type wiredService struct {
	Logger   Logger   `inject:""`
	Database Database `inject:"optional"`
}

type namedWiredService struct {
	Logger Logger `inject:"console"`
}

type untaggedService struct {
	Logger   Logger
	Database Database
}

type skippedFieldService struct {
	Logger Logger `inject:"-"`
}

func TestParseInjectTag(t *testing.T) {
	tests := []struct {
		tag      string
		expected injectTagOptions
	}{
		{"", injectTagOptions{}},
		{"-", injectTagOptions{skip: true}},
		{"optional", injectTagOptions{optional: true}},
		{"name=foo", injectTagOptions{name: "foo"}},
		{"foo", injectTagOptions{name: "foo"}},
		{"optional,name=bar", injectTagOptions{optional: true, name: "bar"}},
		{"name=baz,optional", injectTagOptions{optional: true, name: "baz"}},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseInjectTag(tt.tag))
		})
	}
}

func TestAutowireFields_ResolvesByType(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterSingleton("logger", &ConsoleLogger{}))
	require.NoError(t, c.RegisterSingleton("db", &MockDB{}))

	service := &wiredService{}
	require.NoError(t, c.autowireFields(service, newCreationChain(c.logger)))

	assert.NotNil(t, service.Logger)
	assert.NotNil(t, service.Database)
}

func TestAutowireFields_OptionalMissingIsSkipped(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterSingleton("logger", &ConsoleLogger{}))

	service := &wiredService{}
	require.NoError(t, c.autowireFields(service, newCreationChain(c.logger)))

	assert.NotNil(t, service.Logger)
	assert.Nil(t, service.Database)
}

func TestAutowireFields_RequiredMissingFails(t *testing.T) {
	c := New()

	service := &wiredService{}
	err := c.autowireFields(service, newCreationChain(c.logger))
	assert.Error(t, err)
}

func TestAutowireFields_ResolvesByExplicitName(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterDefinition(&registry.Definition{
		Name: "console", Scope: registry.ScopeSingleton, Constructor: func() Logger { return &ConsoleLogger{} },
	}))

	service := &namedWiredService{}
	require.NoError(t, c.autowireFields(service, newCreationChain(c.logger)))

	assert.NotNil(t, service.Logger)
}

func TestAutowireFields_UntaggedFieldsNeverTouched(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterSingleton("logger", &ConsoleLogger{}))
	require.NoError(t, c.RegisterSingleton("db", &MockDB{}))

	service := &untaggedService{}
	require.NoError(t, c.autowireFields(service, newCreationChain(c.logger)))

	assert.Nil(t, service.Logger)
	assert.Nil(t, service.Database)
}

func TestAutowireFields_SkippedTagNeverTouched(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterSingleton("logger", &ConsoleLogger{}))

	service := &skippedFieldService{}
	require.NoError(t, c.autowireFields(service, newCreationChain(c.logger)))

	assert.Nil(t, service.Logger)
}

func TestAutowireFields_NonStructPointerIsNoOp(t *testing.T) {
	c := New()

	notAStruct := 5
	err := c.autowireFields(&notAStruct, newCreationChain(c.logger))
	assert.NoError(t, err)

	err = c.autowireFields(notAStruct, newCreationChain(c.logger))
	assert.NoError(t, err)
}

func TestAutowireFields_IntegratesWithGetBean(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterSingleton("logger", &ConsoleLogger{}))
	require.NoError(t, c.RegisterSingleton("db", &MockDB{}))
	require.NoError(t, c.RegisterDefinition(&registry.Definition{
		Name: "wired", Scope: registry.ScopeSingleton, Type: reflect.TypeOf(&wiredService{}), Autowire: registry.AutowireByType,
	}))

	instance, err := c.GetBean("wired")
	require.NoError(t, err)

	service := instance.(*wiredService)
	assert.NotNil(t, service.Logger)
	assert.NotNil(t, service.Database)
}
