package nasc

import "go.uber.org/zap"

// ContainerOption configures a Container at construction time.
type ContainerOption func(*Container)

// WithLogger installs logger for lifecycle event logging. A nil logger is
// treated as a no-op logger.
func WithLogger(logger *zap.Logger) ContainerOption {
	return func(c *Container) {
		if logger == nil {
			logger = zap.NewNop()
		}
		c.logger = logger
	}
}

// WithParent sets parent as this container's parent factory, consulted when
// a name is not defined locally. Parent delegation per §4.4.
func WithParent(parent BeanFactory) ContainerOption {
	return func(c *Container) { c.parent = parent }
}

// WithPostProcessor appends pp to the ordered post-processor pipeline run
// around every bean's initialization.
func WithPostProcessor(pp BeanPostProcessor) ContainerOption {
	return func(c *Container) { c.postProcessors = append(c.postProcessors, pp) }
}

// WithScope registers a custom Scope implementation under name. "singleton"
// and "prototype" are reserved and cannot be overridden.
func WithScope(name string, scope Scope) ContainerOption {
	return func(c *Container) { c.scopes[name] = scope }
}

// WithAccessControlContext installs an access-control capability token
// consulted on every name lookup, before a cached instance is returned or a
// new one is created. GetBeanWithArgs does not consult it.
func WithAccessControlContext(ctx *AccessControlContext) ContainerOption {
	return func(c *Container) { c.accessControl = ctx }
}

// WithConfig applies cfg's tuning values (eager-init names, frozen flag,
// scope registrations already installed by earlier options) to the
// container at construction time.
func WithConfig(cfg *ContainerConfig) ContainerOption {
	return func(c *Container) {
		if cfg == nil {
			return
		}
		c.pendingEagerInit = append(c.pendingEagerInit, cfg.EagerInit...)
		if cfg.Frozen {
			c.pendingFreeze = true
		}
	}
}
