package nasc

import (
	"fmt"
	"reflect"
)

// Provider is a programmatic batch of bean-definition registrations,
// the in-scope analogue of the out-of-scope markup-based definition
// loader: a Provider registers a set of definitions against a Container in
// one call.
type Provider interface {
	Register(c *Container) error
}

// BootableProvider is a Provider with a boot phase, run once every provider
// has finished registering. Useful for providers that need other
// providers' definitions to already exist (e.g. to look up a type via
// ByType) before doing their own setup.
type BootableProvider interface {
	Provider
	Boot(c *Container) error
}

// DeferredProvider is a Provider that may decline registration based on the
// container's current state at registration time.
type DeferredProvider interface {
	Provider
	ShouldRegister(c *Container) bool
}

type providerEntry struct {
	provider Provider
	booted   bool
}

// RegisterProvider registers provider's definitions immediately. Re-adding
// a provider of the same concrete type is a no-op.
func (c *Container) RegisterProvider(provider Provider) error {
	if provider == nil {
		return fmt.Errorf("provider cannot be nil")
	}

	if deferred, ok := provider.(DeferredProvider); ok {
		if !deferred.ShouldRegister(c) {
			return nil
		}
	}

	providerType := reflect.TypeOf(provider)
	for _, entry := range c.providers {
		if reflect.TypeOf(entry.provider) == providerType {
			return nil
		}
	}

	if err := provider.Register(c); err != nil {
		return fmt.Errorf("provider registration failed: %w", err)
	}

	c.providers = append(c.providers, &providerEntry{provider: provider})
	return nil
}

// BootProviders invokes Boot on every registered provider implementing
// BootableProvider that hasn't been booted yet.
func (c *Container) BootProviders() error {
	for _, entry := range c.providers {
		if entry.booted {
			continue
		}
		if bootable, ok := entry.provider.(BootableProvider); ok {
			if err := bootable.Boot(c); err != nil {
				return fmt.Errorf("provider boot failed: %w", err)
			}
		}
		entry.booted = true
	}
	return nil
}

// Providers returns every registered provider, in registration order.
func (c *Container) Providers() []Provider {
	out := make([]Provider, len(c.providers))
	for i, entry := range c.providers {
		out[i] = entry.provider
	}
	return out
}
