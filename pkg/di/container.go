package di

import (
	"github.com/goliatone/go-memoize/cache"
	"github.com/goliatone/go-memoize/canonical"
	"github.com/goliatone/go-memoize/memoize"
)

// Container provides dependency injection for memoization components.
// It manages singleton instances of the canonical registry, the key deriver
// and the shared store list, and provides factory methods for creating
// memoizers that share them.
type Container struct {
	registry *canonical.Registry
	deriver  cache.KeyDeriver
	stores   *memoize.StoreList
	config   memoize.Config
}

// NewContainer creates a DI container from the provided configuration. The
// configuration's Registry, Deriver and Stores become the container's
// singletons; missing ones are filled with defaults.
func NewContainer(config memoize.Config) (*Container, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	registry := config.Registry
	if registry == nil {
		registry = canonical.DefaultRegistry()
	}

	deriver := config.Deriver
	if deriver == nil {
		if config.FastKeys {
			deriver = cache.NewFastKeyDeriver(config.Mode, registry)
		} else {
			deriver = cache.NewDigestKeyDeriver(config.Mode, registry)
		}
	}

	stores := config.Stores
	if stores == nil {
		stores = memoize.NewStoreList()
	}

	config.Registry = registry
	config.Deriver = deriver
	config.Stores = stores

	return &Container{
		registry: registry,
		deriver:  deriver,
		stores:   stores,
		config:   config,
	}, nil
}

// NewContainerWithDefaults creates a DI container using the default
// memoization configuration. This is the convenience constructor for typical
// use cases where custom configuration is not required.
func NewContainerWithDefaults() (*Container, error) {
	return NewContainer(memoize.DefaultConfig())
}

// Registry returns the singleton canonical registry. Use it as the base for
// derived registries with extra codecs.
func (c *Container) Registry() *canonical.Registry {
	return c.registry
}

// Deriver returns the singleton key deriver instance.
func (c *Container) Deriver() cache.KeyDeriver {
	return c.deriver
}

// Stores returns the shared store list. Every memoizer created through the
// container registers here, so Stores().ClearAll() invalidates them all.
func (c *Container) Stores() *memoize.StoreList {
	return c.stores
}

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() memoize.Config {
	return c.config
}

// NewMemoizer creates a memoizer wired to the container's singletons. The
// namespace scopes persistent entries when the configuration carries a
// backend; pass memoize.NamespaceFor(target) for a derived one.
func (c *Container) NewMemoizer(namespace string) (*memoize.Memoizer, error) {
	config := c.config
	config.Namespace = namespace
	return memoize.New(config)
}
