/*
Package ioc is a dependency injection container that builds services from
explicitly declared constructor dependencies.

Identifiers and constructor dependencies live in a [Registry] owned by the
application's composition root. A [Container] stores, for each identifier, either a
live instance or a [Descriptor] describing how to build it. When a descriptor is
requested the container builds every unbuilt service it depends on, dependencies
first, detects cycles, and caches the results.

Example:

	reg := ioc.NewRegistry()
	configID := reg.Identifier("config")
	storeID := reg.Identifier("store")

	// func NewStore(cfg *Config) (*Store, error)
	storeCtor := reg.MustConstructor(NewStore, ioc.Inject(configID, 0))

	c, err := ioc.NewContainer(reg,
		ioc.WithInstance(configID, cfg),
		ioc.WithDescriptor(storeID, ioc.NewDescriptor(storeCtor, nil)),
	)
	if err != nil {
		return err
	}

	err = c.Invoke(ctx, func(a ioc.Accessor) error {
		store, err := ioc.Get[*Store](a, storeID)
		if err != nil {
			return err
		}
		return store.Ping(ctx)
	})

Services that are expensive to build can be registered with [Delayed]: consumers
get a thin proxy immediately and the service is built during idle time or on first use.
See the idle package.
*/
package ioc
