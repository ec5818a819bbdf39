package ioc

import "slices"

// A Module is a collection of container options.
// It can be used to export a re-usable group of related services.
//
// Example:
//
//	var StorageModule = ioc.Module{
//		ioc.WithDescriptor(dbID, ioc.NewDescriptor(newDBCtor, nil)),
//		ioc.WithDescriptor(storeID, ioc.NewDescriptor(newStoreCtor, nil)),
//	}
type Module []ContainerOption

func (Module) applyContainer(*Container) error { return nil }
func (Module) order() optionOrder              { return orderConfig }

// WithModule applies the options in a [Module] when calling [NewContainer] or
// [Container.NewChild].
//
// Example:
//
//	c, err := ioc.NewContainer(reg,
//		ioc.WithModule(StorageModule),
//		ioc.WithDescriptor(handlerID, ioc.NewDescriptor(newHandlerCtor, nil)),
//	)
func WithModule(m Module) ContainerOption {
	return m
}

func flattenModules(opts []ContainerOption) []ContainerOption {
	if !slices.ContainsFunc(opts, isModule) {
		return opts
	}

	flat := make([]ContainerOption, 0, len(opts))
	for _, opt := range opts {
		if m, ok := opt.(Module); ok {
			flat = append(flat, flattenModules(m)...)
			continue
		}
		flat = append(flat, opt)
	}
	return flat
}

func isModule(opt ContainerOption) bool {
	_, ok := opt.(Module)
	return ok
}
