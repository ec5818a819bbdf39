package ioc

import (
	"reflect"
	"slices"

	"github.com/sectrean/ioc-kit/idle"
	"github.com/sectrean/ioc-kit/internal/errors"
)

// Descriptor is a recipe for a service that has not been built yet:
// a constructor, the explicit arguments passed before any injected services,
// and whether the service may be instantiated lazily.
//
// A Descriptor is immutable. Register it with [WithDescriptor] or
// [Container.RegisterDescriptor]; the container replaces it with the built
// instance the first time the service is requested.
type Descriptor struct {
	ctor       *Constructor
	staticArgs []any
	delayed    bool
	proxy      proxyFactory
}

// DescriptorOption configures a [Descriptor].
type DescriptorOption interface {
	applyDescriptor(*Descriptor)
}

type descriptorOption func(*Descriptor)

func (o descriptorOption) applyDescriptor(d *Descriptor) {
	o(d)
}

// NewDescriptor creates a [Descriptor]. The constructor is not validated until
// the service is instantiated.
func NewDescriptor(ctor *Constructor, staticArgs []any, opts ...DescriptorOption) *Descriptor {
	d := &Descriptor{
		ctor:       ctor,
		staticArgs: slices.Clone(staticArgs),
	}
	for _, opt := range opts {
		opt.applyDescriptor(d)
	}
	return d
}

// Constructor returns the constructor used to build the service.
func (d *Descriptor) Constructor() *Constructor {
	return d.ctor
}

// StaticArguments returns a copy of the explicit constructor arguments.
func (d *Descriptor) StaticArguments() []any {
	return slices.Clone(d.staticArgs)
}

// SupportsDelayedInstantiation reports whether the service is built lazily.
func (d *Descriptor) SupportsDelayedInstantiation() bool {
	return d.delayed
}

func (d *Descriptor) String() string {
	return "descriptor " + d.ctor.String()
}

// proxyFactory wraps a lazy build in a value implementing the service contract.
type proxyFactory func(s idle.Scheduler, build func() (any, error)) (proxy any, lazy disposer)

type disposer interface {
	Dispose()
}

// Delayed marks a descriptor for delayed instantiation.
//
// Instead of building the service when it is injected, the container hands out
// proxy(v), where v is an [idle.Value] that builds the real service during idle
// time or on first use. The proxy is a thin wrapper that implements the service
// contract T by forwarding each call to v:
//
//	type lazyStore struct{ v *idle.Value[Store] }
//
//	func (s lazyStore) Get(key string) string { return s.v.MustGet().Get(key) }
//
//	desc := ioc.NewDescriptor(storeCtor, nil, ioc.Delayed(func(v *idle.Value[Store]) Store {
//		return lazyStore{v}
//	}))
//
// The constructor's result must implement T.
func Delayed[T any](proxy func(*idle.Value[T]) T) DescriptorOption {
	return descriptorOption(func(d *Descriptor) {
		d.delayed = true
		d.proxy = func(s idle.Scheduler, build func() (any, error)) (any, disposer) {
			v := idle.NewValue(s, func() (T, error) {
				var zero T

				val, err := build()
				if err != nil {
					return zero, err
				}

				t, ok := val.(T)
				if !ok && val != nil {
					return zero, errors.Errorf("delayed service %T does not implement %s", val, reflect.TypeFor[T]())
				}
				return t, nil
			})
			return proxy(v), v
		}
	})
}
