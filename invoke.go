package ioc

import (
	"context"
	"reflect"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// Invoke calls fn with an [Accessor] that resolves services from the [Container].
//
// The accessor stops working as soon as fn returns. An error returned by fn is
// passed along as-is.
//
// Example:
//
//	err := c.Invoke(ctx, func(a ioc.Accessor) error {
//		store, err := ioc.Get[Store](a, storeID)
//		if err != nil {
//			return err
//		}
//		return store.Sync(ctx)
//	})
func (c *Container) Invoke(ctx context.Context, fn func(Accessor) error) error {
	_, err := InvokeValue(ctx, c, func(a Accessor) (struct{}, error) {
		return struct{}{}, fn(a)
	})
	return err
}

// InvokeValue is like [Container.Invoke] but returns the result of fn.
func InvokeValue[R any](ctx context.Context, c *Container, fn func(Accessor) (R, error)) (R, error) {
	var zero R

	if fn == nil {
		return zero, errors.New("ioc.Container.Invoke: fn is nil")
	}
	if c.closed.Load() {
		return zero, errors.Wrap(ErrContainerClosed, "ioc.Container.Invoke")
	}

	// Check for a context error before we invoke the function
	if err := ctx.Err(); err != nil {
		return zero, errors.Wrap(err, "ioc.Container.Invoke")
	}

	accessor, done := newInvocationAccessor(ctx, c)
	defer done()

	return fn(accessor)
}

// CreateInstance builds a one-off object without caching it.
//
// ctorOrDescriptor may be a [*Constructor], a [*Descriptor], or a plain function
// (which gets no injected dependencies). args are passed before the injected services;
// for a descriptor they follow its static arguments. The injected services themselves
// are resolved, and cached, as usual.
func (c *Container) CreateInstance(ctx context.Context, ctorOrDescriptor any, args ...any) (any, error) {
	if c.closed.Load() {
		return nil, errors.Wrap(ErrContainerClosed, "ioc.Container.CreateInstance")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "ioc.Container.CreateInstance")
	}

	var val any
	var err error

	switch v := ctorOrDescriptor.(type) {
	case nil:
		err = errors.New("ctorOrDescriptor is nil")
	case *Descriptor:
		val, err = c.createInstance(ctx, v.ctor, append(v.StaticArguments(), args...))
	case *Constructor:
		val, err = c.createInstance(ctx, v, args)
	default:
		if reflect.TypeOf(v).Kind() != reflect.Func {
			err = errors.Errorf("unsupported type %T", v)
			break
		}

		var ctor *Constructor
		ctor, err = NewConstructor(v)
		if err == nil {
			val, err = c.createInstance(ctx, ctor, args)
		}
	}

	if err != nil {
		return nil, errors.Wrap(err, "ioc.Container.CreateInstance")
	}
	return val, nil
}

// Create is like [Container.CreateInstance] but returns the result as a T.
func Create[T any](ctx context.Context, c *Container, ctorOrDescriptor any, args ...any) (T, error) {
	var val T

	anyVal, err := c.CreateInstance(ctx, ctorOrDescriptor, args...)
	if err != nil {
		return val, err
	}

	val, ok := anyVal.(T)
	if !ok && anyVal != nil {
		return val, errors.Errorf("ioc.Create: %T is not %s", anyVal, reflect.TypeFor[T]())
	}
	return val, nil
}
