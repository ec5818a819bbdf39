package ioc

import (
	"context"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// Closer is used to close a service when closing the [Container].
//
// If a service built by the container implements Closer, or one of the other compatible
// method signatures, it is closed when the container that owns it is closed.
// Instances registered with [WithInstance] or [Container.RegisterInstance] are not closed.
//
// Any of these Close method signatures are supported:
//
//	Close(context.Context) error
//	Close(context.Context)
//	Close() error
//	Close()
type Closer interface {
	Close(ctx context.Context) error
}

// Close closes the [Container].
//
// Services built by this container are closed in the reverse order they were built,
// and pending delayed instantiations are canceled. Errors returned from closing
// services are joined together. Child containers are not closed.
//
// Close returns an error if called more than once.
func (c *Container) Close(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return errors.Wrap(ErrContainerClosed, "ioc.Container.Close: closed already")
	}

	c.closersMu.Lock()
	closers := c.closers
	lazies := c.lazies
	c.closers = nil
	c.lazies = nil
	c.closersMu.Unlock()

	for _, lazy := range lazies {
		lazy.Dispose()
	}

	// Close services in LIFO order
	// This is important because of dependencies
	var errs errors.MultiError
	for i := len(closers) - 1; i >= 0; i-- {
		errs = errs.Append(closers[i].Close(ctx))
	}

	return errs.Wrap("ioc.Container.Close")
}

// addCloser records instance to be closed with the container. If the container was
// closed in the meantime, instance is closed right away and ErrContainerClosed is returned.
func (c *Container) addCloser(ctx context.Context, instance any) error {
	closer := getCloser(instance)
	if closer == nil {
		return nil
	}

	c.closersMu.Lock()
	if !c.closed.Load() {
		c.closers = append(c.closers, closer)
		c.closersMu.Unlock()
		return nil
	}
	c.closersMu.Unlock()

	return errors.Join(ErrContainerClosed, closer.Close(ctx))
}

// getCloser returns the Closer interface if the given value implements it,
// or any of the compatible Close function signatures.
func getCloser(val any) Closer {
	switch c := val.(type) {
	case *Container:
		// Containers are closed by whoever created them.
		return nil
	case Closer:
		return c
	case closerWithContextNoError:
		return closerWithContextNoErrorWrapper{c}
	case closerNoContextWithError:
		return closerNoContextWithErrorWrapper{c}
	case closerNoContextNoError:
		return closerNoContextNoErrorWrapper{c}
	default:
		return nil
	}
}

type closerWithContextNoError interface {
	Close(ctx context.Context)
}

type closerNoContextWithError interface {
	Close() error
}

type closerNoContextNoError interface {
	Close()
}

type closerNoContextNoErrorWrapper struct {
	c closerNoContextNoError
}

func (w closerNoContextNoErrorWrapper) Close(context.Context) error {
	w.c.Close()
	return nil
}

type closerWithContextNoErrorWrapper struct {
	c closerWithContextNoError
}

func (w closerWithContextNoErrorWrapper) Close(ctx context.Context) error {
	w.c.Close(ctx)
	return nil
}

type closerNoContextWithErrorWrapper struct {
	c closerNoContextWithError
}

func (w closerNoContextWithErrorWrapper) Close(context.Context) error {
	return w.c.Close()
}
