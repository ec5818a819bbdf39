// Package ioccontext carries an [ioc.Container] on a [context.Context].
package ioccontext

import (
	"context"

	"github.com/sectrean/ioc-kit"
	"github.com/sectrean/ioc-kit/internal/errors"
)

type containerContextKey struct{}

// WithContainer returns a new [context.Context] that carries the provided [ioc.Container].
func WithContainer(ctx context.Context, c *ioc.Container) context.Context {
	return context.WithValue(ctx, containerContextKey{}, c)
}

// Container returns the [ioc.Container] stored on the [context.Context], if present.
func Container(ctx context.Context) *ioc.Container {
	if c, ok := ctx.Value(containerContextKey{}).(*ioc.Container); ok {
		return c
	}
	return nil
}

// Get resolves the service for key from the [ioc.Container] stored on the
// [context.Context]. The key is interned with the container's registry.
func Get[Service any](ctx context.Context, key string) (Service, error) {
	var val Service

	c := Container(ctx)
	if c == nil {
		return val, errors.Errorf("get %s from context: container not found on context", key)
	}

	id := c.Registry().Identifier(key)
	val, err := ioc.InvokeValue(ctx, c, func(a ioc.Accessor) (Service, error) {
		return ioc.Get[Service](a, id)
	})

	return val, errors.Wrap(err, "get from context")
}

// MustGet is like [Get] but panics if the service cannot be resolved.
func MustGet[Service any](ctx context.Context, key string) Service {
	val, err := Get[Service](ctx, key)
	if err != nil {
		panic(err)
	}
	return val
}
