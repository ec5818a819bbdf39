package ioc

import (
	"context"
	"reflect"
	"sync/atomic"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// Accessor resolves services while a function runs inside [Container.Invoke].
//
// An Accessor is only valid until that function returns. It must not be stored;
// later calls fail with [ErrInvalidAccessor]. To use the container later, get the
// container itself with the [InstantiationServiceKey] identifier.
type Accessor interface {
	// Get returns the service for id, building it and its dependencies if needed.
	// It returns [ErrUnknownService] if id resolves to nothing.
	Get(id *Identifier) (any, error)
}

// Get returns the service for id from the [Accessor] as a Service.
func Get[Service any](a Accessor, id *Identifier) (Service, error) {
	var val Service

	anyVal, err := a.Get(id)
	if err != nil {
		return val, err
	}

	val, ok := anyVal.(Service)
	if !ok {
		return val, errors.Errorf("get %s: %T is not %s", id, anyVal, reflect.TypeFor[Service]())
	}
	return val, nil
}

// MustGet is like [Get] but panics if the service cannot be resolved.
func MustGet[Service any](a Accessor, id *Identifier) Service {
	val, err := Get[Service](a, id)
	if err != nil {
		panic(err)
	}
	return val
}

func newInvocationAccessor(ctx context.Context, c *Container) (*invocationAccessor, func()) {
	a := &invocationAccessor{
		ctx: ctx,
		c:   c,
	}

	return a, a.setDone
}

// invocationAccessor is handed to the function passed to Invoke.
type invocationAccessor struct {
	ctx  context.Context
	c    *Container
	done atomic.Bool
}

func (a *invocationAccessor) setDone() {
	a.done.Store(true)
}

func (a *invocationAccessor) Get(id *Identifier) (any, error) {
	if a.done.Load() {
		return nil, errors.Wrapf(ErrInvalidAccessor, "get %s", id)
	}
	if a.c.closed.Load() {
		return nil, errors.Wrapf(ErrContainerClosed, "get %s", id)
	}

	val, err := a.c.getOrCreateServiceInstance(a.ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", id)
	}
	if isNil(val) {
		return nil, errors.Wrapf(ErrUnknownService, "get %s", id)
	}

	return val, nil
}

var _ Accessor = (*invocationAccessor)(nil)
