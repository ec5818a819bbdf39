package ioc

import (
	"log/slog"
	"time"

	"github.com/sectrean/ioc-kit/idle"
	"github.com/sectrean/ioc-kit/internal/errors"
)

// ContainerOption is used to configure a new [Container] when calling [NewContainer]
// or [Container.NewChild].
type ContainerOption interface {
	order() optionOrder
	applyContainer(*Container) error
}

type optionOrder int8

const (
	orderConfig optionOrder = iota
	orderService
	orderValidation
)

func newContainerOption(order optionOrder, fn func(*Container) error) ContainerOption {
	return containerOption{fn: fn, ord: order}
}

type containerOption struct {
	fn  func(*Container) error
	ord optionOrder
}

func (o containerOption) order() optionOrder {
	return o.ord
}

func (o containerOption) applyContainer(c *Container) error {
	return o.fn(c)
}

// WithInstance registers a live service instance under id.
func WithInstance(id *Identifier, instance any) ContainerOption {
	return newContainerOption(orderService, func(c *Container) error {
		if id == nil {
			return errors.New("with instance: identifier is nil")
		}

		c.services.Set(id, instance)
		return nil
	})
}

// WithDescriptor registers a service under id that is built from d the first time
// it is requested.
func WithDescriptor(id *Identifier, d *Descriptor) ContainerOption {
	return newContainerOption(orderService, func(c *Container) error {
		return errors.Wrap(c.registerDescriptor(id, d), "with descriptor")
	})
}

// WithStrict sets strict mode. In strict mode, a required dependency that cannot be
// resolved fails construction with [ErrMissingDependency]; otherwise nil is passed
// and a warning is logged.
//
// Child containers inherit strict mode from their parent.
func WithStrict(strict bool) ContainerOption {
	return newContainerOption(orderConfig, func(c *Container) error {
		c.strict = strict
		return nil
	})
}

// WithLogger sets the logger used for diagnostics. The default is [slog.Default].
func WithLogger(logger *slog.Logger) ContainerOption {
	return newContainerOption(orderConfig, func(c *Container) error {
		if logger == nil {
			return errors.New("with logger: logger is nil")
		}

		c.logger = logger
		return nil
	})
}

// WithScheduler sets the scheduler used to build delayed services in idle time.
//
// The default is a new [*idle.Queue], drained by [Container.RunIdle].
// [idle.Timer] builds delayed services on timer goroutines; only use it when the
// services involved can be constructed concurrently with the rest of the program.
func WithScheduler(s idle.Scheduler) ContainerOption {
	return newContainerOption(orderConfig, func(c *Container) error {
		if s == nil {
			return errors.New("with scheduler: scheduler is nil")
		}

		c.scheduler = s
		return nil
	})
}

// WithIdleTimeout sets the timeout hint passed to the scheduler for delayed services.
// The scheduler should build a delayed service within this time even if it is never idle.
func WithIdleTimeout(timeout time.Duration) ContainerOption {
	return newContainerOption(orderConfig, func(c *Container) error {
		if timeout < 0 {
			return errors.Errorf("with idle timeout: negative timeout %s", timeout)
		}

		c.idleTimeout = timeout
		return nil
	})
}

// WithDependencyValidation validates registered descriptors on [Container] creation.
//
// This checks that every required dependency is registered and that there are no
// dependency cycles. It returns an error with details if any issues are found.
func WithDependencyValidation() ContainerOption {
	return newContainerOption(orderValidation, func(c *Container) error {
		return errors.Wrap(c.validateDependencies(), "with dependency validation")
	})
}
