package ioc

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sectrean/ioc-kit/idle"
	"github.com/sectrean/ioc-kit/internal/errors"
	"github.com/sectrean/ioc-kit/internal/graph"
)

// InstantiationServiceKey is the identifier key every [Container] registers itself under,
// so services and invoked functions can ask for the container that built them.
const InstantiationServiceKey = "instantiationService"

// Container is a dependency injection container.
//
// It stores services as live instances or [*Descriptor]s. When a descriptor is
// requested, the container builds the whole graph of unbuilt services it depends on,
// in dependency order, and caches each instance in the container that owns it.
//
// Containers form a tree with [Container.NewChild]. A child sees everything its
// ancestors registered; services are built by, and cached in, the container whose
// collection holds their descriptor.
//
// Each service is built once, even when children of a container resolve it from
// several goroutines at once.
type Container struct {
	registry    *Registry
	parent      *Container
	services    *Collection
	strict      bool
	logger      *slog.Logger
	scheduler   idle.Scheduler
	idleTimeout time.Duration

	buildMu  sync.Mutex
	building map[*Identifier]*pendingBuild

	closersMu sync.Mutex
	closers   []Closer
	lazies    []disposer
	closed    atomic.Bool
}

// NewContainer creates a new [Container] using the identifiers and dependencies in reg.
//
// Available options:
//   - [WithInstance] registers a live service instance.
//   - [WithDescriptor] registers a service to build on first use.
//   - [WithStrict] fails construction when a required dependency is missing.
//   - [WithLogger] sets the logger for diagnostics.
//   - [WithScheduler] and [WithIdleTimeout] control delayed instantiation.
//   - [WithConfig] applies a [Config].
//   - [WithModule] applies a group of options.
//   - [WithDependencyValidation] checks every descriptor's dependencies up front.
func NewContainer(reg *Registry, opts ...ContainerOption) (*Container, error) {
	if reg == nil {
		return nil, errors.New("ioc.NewContainer: registry is nil")
	}

	c := &Container{
		registry:  reg,
		services:  NewCollection(),
		logger:    slog.Default(),
		scheduler: idle.NewQueue(),
	}
	c.services.Set(reg.Identifier(InstantiationServiceKey), c)

	err := c.applyOptions(opts)
	if err != nil {
		return nil, errors.Wrap(err, "ioc.NewContainer")
	}

	return c, nil
}

// NewChild creates a child [Container].
//
// The child inherits the registry, strict mode, logger and scheduler of its parent
// and can resolve every service registered with its ancestors. Services registered
// with the child are isolated from the parent and its other children.
func (c *Container) NewChild(opts ...ContainerOption) (*Container, error) {
	if c.closed.Load() {
		return nil, errors.Wrap(ErrContainerClosed, "ioc.Container.NewChild")
	}

	child := &Container{
		registry:    c.registry,
		parent:      c,
		services:    NewCollection(),
		strict:      c.strict,
		logger:      c.logger,
		scheduler:   c.scheduler,
		idleTimeout: c.idleTimeout,
	}
	child.services.Set(c.registry.Identifier(InstantiationServiceKey), child)

	err := child.applyOptions(opts)
	if err != nil {
		return nil, errors.Wrap(err, "ioc.Container.NewChild")
	}

	return child, nil
}

func (c *Container) applyOptions(opts []ContainerOption) error {
	// Flatten any modules before sorting and applying options
	opts = flattenModules(opts)

	// Sort options by precedence
	// Use stable sort because the registration order of services matters
	slices.SortStableFunc(opts, func(a, b ContainerOption) int {
		return cmp.Compare(a.order(), b.order())
	})

	return applyOptions(opts, func(o ContainerOption) error {
		return o.applyContainer(c)
	})
}

// Registry returns the registry the container resolves dependencies with.
func (c *Container) Registry() *Registry {
	return c.registry
}

// Parent returns the parent container, or nil for a root container.
func (c *Container) Parent() *Container {
	return c.parent
}

// Strict reports whether missing required dependencies fail construction.
func (c *Container) Strict() bool {
	return c.strict
}

// Services returns the identifiers registered directly with this container,
// in registration order. Services inherited from ancestors are not included.
func (c *Container) Services() []*Identifier {
	ids := make([]*Identifier, 0, c.services.Len())
	c.services.ForEach(func(id *Identifier, _ any) {
		ids = append(ids, id)
	})
	return ids
}

// Has reports whether id is registered with this container or an ancestor.
func (c *Container) Has(id *Identifier) bool {
	_, ok := c.lookup(id)
	return ok
}

// RegisterInstance stores a live instance for id, replacing anything registered before.
func (c *Container) RegisterInstance(id *Identifier, instance any) error {
	if c.closed.Load() {
		return errors.Wrapf(ErrContainerClosed, "ioc.Container.RegisterInstance %s", id)
	}
	if id == nil {
		return errors.New("ioc.Container.RegisterInstance: identifier is nil")
	}

	c.services.Set(id, instance)
	return nil
}

// RegisterDescriptor stores a descriptor for id.
//
// It returns [ErrAlreadyInstantiated] if this container already holds a live instance
// for id: a built service is never replaced by a recipe.
func (c *Container) RegisterDescriptor(id *Identifier, d *Descriptor) error {
	if c.closed.Load() {
		return errors.Wrapf(ErrContainerClosed, "ioc.Container.RegisterDescriptor %s", id)
	}

	return errors.Wrap(c.registerDescriptor(id, d), "ioc.Container.RegisterDescriptor")
}

func (c *Container) registerDescriptor(id *Identifier, d *Descriptor) error {
	if id == nil {
		return errors.New("identifier is nil")
	}
	if d == nil {
		return errors.Errorf("%s: descriptor is nil", id)
	}

	if v, ok := c.services.Get(id); ok {
		if _, isDesc := v.(*Descriptor); !isDesc {
			return errors.Wrapf(ErrAlreadyInstantiated, "%s", id)
		}
	}

	c.services.Set(id, d)
	return nil
}

// RunIdle runs pending delayed instantiations if the container's scheduler is
// cooperative (an [*idle.Queue]), and returns how many ran. budget bounds the time
// spent; zero means unbounded.
//
// Hosts call this from their own loop when they have spare time.
func (c *Container) RunIdle(budget time.Duration) int {
	if r, ok := c.scheduler.(interface{ RunPending(time.Duration) int }); ok {
		return r.RunPending(budget)
	}
	return 0
}

// lookup finds the instance or descriptor for id in this container or the
// nearest ancestor that has it.
func (c *Container) lookup(id *Identifier) (any, bool) {
	for s := c; s != nil; s = s.parent {
		if v, ok := s.services.Get(id); ok {
			return v, true
		}
	}
	return nil, false
}

// getOrCreateServiceInstance returns the instance for id, building it first if the
// slot holds a descriptor. It returns nil, nil for unknown services: the caller
// decides whether that is fatal.
func (c *Container) getOrCreateServiceInstance(ctx context.Context, id *Identifier) (any, error) {
	v, ok := c.lookup(id)
	if !ok {
		return nil, nil
	}

	if d, isDesc := v.(*Descriptor); isDesc {
		return c.createAndCacheServiceInstance(ctx, id, d)
	}
	return v, nil
}

type serviceInfo struct {
	id    *Identifier
	desc  *Descriptor
	owner *Container

	// hops counts the parent links from the owner of the requested service to owner.
	hops int
}

// key tells apart a service shadowed in a child from the ancestor's service it hides.
func (s serviceInfo) key() string {
	if s.hops == 0 {
		return s.id.String()
	}
	return fmt.Sprintf("%s^%d", s.id, s.hops)
}

// createAndCacheServiceInstance builds the service for id and every unbuilt service
// it depends on, dependencies first.
func (c *Container) createAndCacheServiceInstance(ctx context.Context, id *Identifier, d *Descriptor) (any, error) {
	owner, _ := c.findOwner(id)
	if owner == nil {
		return nil, errors.Wrapf(ErrIllegalState, "creating unknown service instance %s", id)
	}

	g := graph.New(serviceInfo.key)

	// Collect the unbuilt services reachable from id.
	// Each service is expanded once, so traversal ends even when there are cycles.
	expanded := make(map[string]struct{})
	stack := []serviceInfo{{id: id, desc: d, owner: owner}}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		g.LookupOrInsertNode(item)
		if _, ok := expanded[item.key()]; ok {
			continue
		}
		expanded[item.key()] = struct{}{}

		// Dependencies are looked up from the owner, where the service is built.
		for _, dep := range c.registry.DependenciesOf(item.desc.ctor) {
			depOwner, hops := item.owner.findOwner(dep.ID)
			if depOwner == nil {
				if !dep.Optional {
					c.logger.WarnContext(ctx, "service depends on a service that is not registered",
						"service", item.id,
						"dependency", dep.ID,
						"requested", id,
					)
				}
				continue
			}

			v, _ := depOwner.services.Get(dep.ID)
			if depDesc, isDesc := v.(*Descriptor); isDesc {
				depItem := serviceInfo{id: dep.ID, desc: depDesc, owner: depOwner, hops: item.hops + hops}
				g.InsertEdge(item, depItem)
				if _, ok := expanded[depItem.key()]; !ok {
					stack = append(stack, depItem)
				}
			}
		}
	}

	// Build the roots (services with no unbuilt dependencies) and remove them
	// until nothing is left.
	var result any
	for {
		roots := g.Roots()
		if len(roots) == 0 {
			if !g.IsEmpty() {
				return nil, newCyclicDependencyError(g)
			}
			break
		}

		for _, root := range roots {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			info := root.Data
			instance, err := info.owner.buildServiceInstance(ctx, info.id)
			if err != nil {
				return nil, errors.Wrapf(err, "create %s", info.id)
			}
			if info.id == id && info.hops == 0 {
				result = instance
			}
			g.RemoveNode(info)
		}
	}

	return result, nil
}

// findOwner returns the nearest container whose collection holds id, and how many
// parent links it is from c.
func (c *Container) findOwner(id *Identifier) (*Container, int) {
	hops := 0
	for s := c; s != nil; s = s.parent {
		if s.services.Has(id) {
			return s, hops
		}
		hops++
	}
	return nil, 0
}

type pendingBuild struct {
	done     chan struct{}
	instance any
	err      error
}

// buildServiceInstance builds the service for id, which c must own, and replaces its
// descriptor with the instance. A service that is already built is returned as is.
//
// Children of one container may resolve its services from several goroutines. A build
// that is already running is waited for and its result shared, so each slot is built once.
func (c *Container) buildServiceInstance(ctx context.Context, id *Identifier) (any, error) {
	c.buildMu.Lock()
	v, ok := c.services.Get(id)
	if !ok {
		c.buildMu.Unlock()
		return nil, errors.Wrapf(ErrIllegalState, "creating unknown service instance %s", id)
	}
	d, isDesc := v.(*Descriptor)
	if !isDesc {
		c.buildMu.Unlock()
		return v, nil
	}

	if b, ok := c.building[id]; ok {
		c.buildMu.Unlock()
		select {
		case <-b.done:
			return b.instance, b.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if c.closed.Load() {
		c.buildMu.Unlock()
		return nil, ErrContainerClosed
	}

	b := &pendingBuild{done: make(chan struct{})}
	if c.building == nil {
		c.building = make(map[*Identifier]*pendingBuild)
	}
	c.building[id] = b
	c.buildMu.Unlock()

	finished := false
	defer func() {
		if !finished {
			b.err = errors.Errorf("%s panicked", d)
		}

		c.buildMu.Lock()
		if b.err == nil {
			c.services.Set(id, b.instance)
		}
		delete(c.building, id)
		c.buildMu.Unlock()
		close(b.done)
	}()

	b.instance, b.err = c.createServiceInstance(ctx, id, d)
	finished = true

	return b.instance, b.err
}

func (c *Container) createServiceInstance(ctx context.Context, id *Identifier, d *Descriptor) (any, error) {
	if !d.delayed || d.proxy == nil {
		instance, err := c.createInstance(ctx, d.ctor, d.staticArgs)
		if err != nil {
			return nil, err
		}

		c.logger.DebugContext(ctx, "service instantiated", "service", id, "constructor", d.ctor)
		err = c.addCloser(ctx, instance)
		if err != nil {
			return nil, err
		}
		return instance, nil
	}

	// The build may run later, in idle time, after ctx is done.
	buildCtx := context.WithoutCancel(ctx)
	proxy, lazy := d.proxy(c.idleScheduler(), func() (any, error) {
		if c.closed.Load() {
			return nil, errors.Wrapf(ErrContainerClosed, "create %s", id)
		}

		instance, err := c.createInstance(buildCtx, d.ctor, d.staticArgs)
		if err != nil {
			return nil, errors.Wrapf(err, "create %s", id)
		}

		c.logger.DebugContext(buildCtx, "delayed service instantiated", "service", id, "constructor", d.ctor)
		err = c.addCloser(buildCtx, instance)
		if err != nil {
			return nil, errors.Wrapf(err, "create %s", id)
		}
		return instance, nil
	})

	c.closersMu.Lock()
	defer c.closersMu.Unlock()

	if c.closed.Load() {
		lazy.Dispose()
		return nil, ErrContainerClosed
	}
	c.lazies = append(c.lazies, lazy)

	return proxy, nil
}

// createInstance calls ctor with args followed by its injected services.
func (c *Container) createInstance(ctx context.Context, ctor *Constructor, args []any) (any, error) {
	if ctor == nil {
		return nil, errors.Wrap(ErrInvalidConstructor, "constructor is nil")
	}

	deps := c.registry.DependenciesOf(ctor)
	slices.SortStableFunc(deps, func(a, b Dependency) int {
		return cmp.Compare(a.Position, b.Position)
	})

	serviceArgs := make([]any, 0, len(deps))
	for _, dep := range deps {
		service, err := c.getOrCreateServiceInstance(ctx, dep.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "dependency %s", dep.ID)
		}

		if isNil(service) && c.strict && !dep.Optional {
			return nil, errors.Wrapf(ErrMissingDependency, "%s depends on unknown service %s", ctor, dep.ID)
		}
		serviceArgs = append(serviceArgs, service)
	}

	// Explicit arguments come first and injected services fill the remaining parameters.
	firstServiceArgPos := len(args)
	if len(deps) > 0 {
		firstServiceArgPos = deps[0].Position
	}
	if len(args) != firstServiceArgPos {
		c.logger.ErrorContext(ctx, "first service dependency conflicts with static arguments; "+
			"only explicit arguments before injected services are supported",
			"constructor", ctor,
			"position", firstServiceArgPos,
			"staticArgs", len(args),
		)
		args = fitArgs(args, firstServiceArgPos)
	}

	allArgs := make([]any, 0, len(args)+len(serviceArgs))
	allArgs = append(allArgs, args...)
	allArgs = append(allArgs, serviceArgs...)

	val, err := ctor.call(allArgs)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", ctor)
	}
	return val, nil
}

func (c *Container) idleScheduler() idle.Scheduler {
	if c.idleTimeout <= 0 {
		return c.scheduler
	}

	return idle.SchedulerFunc(func(fn func(idle.Deadline), timeout time.Duration) idle.Handle {
		if timeout <= 0 {
			timeout = c.idleTimeout
		}
		return c.scheduler.Schedule(fn, timeout)
	})
}

// validateDependencies checks every descriptor registered with this container for
// missing required dependencies and cycles.
func (c *Container) validateDependencies() error {
	var errs errors.MultiError
	g := graph.New(func(id *Identifier) string { return id.String() })

	c.services.ForEach(func(id *Identifier, v any) {
		d, ok := v.(*Descriptor)
		if !ok {
			return
		}

		g.LookupOrInsertNode(id)
		for _, dep := range c.registry.DependenciesOf(d.ctor) {
			depVal, found := c.lookup(dep.ID)
			if !found {
				if !dep.Optional {
					errs = errs.Append(errors.Errorf("service %s: dependency %s: service not registered", id, dep.ID))
				}
				continue
			}

			if _, isDesc := depVal.(*Descriptor); isDesc {
				g.InsertEdge(id, dep.ID)
			}
		}
	})

	for {
		roots := g.Roots()
		if len(roots) == 0 {
			break
		}
		for _, root := range roots {
			g.RemoveNode(root.Data)
		}
	}
	if !g.IsEmpty() {
		errs = errs.Append(newCyclicDependencyError(g))
	}

	return errs.Join()
}
