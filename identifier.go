package ioc

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// Identifier names a service contract.
//
// Identifiers are interned by a [Registry]: asking for the same key twice returns
// the same *Identifier, so identifiers can be compared with ==.
type Identifier struct {
	key string
}

// String returns the key the identifier was interned with.
func (id *Identifier) String() string {
	if id == nil {
		return "<nil>"
	}
	return id.key
}

// Dependency describes one injected constructor parameter.
type Dependency struct {
	// ID is the service to inject.
	ID *Identifier
	// Position is the parameter index the service is passed at.
	Position int
	// Optional dependencies are passed as nil when missing, even in strict mode,
	// and do not produce a warning.
	Optional bool
}

// Inject declares that the parameter at position receives the service id.
// Use it with [Registry.Constructor].
func Inject(id *Identifier, position int) Dependency {
	return Dependency{ID: id, Position: position}
}

// InjectOptional is like [Inject] but the dependency may be missing.
func InjectOptional(id *Identifier, position int) Dependency {
	return Dependency{ID: id, Position: position, Optional: true}
}

// Registry holds service identifiers and the dependencies declared for each constructor.
//
// A Registry is owned by the application's composition root and shared by every
// [Container] built from it. It is safe for concurrent use.
type Registry struct {
	ids  *xsync.MapOf[string, *Identifier]
	deps *xsync.MapOf[*Constructor, []Dependency]
}

// NewRegistry creates an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{
		ids:  xsync.NewMapOf[string, *Identifier](),
		deps: xsync.NewMapOf[*Constructor, []Dependency](),
	}
}

// Identifier returns the identifier for key, creating it the first time.
func (r *Registry) Identifier(key string) *Identifier {
	id, _ := r.ids.LoadOrCompute(key, func() *Identifier {
		return &Identifier{key: key}
	})
	return id
}

// Identifiers returns every interned identifier, sorted by key.
func (r *Registry) Identifiers() []*Identifier {
	ids := make([]*Identifier, 0, r.ids.Size())
	r.ids.Range(func(_ string, id *Identifier) bool {
		ids = append(ids, id)
		return true
	})
	slices.SortFunc(ids, func(a, b *Identifier) int {
		return cmp.Compare(a.key, b.key)
	})
	return ids
}

// RecordDependency appends a dependency to ctor's list.
func (r *Registry) RecordDependency(ctor *Constructor, id *Identifier, position int, optional bool) {
	dep := Dependency{ID: id, Position: position, Optional: optional}
	r.deps.Compute(ctor, func(deps []Dependency, _ bool) ([]Dependency, bool) {
		return append(slices.Clip(deps), dep), false
	})
}

// DependenciesOf returns the dependencies recorded for ctor in registration order.
// The returned slice is a copy.
func (r *Registry) DependenciesOf(ctor *Constructor) []Dependency {
	deps, _ := r.deps.Load(ctor)
	return slices.Clone(deps)
}

// Constructor wraps fn with [NewConstructor] and records deps for it.
//
// Example:
//
//	reg := ioc.NewRegistry()
//	storeID := reg.Identifier("store")
//	cacheID := reg.Identifier("cache")
//
//	// func NewHandler(name string, s Store, c Cache) *Handler
//	handlerCtor, err := reg.Constructor(NewHandler,
//		ioc.Inject(storeID, 1),
//		ioc.InjectOptional(cacheID, 2),
//	)
func (r *Registry) Constructor(fn any, deps ...Dependency) (*Constructor, error) {
	ctor, err := NewConstructor(fn)
	if err != nil {
		return nil, errors.Wrap(err, "ioc.Registry.Constructor")
	}

	for _, dep := range deps {
		if dep.ID == nil {
			return nil, errors.Errorf("ioc.Registry.Constructor %s: dependency at position %d: identifier is nil",
				ctor, dep.Position)
		}
		if dep.Position < 0 {
			return nil, errors.Errorf("ioc.Registry.Constructor %s: dependency %s: negative position %d",
				ctor, dep.ID, dep.Position)
		}
		r.RecordDependency(ctor, dep.ID, dep.Position, dep.Optional)
	}

	return ctor, nil
}

// MustConstructor is like [Registry.Constructor] but panics on error.
// It is meant for package-level variable initialization.
func (r *Registry) MustConstructor(fn any, deps ...Dependency) *Constructor {
	ctor, err := r.Constructor(fn, deps...)
	if err != nil {
		panic(err)
	}
	return ctor
}

// LogValue implements [slog.LogValuer].
func (id *Identifier) LogValue() slog.Value {
	return slog.StringValue(id.String())
}
