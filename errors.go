package ioc

import (
	"fmt"
	"strings"

	"github.com/sectrean/ioc-kit/internal/errors"
)

var (
	// ErrCyclicDependency is returned when services depend on each other in a cycle.
	// The returned error is a [*CyclicDependencyError].
	ErrCyclicDependency = errors.New("cyclic dependency between services")

	// ErrUnknownService is returned by an [Accessor] when an identifier resolves to nothing.
	ErrUnknownService = errors.New("unknown service")

	// ErrInvalidAccessor is returned when an [Accessor] is used after the function it
	// was passed to has returned.
	ErrInvalidAccessor = errors.New("service accessor is only valid during the invocation of its target function")

	// ErrIllegalState is returned when no container in the parent chain owns a service
	// that is being instantiated.
	ErrIllegalState = errors.New("illegal state")

	// ErrMissingDependency is returned in strict mode when a required dependency
	// cannot be resolved.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrContainerClosed is returned when using a [Container] after [Container.Close].
	ErrContainerClosed = errors.New("container closed")

	// ErrAlreadyInstantiated is returned when registering a descriptor for a service
	// that already has a live instance.
	ErrAlreadyInstantiated = errors.New("service already instantiated")

	// ErrInvalidConstructor is returned when a constructor is not a function
	// returning Service or (Service, error).
	ErrInvalidConstructor = errors.New("invalid constructor")
)

// CyclicDependencyError describes a dependency cycle found while building services.
type CyclicDependencyError struct {
	// Cycle lists the identifiers along one cycle, the first repeated at the end.
	// It may be empty if no single cycle could be isolated.
	Cycle []string

	// Graph is a dump of the unresolved part of the dependency graph.
	Graph string
}

type cycleGraph interface {
	String() string
	FindCycle() []string
}

func newCyclicDependencyError(g cycleGraph) *CyclicDependencyError {
	return &CyclicDependencyError{
		Cycle: g.FindCycle(),
		Graph: g.String(),
	}
}

func (e *CyclicDependencyError) Error() string {
	var sb strings.Builder
	sb.WriteString(ErrCyclicDependency.Error())
	if len(e.Cycle) > 0 {
		fmt.Fprintf(&sb, ": %s", strings.Join(e.Cycle, " -> "))
	}
	if e.Graph != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Graph)
	}
	return sb.String()
}

// Unwrap returns [ErrCyclicDependency].
func (e *CyclicDependencyError) Unwrap() error {
	return ErrCyclicDependency
}
