// Package testtypes has services used across the ioc-kit tests.
package testtypes

import (
	"context"
	"fmt"
)

type InterfaceA interface {
	A() string
}

type InterfaceB interface {
	B() string
}

type InterfaceC interface {
	C() string
}

type StructA struct {
	Tag any
}

func (a *StructA) A() string { return fmt.Sprintf("A(%v)", a.Tag) }

type StructB struct {
	A InterfaceA
}

func (b *StructB) B() string {
	if b.A == nil {
		return "B(<nil>)"
	}
	return "B(" + b.A.A() + ")"
}

type StructC struct {
	A InterfaceA
	B InterfaceB
}

func (c *StructC) C() string { return "C(" + c.A.A() + ", " + c.B.B() + ")" }

func NewInterfaceA() InterfaceA {
	return &StructA{}
}

func NewStructA() *StructA {
	return &StructA{}
}

func NewInterfaceB(a InterfaceA) InterfaceB {
	return &StructB{A: a}
}

func NewInterfaceC(a InterfaceA, b InterfaceB) InterfaceC {
	return &StructC{A: a, B: b}
}

func NewInterfaceCWithError(InterfaceA, InterfaceB) (InterfaceC, error) {
	return nil, fmt.Errorf("test error")
}

// Args records the arguments it was constructed with.
type Args struct {
	Name string
	N    int
	A    InterfaceA
	B    InterfaceB
}

func NewArgs(name string, n int, a InterfaceA, b InterfaceB) *Args {
	return &Args{Name: name, N: n, A: a, B: b}
}

// Variadic collects trailing arguments.
type Variadic struct {
	Prefix string
	Rest   []InterfaceA
}

func NewVariadic(prefix string, rest ...InterfaceA) *Variadic {
	return &Variadic{Prefix: prefix, Rest: rest}
}

// Link is a node in a chain of services; each link holds the next one.
type Link struct {
	Index int
	Next  *Link
}

// CloseRecorder records Close calls into a shared log.
type CloseRecorder struct {
	Name string
	Log  *[]string
	Err  error
}

func (r *CloseRecorder) Close(context.Context) error {
	*r.Log = append(*r.Log, r.Name)
	return r.Err
}

// SimpleCloser has a Close method with no arguments or results.
type SimpleCloser struct {
	Closed bool
}

func (s *SimpleCloser) Close() { s.Closed = true }
