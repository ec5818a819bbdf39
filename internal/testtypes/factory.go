package testtypes

import "sync/atomic"

// Factory counts the services it builds.
type Factory struct {
	count atomic.Int32
}

func (f *Factory) NewStructA() *StructA {
	n := f.count.Add(1)
	return &StructA{Tag: int(n)}
}

func (f *Factory) NewInterfaceA() InterfaceA {
	return f.NewStructA()
}

func (f *Factory) NewInterfaceB(a InterfaceA) InterfaceB {
	f.count.Add(1)
	return &StructB{A: a}
}

// Count returns how many services have been built.
func (f *Factory) Count() int {
	return int(f.count.Load())
}
