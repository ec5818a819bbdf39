package ioc

import (
	"sync"
)

// Collection maps service identifiers to live instances or [*Descriptor]s.
// It is the storage of a [Container].
//
// A Collection is safe for concurrent use.
type Collection struct {
	mu      sync.RWMutex
	entries map[*Identifier]any
	order   []*Identifier
}

// Entry is an identifier and its instance or descriptor, used with [NewCollection].
type Entry struct {
	ID    *Identifier
	Value any
}

// NewCollection creates a [Collection] with the given entries.
func NewCollection(entries ...Entry) *Collection {
	c := &Collection{
		entries: make(map[*Identifier]any, len(entries)),
	}
	for _, e := range entries {
		c.Set(e.ID, e.Value)
	}
	return c
}

// Set stores an instance or descriptor for id and returns what was there before.
func (c *Collection) Set(id *Identifier, instanceOrDescriptor any) (previous any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries == nil {
		c.entries = make(map[*Identifier]any)
	}

	previous, exists := c.entries[id]
	if !exists {
		c.order = append(c.order, id)
	}
	c.entries[id] = instanceOrDescriptor
	return previous
}

// Get returns the instance or descriptor for id.
func (c *Collection) Get(id *Identifier) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.entries[id]
	return v, ok
}

// Has reports whether id has an entry.
func (c *Collection) Has(id *Identifier) bool {
	_, ok := c.Get(id)
	return ok
}

// Len returns the number of entries.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// ForEach calls visit for each entry in the order identifiers were first set.
// visit runs on a snapshot, so it may modify the collection.
func (c *Collection) ForEach(visit func(id *Identifier, instanceOrDescriptor any)) {
	c.mu.RLock()
	entries := make([]Entry, len(c.order))
	for i, id := range c.order {
		entries[i] = Entry{ID: id, Value: c.entries[id]}
	}
	c.mu.RUnlock()

	for _, e := range entries {
		visit(e.ID, e.Value)
	}
}

// descriptor returns the descriptor for id, if the slot holds one.
func (c *Collection) descriptor(id *Identifier) (*Descriptor, bool) {
	v, ok := c.Get(id)
	if !ok {
		return nil, false
	}
	d, ok := v.(*Descriptor)
	return d, ok
}
