package graph

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Handle identifies one subscription on a property.
// Handles are unique for the life of the process.
type Handle uint64

// Observer receives every value written to a property.
type Observer func(value any)

var handleSeq atomic.Uint64

func nextHandle() Handle {
	return Handle(handleSeq.Add(1))
}

type subscriber struct {
	handle Handle
	fn     Observer
}

// Property is a named, observable value on a node.
type Property struct {
	name string

	mu          sync.RWMutex
	value       any
	subscribers []subscriber
}

func newProperty(name string, initial any) *Property {
	return &Property{name: name, value: initial}
}

// Name returns the property name.
func (p *Property) Name() string {
	return p.name
}

// Get returns the current value.
func (p *Property) Get() any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set stores value and notifies subscribers on the caller's goroutine.
// The subscriber list is snapshotted before notification, so observers may
// subscribe or unsubscribe from inside a callback.
func (p *Property) Set(value any) {
	p.mu.Lock()
	p.value = value
	subs := slices.Clone(p.subscribers)
	p.mu.Unlock()

	for _, s := range subs {
		s.fn(value)
	}
}

// Subscribe registers fn and returns the handle needed to remove it.
func (p *Property) Subscribe(fn Observer) Handle {
	h := nextHandle()
	p.mu.Lock()
	p.subscribers = append(p.subscribers, subscriber{handle: h, fn: fn})
	p.mu.Unlock()
	return h
}

// Unsubscribe removes the subscription with handle h.
// Returns false if no such subscription exists.
func (p *Property) Unsubscribe(h Handle) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, s := range p.subscribers {
		if s.handle == h {
			p.subscribers = slices.Delete(p.subscribers, i, i+1)
			return true
		}
	}
	return false
}

// SubscriberCount returns the number of live subscriptions.
func (p *Property) SubscriberCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscribers)
}
