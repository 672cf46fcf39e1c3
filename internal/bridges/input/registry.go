package input

import (
	"sync"
)

// closer is anything a registry entry owns and must release on removal.
type closer interface {
	Close()
}

// registry is a keyed set of live entries guarded for shared read and
// exclusive write. Entries are closed when removed or replaced.
type registry[K comparable, V closer] struct {
	mu      sync.RWMutex
	entries map[K]V
}

func newRegistry[K comparable, V closer]() *registry[K, V] {
	return &registry[K, V]{entries: make(map[K]V)}
}

// put stores v under k and returns the entry it replaced, if any.
// The caller closes the replaced entry.
func (r *registry[K, V]) put(k K, v V) (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, had := r.entries[k]
	r.entries[k] = v
	return old, had
}

// take removes and returns the entry for k.
func (r *registry[K, V]) take(k K) (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.entries[k]
	if ok {
		delete(r.entries, k)
	}
	return v, ok
}

// takeAll removes and returns every entry.
func (r *registry[K, V]) takeAll() []V {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]V, 0, len(r.entries))
	for k, v := range r.entries {
		out = append(out, v)
		delete(r.entries, k)
	}
	return out
}

func (r *registry[K, V]) has(k K) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[k]
	return ok
}

func (r *registry[K, V]) get(k K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[k]
	return v, ok
}

func (r *registry[K, V]) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *registry[K, V]) values() []V {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]V, 0, len(r.entries))
	for _, v := range r.entries {
		out = append(out, v)
	}
	return out
}
