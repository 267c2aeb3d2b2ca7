// Package pending tracks which (action, asset) submissions are in flight.
package pending

import (
	"sort"
	"sync"
	"time"

	"github.com/vadiminshakov/bondi/internal/domain"
	"github.com/vadiminshakov/bondi/internal/events"
)

const pendingLabel = "Pending..."

// Registry is a process-wide set of in-flight pending keys. Safe for concurrent use.
type Registry struct {
	mu          sync.Mutex
	keys        map[domain.PendingKey]struct{}
	broadcaster *events.PendingBroadcaster
}

// NewRegistry creates an empty registry. broadcaster may be nil.
func NewRegistry(broadcaster *events.PendingBroadcaster) *Registry {
	return &Registry{
		keys:        make(map[domain.PendingKey]struct{}),
		broadcaster: broadcaster,
	}
}

// Add marks key as pending. Adding a present key is a no-op.
func (r *Registry) Add(key domain.PendingKey) {
	r.add(key)
}

// Remove clears key. Removing an absent key is a no-op.
func (r *Registry) Remove(key domain.PendingKey) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.keys[key]; !ok {
		return
	}
	delete(r.keys, key)
	r.publish(key, false)
}

// IsPending reports whether key is in flight.
func (r *Registry) IsPending(key domain.PendingKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.keys[key]
	return ok
}

// Acquire adds key and returns the release func that removes it. ok is false when
// the key was already pending; release is then a no-op so the holder keeps it.
func (r *Registry) Acquire(key domain.PendingKey) (release func(), ok bool) {
	if !r.add(key) {
		return func() {}, false
	}

	var once sync.Once
	return func() {
		once.Do(func() { r.Remove(key) })
	}, true
}

// Keys returns the pending keys in sorted order.
func (r *Registry) Keys() []domain.PendingKey {
	r.mu.Lock()
	keys := make([]domain.PendingKey, 0, len(r.keys))
	for k := range r.keys {
		keys = append(keys, k)
	}
	r.mu.Unlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// ButtonLabel returns "Pending..." while key is in flight and defaultLabel otherwise.
func (r *Registry) ButtonLabel(key domain.PendingKey, defaultLabel string) string {
	if r.IsPending(key) {
		return pendingLabel
	}
	return defaultLabel
}

func (r *Registry) add(key domain.PendingKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.keys[key]; ok {
		return false
	}
	r.keys[key] = struct{}{}
	r.publish(key, true)
	return true
}

// publish must be called with r.mu held so subscribers see changes in the
// order they were applied. Publish never blocks.
func (r *Registry) publish(key domain.PendingKey, pending bool) {
	if r.broadcaster == nil {
		return
	}
	r.broadcaster.Publish(events.PendingChange{
		Timestamp: time.Now(),
		Key:       key.String(),
		Pending:   pending,
	})
}
