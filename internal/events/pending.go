package events

import (
	"sync"
	"time"
)

// PendingChange is emitted whenever a key enters or leaves the pending registry.
type PendingChange struct {
	Timestamp time.Time `json:"ts"`
	Key       string    `json:"key"`
	Pending   bool      `json:"pending"`
}

// PendingBroadcaster fans out registry changes to all subscribers via buffered channels.
type PendingBroadcaster struct {
	mu     sync.RWMutex
	subs   map[chan PendingChange]struct{}
	buffer int
}

// NewPendingBroadcaster creates a broadcaster with the given per-subscriber buffer.
func NewPendingBroadcaster(buffer int) *PendingBroadcaster {
	if buffer < 1 {
		buffer = 64
	}
	return &PendingBroadcaster{
		subs:   make(map[chan PendingChange]struct{}),
		buffer: buffer,
	}
}

// Publish sends the change to all subscribers, dropping if a reader is slow.
func (b *PendingBroadcaster) Publish(c PendingChange) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- c:
		default:
			// drop slow consumer
		}
	}
}

// Subscribe returns a channel that receives changes until Unsubscribe is called.
func (b *PendingBroadcaster) Subscribe() chan PendingChange {
	ch := make(chan PendingChange, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the channel and closes it.
func (b *PendingBroadcaster) Unsubscribe(ch chan PendingChange) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}
