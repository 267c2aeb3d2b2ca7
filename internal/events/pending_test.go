package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingBroadcaster(t *testing.T) {
	b := NewPendingBroadcaster(1)
	ch := b.Subscribe()

	b.Publish(PendingChange{Timestamp: time.Now(), Key: "bond_dai", Pending: true})
	// buffer is full, second change is dropped for the slow reader
	b.Publish(PendingChange{Timestamp: time.Now(), Key: "bond_dai", Pending: false})

	got := <-ch
	assert.Equal(t, "bond_dai", got.Key)
	assert.True(t, got.Pending)

	select {
	case extra := <-ch:
		t.Fatalf("unexpected change delivered: %+v", extra)
	default:
	}

	b.Unsubscribe(ch)
	_, open := <-ch
	require.False(t, open)

	// unsubscribing twice is a no-op
	b.Unsubscribe(ch)
}
