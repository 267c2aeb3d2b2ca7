package pending

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/bondi/internal/domain"
	"github.com/vadiminshakov/bondi/internal/events"
)

func TestRegistry_Idempotence(t *testing.T) {
	r := NewRegistry(nil)
	key := domain.PendingKey("bond_X")

	r.Add(key)
	r.Add(key)
	assert.Len(t, r.Keys(), 1)
	assert.True(t, r.IsPending(key))

	r.Remove(key)
	assert.False(t, r.IsPending(key))
	assert.Empty(t, r.Keys())

	// removing an absent key is a no-op
	r.Remove(key)
	assert.False(t, r.IsPending(key))
}

func TestRegistry_Acquire(t *testing.T) {
	r := NewRegistry(nil)
	key := domain.NewPendingKey(domain.ActionBond, domain.BondDAI)

	release, ok := r.Acquire(key)
	require.True(t, ok)
	assert.True(t, r.IsPending(key))

	second, ok := r.Acquire(key)
	require.False(t, ok)
	second()
	assert.True(t, r.IsPending(key), "losing acquirer must not release the holder's key")

	release()
	release()
	assert.False(t, r.IsPending(key))
}

func TestRegistry_ButtonLabel(t *testing.T) {
	r := NewRegistry(nil)
	key := domain.NewPendingKey(domain.ActionApprove, domain.BondETH)

	assert.Equal(t, "Approve", r.ButtonLabel(key, "Approve"))
	r.Add(key)
	assert.Equal(t, "Pending...", r.ButtonLabel(key, "Approve"))
}

func TestRegistry_PublishesChanges(t *testing.T) {
	b := events.NewPendingBroadcaster(8)
	ch := b.Subscribe()
	r := NewRegistry(b)
	key := domain.NewPendingKey(domain.ActionBond, domain.BondFRAX)

	r.Add(key)
	r.Add(key)
	r.Remove(key)

	first := <-ch
	assert.Equal(t, "bond_frax", first.Key)
	assert.True(t, first.Pending)

	second := <-ch
	assert.False(t, second.Pending)

	select {
	case extra := <-ch:
		t.Fatalf("duplicate add must not publish: %+v", extra)
	default:
	}
}

func TestRegistry_ConcurrentFlows(t *testing.T) {
	r := NewRegistry(nil)
	assets := []domain.BondAssetID{domain.BondDAI, domain.BondETH, domain.BondFRAX, domain.BondOHMDAILP}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		acquired = make(map[domain.PendingKey]int)
	)
	for i := 0; i < 50; i++ {
		for _, asset := range assets {
			for _, action := range []domain.Action{domain.ActionApprove, domain.ActionBond} {
				wg.Add(1)
				go func(key domain.PendingKey) {
					defer wg.Done()
					if _, ok := r.Acquire(key); ok {
						mu.Lock()
						acquired[key]++
						mu.Unlock()
					}
				}(domain.NewPendingKey(action, asset))
			}
		}
	}
	wg.Wait()

	require.Len(t, r.Keys(), len(assets)*2)
	for key, n := range acquired {
		assert.Equal(t, 1, n, fmt.Sprintf("key %s acquired more than once", key))
	}
}

func TestRegistry_ChangesFollowState(t *testing.T) {
	b := events.NewPendingBroadcaster(4096)
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	r := NewRegistry(b)
	key := domain.NewPendingKey(domain.ActionBond, domain.BondDAI)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(add bool) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if add {
					r.Add(key)
				} else {
					r.Remove(key)
				}
			}
		}(i%2 == 0)
	}
	wg.Wait()

	var (
		last    events.PendingChange
		pending bool
		seen    int
	)
	for len(ch) > 0 {
		c := <-ch
		require.NotEqual(t, pending, c.Pending, "change %d repeats the previous state", seen)
		pending = c.Pending
		last = c
		seen++
	}

	require.NotZero(t, seen)
	assert.Equal(t, key.String(), last.Key)
	assert.Equal(t, r.IsPending(key), last.Pending)
}
