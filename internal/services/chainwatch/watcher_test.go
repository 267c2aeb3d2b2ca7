package chainwatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/bondi/pkg/retrier"
	"go.uber.org/zap"
)

type fakeReader struct {
	mu       sync.Mutex
	block    uint64
	failures int
}

func (r *fakeReader) BlockNumber(context.Context) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return 0, errors.New("connection refused")
	}
	r.block++
	return r.block, nil
}

func (r *fakeReader) ChainID(context.Context) (uint64, error) { return 1, nil }

type head struct {
	mu             sync.Mutex
	block, chainID uint64
}

func (h *head) SetHead(block, chainID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.block, h.chainID = block, chainID
}

func (h *head) get() (uint64, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.block, h.chainID
}

func fastRetrier(n int) *retrier.Retrier {
	return retrier.New(retrier.WithMaxRetries(n), retrier.WithInitialInterval(time.Millisecond))
}

func TestWatcher_PollRetries(t *testing.T) {
	reader := &fakeReader{block: 99, failures: 2}
	h := &head{}
	w := NewWatcher(zap.NewNop(), reader, h, time.Second, fastRetrier(3))

	require.NoError(t, w.Poll(context.Background()))
	block, chainID := h.get()
	assert.Equal(t, uint64(100), block)
	assert.Equal(t, uint64(1), chainID)
}

func TestWatcher_PollGivesUp(t *testing.T) {
	reader := &fakeReader{failures: 10}
	h := &head{}
	w := NewWatcher(zap.NewNop(), reader, h, time.Second, fastRetrier(1))

	require.Error(t, w.Poll(context.Background()))
	block, _ := h.get()
	assert.Equal(t, uint64(0), block)
}

func TestWatcher_Run(t *testing.T) {
	reader := &fakeReader{}
	h := &head{}
	w := NewWatcher(zap.NewNop(), reader, h, 5*time.Millisecond, fastRetrier(0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		block, _ := h.get()
		return block >= 3
	}, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
