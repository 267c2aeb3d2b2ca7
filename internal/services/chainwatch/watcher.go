// Package chainwatch keeps the latest block height and chain id in the bond store.
package chainwatch

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/bondi/pkg/retrier"
	"go.uber.org/zap"
)

const defaultPollInterval = 12 * time.Second

// ChainReader reads the chain head.
type ChainReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	ChainID(ctx context.Context) (uint64, error)
}

// HeadWriter stores the chain head.
type HeadWriter interface {
	SetHead(block, chainID uint64)
}

// Watcher polls the chain head on an interval.
type Watcher struct {
	reader   ChainReader
	writer   HeadWriter
	interval time.Duration
	retrier  *retrier.Retrier
	l        *zap.Logger
}

// NewWatcher creates a watcher. A non-positive interval falls back to 12s.
func NewWatcher(l *zap.Logger, reader ChainReader, writer HeadWriter, interval time.Duration, r *retrier.Retrier) *Watcher {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if r == nil {
		r = retrier.New(
			retrier.WithMaxRetries(3),
			retrier.WithOnRetry(func(attempt int, err error) {
				l.Debug("retrying chain head read", zap.Int("attempt", attempt), zap.Error(err))
			}),
		)
	}
	return &Watcher{reader: reader, writer: writer, interval: interval, retrier: r, l: l}
}

// Poll reads the head once and stores it.
func (w *Watcher) Poll(ctx context.Context) error {
	chainID, err := retrier.DoWithData(w.retrier, ctx, w.reader.ChainID)
	if err != nil {
		return errors.Wrap(err, "read chain id")
	}
	block, err := retrier.DoWithData(w.retrier, ctx, w.reader.BlockNumber)
	if err != nil {
		return errors.Wrap(err, "read block number")
	}

	w.writer.SetHead(block, chainID)
	w.l.Debug("chain head", zap.Uint64("block", block), zap.Uint64("chain_id", chainID))
	return nil
}

// Run polls until ctx is done. Failed polls are logged and retried on the next tick.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Poll(ctx); err != nil {
		w.l.Error("initial chain head poll failed", zap.Error(err))
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Poll(ctx); err != nil {
				w.l.Error("chain head poll failed", zap.Error(err))
			}
		}
	}
}
