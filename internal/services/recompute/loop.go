// Package recompute refreshes bond state whenever the inputs it depends on change.
package recompute

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/bondi/internal/domain"
	"go.uber.org/zap"
)

// Loader computes bond values from chain state.
type Loader interface {
	CalcBondDetails(ctx context.Context, asset domain.BondAssetID, quantity decimal.Decimal) (domain.QuoteUpdate, error)
	CalculateUserBondDetails(ctx context.Context, address string, asset domain.BondAssetID) (domain.PositionUpdate, error)
}

// QuoteWriter stores computed values.
type QuoteWriter interface {
	ApplyQuote(asset domain.BondAssetID, u domain.QuoteUpdate) error
	ApplyPosition(asset domain.BondAssetID, u domain.PositionUpdate) error
}

// Inputs are the values the loop watches.
type Inputs struct {
	Connected bool
	Quantity  string
	Address   string
}

// Loop triggers a quote and a position computation on every input change.
// Computations are not cancelled. With discardStale set, a result is only
// written if no newer computation of the same kind was started meanwhile;
// otherwise the last one to resolve wins.
type Loop struct {
	asset        domain.BondAssetID
	loader       Loader
	writer       QuoteWriter
	discardStale bool
	onAddress    func(address string)
	l            *zap.Logger

	mu       sync.Mutex
	last     Inputs
	observed bool

	// writeMu makes the generation check and the store write one step.
	writeMu     sync.Mutex
	quoteGen    atomic.Uint64
	positionGen atomic.Uint64
	wg          sync.WaitGroup
}

// Option configures the Loop.
type Option func(*Loop)

// WithDiscardStale drops results overtaken by a newer computation.
func WithDiscardStale(discard bool) Option {
	return func(lp *Loop) {
		lp.discardStale = discard
	}
}

// WithAddressChange registers fn to be called with the new address whenever
// the connected address changes to a non-empty value.
func WithAddressChange(fn func(address string)) Option {
	return func(lp *Loop) {
		lp.onAddress = fn
	}
}

// New creates a loop for asset.
func New(l *zap.Logger, asset domain.BondAssetID, loader Loader, writer QuoteWriter, opts ...Option) *Loop {
	lp := &Loop{
		asset:        asset,
		loader:       loader,
		writer:       writer,
		discardStale: true,
		l:            l.With(zap.String("asset", asset.String())),
	}
	for _, opt := range opts {
		opt(lp)
	}
	return lp
}

// Observe records in and triggers a recompute if anything changed since the
// previous call. The first call always triggers.
func (lp *Loop) Observe(ctx context.Context, in Inputs) bool {
	lp.mu.Lock()
	changed := !lp.observed || in != lp.last
	addressChanged := !lp.observed || in.Address != lp.last.Address
	lp.last = in
	lp.observed = true
	lp.mu.Unlock()

	if !changed {
		return false
	}

	if addressChanged && in.Address != "" && lp.onAddress != nil {
		lp.onAddress(in.Address)
	}

	lp.trigger(ctx, in)
	return true
}

// Refresh recomputes with the last observed inputs, e.g. after a submission.
func (lp *Loop) Refresh(ctx context.Context) {
	lp.mu.Lock()
	in, observed := lp.last, lp.observed
	lp.mu.Unlock()

	if observed {
		lp.trigger(ctx, in)
	}
}

// Wait blocks until all started computations have finished.
func (lp *Loop) Wait() {
	lp.wg.Wait()
}

func (lp *Loop) trigger(ctx context.Context, in Inputs) {
	if !in.Connected {
		return
	}

	quantity := domain.UserIntent{Quantity: in.Quantity}.QuantityOrZero()
	gen := lp.quoteGen.Add(1)
	lp.wg.Add(1)
	go func() {
		defer lp.wg.Done()
		lp.loadQuote(ctx, gen, quantity)
	}()

	if in.Address == "" {
		return
	}

	posGen := lp.positionGen.Add(1)
	lp.wg.Add(1)
	go func() {
		defer lp.wg.Done()
		lp.loadPosition(ctx, posGen, in.Address)
	}()
}

func (lp *Loop) loadQuote(ctx context.Context, gen uint64, quantity decimal.Decimal) {
	u, err := lp.loader.CalcBondDetails(ctx, lp.asset, quantity)
	if err != nil {
		// next input change retries
		lp.l.Warn("calc bond details failed", zap.String("quantity", quantity.String()), zap.Error(err))
		return
	}
	lp.writeMu.Lock()
	defer lp.writeMu.Unlock()

	if lp.discardStale && gen != lp.quoteGen.Load() {
		lp.l.Debug("stale bond quote discarded", zap.Uint64("generation", gen))
		return
	}
	if err := lp.writer.ApplyQuote(lp.asset, u); err != nil {
		lp.l.Error("apply bond quote", zap.Error(err))
	}
}

func (lp *Loop) loadPosition(ctx context.Context, gen uint64, address string) {
	u, err := lp.loader.CalculateUserBondDetails(ctx, address, lp.asset)
	if err != nil {
		lp.l.Warn("calculate user bond details failed", zap.String("address", address), zap.Error(err))
		return
	}
	lp.writeMu.Lock()
	defer lp.writeMu.Unlock()

	if lp.discardStale && gen != lp.positionGen.Load() {
		lp.l.Debug("stale user bond details discarded", zap.Uint64("generation", gen))
		return
	}
	if err := lp.writer.ApplyPosition(lp.asset, u); err != nil {
		lp.l.Error("apply user bond details", zap.Error(err))
	}
}
