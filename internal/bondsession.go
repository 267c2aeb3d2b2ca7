package internal

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/bondi/internal/domain"
	"github.com/vadiminshakov/bondi/internal/services/bonding"
	"github.com/vadiminshakov/bondi/internal/services/economics"
	"github.com/vadiminshakov/bondi/internal/services/recompute"
)

// StateStore is the read side of the quote store.
type StateStore interface {
	Get(asset domain.BondAssetID) (domain.BondQuoteState, error)
	CurrentBlock() uint64
}

// BondView is everything the purchase screen renders for one bond.
type BondView struct {
	Asset            domain.BondAssetID `json:"asset"`
	Units            string             `json:"units"`
	Quantity         string             `json:"quantity"`
	BondQuote        decimal.Decimal    `json:"bond_quote"`
	MaxBondPrice     decimal.Decimal    `json:"max_bond_price"`
	DiscountPercent  decimal.Decimal    `json:"discount_percent"`
	DebtRatio        decimal.Decimal    `json:"debt_ratio"`
	VestingTerm      string             `json:"vesting_term"`
	VestingBlocks    uint64             `json:"vesting_blocks"`
	InterestDue      decimal.Decimal    `json:"interest_due"`
	PendingPayout    decimal.Decimal    `json:"pending_payout"`
	Balance          decimal.Decimal    `json:"balance"`
	Allowance        decimal.Decimal    `json:"allowance"`
	Action           domain.Action      `json:"action"`
	ButtonLabel      string             `json:"button_label"`
	ButtonDisabled   bool               `json:"button_disabled"`
	Recipient        string             `json:"recipient,omitempty"`
	RecipientDiffers bool               `json:"recipient_differs"`
	Connected        bool               `json:"connected"`
}

// BondSession is the purchase form of one bond: it owns the user intent,
// keeps the bond state fresh through the recompute loop and runs the
// button action through the dispatcher.
type BondSession struct {
	Asset domain.BondAssetID

	store        StateStore
	wallet       Wallet
	dispatcher   *bonding.Dispatcher
	calc         *economics.Calculator
	loop         *recompute.Loop
	pollInterval time.Duration
	l            *zap.Logger

	mu     sync.Mutex
	intent domain.UserIntent
}

// NewBondSession creates a session for asset.
func NewBondSession(l *zap.Logger, asset domain.BondAssetID, store StateStore, writer recompute.QuoteWriter,
	wallet Wallet, loader recompute.Loader, dispatcher *bonding.Dispatcher, calc *economics.Calculator,
	slippage decimal.Decimal, pollInterval time.Duration, discardStale bool) (*BondSession, error) {
	if store == nil || writer == nil || wallet == nil || loader == nil || dispatcher == nil || calc == nil {
		return nil, errors.New("bond session dependencies must not be nil")
	}
	if _, err := store.Get(asset); err != nil {
		return nil, errors.Wrapf(err, "bond %s", asset)
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	s := &BondSession{
		Asset:        asset,
		store:        store,
		wallet:       wallet,
		dispatcher:   dispatcher,
		calc:         calc,
		pollInterval: pollInterval,
		l:            l.With(zap.String("asset", asset.String())),
		intent:       domain.NewUserIntent(wallet.Address(), slippage),
	}
	s.loop = recompute.New(l, asset, loader, writer,
		recompute.WithDiscardStale(discardStale),
		recompute.WithAddressChange(s.resetRecipient),
	)

	return s, nil
}

// Intent returns a copy of the current user intent.
func (s *BondSession) Intent() domain.UserIntent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intent
}

// SetQuantity stores the raw amount and requotes.
func (s *BondSession) SetQuantity(ctx context.Context, raw string) {
	s.mu.Lock()
	s.intent.Quantity = raw
	s.mu.Unlock()

	s.observe(ctx)
}

// SetRecipient pays the bond out to address instead of the connected account.
func (s *BondSession) SetRecipient(address string) {
	s.mu.Lock()
	s.intent.RecipientAddress = address
	s.mu.Unlock()
}

// SetMax fills the amount with the whole balance.
func (s *BondSession) SetMax(ctx context.Context) error {
	state, err := s.store.Get(s.Asset)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.intent.SetMax(state.Balance)
	s.mu.Unlock()

	s.observe(ctx)
	return nil
}

// View renders the current bond state for display.
func (s *BondSession) View() (BondView, error) {
	state, err := s.store.Get(s.Asset)
	if err != nil {
		return BondView{}, err
	}
	intent := s.Intent()
	connected := s.wallet.Address()

	vesting := s.calc.VestingPeriod(s.store.CurrentBlock(), state.VestingBlock)
	action, label, disabled := s.dispatcher.Button(state)

	view := BondView{
		Asset:            s.Asset,
		Units:            s.Asset.Units(),
		Quantity:         intent.Quantity,
		BondQuote:        state.BondQuote,
		MaxBondPrice:     state.MaxBondPrice,
		DiscountPercent:  economics.DiscountDisplay(state.BondDiscount),
		DebtRatio:        economics.DebtRatioDisplay(state.DebtRatio),
		VestingTerm:      vesting.Label,
		VestingBlocks:    vesting.Blocks,
		InterestDue:      state.InterestDue,
		PendingPayout:    state.PendingPayout,
		Balance:          state.Balance,
		Allowance:        state.Allowance,
		Action:           action,
		ButtonLabel:      label,
		ButtonDisabled:   disabled,
		RecipientDiffers: intent.RecipientDiffers(connected),
		Connected:        s.wallet.Connected(),
	}
	if view.RecipientDiffers {
		view.Recipient = intent.RecipientAddress
	}

	return view, nil
}

// Click runs whatever the purchase button currently offers: an approval
// while there is no allowance, a bond otherwise.
func (s *BondSession) Click(ctx context.Context) (bonding.Result, error) {
	state, err := s.store.Get(s.Asset)
	if err != nil {
		return bonding.Result{Outcome: bonding.OutcomeFailed}, err
	}

	if bonding.NextAction(state) == domain.ActionApprove {
		return s.Approve(ctx)
	}
	return s.Bond(ctx)
}

// Bond submits the current intent.
func (s *BondSession) Bond(ctx context.Context) (bonding.Result, error) {
	res, err := s.dispatcher.SubmitBond(ctx, s.Asset, s.Intent())
	s.afterSubmit(ctx, res)
	return res, err
}

// Approve grants the allowance for the bond asset.
func (s *BondSession) Approve(ctx context.Context) (bonding.Result, error) {
	res, err := s.dispatcher.RequestApproval(ctx, s.Asset)
	s.afterSubmit(ctx, res)
	return res, err
}

// Run observes wallet changes until ctx is done.
func (s *BondSession) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	s.l.Info("starting bond session", zap.Duration("poll_interval", s.pollInterval))
	s.observe(ctx)

	for {
		select {
		case <-ctx.Done():
			s.l.Info("context done, stopping bond session")
			return ctx.Err()
		case <-ticker.C:
			s.observe(ctx)
		}
	}
}

// Refresh requotes with unchanged inputs, e.g. after a new block.
func (s *BondSession) Refresh(ctx context.Context) {
	s.loop.Refresh(ctx)
}

// Close waits for outstanding computations.
func (s *BondSession) Close() {
	s.loop.Wait()
}

func (s *BondSession) afterSubmit(ctx context.Context, res bonding.Result) {
	if res.Outcome != bonding.OutcomeSubmitted {
		return
	}
	s.l.Info("transaction submitted", zap.String("tx", res.Receipt.TxHash))
	s.loop.Refresh(ctx)
}

func (s *BondSession) observe(ctx context.Context) {
	s.mu.Lock()
	quantity := s.intent.Quantity
	s.mu.Unlock()

	s.loop.Observe(ctx, recompute.Inputs{
		Connected: s.wallet.Connected(),
		Quantity:  quantity,
		Address:   s.wallet.Address(),
	})
}

func (s *BondSession) resetRecipient(address string) {
	s.mu.Lock()
	s.intent.RecipientAddress = address
	s.mu.Unlock()
}
