// Package bonding runs the allowance-then-purchase workflow for bond assets.
package bonding

import (
	"context"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/bondi/internal/analytics"
	"github.com/vadiminshakov/bondi/internal/domain"
	"github.com/vadiminshakov/bondi/internal/services/confirm"
	"github.com/vadiminshakov/bondi/internal/services/pending"
	"go.uber.org/zap"
)

// Outcome tells the caller how a submission attempt ended.
type Outcome int

const (
	OutcomeSubmitted Outcome = iota
	OutcomeInvalid
	OutcomeDeclined
	OutcomeAlreadyPending
	OutcomeFailed
)

// String returns the string representation.
func (o Outcome) String() string {
	switch o {
	case OutcomeSubmitted:
		return "submitted"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeDeclined:
		return "declined"
	case OutcomeAlreadyPending:
		return "already_pending"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result of SubmitBond or SubmitApproval.
type Result struct {
	Outcome Outcome
	Receipt domain.Receipt
}

// Submitter signs and broadcasts transactions. It is opaque to the workflow.
type Submitter interface {
	Bond(ctx context.Context, req domain.BondRequest) (domain.Receipt, error)
	Approve(ctx context.Context, req domain.ApprovalRequest) (domain.Receipt, error)
}

// QuoteReader reads bond state from the shared store.
type QuoteReader interface {
	Get(asset domain.BondAssetID) (domain.BondQuoteState, error)
	ChainID() uint64
}

// Wallet exposes the connected account.
type Wallet interface {
	Address() string
}

// Dispatcher validates, confirms, registers and submits approve and bond actions.
// Per (action, asset) it moves Idle -> Validating -> ConfirmationPending ->
// Submitting -> Idle; the pending key is held only while Submitting.
type Dispatcher struct {
	quotes    QuoteReader
	wallet    Wallet
	submitter Submitter
	gate      confirm.Gate
	registry  *pending.Registry
	reporter  *analytics.Reporter
	l         *zap.Logger
}

// NewDispatcher creates a dispatcher. reporter may be nil.
func NewDispatcher(l *zap.Logger, quotes QuoteReader, wallet Wallet, submitter Submitter,
	gate confirm.Gate, registry *pending.Registry, reporter *analytics.Reporter) (*Dispatcher, error) {
	if quotes == nil || wallet == nil || submitter == nil || gate == nil || registry == nil {
		return nil, errors.New("dispatcher dependencies must not be nil")
	}

	return &Dispatcher{
		quotes:    quotes,
		wallet:    wallet,
		submitter: submitter,
		gate:      gate,
		registry:  registry,
		reporter:  reporter,
		l:         l,
	}, nil
}

// SubmitBond buys a bond for the intent. Validation failures come back as
// *domain.ValidationError with OutcomeInvalid, a declined confirmation as
// OutcomeDeclined with a nil error. The pending key is always released.
func (d *Dispatcher) SubmitBond(ctx context.Context, asset domain.BondAssetID, intent domain.UserIntent) (Result, error) {
	l := d.l.With(zap.String("asset", asset.String()))

	quantity, err := domain.ParseQuantity(intent.Quantity)
	if err != nil {
		d.reportInvalid(ctx, asset, err)
		return Result{Outcome: OutcomeInvalid}, err
	}
	recipient, err := intent.Recipient(d.wallet.Address())
	if err != nil {
		d.reportInvalid(ctx, asset, err)
		return Result{Outcome: OutcomeInvalid}, err
	}

	key := domain.NewPendingKey(domain.ActionBond, asset)
	if d.registry.IsPending(key) {
		l.Debug("bond already pending")
		return Result{Outcome: OutcomeAlreadyPending}, nil
	}

	state, err := d.quotes.Get(asset)
	if err != nil {
		return Result{Outcome: OutcomeFailed}, errors.Wrapf(err, "read bond state for %s", asset)
	}

	rebond := state.HasExistingBond()
	if rebond {
		ok, err := d.gate.Confirm(ctx, confirm.RebondPrompt)
		if err != nil {
			return Result{Outcome: OutcomeFailed}, errors.Wrap(err, "confirm rebond")
		}
		if !ok {
			l.Info("rebond declined",
				zap.String("interest_due", state.InterestDue.String()),
				zap.String("pending_payout", state.PendingPayout.String()))
			d.reporter.Report(ctx, analytics.BondDeclined{
				Meta:          analytics.NewMeta(asset.String()),
				InterestDue:   state.InterestDue.String(),
				PendingPayout: state.PendingPayout.String(),
			})
			return Result{Outcome: OutcomeDeclined}, nil
		}
	}

	release, ok := d.registry.Acquire(key)
	if !ok {
		l.Debug("bond already pending")
		return Result{Outcome: OutcomeAlreadyPending}, nil
	}
	defer release()

	req := domain.BondRequest{
		Asset:     asset,
		Quantity:  quantity.String(),
		Slippage:  intent.Slippage,
		Recipient: recipient,
		ChainID:   d.quotes.ChainID(),
	}

	l.Info("submitting bond",
		zap.String("quantity", req.Quantity),
		zap.String("slippage", req.Slippage.String()),
		zap.String("recipient", req.Recipient),
		zap.Bool("rebond", rebond))

	receipt, err := d.submitter.Bond(ctx, req)
	if err != nil {
		d.reportFailed(ctx, domain.ActionBond, asset, err)
		return Result{Outcome: OutcomeFailed}, errors.Wrapf(err, "submit bond for %s", asset)
	}

	l.Info("bond submitted", zap.String("tx", receipt.TxHash))
	d.reporter.Report(ctx, analytics.BondSubmitted{
		Meta:      analytics.NewMeta(asset.String()),
		Quantity:  req.Quantity,
		Slippage:  req.Slippage.String(),
		Recipient: req.Recipient,
		Rebond:    rebond,
	})

	return Result{Outcome: OutcomeSubmitted, Receipt: receipt}, nil
}

// SubmitApproval grants the bond contract an allowance for asset.
func (d *Dispatcher) SubmitApproval(ctx context.Context, asset domain.BondAssetID) (Result, error) {
	l := d.l.With(zap.String("asset", asset.String()))

	key := domain.NewPendingKey(domain.ActionApprove, asset)
	release, ok := d.registry.Acquire(key)
	if !ok {
		l.Debug("approval already pending")
		return Result{Outcome: OutcomeAlreadyPending}, nil
	}
	defer release()

	l.Info("submitting approval")
	receipt, err := d.submitter.Approve(ctx, domain.ApprovalRequest{Asset: asset, ChainID: d.quotes.ChainID()})
	if err != nil {
		d.reportFailed(ctx, domain.ActionApprove, asset, err)
		return Result{Outcome: OutcomeFailed}, errors.Wrapf(err, "submit approval for %s", asset)
	}

	l.Info("approval submitted", zap.String("tx", receipt.TxHash))
	d.reporter.Report(ctx, analytics.ApprovalSubmitted{Meta: analytics.NewMeta(asset.String())})

	return Result{Outcome: OutcomeSubmitted, Receipt: receipt}, nil
}

// RequestApproval is the allowance gate side effect: it registers
// approve_<asset> and hands the approval to the submitter.
func (d *Dispatcher) RequestApproval(ctx context.Context, asset domain.BondAssetID) (Result, error) {
	return d.SubmitApproval(ctx, asset)
}

// IsPending reports whether key is in flight.
func (d *Dispatcher) IsPending(key domain.PendingKey) bool {
	return d.registry.IsPending(key)
}

// ButtonLabel is "Pending..." while key is in flight, defaultLabel otherwise.
func (d *Dispatcher) ButtonLabel(key domain.PendingKey, defaultLabel string) string {
	return d.registry.ButtonLabel(key, defaultLabel)
}

// Button describes the purchase button for asset: which action it runs,
// its label and whether it is disabled.
func (d *Dispatcher) Button(state domain.BondQuoteState) (domain.Action, string, bool) {
	action := NextAction(state)
	key := domain.NewPendingKey(action, state.Asset)
	return action, d.registry.ButtonLabel(key, action.Label()), d.registry.IsPending(key)
}

func (d *Dispatcher) reportInvalid(ctx context.Context, asset domain.BondAssetID, err error) {
	field := ""
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		field = vErr.Field
	}

	d.l.Info("bond input rejected", zap.String("asset", asset.String()), zap.Error(err))
	d.reporter.Report(ctx, analytics.ValidationFailed{
		Meta:   analytics.NewMeta(asset.String()),
		Field:  field,
		Reason: err.Error(),
	})
}

func (d *Dispatcher) reportFailed(ctx context.Context, action domain.Action, asset domain.BondAssetID, err error) {
	d.l.Error("submission failed",
		zap.String("action", action.String()),
		zap.String("asset", asset.String()),
		zap.Error(err))
	d.reporter.Report(ctx, analytics.SubmissionFailed{
		Meta:   analytics.NewMeta(asset.String()),
		Action: action.String(),
		Reason: err.Error(),
	})
}
