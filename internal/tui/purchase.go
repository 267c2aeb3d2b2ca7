// Package tui is the interactive terminal purchase flow.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/bondi/internal"
	"github.com/vadiminshakov/bondi/internal/domain"
	"github.com/vadiminshakov/bondi/internal/services/bonding"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warning   = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F87"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(0, 2).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtle).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().Foreground(subtle).Width(18)
	okStyle    = lipgloss.NewStyle().Foreground(special).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(warning).Bold(true)
)

// Bond is one purchasable bond, implemented by *internal.BondSession.
type Bond interface {
	View() (internal.BondView, error)
	Intent() domain.UserIntent
	SetQuantity(ctx context.Context, raw string)
	SetRecipient(address string)
	SetMax(ctx context.Context) error
	Click(ctx context.Context) (bonding.Result, error)
	Refresh(ctx context.Context)
	Close()
}

const (
	choiceAmount    = "amount"
	choiceMax       = "max"
	choiceRecipient = "recipient"
	choiceSubmit    = "submit"
	choiceRefresh   = "refresh"
	choiceBack      = "back"
	choiceQuit      = "quit"
)

// Purchase walks the user through picking a bond, entering an amount and
// running approve or bond.
type Purchase struct {
	bonds map[domain.BondAssetID]Bond
	order []domain.BondAssetID
	out   io.Writer
	l     *zap.Logger
}

// New creates the flow over bonds, in the given order.
func New(l *zap.Logger, out io.Writer, bonds ...Bond) *Purchase {
	if out == nil {
		out = os.Stdout
	}
	p := &Purchase{bonds: make(map[domain.BondAssetID]Bond, len(bonds)), out: out, l: l}
	for _, b := range bonds {
		v, err := b.View()
		if err != nil {
			l.Warn("skip bond without state", zap.Error(err))
			continue
		}
		p.bonds[v.Asset] = b
		p.order = append(p.order, v.Asset)
	}
	return p
}

// Run blocks until the user quits or ctx is done. Quitting returns nil.
func (p *Purchase) Run(ctx context.Context) error {
	if len(p.order) == 0 {
		return errors.New("no bonds to offer")
	}

	for {
		asset, err := p.pickBond(ctx)
		if err != nil {
			return p.finish(err)
		}
		if asset == "" {
			return nil
		}

		quit, err := p.bondScreen(ctx, p.bonds[asset])
		if err != nil {
			return p.finish(err)
		}
		if quit {
			return nil
		}
	}
}

func (p *Purchase) finish(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return nil
	}
	return err
}

func (p *Purchase) pickBond(ctx context.Context) (domain.BondAssetID, error) {
	p.header()

	options := make([]huh.Option[string], 0, len(p.order)+1)
	for _, asset := range p.order {
		v, _ := p.bonds[asset].View()
		options = append(options, huh.NewOption(fmt.Sprintf("%-12s %s%% ROI", asset, v.DiscountPercent), asset.String()))
	}
	options = append(options, huh.NewOption("Quit", choiceQuit))

	var choice string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Choose a bond").
				Options(options...).
				Value(&choice),
		),
	).RunWithContext(ctx)
	if err != nil {
		return "", err
	}
	if choice == choiceQuit {
		return "", nil
	}
	return domain.BondAssetID(choice), nil
}

func (p *Purchase) bondScreen(ctx context.Context, b Bond) (bool, error) {
	var status string
	for {
		v, err := b.View()
		if err != nil {
			return false, err
		}

		p.header()
		fmt.Fprintln(p.out, RenderView(v))
		if status != "" {
			fmt.Fprintln(p.out, status)
		}

		var choice string
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(string(v.Asset)).
					Options(Choices(v)...).
					Value(&choice),
			),
		).RunWithContext(ctx)
		if err != nil {
			return false, err
		}

		status = ""
		switch choice {
		case choiceAmount:
			raw := b.Intent().Quantity
			if err := p.input(ctx, "Amount", "in "+v.Units, &raw); err != nil {
				return false, err
			}
			b.SetQuantity(ctx, strings.TrimSpace(raw))
		case choiceMax:
			if err := b.SetMax(ctx); err != nil {
				status = errStyle.Render(err.Error())
			}
		case choiceRecipient:
			raw := b.Intent().RecipientAddress
			if err := p.input(ctx, "Recipient", "address that receives the payout", &raw); err != nil {
				return false, err
			}
			b.SetRecipient(strings.TrimSpace(raw))
		case choiceSubmit:
			res, err := b.Click(ctx)
			status = Describe(res, err)
			if err != nil && res.Outcome == bonding.OutcomeFailed {
				p.l.Error("submission failed", zap.String("asset", v.Asset.String()), zap.Error(err))
			}
		case choiceRefresh:
			b.Refresh(ctx)
		case choiceBack:
			return false, nil
		case choiceQuit:
			return true, nil
		}
		// let the quote catch up before redrawing
		b.Close()
	}
}

func (p *Purchase) input(ctx context.Context, title, description string, value *string) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Description(description).
				Value(value),
		),
	).RunWithContext(ctx)
}

func (p *Purchase) header() {
	fmt.Fprint(p.out, "\033[H\033[2J")
	fmt.Fprintln(p.out, headerStyle.Render("BONDI"))
}

// Choices lists the actions offered for v. The submit entry carries the
// button label and is left out while it is disabled.
func Choices(v internal.BondView) []huh.Option[string] {
	options := []huh.Option[string]{
		huh.NewOption("Enter amount", choiceAmount),
		huh.NewOption("Max", choiceMax),
		huh.NewOption("Change recipient", choiceRecipient),
	}
	if v.Connected && !v.ButtonDisabled {
		options = append(options, huh.NewOption(v.ButtonLabel, choiceSubmit))
	}
	return append(options,
		huh.NewOption("Refresh", choiceRefresh),
		huh.NewOption("Back", choiceBack),
		huh.NewOption("Quit", choiceQuit),
	)
}

// RenderView draws the bond panel.
func RenderView(v internal.BondView) string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
	}

	rows := []string{
		row("Bond discount", v.DiscountPercent.String()+"%"),
		row("Debt ratio", v.DebtRatio.String()+"%"),
		row("Vesting term", v.VestingTerm),
		row("Your balance", v.Balance.String()+" "+v.Units),
		row("Amount", v.Quantity+" "+v.Units),
		row("You will get", v.BondQuote.String()),
		row("Max you can buy", v.MaxBondPrice.String()),
	}
	if v.InterestDue.IsPositive() || v.PendingPayout.IsPositive() {
		rows = append(rows,
			row("Pending rewards", v.InterestDue.String()),
			row("Claimable", v.PendingPayout.String()),
		)
	}
	if v.RecipientDiffers {
		rows = append(rows, row("Recipient", v.Recipient))
	}
	if !v.Connected {
		rows = append(rows, errStyle.Render("wallet not connected"))
	} else if v.ButtonDisabled {
		rows = append(rows, row("Status", v.ButtonLabel))
	}

	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// Describe turns a submission result into a status line.
func Describe(res bonding.Result, err error) string {
	switch res.Outcome {
	case bonding.OutcomeSubmitted:
		return okStyle.Render("submitted " + res.Receipt.TxHash)
	case bonding.OutcomeDeclined:
		return labelStyle.UnsetWidth().Render("cancelled, existing bond kept")
	case bonding.OutcomeAlreadyPending:
		return labelStyle.UnsetWidth().Render("already pending")
	}
	if err != nil {
		return errStyle.Render(err.Error())
	}
	return errStyle.Render(res.Outcome.String())
}
