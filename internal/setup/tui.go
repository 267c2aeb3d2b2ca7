package setup

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/bondi/config"
	"github.com/vadiminshakov/bondi/internal/domain"
)

// DefaultFile is where the wizard writes the generated config.
const DefaultFile = "config.gen.yaml"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// Answers holds what the wizard collected.
type Answers struct {
	Platform     string
	RPCURL       string
	ChainID      string
	Address      string
	Assets       []string
	Slippage     string
	AnalyticsDir string
}

// DefaultAnswers are the prefilled wizard values.
func DefaultAnswers() Answers {
	return Answers{
		Platform: config.PlatformSimulate,
		ChainID:  "1",
		Assets:   []string{domain.BondDAI.String(), domain.BondFRAX.String()},
		Slippage: "0.5",
	}
}

// RunTUI launches the terminal configuration wizard and writes the result to path.
func RunTUI(path string) error {
	a := DefaultAnswers()

	// step 1: backend
	header()
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Configure where bonds are quoted and bought.\n"))
	fmt.Println(stepStyle.Render("STEP 1: BACKEND"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Chain backend").
				Options(
					huh.NewOption("Simulation", config.PlatformSimulate),
					huh.NewOption("EVM node (read-only head)", config.PlatformEVM),
				).
				Value(&a.Platform),
		),
	).Run()
	if err != nil {
		return err
	}

	if a.Platform == config.PlatformEVM {
		header()
		fmt.Println(stepStyle.Render("STEP 1b: NODE"))
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("JSON-RPC URL").
					Value(&a.RPCURL).
					Validate(func(s string) error {
						if s == "" {
							return fmt.Errorf("rpc url cannot be empty")
						}
						return nil
					}),
				huh.NewInput().
					Title("Chain ID").
					Value(&a.ChainID).
					Validate(validateChainID),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	// step 2: wallet
	header()
	fmt.Println(stepStyle.Render("STEP 2: WALLET"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Wallet address").
				Description("Leave empty to browse bonds without a wallet").
				Value(&a.Address).
				Validate(validateAddress),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 3: bonds
	header()
	fmt.Println(stepStyle.Render("STEP 3: BONDS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Bonds to offer").
				Options(
					huh.NewOption("DAI", domain.BondDAI.String()),
					huh.NewOption("FRAX", domain.BondFRAX.String()),
					huh.NewOption("wETH", domain.BondETH.String()),
					huh.NewOption("OHM-DAI LP", domain.BondOHMDAILP.String()),
					huh.NewOption("OHM-FRAX LP", domain.BondOHMFRAXLP.String()),
				).
				Value(&a.Assets).
				Validate(func(s []string) error {
					if len(s) == 0 {
						return fmt.Errorf("pick at least one bond")
					}
					return nil
				}),
			huh.NewInput().
				Title("Slippage %").
				Value(&a.Slippage).
				Validate(validateSlippage),
			huh.NewInput().
				Title("Analytics journal directory").
				Description("Leave empty to only log analytics events").
				Value(&a.AnalyticsDir),
		),
	).Run()
	if err != nil {
		return err
	}

	// confirmation
	header()
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(a.Summary()))

	var save bool
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&save),
		),
	).Run()
	if err != nil {
		return err
	}
	if !save {
		return fmt.Errorf("setup cancelled by user")
	}

	if err := Write(path, a); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", path)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message
	return nil
}

// Summary is the text shown before saving.
func (a Answers) Summary() string {
	return fmt.Sprintf(
		"Platform: %s\nRPC: %s\nWallet: %s\nBonds: %v\nSlippage: %s%%\n",
		a.Platform, a.RPCURL, a.Address, a.Assets, a.Slippage,
	)
}

// ConfigTmp converts the answers to the raw yaml config.
func (a Answers) ConfigTmp() (config.ConfigTmp, error) {
	chainID, err := decimal.NewFromString(a.ChainID)
	if err != nil {
		return config.ConfigTmp{}, fmt.Errorf("invalid chain id %q: %w", a.ChainID, err)
	}

	return config.ConfigTmp{
		Platform:     a.Platform,
		RPCURL:       a.RPCURL,
		ChainID:      uint64(chainID.IntPart()),
		Address:      a.Address,
		Assets:       a.Assets,
		SlippageStr:  a.Slippage,
		AnalyticsDir: a.AnalyticsDir,
	}, nil
}

// Write stores the answers as yaml at path.
func Write(path string, a Answers) error {
	tmp, err := a.ConfigTmp()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(tmp)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

func header() {
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("BONDI CONFIG WIZARD"))
}

func validateChainID(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() || !d.IsPositive() {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}

func validateAddress(s string) error {
	if s != "" && !common.IsHexAddress(s) {
		return fmt.Errorf("not a valid address")
	}
	return nil
}

func validateSlippage(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("must be between 0 and 100")
	}
	return nil
}
