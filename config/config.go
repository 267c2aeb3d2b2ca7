package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/bondi/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	PlatformSimulate = "simulate"
	PlatformEVM      = "evm"
)

type Config struct {
	Platform          string               `validate:"oneof=simulate evm"`
	RPCURL            string               `validate:"omitempty,url"`
	ChainID           uint64               `validate:"required"`
	Address           string               `validate:"omitempty,eth_addr"`
	Assets            []domain.BondAssetID `validate:"required,min=1,dive,required"`
	BlockRateSeconds  float64              `validate:"gt=0"`
	Slippage          decimal.Decimal
	PollBlockInterval time.Duration `validate:"gt=0"`
	AnalyticsDir      string
	WebAddr           string
	TLSDomains        []string
	TLSCacheDir       string
	Interactive       bool
	DiscardStale      bool
}

type ConfigTmp struct {
	Platform          string        `yaml:"platform"`
	RPCURL            string        `yaml:"rpc_url,omitempty"`
	ChainID           uint64        `yaml:"chain_id"`
	Address           string        `yaml:"address,omitempty"`
	Assets            []string      `yaml:"assets"`
	BlockRateSeconds  float64       `yaml:"block_rate_seconds,omitempty"`
	SlippageStr       string        `yaml:"slippage,omitempty"`
	PollBlockInterval time.Duration `yaml:"poll_block_interval,omitempty"`
	AnalyticsDir      string        `yaml:"analytics_dir,omitempty"`
	WebAddr           string        `yaml:"web_addr,omitempty"`
	TLSDomains        []string      `yaml:"tls_domains,omitempty"`
	TLSCacheDir       string        `yaml:"tls_cache_dir,omitempty"`
	Interactive       *bool         `yaml:"interactive,omitempty"`
	DiscardStale      *bool         `yaml:"discard_stale_quotes,omitempty"`
}

// Get reads the config from --config or from command line flags.
func Get() (Config, error) {
	return Parse(os.Args[1:])
}

// Parse is Get over an explicit argument list.
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("bondi", flag.ContinueOnError)
	path := fs.String("config", "", "path to yaml config")
	platform := fs.String("platform", PlatformSimulate, "chain backend: simulate or evm")
	rpcURL := fs.String("rpc", "", "json-rpc endpoint, required for --platform=evm")
	chainID := fs.Uint64("chainid", 1, "expected chain id")
	address := fs.String("address", "", "wallet address")
	assets := fs.String("assets", "dai,frax,eth,ohm_dai_lp,ohm_frax_lp", "comma separated bond ids")
	blockRate := fs.Float64("blockrate", 13.14, "average seconds per block")
	slippage := fs.String("slippage", "0.5", "max slippage in percent")
	poll := fs.Duration("pollblockinterval", 12*time.Second, "chain head poll interval")
	analyticsDir := fs.String("analyticsdir", "", "analytics journal directory, empty disables it")
	webAddr := fs.String("web", "", "address for the json api, empty disables it")
	interactive := fs.Bool("interactive", true, "run the terminal purchase flow")
	discardStale := fs.Bool("discardstale", true, "drop quotes computed for superseded inputs")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if *path != "" {
		return getYaml(*path)
	}

	tmp := ConfigTmp{
		Platform:          *platform,
		RPCURL:            *rpcURL,
		ChainID:           *chainID,
		Address:           *address,
		Assets:            strings.Split(*assets, ","),
		BlockRateSeconds:  *blockRate,
		SlippageStr:       *slippage,
		PollBlockInterval: *poll,
		AnalyticsDir:      *analyticsDir,
		WebAddr:           *webAddr,
		Interactive:       interactive,
		DiscardStale:      discardStale,
	}

	return tmp.toConfig()
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}

	var tmp ConfigTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}

	return tmp.toConfig()
}

func (c ConfigTmp) toConfig() (Config, error) {
	cfg := Config{
		Platform:          strings.ToLower(strings.TrimSpace(c.Platform)),
		RPCURL:            c.RPCURL,
		ChainID:           c.ChainID,
		Address:           c.Address,
		BlockRateSeconds:  c.BlockRateSeconds,
		PollBlockInterval: c.PollBlockInterval,
		AnalyticsDir:      c.AnalyticsDir,
		WebAddr:           c.WebAddr,
		TLSDomains:        c.TLSDomains,
		TLSCacheDir:       c.TLSCacheDir,
		Interactive:       true,
		DiscardStale:      true,
	}

	if cfg.Platform == "" {
		cfg.Platform = PlatformSimulate
	}
	if cfg.BlockRateSeconds == 0 {
		cfg.BlockRateSeconds = 13.14
	}
	if cfg.PollBlockInterval == 0 {
		cfg.PollBlockInterval = 12 * time.Second
	}
	if c.Interactive != nil {
		cfg.Interactive = *c.Interactive
	}
	if c.DiscardStale != nil {
		cfg.DiscardStale = *c.DiscardStale
	}

	if c.SlippageStr == "" {
		cfg.Slippage = decimal.RequireFromString("0.5")
	} else {
		slippage, err := decimal.NewFromString(c.SlippageStr)
		if err != nil {
			return Config{}, errors.Wrapf(err, "incorrect 'slippage' param %q (must be a decimal)", c.SlippageStr)
		}
		if slippage.IsNegative() || slippage.GreaterThan(decimal.NewFromInt(100)) {
			return Config{}, errors.Errorf("incorrect 'slippage' param %s (must be between 0 and 100)", slippage)
		}
		cfg.Slippage = slippage
	}

	seen := make(map[domain.BondAssetID]struct{}, len(c.Assets))
	for _, raw := range c.Assets {
		asset := domain.BondAssetID(strings.ToLower(strings.TrimSpace(raw)))
		if asset == "" {
			continue
		}
		if _, dup := seen[asset]; dup {
			continue
		}
		seen[asset] = struct{}{}
		cfg.Assets = append(cfg.Assets, asset)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if len(c.TLSDomains) > 0 && c.WebAddr == "" {
		return errors.New("invalid config: tls_domains need web_addr")
	}
	if c.Platform == PlatformEVM && c.RPCURL == "" {
		return errors.New("invalid config: rpc_url is required for evm platform")
	}
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}
