// Command bondi quotes and buys discounted bonds.
//
// Usage:
//
//	bondi setup                 (writes config.gen.yaml through a wizard)
//	bondi --config config.yaml
//	bondi --platform simulate --address 0x... (uses CLI arguments)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/bondi/config"
	"github.com/vadiminshakov/bondi/internal"
	"github.com/vadiminshakov/bondi/internal/analytics"
	"github.com/vadiminshakov/bondi/internal/events"
	"github.com/vadiminshakov/bondi/internal/services/bonding"
	"github.com/vadiminshakov/bondi/internal/services/chainwatch"
	"github.com/vadiminshakov/bondi/internal/services/confirm"
	"github.com/vadiminshakov/bondi/internal/services/economics"
	"github.com/vadiminshakov/bondi/internal/services/pending"
	"github.com/vadiminshakov/bondi/internal/setup"
	"github.com/vadiminshakov/bondi/internal/storage/analyticsjournal"
	"github.com/vadiminshakov/bondi/internal/storage/quotes"
	"github.com/vadiminshakov/bondi/internal/tui"
	"github.com/vadiminshakov/bondi/internal/web"
)

const sessionPollInterval = time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunTUI(setup.DefaultFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("run: bondi --config %s\n", setup.DefaultFile)
		return
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	conf, err := config.Get()
	if err != nil {
		logger.Fatal("failed to get configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, conf); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("bondi stopped", zap.Error(err))
	}
}

func run(ctx context.Context, logger *zap.Logger, conf config.Config) error {
	client, err := internal.NewClient(ctx, conf)
	if err != nil {
		return err
	}
	defer internal.CloseClient(client)

	provider, err := internal.NewServiceProvider(client)
	if err != nil {
		return err
	}

	store := quotes.NewStore(conf.Assets...)
	changes := events.NewPendingBroadcaster(64)
	registry := pending.NewRegistry(changes)

	sinks := []analytics.Sink{analytics.NewLogSink(logger)}
	var journal *analyticsjournal.WALStore
	if conf.AnalyticsDir != "" {
		journal, err = analyticsjournal.NewWALStore(conf.AnalyticsDir)
		if err != nil {
			return errors.Wrap(err, "open analytics journal")
		}
		defer journal.Close()
		sinks = append(sinks, journal)
	}
	reporter := analytics.NewReporter(logger, sinks...)

	// without a terminal nobody can agree to forfeit an existing bond
	var gate confirm.Gate = confirm.Static(false)
	if conf.Interactive {
		gate = confirm.NewTerminal(os.Stdout)
	}

	dispatcher, err := bonding.NewDispatcher(logger, store, provider.Wallet(), provider.Submitter(), gate, registry, reporter)
	if err != nil {
		return err
	}

	calc := economics.NewCalculator(conf.BlockRateSeconds)
	sessions := make([]*internal.BondSession, 0, len(conf.Assets))
	for _, asset := range conf.Assets {
		s, err := internal.NewBondSession(logger, asset, store, store, provider.Wallet(), provider.Loader(),
			dispatcher, calc, conf.Slippage, sessionPollInterval, conf.DiscardStale)
		if err != nil {
			return errors.Wrapf(err, "create bond session for %s", asset)
		}
		sessions = append(sessions, s)
	}
	defer func() {
		for _, s := range sessions {
			s.Close()
		}
	}()

	watcher := chainwatch.NewWatcher(logger, provider.ChainReader(), store, conf.PollBlockInterval, nil)
	if err := watcher.Poll(ctx); err != nil {
		logger.Warn("initial chain head read failed", zap.Error(err))
	} else if store.ChainID() != conf.ChainID {
		logger.Warn("connected to unexpected chain",
			zap.Uint64("chain_id", store.ChainID()), zap.Uint64("expected", conf.ChainID))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return watcher.Run(gctx) })
	for _, s := range sessions {
		g.Go(func() error { return s.Run(gctx) })
	}

	if conf.WebAddr != "" {
		var server *web.Server
		if journal != nil {
			server = web.NewServer(logger, conf.WebAddr, registry, changes, journal, sessions...)
		} else {
			server = web.NewServer(logger, conf.WebAddr, registry, changes, nil, sessions...)
		}
		if len(conf.TLSDomains) > 0 {
			g.Go(func() error { return server.StartWithAutoTLS(gctx, conf.TLSDomains, conf.TLSCacheDir) })
		} else {
			g.Go(func() error { return server.Start(gctx) })
		}
	}

	if conf.Interactive {
		bonds := make([]tui.Bond, 0, len(sessions))
		for _, s := range sessions {
			bonds = append(bonds, s)
		}
		purchase := tui.New(logger, os.Stdout, bonds...)
		g.Go(func() error {
			// leaving the purchase flow ends the process
			defer cancel()
			return purchase.Run(gctx)
		})
	}

	logger.Info("bondi started",
		zap.String("platform", conf.Platform),
		zap.Int("bonds", len(sessions)),
		zap.Bool("interactive", conf.Interactive),
		zap.String("web", conf.WebAddr))

	return g.Wait()
}
