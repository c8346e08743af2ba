// Package commands implements the fundlens CLI.
package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/fundlens/internal/cache"
	"github.com/wonny/fundlens/internal/compose"
	"github.com/wonny/fundlens/internal/describe"
	"github.com/wonny/fundlens/internal/external/alphavantage"
	"github.com/wonny/fundlens/internal/external/figi"
	"github.com/wonny/fundlens/internal/external/fmp"
	"github.com/wonny/fundlens/internal/external/scrape"
	"github.com/wonny/fundlens/internal/external/wikipedia"
	"github.com/wonny/fundlens/internal/external/yahoo"
	"github.com/wonny/fundlens/internal/pipeline"
	"github.com/wonny/fundlens/internal/registry"
	"github.com/wonny/fundlens/internal/sources"
	"github.com/wonny/fundlens/internal/validate"
	"github.com/wonny/fundlens/pkg/config"
	"github.com/wonny/fundlens/pkg/database"
	"github.com/wonny/fundlens/pkg/httputil"
	"github.com/wonny/fundlens/pkg/logger"
	"github.com/wonny/fundlens/pkg/redisutil"
)

var rootCmd = &cobra.Command{
	Use:   "fundlens",
	Short: "fundlens - fund and ETF performance analysis",
	Long: `fundlens fetches historical prices for funds, ETFs and equities from a
ladder of public and premium sources, computes distribution-aware total
returns, and compares instruments on a common base-100 scale.

Examples:
  fundlens fetch
  fundlens compare --start 2020-01-01 --format csv --out comparison.csv
  fundlens describe IE00B4L5Y983
  fundlens serve`,
	SilenceUsage: true,
}

// Global flags, applied over the environment configuration.
var (
	flagLogLevel  string
	flagLogFormat string
	flagCacheDir  string
	flagFunds     string
)

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format (json|console)")
	rootCmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "file cache directory")
	rootCmd.PersistentFlags().StringVar(&flagFunds, "funds", "", "registry file (YAML or plain ISIN list)")
}

// app bundles everything a command needs, built once per invocation.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	store     cache.Store
	manager   *cache.Manager
	resolver  *sources.Resolver
	describer *describe.Describer
	composer  *compose.Composer
	pipe      *pipeline.Pipeline
	service   *pipeline.Service
	funds     []registry.Fund

	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp loads configuration, applies flag overrides, and wires the full
// dependency graph: cache backend, source ladder, metadata chains, pipeline.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.Log.Format = flagLogFormat
	}
	if flagCacheDir != "" {
		cfg.Cache.Dir = flagCacheDir
	}
	if flagFunds != "" {
		cfg.FundsFile = flagFunds
	}

	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	a := &app{cfg: cfg, log: log}

	if err := a.openCache(ctx); err != nil {
		return nil, err
	}
	a.manager = cache.NewManager(a.store, log)

	a.resolver = sources.Default(cfg.Sources, log)

	apiClient := func() *httputil.Client {
		return httputil.New(log, httputil.Options{
			Timeout:         cfg.Sources.HTTPTimeout,
			MaxRetries:      cfg.Sources.HTTPRetries,
			RequestInterval: cfg.Sources.RequestInterval,
		})
	}
	yahooClient := yahoo.NewClient(apiClient(), log)
	scraper := scrape.New(httputil.New(log, httputil.Options{
		Timeout:         cfg.Sources.HTTPTimeout,
		MaxRetries:      cfg.Sources.HTTPRetries,
		RequestInterval: cfg.Sources.RequestInterval,
		Headers:         scrape.BrowserHeaders,
	}), log)

	var avClient *alphavantage.Client
	if cfg.Sources.AlphaVantageKey != "" {
		avClient = alphavantage.NewClient(apiClient(), cfg.Sources.AlphaVantageKey, log)
	}
	var fmpClient *fmp.Client
	if cfg.Sources.FMPAPIKey != "" {
		fmpClient = fmp.NewClient(apiClient(), cfg.Sources.FMPAPIKey, log)
	}

	a.describer = describe.New(describe.Deps{
		Cache:        a.manager,
		Yahoo:        yahooClient,
		AlphaVantage: avClient,
		FMP:          fmpClient,
		Wikipedia:    wikipedia.NewClient(apiClient(), log),
		FIGI:         figi.NewClient(apiClient(), cfg.Sources.OpenFIGIKey, log),
		Scraper:      scraper,
	}, log)

	a.composer = compose.New(compose.Deps{
		Cache:   a.manager,
		Yahoo:   yahooClient,
		FMP:     fmpClient,
		Scraper: scraper,
	}, log)

	if cfg.FundsFile != "" {
		a.funds, err = registry.Load(cfg.FundsFile)
		if err != nil {
			a.Close()
			return nil, err
		}
	} else {
		a.funds = registry.Defaults()
	}

	a.pipe = pipeline.New(pipeline.Options{
		Resolver:  a.resolver,
		Cache:     a.manager,
		Validator: validate.New(validate.DefaultThresholds(), log),
		Describer: a.describer,
		Composer:  a.composer,
		Analysis:  cfg.Analysis,
	}, log)
	a.service = pipeline.NewService(a.pipe, a.funds, log)

	return a, nil
}

// newAdHocService runs the same pipeline over an explicit instrument list
// instead of the registry.
func newAdHocService(a *app, funds []registry.Fund) *pipeline.Service {
	return pipeline.NewService(a.pipe, funds, a.log)
}

// openCache selects the configured backend.
func (a *app) openCache(ctx context.Context) error {
	switch a.cfg.Cache.Backend {
	case config.BackendPostgres:
		db, err := database.New(ctx, a.cfg.Database, a.log)
		if err != nil {
			return fmt.Errorf("open postgres cache: %w", err)
		}
		a.closers = append(a.closers, db.Close)

		store, err := cache.NewPostgresStore(ctx, db, a.log)
		if err != nil {
			return fmt.Errorf("open postgres cache: %w", err)
		}
		a.store = store

	case config.BackendRedis:
		client, err := redisutil.New(ctx, a.cfg.Redis)
		if err != nil {
			return fmt.Errorf("open redis cache: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.store = cache.NewRedisStore(client, a.log)

	default:
		store, err := cache.NewFileStore(a.cfg.Cache.Dir, a.log)
		if err != nil {
			return fmt.Errorf("open file cache: %w", err)
		}
		a.store = store
	}
	return nil
}

// resolveTargets turns command arguments into funds: registered instruments
// by identifier, or ad-hoc ISINs and tickers.
func (a *app) resolveTargets(args []string) ([]registry.Fund, error) {
	if len(args) == 0 {
		return a.funds, nil
	}

	out := make([]registry.Fund, 0, len(args))
	for _, arg := range args {
		if f, ok := registry.Lookup(a.funds, arg); ok {
			out = append(out, f)
			continue
		}
		switch {
		case registry.LooksLikeISIN(arg):
			out = append(out, registry.Fund{ISIN: strings.ToUpper(arg)})
		case registry.LooksLikeTicker(arg):
			out = append(out, registry.Fund{Ticker: strings.ToUpper(arg)})
		default:
			return nil, fmt.Errorf("%q is neither a registered instrument, an ISIN, nor a ticker", arg)
		}
	}
	return out, nil
}
