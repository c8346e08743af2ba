package sources

import (
	"github.com/wonny/fundlens/internal/analysis"
	"github.com/wonny/fundlens/internal/external/alphavantage"
	"github.com/wonny/fundlens/internal/external/eodhd"
	"github.com/wonny/fundlens/internal/external/fmp"
	"github.com/wonny/fundlens/internal/external/scrape"
	"github.com/wonny/fundlens/internal/external/yahoo"
	"github.com/wonny/fundlens/pkg/config"
	"github.com/wonny/fundlens/pkg/httputil"
	"github.com/wonny/fundlens/pkg/logger"
)

// Yahoo source tags, one per lookup strategy, so provenance shows how the
// symbol was found.
const (
	YahooTickerSource = "Yahoo Finance"
	YahooSuffixSource = "Yahoo Finance (exchange suffix)"
	YahooISINSource   = "Yahoo Finance (ISIN)"
	YahooIrishSource  = "Yahoo Finance (IE suffix)"
)

// Default assembles the standard source ladder from the configuration:
//
//  1. EOD Historical Data, when keyed
//  2. Alpha Vantage, when keyed
//  3. Financial Modeling Prep, when keyed
//  4. Yahoo by known ticker
//  5. Yahoo by ISIN plus exchange suffixes
//  6. Yahoo by bare ISIN
//  7. Yahoo by ISIN.IR for Irish ISINs
//  8. portal scrapers (Morningstar, Finanzen.net, JustETF)
//
// An absent API key silently drops that rung; it is configuration, not an
// error. Each provider gets its own paced HTTP client so the 1-second
// spacing applies per provider, not across the whole ladder.
func Default(cfg config.SourcesConfig, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	calc := analysis.NewCalculator(log)

	apiClient := func() *httputil.Client {
		return httputil.New(log, httputil.Options{
			Timeout:         cfg.HTTPTimeout,
			MaxRetries:      cfg.HTTPRetries,
			RequestInterval: cfg.RequestInterval,
		})
	}

	var srcs []Source

	if cfg.EODAPIKey != "" {
		srcs = append(srcs, &eodhdSource{
			client: eodhd.NewClient(apiClient(), cfg.EODAPIKey, log),
		})
	}
	if cfg.AlphaVantageKey != "" {
		srcs = append(srcs, &alphaVantageSource{
			client: alphavantage.NewClient(apiClient(), cfg.AlphaVantageKey, log),
		})
	}
	if cfg.FMPAPIKey != "" {
		srcs = append(srcs, &fmpSource{
			client: fmp.NewClient(apiClient(), cfg.FMPAPIKey, log),
		})
	}

	yahooClient := yahoo.NewClient(apiClient(), log)
	srcs = append(srcs,
		newYahooSource(yahooClient, calc, yahooByTicker, YahooTickerSource),
		newYahooSource(yahooClient, calc, yahooBySuffixes, YahooSuffixSource),
		newYahooSource(yahooClient, calc, yahooDirect, YahooISINSource),
		newYahooSource(yahooClient, calc, yahooIESuffix, YahooIrishSource),
	)

	scraper := scrape.New(httputil.New(log, httputil.Options{
		Timeout:         cfg.HTTPTimeout,
		MaxRetries:      cfg.HTTPRetries,
		RequestInterval: cfg.RequestInterval,
		Headers:         scrape.BrowserHeaders,
	}), log)
	srcs = append(srcs, scrapeSources(scraper)...)

	return NewResolver(log, srcs...)
}
