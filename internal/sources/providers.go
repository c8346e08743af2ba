package sources

import (
	"context"

	"github.com/wonny/fundlens/internal/external/alphavantage"
	"github.com/wonny/fundlens/internal/external/eodhd"
	"github.com/wonny/fundlens/internal/external/fmp"
	"github.com/wonny/fundlens/internal/external/scrape"
	"github.com/wonny/fundlens/internal/series"
	"github.com/wonny/fundlens/pkg/date"
)

// eodhdSource is the premium total-return source, first in the ladder when a
// key is configured.
type eodhdSource struct {
	client *eodhd.Client
}

func (s *eodhdSource) Name() string { return eodhd.SourceName }

func (s *eodhdSource) Fetch(ctx context.Context, inst Instrument, from, to date.Date) (*series.Series, error) {
	return s.client.FetchHistory(ctx, inst.ID(), from, to)
}

// alphaVantageSource needs a ticker; instruments known only by ISIN skip it.
type alphaVantageSource struct {
	client *alphavantage.Client
}

func (s *alphaVantageSource) Name() string { return alphavantage.SourceName }

func (s *alphaVantageSource) Fetch(ctx context.Context, inst Instrument, from, to date.Date) (*series.Series, error) {
	if inst.Ticker == "" {
		return series.New(nil), nil
	}
	return s.client.FetchDaily(ctx, inst.Ticker, from, to)
}

type fmpSource struct {
	client *fmp.Client
}

func (s *fmpSource) Name() string { return fmp.SourceName }

func (s *fmpSource) Fetch(ctx context.Context, inst Instrument, from, to date.Date) (*series.Series, error) {
	return s.client.FetchHistory(ctx, inst.ID(), from, to)
}

// scrapeFetch is the shape the portal scrapers share.
type scrapeFetch func(ctx context.Context, isin string) (*series.Series, error)

// scrapeSource adapts one portal scraper. Scrapers need an ISIN and are
// best-effort by construction.
type scrapeSource struct {
	name  string
	fetch scrapeFetch
}

func (s *scrapeSource) Name() string { return s.name }

func (s *scrapeSource) Fetch(ctx context.Context, inst Instrument, from, to date.Date) (*series.Series, error) {
	if inst.ISIN == "" {
		return series.New(nil), nil
	}
	out, err := s.fetch(ctx, inst.ISIN)
	if err != nil {
		return nil, err
	}
	return out.Clip(from, to), nil
}

func scrapeSources(scraper *scrape.Scraper) []Source {
	return []Source{
		&scrapeSource{name: scrape.MorningstarSource, fetch: scraper.Morningstar},
		&scrapeSource{name: scrape.FinanzenSource, fetch: scraper.Finanzen},
		&scrapeSource{name: scrape.JustETFSource, fetch: scraper.JustETF},
	}
}
