// Package compose fetches portfolio composition, sector weights and top
// holdings, through a provider chain with a 24-hour cache in front.
package compose

import (
	"context"

	"github.com/wonny/fundlens/internal/cache"
	"github.com/wonny/fundlens/internal/external/fmp"
	"github.com/wonny/fundlens/internal/external/scrape"
	"github.com/wonny/fundlens/internal/external/yahoo"
	"github.com/wonny/fundlens/internal/sources"
	"github.com/wonny/fundlens/pkg/logger"
)

// Holding is one portfolio position.
type Holding struct {
	Name      string  `json:"name"`
	WeightPct float64 `json:"weight_pct"`
}

// Composition is an instrument's portfolio breakdown. Either part may be
// empty; many providers report one without the other.
type Composition struct {
	Sectors  map[string]float64 `json:"sectors,omitempty"`
	Holdings []Holding          `json:"holdings,omitempty"`
	Source   string             `json:"source,omitempty"`
}

// Empty reports whether no provider returned anything.
func (c *Composition) Empty() bool {
	return c == nil || (len(c.Sectors) == 0 && len(c.Holdings) == 0)
}

// Deps are the composition providers. FMP is nil without an API key.
type Deps struct {
	Cache   *cache.Manager
	Yahoo   *yahoo.Client
	FMP     *fmp.Client
	Scraper *scrape.Scraper
}

// Composer resolves compositions through the chain Yahoo fund profile, FMP
// ETF holdings, Morningstar portfolio scrape.
type Composer struct {
	deps   Deps
	logger *logger.Logger
}

func New(deps Deps, log *logger.Logger) *Composer {
	if log == nil {
		log = logger.Nop()
	}
	return &Composer{deps: deps, logger: log.WithComponent("compose")}
}

// Compose returns the instrument's composition. An empty composition is a
// legitimate answer and is cached like any other, so instruments without
// published portfolios are not re-asked every run.
func (c *Composer) Compose(ctx context.Context, inst sources.Instrument, symbol string) (*Composition, error) {
	if c.deps.Cache != nil {
		var cached Composition
		if source, err := c.deps.Cache.GetJSON(ctx, inst.ID(), cache.KindComposition, &cached); err == nil {
			if cached.Source == "" {
				cached.Source = source
			}
			return &cached, nil
		}
	}

	out := c.fetch(ctx, inst, symbol)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if c.deps.Cache != nil {
		if err := c.deps.Cache.PutJSON(ctx, inst.ID(), cache.KindComposition, out, out.Source); err != nil {
			c.logger.WithError(err).Warn("failed to cache composition")
		}
	}
	return out, nil
}

func (c *Composer) fetch(ctx context.Context, inst sources.Instrument, symbol string) *Composition {
	if symbol == "" {
		symbol = inst.Ticker
	}

	if symbol != "" && c.deps.Yahoo != nil {
		profile, err := c.deps.Yahoo.FetchProfile(ctx, symbol)
		if err != nil {
			c.logger.WithError(err).WithField("symbol", symbol).Debug("yahoo profile failed")
		} else if got := fromYahoo(profile); !got.Empty() {
			return got
		}
	}

	if symbol != "" && c.deps.FMP != nil {
		holdings, err := c.deps.FMP.FetchETFHoldings(ctx, symbol)
		if err != nil {
			c.logger.WithError(err).WithField("symbol", symbol).Debug("fmp holdings failed")
		} else if got := fromFMP(holdings); !got.Empty() {
			return got
		}
	}

	if inst.ISIN != "" && c.deps.Scraper != nil {
		holdings, err := c.deps.Scraper.MorningstarComposition(ctx, inst.ISIN)
		if err != nil {
			c.logger.WithError(err).WithField("isin", inst.ISIN).Debug("morningstar portfolio failed")
		} else if got := fromScrape(holdings); !got.Empty() {
			return got
		}
	}

	c.logger.WithField("instrument", inst.ID()).Debug("no composition found")
	return &Composition{}
}

func fromYahoo(p *yahoo.Profile) *Composition {
	if p == nil {
		return &Composition{}
	}
	out := &Composition{Source: "Yahoo Finance"}
	if len(p.Sectors) > 0 {
		out.Sectors = p.Sectors
	}
	for _, h := range p.Holdings {
		out.Holdings = append(out.Holdings, Holding{Name: h.Name, WeightPct: h.Weight})
	}
	return out
}

func fromFMP(holdings []fmp.ETFHolding) *Composition {
	out := &Composition{Source: fmp.SourceName}
	for _, h := range holdings {
		name := h.Name
		if name == "" {
			name = h.Asset
		}
		out.Holdings = append(out.Holdings, Holding{Name: name, WeightPct: h.WeightPct})
	}
	return out
}

func fromScrape(holdings []scrape.Holding) *Composition {
	out := &Composition{Source: scrape.MorningstarSource}
	for _, h := range holdings {
		out.Holdings = append(out.Holdings, Holding{Name: h.Name, WeightPct: h.WeightPct})
	}
	return out
}
