// Package describe produces human-readable instrument descriptions by
// walking a provider chain, mirroring the price-source ladder: structured
// APIs first, encyclopedic and scraped text last.
package describe

import (
	"context"
	"strings"

	"github.com/wonny/fundlens/internal/cache"
	"github.com/wonny/fundlens/internal/external/alphavantage"
	"github.com/wonny/fundlens/internal/external/figi"
	"github.com/wonny/fundlens/internal/external/fmp"
	"github.com/wonny/fundlens/internal/external/scrape"
	"github.com/wonny/fundlens/internal/external/wikipedia"
	"github.com/wonny/fundlens/internal/external/yahoo"
	"github.com/wonny/fundlens/internal/sources"
	"github.com/wonny/fundlens/pkg/logger"
)

// maxDescriptionLen bounds stored descriptions; provider texts run to whole
// prospectus pages otherwise.
const maxDescriptionLen = 1000

// Deps are the providers the chain draws on. Yahoo, Wikipedia, OpenFIGI and
// the scraper are always available; AlphaVantage and FMP are nil without an
// API key and their rungs are skipped.
type Deps struct {
	Cache        *cache.Manager
	Yahoo        *yahoo.Client
	AlphaVantage *alphavantage.Client
	FMP          *fmp.Client
	Wikipedia    *wikipedia.Client
	FIGI         *figi.Client
	Scraper      *scrape.Scraper
}

// Describer resolves descriptions with a 7-day cache in front.
type Describer struct {
	deps   Deps
	logger *logger.Logger
}

func New(deps Deps, log *logger.Logger) *Describer {
	if log == nil {
		log = logger.Nop()
	}
	return &Describer{deps: deps, logger: log.WithComponent("describe")}
}

// Describe returns the instrument's description and the provider that
// supplied it. Provider failures are logged and the chain moves on; an empty
// result means every rung came back empty, which is not an error.
func (d *Describer) Describe(ctx context.Context, inst sources.Instrument) (string, string, error) {
	if d.deps.Cache != nil {
		if text, source, err := d.deps.Cache.GetText(ctx, inst.ID(), cache.KindDescription); err == nil {
			return text, source, nil
		}
	}

	symbol := d.Ticker(ctx, inst)

	type rung struct {
		source string
		fetch  func() (string, error)
	}

	var chain []rung
	if symbol != "" {
		chain = append(chain, rung{"Yahoo Finance", func() (string, error) {
			return d.deps.Yahoo.FetchDescription(ctx, symbol)
		}})
		if d.deps.AlphaVantage != nil {
			chain = append(chain, rung{alphavantage.SourceName, func() (string, error) {
				return d.deps.AlphaVantage.FetchOverview(ctx, symbol)
			}})
		}
		if d.deps.FMP != nil {
			chain = append(chain, rung{fmp.SourceName, func() (string, error) {
				return d.deps.FMP.FetchProfile(ctx, symbol)
			}})
		}
	}
	if inst.Name != "" {
		chain = append(chain, rung{"Wikipedia", func() (string, error) {
			return d.deps.Wikipedia.Summary(ctx, inst.Name)
		}})
	}
	if inst.ISIN != "" {
		chain = append(chain, rung{scrape.MorningstarSource, func() (string, error) {
			return d.deps.Scraper.MorningstarDescription(ctx, inst.ISIN)
		}})
	}

	for _, r := range chain {
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}

		text, err := r.fetch()
		if err != nil {
			d.logger.WithError(err).WithFields(map[string]interface{}{
				"instrument": inst.ID(),
				"source":     r.source,
			}).Debug("description source failed")
			continue
		}
		if text = clipSentence(strings.TrimSpace(text), maxDescriptionLen); text == "" {
			continue
		}

		if d.deps.Cache != nil {
			if err := d.deps.Cache.PutText(ctx, inst.ID(), cache.KindDescription, text, r.source); err != nil {
				d.logger.WithError(err).Warn("failed to cache description")
			}
		}
		return text, r.source, nil
	}

	d.logger.WithField("instrument", inst.ID()).Debug("no description found")
	return "", "", nil
}

// Ticker returns the best known ticker for the instrument: the registered
// one, or an OpenFIGI lookup cached for 30 days. Empty when neither works.
func (d *Describer) Ticker(ctx context.Context, inst sources.Instrument) string {
	if inst.Ticker != "" {
		return inst.Ticker
	}
	if m := d.Mapping(ctx, inst.ISIN); m != nil {
		return m.Ticker
	}
	return ""
}

// Mapping resolves an ISIN through OpenFIGI, consulting the mapping cache
// first. Unknown ISINs and lookup failures both return nil.
func (d *Describer) Mapping(ctx context.Context, isin string) *figi.Mapping {
	if isin == "" {
		return nil
	}

	if d.deps.Cache != nil {
		var cached figi.Mapping
		if _, err := d.deps.Cache.GetJSON(ctx, isin, cache.KindMapping, &cached); err == nil {
			return &cached
		}
	}

	if d.deps.FIGI == nil {
		return nil
	}
	m, err := d.deps.FIGI.Map(ctx, isin)
	if err != nil {
		d.logger.WithError(err).WithField("isin", isin).Debug("figi lookup failed")
		return nil
	}
	if m == nil {
		return nil
	}

	if d.deps.Cache != nil {
		if err := d.deps.Cache.PutJSON(ctx, isin, cache.KindMapping, m, "OpenFIGI"); err != nil {
			d.logger.WithError(err).Warn("failed to cache figi mapping")
		}
	}
	return m
}

// clipSentence bounds text to max characters, preferring to cut at the end
// of a sentence and falling back to a word boundary.
func clipSentence(text string, max int) string {
	if len(text) <= max {
		return text
	}

	cut := text[:max]
	if i := strings.LastIndex(cut, ". "); i > max/2 {
		return cut[:i+1]
	}
	if i := strings.LastIndex(cut, " "); i > 0 {
		return strings.TrimSpace(cut[:i]) + "…"
	}
	return cut
}
