package sources

import (
	"context"
	"time"

	"github.com/wonny/fundlens/internal/series"
	"github.com/wonny/fundlens/pkg/date"
	"github.com/wonny/fundlens/pkg/logger"
)

// Resolver walks its sources in priority order and returns the first usable
// series.
type Resolver struct {
	sources []Source
	log     *logger.Logger
}

// NewResolver creates a Resolver over an ordered source list.
func NewResolver(log *logger.Logger, srcs ...Source) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{sources: srcs, log: log.WithComponent("resolver")}
}

// Sources returns the chain's source names in priority order.
func (r *Resolver) Sources() []string {
	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.Name()
	}
	return names
}

// Named returns the source with the given name.
func (r *Resolver) Named(name string) (Source, bool) {
	for _, s := range r.sources {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Resolve tries each source in order and returns the first non-empty series
// with more than 10 records, tagged with the producing source's name.
// Per-source failures are logged and swallowed; only full exhaustion
// surfaces, as ErrNoData.
func (r *Resolver) Resolve(ctx context.Context, inst Instrument, from, to date.Date) (*series.Series, error) {
	log := r.log.WithFields(map[string]interface{}{
		"isin":   inst.ISIN,
		"ticker": inst.Ticker,
	})

	for _, src := range r.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s, err := src.Fetch(ctx, inst, from, to)
		if err != nil {
			log.WithError(err).WithField("source", src.Name()).Debug("source failed, trying next")
			continue
		}
		if !usable(s) {
			log.WithFields(map[string]interface{}{
				"source":  src.Name(),
				"records": s.Len(),
			}).Debug("source returned too little data, trying next")
			continue
		}

		if s.Source == "" {
			s.Source = src.Name()
		}
		if s.FetchedAt.IsZero() {
			s.FetchedAt = time.Now()
		}

		log.WithFields(map[string]interface{}{
			"source":  s.Source,
			"records": s.Len(),
		}).Info("series resolved")
		return s, nil
	}

	log.Info("all sources exhausted")
	return nil, ErrNoData
}
