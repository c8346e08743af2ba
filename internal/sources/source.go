// Package sources resolves an instrument identifier into a usable price
// series by walking an ordered ladder of data sources, swallowing
// per-source failures, and tagging the winner with its provenance.
package sources

import (
	"context"
	"errors"

	"github.com/wonny/fundlens/internal/series"
	"github.com/wonny/fundlens/pkg/date"
)

// ErrNoData is returned when every source in the chain has been tried and
// none produced a usable series. It is a legitimate outcome, not a fault:
// callers log it and move on to the next instrument.
var ErrNoData = errors.New("sources: no data available for this identifier")

// minUsableRecords is the record count a series must exceed to be accepted.
// Shorter results are typically an error page or a single stale quote.
const minUsableRecords = 10

// Instrument is what the resolver works from: at least one of ISIN or
// Ticker, with Name only used for logging.
type Instrument struct {
	ISIN   string
	Ticker string
	Name   string
}

// ID returns the identifier to key caches by: the ISIN when present, the
// ticker otherwise.
func (i Instrument) ID() string {
	if i.ISIN != "" {
		return i.ISIN
	}
	return i.Ticker
}

// Source is one rung of the ladder. Fetch returns a series (possibly empty
// when the source legitimately has nothing) or an error; the resolver treats
// both the same way and moves on.
type Source interface {
	Name() string
	Fetch(ctx context.Context, inst Instrument, from, to date.Date) (*series.Series, error)
}

// usable reports whether a fetched series is worth keeping.
func usable(s *series.Series) bool {
	return s != nil && s.Len() > minUsableRecords
}
