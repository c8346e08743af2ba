// Package analysis computes total-return series, per-instrument metrics, and
// the cross-instrument comparison table.
package analysis

import (
	"github.com/wonny/fundlens/internal/series"
	"github.com/wonny/fundlens/pkg/date"
	"github.com/wonny/fundlens/pkg/logger"
)

// ExDistributionDrop is the day-over-day price change below which a
// distribution day is treated as ex-distribution, so the payout is added back
// into the daily multiplier. A distribution without such a drop is assumed to
// already be reflected in the price (or to be provider noise) and is skipped
// rather than double counted.
//
// The -1% cutoff is a heuristic carried over from the data sources this tool
// grew up with; it has not been validated against a known-good reference
// return series.
const ExDistributionDrop = -0.01

// TotalReturnSeries is a cumulative total-return series, one value per
// observed date, seeded at the first price.
type TotalReturnSeries struct {
	Dates  []date.Date
	Values []float64
}

// Len returns the number of observations.
func (t TotalReturnSeries) Len() int { return len(t.Values) }

// First returns the first value. Callers must check Len first.
func (t TotalReturnSeries) First() float64 { return t.Values[0] }

// Last returns the last value. Callers must check Len first.
func (t TotalReturnSeries) Last() float64 { return t.Values[len(t.Values)-1] }

// At returns the value on the given date.
func (t TotalReturnSeries) At(d date.Date) (float64, bool) {
	for i, td := range t.Dates {
		if td.Equal(d) {
			return t.Values[i], true
		}
	}
	return 0, false
}

// Calculator derives total-return series from price series.
type Calculator struct {
	log *logger.Logger
}

// NewCalculator creates a Calculator. A nil logger falls back to a no-op
// logger.
func NewCalculator(log *logger.Logger) *Calculator {
	if log == nil {
		log = logger.Nop()
	}
	return &Calculator{log: log.WithComponent("analysis")}
}

// TotalReturn produces the cumulative total-return series for s.
//
// Adjusted series need only the running product of day-over-day price ratios:
// the price already embeds reinvested distributions. Unadjusted series run
// the same product with each day's multiplier widened by that day's
// distribution when the price action shows an ex-distribution drop.
//
// When the series holds any positive distribution the final total return must
// come out at or above the pure price return; a violation is logged as a
// warning but the series is still returned, since the data is frequently the
// only data there is.
func (c *Calculator) TotalReturn(s *series.Series) TotalReturnSeries {
	if s.Len() == 0 {
		return TotalReturnSeries{}
	}

	out := TotalReturnSeries{
		Dates:  s.Dates(),
		Values: make([]float64, s.Len()),
	}

	value := s.First().Price
	out.Values[0] = value

	for i := 1; i < s.Len(); i++ {
		prev := s.Records[i-1].Price
		curr := s.Records[i]

		var dist float64
		if !s.Adjusted {
			dist = curr.Distribution()
		}

		value *= dailyMultiplier(prev, curr.Price, dist)
		out.Values[i] = value
	}

	c.checkPostCondition(s, out)
	return out
}

// ReconstructAdjusted rebuilds an adjusted price series for an unadjusted
// series whose source lacks a native adjusted-close field. The result carries
// the cumulative product of the same daily multipliers TotalReturn uses,
// seeded at the first raw price, and is marked adjusted.
func (c *Calculator) ReconstructAdjusted(s *series.Series) *series.Series {
	tr := c.TotalReturn(s)

	records := make([]series.Record, tr.Len())
	for i := range tr.Values {
		records[i] = series.Record{Date: tr.Dates[i], Price: tr.Values[i]}
	}

	out := series.New(records)
	out.Source = s.Source
	out.FetchedAt = s.FetchedAt
	out.MarkAdjusted()
	return out
}

// dailyMultiplier returns the growth factor from one day to the next. A
// distribution is added back only when the price dropped past the
// ex-distribution threshold; otherwise the close is trusted as-is.
func dailyMultiplier(prev, curr, dist float64) float64 {
	if prev <= 0 {
		return 1
	}
	if dist > 0 {
		change := curr/prev - 1
		if change < ExDistributionDrop {
			return (curr + dist) / prev
		}
	}
	return curr / prev
}

func (c *Calculator) checkPostCondition(s *series.Series, tr TotalReturnSeries) {
	if s.Adjusted || !s.HasDistributions() || tr.Len() < 2 {
		return
	}

	priceRatio := s.Last().Price / s.First().Price
	totalRatio := tr.Last() / tr.First()

	if totalRatio < priceRatio {
		c.log.WithFields(map[string]interface{}{
			"source":       s.Source,
			"price_ratio":  priceRatio,
			"total_ratio":  totalRatio,
			"observations": tr.Len(),
		}).Warn("total return below price return despite positive distributions")
	}
}
