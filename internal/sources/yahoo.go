package sources

import (
	"context"
	"strings"
	"time"

	"github.com/wonny/fundlens/internal/analysis"
	"github.com/wonny/fundlens/internal/classify"
	"github.com/wonny/fundlens/internal/external/yahoo"
	"github.com/wonny/fundlens/internal/series"
	"github.com/wonny/fundlens/pkg/date"
)

// exchangeSuffixes are the Yahoo exchange suffixes tried, in order, when an
// ISIN is not listed under its bare form. The order roughly follows where
// European fund share classes actually list.
var exchangeSuffixes = []string{
	".L", ".PA", ".DE", ".MI", ".AS", ".SW", ".BR", ".VI", ".IR", ".LN", ".LS",
}

type yahooMode int

const (
	// yahooByTicker looks the instrument's known ticker up directly.
	yahooByTicker yahooMode = iota
	// yahooBySuffixes tries ISIN.<exchange> for each known suffix, stopping
	// at the first usable answer.
	yahooBySuffixes
	// yahooDirect uses the ISIN itself as the symbol; Yahoo lists many
	// European funds that way.
	yahooDirect
	// yahooIESuffix appends .IR for Irish ISINs, the one national prefix
	// with its own dedicated suffix convention.
	yahooIESuffix
)

// yahooSource adapts the Yahoo chart client into one rung of the ladder.
// The adjustment classifier is applied here, because what "price" means in
// the result depends on the instrument class.
type yahooSource struct {
	client *yahoo.Client
	calc   *analysis.Calculator
	mode   yahooMode
	name   string
}

func newYahooSource(client *yahoo.Client, calc *analysis.Calculator, mode yahooMode, name string) *yahooSource {
	return &yahooSource{client: client, calc: calc, mode: mode, name: name}
}

func (y *yahooSource) Name() string { return y.name }

func (y *yahooSource) Fetch(ctx context.Context, inst Instrument, from, to date.Date) (*series.Series, error) {
	for _, symbol := range y.symbols(inst) {
		h, err := y.client.FetchChart(ctx, symbol, from, to)
		if err != nil {
			return nil, err
		}
		if s := y.seriesFrom(inst, h); usable(s) {
			return s, nil
		}
	}
	return series.New(nil), nil
}

// symbols returns the candidate symbols for this mode, empty when the
// instrument lacks the identifier the mode needs.
func (y *yahooSource) symbols(inst Instrument) []string {
	switch y.mode {
	case yahooByTicker:
		if inst.Ticker == "" {
			return nil
		}
		return []string{inst.Ticker}
	case yahooBySuffixes:
		if inst.ISIN == "" {
			return nil
		}
		out := make([]string, len(exchangeSuffixes))
		for i, suffix := range exchangeSuffixes {
			out[i] = inst.ISIN + suffix
		}
		return out
	case yahooDirect:
		if inst.ISIN == "" {
			return nil
		}
		return []string{inst.ISIN}
	case yahooIESuffix:
		if !strings.HasPrefix(strings.ToUpper(inst.ISIN), "IE") {
			return nil
		}
		return []string{inst.ISIN + ".IR"}
	default:
		return nil
	}
}

// seriesFrom converts a chart into a series under the instrument's
// adjustment class.
//
// Domestic adjusted funds take Yahoo's native adjusted close when the chart
// carries one; when it does not, the adjusted price is reconstructed from
// the raw closes and distribution events. Everything else keeps the raw
// close with distributions in their own fields for the total-return
// calculator.
func (y *yahooSource) seriesFrom(inst Instrument, h *yahoo.History) *series.Series {
	if h == nil || len(h.Rows) == 0 {
		return series.New(nil)
	}

	cls := classify.Classify(inst.ISIN, inst.Ticker)

	if cls == classify.DomesticAdjustedFund && h.HasAdjClose {
		records := make([]series.Record, 0, len(h.Rows))
		for _, row := range h.Rows {
			price := row.AdjClose
			if price <= 0 {
				price = row.Close
			}
			records = append(records, series.Record{Date: row.Date, Price: price})
		}
		s := series.New(records)
		s.Source = y.name
		s.FetchedAt = time.Now()
		s.MarkAdjusted()
		return s
	}

	records := make([]series.Record, 0, len(h.Rows))
	for _, row := range h.Rows {
		records = append(records, series.Record{
			Date:        row.Date,
			Price:       row.Close,
			Dividend:    row.Dividend,
			CapitalGain: row.CapitalGain,
		})
	}
	s := series.New(records)
	s.Source = y.name
	s.FetchedAt = time.Now()

	if cls == classify.DomesticAdjustedFund {
		// Adjusted field missing where one was expected: reconstruct it.
		adj := y.calc.ReconstructAdjusted(s)
		adj.Source = y.name
		return adj
	}
	return s
}
