package analysis

import (
	"math"
	"strings"

	"github.com/wonny/fundlens/pkg/date"
)

// tradingDaysPerYear annualizes daily volatility.
const tradingDaysPerYear = 252

// minBetaObservations is the minimum number of aligned daily observations
// before a beta is reported at all.
const minBetaObservations = 30

// Metrics is the per-instrument bundle handed to the report layer. All values
// are percentages except the ratios, rounded to two decimals.
type Metrics struct {
	TotalReturn      float64  `json:"total_return"`
	AnnualizedReturn float64  `json:"annualized_return"`
	Volatility       float64  `json:"volatility"`
	SharpeRatio      float64  `json:"sharpe_ratio"`
	MaxDrawdown      float64  `json:"max_drawdown"`
	SortinoRatio     float64  `json:"sortino_ratio"`
	Beta             *float64 `json:"beta,omitempty"`
	Benchmark        string   `json:"benchmark,omitempty"`
}

// ComputeMetrics derives the metrics bundle from a total-return series.
func ComputeMetrics(tr TotalReturnSeries) Metrics {
	if tr.Len() < 2 {
		return Metrics{}
	}

	start, end := tr.First(), tr.Last()
	total := (end/start - 1) * 100

	years := float64(date.DaysBetween(tr.Dates[0], tr.Dates[tr.Len()-1])) / 365.25
	var annualized float64
	if years > 0 && start > 0 && end > 0 {
		annualized = (math.Pow(end/start, 1/years) - 1) * 100
	}

	returns := dailyReturns(tr.Values)
	vol := populationStd(returns) * math.Sqrt(tradingDaysPerYear) * 100

	var sharpe float64
	if vol > 0 {
		sharpe = annualized / vol
	}

	return Metrics{
		TotalReturn:      round2(total),
		AnnualizedReturn: round2(annualized),
		Volatility:       round2(vol),
		SharpeRatio:      round2(sharpe),
		MaxDrawdown:      round2(maxDrawdown(tr.Values)),
		SortinoRatio:     round2(sortino(returns)),
	}
}

// Beta computes the instrument's beta against a benchmark over their common
// dates: covariance of daily returns over benchmark return variance. It is
// unavailable until at least 30 aligned observations exist.
func Beta(fund, bench TotalReturnSeries) (float64, bool) {
	benchAt := make(map[date.Date]float64, bench.Len())
	for i, d := range bench.Dates {
		benchAt[d] = bench.Values[i]
	}

	var fv, bv []float64
	for i, d := range fund.Dates {
		if b, ok := benchAt[d]; ok {
			fv = append(fv, fund.Values[i])
			bv = append(bv, b)
		}
	}

	if len(fv) < minBetaObservations {
		return 0, false
	}

	fr := dailyReturns(fv)
	br := dailyReturns(bv)

	varB := variance(br)
	if varB == 0 {
		return 0, false
	}

	return round2(covariance(fr, br) / varB), true
}

// BenchmarkFor picks the comparison benchmark for an instrument from its ISIN
// country code: the domestic large-cap index for home-market identifiers, the
// broad European index for EU registrations, and the domestic index when
// ambiguous.
func BenchmarkFor(isin, ticker string) (symbol, name string) {
	_ = ticker

	if len(isin) >= 2 {
		switch strings.ToUpper(isin[:2]) {
		case "LU", "IE", "FR", "DE", "IT", "ES", "NL", "GB", "BE", "AT", "CH", "SE", "NO", "DK", "FI":
			return "EZU", "Euro Stoxx 50"
		}
	}
	return "SPY", "S&P 500"
}

func dailyReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, values[i]/values[i-1]-1)
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	return sum / float64(len(xs))
}

func populationStd(xs []float64) float64 {
	return math.Sqrt(variance(xs))
}

func covariance(xs, ys []float64) float64 {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return 0
	}
	mx, my := mean(xs), mean(ys)
	var sum float64
	for i := range xs {
		sum += (xs[i] - mx) * (ys[i] - my)
	}
	return sum / float64(n)
}

// maxDrawdown returns the largest percentage decline from a running peak, as
// a negative percentage.
func maxDrawdown(values []float64) float64 {
	var worst float64
	peak := math.Inf(-1)
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (v/peak - 1) * 100
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

// sortino is mean daily return over the downside deviation, annualized the
// same way as Sharpe.
func sortino(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) < 2 {
		return 0
	}

	m := mean(downside)
	var sum float64
	for _, r := range downside {
		sum += (r - m) * (r - m)
	}
	std := math.Sqrt(sum / float64(len(downside)-1))
	if std == 0 {
		return 0
	}

	return mean(returns) / std * math.Sqrt(tradingDaysPerYear)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
