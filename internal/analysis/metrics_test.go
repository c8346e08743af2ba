package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundlens/internal/series"
	"github.com/wonny/fundlens/pkg/date"
)

func TestComputeMetricsFlatSeries(t *testing.T) {
	m := ComputeMetrics(trSeries("2022-01-01", 100, 100, 100, 100))

	assert.Zero(t, m.TotalReturn)
	assert.Zero(t, m.AnnualizedReturn)
	assert.Zero(t, m.Volatility)
	assert.Zero(t, m.MaxDrawdown)
}

func TestComputeMetricsTotalAndAnnualized(t *testing.T) {
	// Exactly one year, 100 -> 110.
	tr := TotalReturnSeries{
		Dates: []date.Date{
			date.MustParse("2022-01-01"),
			date.MustParse("2022-07-01"),
			date.MustParse("2023-01-01"),
		},
		Values: []float64{100, 104, 110},
	}

	m := ComputeMetrics(tr)

	assert.InDelta(t, 10.0, m.TotalReturn, 0.01)
	// One calendar year is 365/365.25 of a year, so slightly above 10%.
	assert.InDelta(t, 10.02, m.AnnualizedReturn, 0.05)
}

func TestComputeMetricsMaxDrawdown(t *testing.T) {
	m := ComputeMetrics(trSeries("2022-01-01", 100, 120, 90, 110, 115))

	// Peak 120 to trough 90 is -25%.
	assert.InDelta(t, -25.0, m.MaxDrawdown, 0.01)
}

func TestComputeMetricsTooShort(t *testing.T) {
	assert.Zero(t, ComputeMetrics(TotalReturnSeries{}))
	assert.Zero(t, ComputeMetrics(trSeries("2022-01-01", 100)))
}

func TestBetaRequiresThirtyObservations(t *testing.T) {
	fund := trSeries("2022-01-01", seq(100, 1, 29)...)
	bench := trSeries("2022-01-01", seq(200, 2, 29)...)

	_, ok := Beta(fund, bench)
	assert.False(t, ok, "beta must be unavailable below 30 aligned observations")
}

func TestBetaAgainstScaledBenchmark(t *testing.T) {
	// Fund daily returns identical to benchmark returns: beta 1.
	bench := trSeries("2022-01-01", seq(100, 1, 40)...)
	fund := TotalReturnSeries{Dates: bench.Dates, Values: make([]float64, bench.Len())}
	for i, v := range bench.Values {
		fund.Values[i] = v * 3
	}

	b, ok := Beta(fund, bench)
	require.True(t, ok)
	assert.InDelta(t, 1.0, b, 0.01)
}

func TestBetaDisjointDates(t *testing.T) {
	fund := trSeries("2022-01-01", seq(100, 1, 40)...)
	bench := trSeries("2023-06-01", seq(100, 1, 40)...)

	_, ok := Beta(fund, bench)
	assert.False(t, ok)
}

func TestBenchmarkFor(t *testing.T) {
	tests := []struct {
		isin string
		want string
	}{
		{"US9229087286", "SPY"},
		{"LU0097089360", "EZU"},
		{"IE00B4L5Y983", "EZU"},
		{"DE0008404005", "EZU"},
		{"GB00B03MLX29", "EZU"},
		{"JP3633400001", "SPY"}, // ambiguous, domestic default
		{"", "SPY"},
	}

	for _, tt := range tests {
		t.Run(tt.isin, func(t *testing.T) {
			symbol, name := BenchmarkFor(tt.isin, "")
			assert.Equal(t, tt.want, symbol)
			assert.NotEmpty(t, name)
		})
	}
}

func seriesFromTR(tr TotalReturnSeries) *series.Series {
	records := make([]series.Record, tr.Len())
	for i := range tr.Values {
		records[i] = series.Record{Date: tr.Dates[i], Price: tr.Values[i]}
	}
	return series.New(records)
}

func TestCompareSourcesBasic(t *testing.T) {
	a := trSeries("2022-01-01", 100, 101, 102)
	b := trSeries("2022-01-01", 100, 101.5, 102)

	sa := seriesFromTR(a)
	sb := seriesFromTR(b)

	cmp := CompareSources(sa, sb)
	assert.Equal(t, 3, cmp.CommonDays)
	assert.InDelta(t, 0.5, cmp.MaxAbsDiff, 1e-9)
	assert.Greater(t, cmp.Correlation, 0.9)
}
