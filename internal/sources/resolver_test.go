package sources

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundlens/internal/series"
	"github.com/wonny/fundlens/pkg/config"
	"github.com/wonny/fundlens/pkg/date"
)

// fakeSource scripts one rung of the ladder.
type fakeSource struct {
	name    string
	records int
	err     error
	calls   int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(_ context.Context, _ Instrument, _, _ date.Date) (*series.Series, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var records []series.Record
	d := date.MustParse("2024-01-01")
	for i := 0; i < f.records; i++ {
		records = append(records, series.Record{Date: d, Price: 100 + float64(i)})
		d = d.AddDays(1)
	}
	return series.New(records), nil
}

func resolve(t *testing.T, r *Resolver) (*series.Series, error) {
	t.Helper()
	return r.Resolve(context.Background(),
		Instrument{ISIN: "IE00B4L5Y983"},
		date.MustParse("2024-01-01"), date.MustParse("2024-12-31"))
}

func TestResolveFifthSourceWins(t *testing.T) {
	// Four failing rungs, the fifth succeeds with 15 records: the result is
	// tagged with the fifth's name and no error surfaces.
	chain := []*fakeSource{
		{name: "one", err: errors.New("network down")},
		{name: "two", err: errors.New("rate limited")},
		{name: "three", records: 0},
		{name: "four", err: errors.New("unsupported identifier")},
		{name: "five", records: 15},
		{name: "six", records: 500},
	}

	srcs := make([]Source, len(chain))
	for i, f := range chain {
		srcs[i] = f
	}
	r := NewResolver(nil, srcs...)

	s, err := resolve(t, r)
	require.NoError(t, err)
	assert.Equal(t, "five", s.Source)
	assert.Equal(t, 15, s.Len())
	assert.False(t, s.FetchedAt.IsZero())

	// The ladder short-circuits: the sixth source is never asked.
	assert.Zero(t, chain[5].calls)
}

func TestResolveRejectsTooShortSeries(t *testing.T) {
	short := &fakeSource{name: "short", records: 10} // needs more than 10
	long := &fakeSource{name: "long", records: 11}

	r := NewResolver(nil, short, long)

	s, err := resolve(t, r)
	require.NoError(t, err)
	assert.Equal(t, "long", s.Source)
}

func TestResolveAllFail(t *testing.T) {
	r := NewResolver(nil,
		&fakeSource{name: "a", err: errors.New("boom")},
		&fakeSource{name: "b", records: 3},
	)

	s, err := resolve(t, r)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestResolveEmptyChain(t *testing.T) {
	_, err := resolve(t, NewResolver(nil))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestResolveKeepsSourceTag(t *testing.T) {
	// A source that tags its own series keeps its tag.
	tagged := &taggedSource{fakeSource{name: "wrapper", records: 20}}
	r := NewResolver(nil, tagged)

	s, err := resolve(t, r)
	require.NoError(t, err)
	assert.Equal(t, "EOD Historical Data", s.Source)
}

type taggedSource struct{ fakeSource }

func (ts *taggedSource) Fetch(ctx context.Context, inst Instrument, from, to date.Date) (*series.Series, error) {
	s, err := ts.fakeSource.Fetch(ctx, inst, from, to)
	if s != nil {
		s.Source = "EOD Historical Data"
	}
	return s, err
}

func TestDefaultChainSkipsKeylessPremiumSources(t *testing.T) {
	bare := Default(config.SourcesConfig{}, nil)
	names := bare.Sources()
	require.Len(t, names, 7, "four yahoo rungs plus three scrapers")
	assert.Equal(t, YahooTickerSource, names[0])

	keyed := Default(config.SourcesConfig{
		EODAPIKey:       "k1",
		AlphaVantageKey: "k2",
		FMPAPIKey:       "k3",
	}, nil)
	names = keyed.Sources()
	require.Len(t, names, 10)
	assert.Equal(t, "EOD Historical Data", names[0])
	assert.Equal(t, "Alpha Vantage", names[1])
	assert.Equal(t, "Financial Modeling Prep", names[2])
	assert.Equal(t, "JustETF", names[9])
}

func TestInstrumentID(t *testing.T) {
	assert.Equal(t, "IE00B4L5Y983", Instrument{ISIN: "IE00B4L5Y983", Ticker: "IWDA"}.ID())
	assert.Equal(t, "SPY", Instrument{Ticker: "SPY"}.ID())
}
