package describe

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundlens/internal/cache"
	"github.com/wonny/fundlens/internal/external/figi"
	"github.com/wonny/fundlens/internal/sources"
)

func testManager(t *testing.T) *cache.Manager {
	t.Helper()
	store, err := cache.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	return cache.NewManager(store, nil)
}

func TestDescribeCacheHit(t *testing.T) {
	ctx := context.Background()
	mgr := testManager(t)
	inst := sources.Instrument{ISIN: "IE00B4L5Y983"}

	require.NoError(t, mgr.PutText(ctx, inst.ID(), cache.KindDescription,
		"Tracks the MSCI World index.", "Yahoo Finance"))

	// No providers wired: a hit must come straight from the cache.
	d := New(Deps{Cache: mgr}, nil)
	text, source, err := d.Describe(ctx, inst)
	require.NoError(t, err)
	assert.Equal(t, "Tracks the MSCI World index.", text)
	assert.Equal(t, "Yahoo Finance", source)
}

func TestDescribeNothingToAsk(t *testing.T) {
	// An instrument with no ticker, name, or ISIN has an empty chain.
	d := New(Deps{Cache: testManager(t)}, nil)
	text, source, err := d.Describe(context.Background(), sources.Instrument{})
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Empty(t, source)
}

func TestTickerPrefersRegistered(t *testing.T) {
	d := New(Deps{}, nil)
	got := d.Ticker(context.Background(), sources.Instrument{ISIN: "IE00B4L5Y983", Ticker: "IWDA.L"})
	assert.Equal(t, "IWDA.L", got)
}

func TestMappingUsesCache(t *testing.T) {
	ctx := context.Background()
	mgr := testManager(t)

	want := figi.Mapping{FIGI: "BBG000BDTBL9", Ticker: "SPY", Name: "SPDR S&P 500"}
	require.NoError(t, mgr.PutJSON(ctx, "US78462F1030", cache.KindMapping, want, "OpenFIGI"))

	// No FIGI client wired: only the cache can answer, proving no lookup
	// happens on a hit.
	d := New(Deps{Cache: mgr}, nil)
	got := d.Mapping(ctx, "US78462F1030")
	require.NotNil(t, got)
	assert.Equal(t, "SPY", got.Ticker)

	// A ticker lookup rides the same cached mapping.
	assert.Equal(t, "SPY", d.Ticker(ctx, sources.Instrument{ISIN: "US78462F1030"}))
}

func TestMappingNilWithoutClient(t *testing.T) {
	d := New(Deps{}, nil)
	assert.Nil(t, d.Mapping(context.Background(), "IE00B4L5Y983"))
	assert.Nil(t, d.Mapping(context.Background(), ""))
}

func TestClipSentence(t *testing.T) {
	assert.Equal(t, "short text", clipSentence("short text", 1000))

	// Prefers the last full sentence inside the bound.
	long := strings.Repeat("The fund invests broadly. ", 60)
	clipped := clipSentence(long, 1000)
	assert.LessOrEqual(t, len(clipped), 1000)
	assert.True(t, strings.HasSuffix(clipped, "."), clipped)

	// No sentence break: falls back to a word boundary with an ellipsis.
	words := strings.Repeat("word ", 300)
	clipped = clipSentence(words, 1000)
	assert.LessOrEqual(t, len(clipped), 1004)
	assert.True(t, strings.HasSuffix(clipped, "…"), clipped)
}
