package compose

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundlens/internal/cache"
	"github.com/wonny/fundlens/internal/external/fmp"
	"github.com/wonny/fundlens/internal/external/yahoo"
	"github.com/wonny/fundlens/internal/sources"
)

func testManager(t *testing.T) *cache.Manager {
	t.Helper()
	store, err := cache.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	return cache.NewManager(store, nil)
}

func TestComposeCacheHit(t *testing.T) {
	ctx := context.Background()
	mgr := testManager(t)
	inst := sources.Instrument{ISIN: "IE00B4L5Y983"}

	want := Composition{
		Sectors:  map[string]float64{"technology": 24.5},
		Holdings: []Holding{{Name: "Apple Inc", WeightPct: 5.1}},
		Source:   "Yahoo Finance",
	}
	require.NoError(t, mgr.PutJSON(ctx, inst.ID(), cache.KindComposition, want, want.Source))

	c := New(Deps{Cache: mgr}, nil)
	got, err := c.Compose(ctx, inst, "")
	require.NoError(t, err)
	assert.Equal(t, want.Sectors, got.Sectors)
	assert.Equal(t, want.Holdings, got.Holdings)
	assert.Equal(t, "Yahoo Finance", got.Source)
}

func TestComposeEmptyResultIsCached(t *testing.T) {
	ctx := context.Background()
	mgr := testManager(t)
	inst := sources.Instrument{ISIN: "LU0323578657"}

	// No providers wired: the chain yields an empty composition, which must
	// still land in the cache.
	c := New(Deps{Cache: mgr}, nil)
	got, err := c.Compose(ctx, inst, "")
	require.NoError(t, err)
	assert.True(t, got.Empty())

	var cached Composition
	_, err = mgr.GetJSON(ctx, inst.ID(), cache.KindComposition, &cached)
	require.NoError(t, err)
	assert.True(t, cached.Empty())
}

func TestFromYahoo(t *testing.T) {
	got := fromYahoo(&yahoo.Profile{
		Sectors:  map[string]float64{"financials": 13.2},
		Holdings: []yahoo.Holding{{Name: "Microsoft Corp", Weight: 4.8}},
	})
	assert.Equal(t, "Yahoo Finance", got.Source)
	assert.Equal(t, 13.2, got.Sectors["financials"])
	require.Len(t, got.Holdings, 1)
	assert.Equal(t, "Microsoft Corp", got.Holdings[0].Name)

	assert.True(t, fromYahoo(nil).Empty())
	assert.True(t, fromYahoo(&yahoo.Profile{}).Empty())
}

func TestFromFMPFallsBackToAssetSymbol(t *testing.T) {
	got := fromFMP([]fmp.ETFHolding{
		{Asset: "AAPL", Name: "Apple Inc", WeightPct: 6.0},
		{Asset: "NVDA", WeightPct: 5.5},
	})
	require.Len(t, got.Holdings, 2)
	assert.Equal(t, "Apple Inc", got.Holdings[0].Name)
	assert.Equal(t, "NVDA", got.Holdings[1].Name)
}

func TestCompositionEmpty(t *testing.T) {
	var c *Composition
	assert.True(t, c.Empty())
	assert.True(t, (&Composition{Source: "x"}).Empty())
	assert.False(t, (&Composition{Holdings: []Holding{{Name: "a"}}}).Empty())
}
