package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundlens/internal/series"
	"github.com/wonny/fundlens/internal/validate"
	"github.com/wonny/fundlens/pkg/date"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	return store
}

func TestKindTTL(t *testing.T) {
	assert.Equal(t, 24*time.Hour, KindHistorical.TTL())
	assert.Equal(t, 24*time.Hour, KindBenchmark.TTL())
	assert.Equal(t, 24*time.Hour, KindComposition.TTL())
	assert.Equal(t, 7*24*time.Hour, KindDescription.TTL())
	assert.Equal(t, 30*24*time.Hour, KindMapping.TTL())
}

func TestFileStorePutThenGet(t *testing.T) {
	store := newFileStore(t)
	ctx := context.Background()

	entry := &Entry{
		Data:      json.RawMessage(`{"hello":"world"}`),
		Timestamp: time.Now(),
		Source:    "Yahoo Finance",
	}
	require.NoError(t, store.Put(ctx, "IE00B4L5Y983", KindHistorical, entry))

	got, err := store.Get(ctx, "IE00B4L5Y983", KindHistorical)
	require.NoError(t, err)
	assert.JSONEq(t, `{"hello":"world"}`, string(got.Data))
	assert.Equal(t, "Yahoo Finance", got.Source)
}

func TestFileStoreMissWhenAbsent(t *testing.T) {
	store := newFileStore(t)

	_, err := store.Get(context.Background(), "UNKNOWN", KindHistorical)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestFileStoreExpiry(t *testing.T) {
	store := newFileStore(t)
	ctx := context.Background()

	stale := &Entry{
		Data:      json.RawMessage(`{}`),
		Timestamp: time.Now().Add(-25 * time.Hour),
	}
	require.NoError(t, store.Put(ctx, "X", KindHistorical, stale))

	_, err := store.Get(ctx, "X", KindHistorical)
	assert.ErrorIs(t, err, ErrMiss)

	// The same age is fine for a description, which keeps for 7 days.
	require.NoError(t, store.Put(ctx, "X", KindDescription, stale))
	_, err = store.Get(ctx, "X", KindDescription)
	assert.NoError(t, err)
}

func TestFileStoreCorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, nil)
	require.NoError(t, err)

	path := filepath.Join(dir, "BAD_historical.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err = store.Get(context.Background(), "BAD", KindHistorical)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestFileStoreDeleteAndPurge(t *testing.T) {
	store := newFileStore(t)
	ctx := context.Background()

	fresh := func() *Entry {
		return &Entry{Data: json.RawMessage(`{}`), Timestamp: time.Now()}
	}
	require.NoError(t, store.Put(ctx, "A", KindHistorical, fresh()))
	require.NoError(t, store.Put(ctx, "B", KindDescription, fresh()))

	require.NoError(t, store.Delete(ctx, "A", KindHistorical))
	_, err := store.Get(ctx, "A", KindHistorical)
	assert.ErrorIs(t, err, ErrMiss)

	// Deleting again is not an error.
	assert.NoError(t, store.Delete(ctx, "A", KindHistorical))

	require.NoError(t, store.Purge(ctx))
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)
}

func TestFileStoreStats(t *testing.T) {
	store := newFileStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "A", KindHistorical,
		&Entry{Data: json.RawMessage(`{}`), Timestamp: time.Now()}))
	require.NoError(t, store.Put(ctx, "B", KindHistorical,
		&Entry{Data: json.RawMessage(`{}`), Timestamp: time.Now().Add(-48 * time.Hour)}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, 1, stats.Expired)
	assert.Positive(t, stats.Bytes)
}

func testSeries() *series.Series {
	s := series.New([]series.Record{
		{Date: date.MustParse("2024-01-01"), Price: 100},
		{Date: date.MustParse("2024-01-02"), Price: 99, Dividend: 1.5},
		{Date: date.MustParse("2024-01-03"), Price: 99.5, CapitalGain: 0.25},
	})
	s.Source = "Yahoo Finance"
	s.FetchedAt = time.Now()
	return s
}

func TestManagerSeriesRoundTrip(t *testing.T) {
	m := NewManager(newFileStore(t), nil)
	ctx := context.Background()

	original := testSeries()
	report := &validate.Report{
		TotalReturn:  validate.Check{Passed: true, Message: "ok"},
		Consistency:  validate.Check{Passed: true, Message: "ok"},
		Completeness: validate.Check{Passed: true, Message: "ok"},
	}
	require.NoError(t, m.PutSeries(ctx, "TEST", KindHistorical, original, report))

	got, gotReport, err := m.GetSeries(ctx, "TEST", KindHistorical)
	require.NoError(t, err)

	require.Equal(t, original.Len(), got.Len())
	for i := range original.Records {
		assert.Equal(t, original.Records[i], got.Records[i])
	}
	assert.Equal(t, original.Adjusted, got.Adjusted)
	assert.Equal(t, original.Source, got.Source)
	require.NotNil(t, gotReport)
	assert.True(t, gotReport.Valid())
}

func TestManagerAdjustedFlagRoundTrip(t *testing.T) {
	m := NewManager(newFileStore(t), nil)
	ctx := context.Background()

	s := testSeries()
	s.MarkAdjusted()
	require.NoError(t, m.PutSeries(ctx, "ADJ", KindHistorical, s, nil))

	got, _, err := m.GetSeries(ctx, "ADJ", KindHistorical)
	require.NoError(t, err)
	assert.True(t, got.Adjusted)
	assert.False(t, got.HasDistributions())
}

func TestManagerBackfillsLegacyEntries(t *testing.T) {
	store := newFileStore(t)
	m := NewManager(store, nil)
	ctx := context.Background()

	// An entry written by an older build: no adjusted flag, no distribution
	// fields. The flag is inferred from the source name.
	legacy := &Entry{
		Data:      json.RawMessage(`{"records":[{"date":"2024-01-01","price":100},{"date":"2024-01-02","price":101}]}`),
		Timestamp: time.Now(),
		Source:    "EOD Historical Data",
	}
	require.NoError(t, store.Put(ctx, "LEGACY", KindHistorical, legacy))

	got, _, err := m.GetSeries(ctx, "LEGACY", KindHistorical)
	require.NoError(t, err)

	assert.True(t, got.Adjusted, "adjusted inferred from a premium source name")
	for _, r := range got.Records {
		assert.Zero(t, r.Dividend)
		assert.Zero(t, r.CapitalGain)
	}

	// Same payload from Yahoo reads back unadjusted.
	legacy.Source = "Yahoo Finance"
	require.NoError(t, store.Put(ctx, "LEGACY2", KindHistorical, legacy))
	got, _, err = m.GetSeries(ctx, "LEGACY2", KindHistorical)
	require.NoError(t, err)
	assert.False(t, got.Adjusted)
}

func TestManagerTextRoundTrip(t *testing.T) {
	m := NewManager(newFileStore(t), nil)
	ctx := context.Background()

	require.NoError(t, m.PutText(ctx, "TEST", KindDescription, "a global equity fund", "Wikipedia"))

	text, source, err := m.GetText(ctx, "TEST", KindDescription)
	require.NoError(t, err)
	assert.Equal(t, "a global equity fund", text)
	assert.Equal(t, "Wikipedia", source)
}
