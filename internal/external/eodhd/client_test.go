package eodhd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundlens/pkg/date"
	"github.com/wonny/fundlens/pkg/httputil"
)

func TestFetchHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/eod/IE00B4L5Y983", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_token"))
		assert.Equal(t, "json", r.URL.Query().Get("fmt"))
		w.Write([]byte(`[
			{"date":"2024-01-02","close":100.0,"adjusted_close":110.0},
			{"date":"2024-01-03","close":101.0,"adjusted_close":111.0},
			{"date":"bad-date","close":1.0,"adjusted_close":1.0}
		]`))
	}))
	defer server.Close()

	c := NewClient(httputil.New(nil, httputil.Options{}), "test-key", nil)
	c.baseURL = server.URL

	s, err := c.FetchHistory(context.Background(),
		"IE00B4L5Y983", date.MustParse("2024-01-01"), date.MustParse("2024-01-31"))
	require.NoError(t, err)

	require.Equal(t, 2, s.Len())
	assert.True(t, s.Adjusted, "adjusted_close present marks the series adjusted")
	assert.Equal(t, SourceName, s.Source)
	assert.Equal(t, 110.0, s.First().Price)
}

func TestFetchHistoryWithoutAdjustedClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"date":"2024-01-02","close":100.0}]`))
	}))
	defer server.Close()

	c := NewClient(httputil.New(nil, httputil.Options{}), "test-key", nil)
	c.baseURL = server.URL

	s, err := c.FetchHistory(context.Background(),
		"X", date.MustParse("2024-01-01"), date.MustParse("2024-01-31"))
	require.NoError(t, err)

	require.Equal(t, 1, s.Len())
	assert.False(t, s.Adjusted)
	assert.Equal(t, 100.0, s.First().Price)
}
