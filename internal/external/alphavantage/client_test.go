package alphavantage

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

func newTestClient(t *testing.T, body string) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	c := NewClient(httputil.New(nil, httputil.Options{}), "test-key", nil)
	c.baseURL = server.URL
	return c
}

func TestFetchDaily(t *testing.T) {
	c := newTestClient(t, `{
		"Time Series (Daily)": {
			"2024-01-02": {"4. close": "100.0", "5. adjusted close": "110.0"},
			"2024-01-03": {"4. close": "101.0", "5. adjusted close": "111.0"},
			"2023-06-01": {"4. close": "90.0", "5. adjusted close": "95.0"}
		}
	}`)

	s, err := c.FetchDaily(context.Background(),
		"VTSMX", date.MustParse("2024-01-01"), date.MustParse("2024-01-31"))
	require.NoError(t, err)

	// The 2023 row is clipped away.
	require.Equal(t, 2, s.Len())
	assert.True(t, s.Adjusted)
	assert.Equal(t, SourceName, s.Source)
	assert.Equal(t, 110.0, s.First().Price)
}

func TestFetchDailyNoteIsNoData(t *testing.T) {
	c := newTestClient(t, `{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`)

	s, err := c.FetchDaily(context.Background(),
		"VTSMX", date.MustParse("2024-01-01"), date.MustParse("2024-01-31"))
	require.NoError(t, err, "a rate-limit Note is no-data, not an error")
	assert.Zero(t, s.Len())
}

func TestFetchDailyErrorMessageIsNoData(t *testing.T) {
	c := newTestClient(t, `{"Error Message": "Invalid API call."}`)

	s, err := c.FetchDaily(context.Background(),
		"BOGUS", date.MustParse("2024-01-01"), date.MustParse("2024-01-31"))
	require.NoError(t, err)
	assert.Zero(t, s.Len())
}

func TestFetchOverview(t *testing.T) {
	c := newTestClient(t, `{"Description": "A broad market index fund."}`)

	text, err := c.FetchOverview(context.Background(), "VTSMX")
	require.NoError(t, err)
	assert.Equal(t, "A broad market index fund.", text)
}
