package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundlens/pkg/httputil"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"123.45", 123.45, true},
		{"1,234.56", 1234.56, true},
		{"123,45", 123.45, true},     // German decimal comma
		{"1.234,56", 1234.56, true},  // German thousands dot
		{"12.345", 12.345, true},     // ambiguous, read as decimal point
		{"104,70 EUR", 104.70, true}, // currency suffix
		{"3,2 %", 3.2, true},
		{"", 0, false},
		{"-", 0, false},
		{"n/a", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseDecimal(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	assert.Equal(t, "2024-01-15", normalizeDate("2024-01-15"))
	assert.Equal(t, "2024-01-15", normalizeDate("15.01.2024"))
	assert.Equal(t, "", normalizeDate("Jan 15, 2024"))
	assert.Equal(t, "", normalizeDate(""))
}

const finanzenFixture = `<html><body>
<table class="table">
  <tr><th>Datum</th><th>Schluss</th></tr>
  <tr><td>15.01.2024</td><td>104,70</td></tr>
  <tr><td>12.01.2024</td><td>1.045,20</td></tr>
  <tr><td>kein Datum</td><td>99,00</td></tr>
</table>
</body></html>`

func TestFinanzenParsesGermanTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/fonds/lu0097089360/historisch")
		w.Write([]byte(finanzenFixture))
	}))
	defer server.Close()

	s := New(httputil.New(nil, httputil.Options{Headers: BrowserHeaders}), nil)
	s.finanzenURL = server.URL

	got, err := s.Finanzen(context.Background(), "LU0097089360")
	require.NoError(t, err)

	require.Equal(t, 2, got.Len())
	assert.Equal(t, FinanzenSource, got.Source)
	// Sorted ascending by date.
	assert.Equal(t, "2024-01-12", got.First().Date.String())
	assert.InDelta(t, 1045.20, got.First().Price, 1e-9)
	assert.InDelta(t, 104.70, got.Last().Price, 1e-9)
}

func TestScraperUnparsedPageIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div>a completely redesigned page</div></body></html>`))
	}))
	defer server.Close()

	s := New(httputil.New(nil, httputil.Options{}), nil)
	s.justETFURL = server.URL

	got, err := s.JustETF(context.Background(), "IE00B4L5Y983")
	require.NoError(t, err, "an unparsed page is no data, not an error")
	assert.Zero(t, got.Len())
}

func TestScraperBotWallIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	s := New(httputil.New(nil, httputil.Options{}), nil)
	s.morningstarURL = server.URL

	got, err := s.Morningstar(context.Background(), "US9229087286")
	require.NoError(t, err)
	assert.Zero(t, got.Len())
}
