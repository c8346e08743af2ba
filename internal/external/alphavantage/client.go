// Package alphavantage is a client for the Alpha Vantage daily-adjusted API.
// The free tier answers rate-limited or unentitled requests with a 200 and a
// "Note" or "Error Message" body, which this client treats as no data.
package alphavantage

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/wonny/fundlens/internal/series"
	"github.com/wonny/fundlens/pkg/date"
	"github.com/wonny/fundlens/pkg/httputil"
	"github.com/wonny/fundlens/pkg/logger"
)

// SourceName is the provenance tag for series fetched from this provider.
const SourceName = "Alpha Vantage"

// Client handles communication with Alpha Vantage.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// NewClient creates an Alpha Vantage client.
func NewClient(httpClient *httputil.Client, apiKey string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("alphavantage"),
		baseURL:    "https://www.alphavantage.co",
		apiKey:     apiKey,
	}
}

type dailyAdjustedResponse struct {
	Note         string                       `json:"Note"`
	ErrorMessage string                       `json:"Error Message"`
	Information  string                       `json:"Information"`
	TimeSeries   map[string]map[string]string `json:"Time Series (Daily)"`
}

// FetchDaily fetches the full adjusted daily history for a symbol and clips
// it to the requested range. Note/Error answers yield an empty series.
func (c *Client) FetchDaily(ctx context.Context, symbol string, from, to date.Date) (*series.Series, error) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY_ADJUSTED")
	params.Set("symbol", symbol)
	params.Set("outputsize", "full")
	params.Set("apikey", c.apiKey)

	fullURL := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())

	var parsed dailyAdjustedResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &parsed); err != nil {
		return nil, fmt.Errorf("alphavantage daily %s: %w", symbol, err)
	}

	if msg := firstNonEmpty(parsed.Note, parsed.ErrorMessage, parsed.Information); msg != "" {
		c.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"answer": msg,
		}).Debug("alpha vantage returned a notice instead of data")
		return emptySeries(), nil
	}

	records := make([]series.Record, 0, len(parsed.TimeSeries))
	for day, fields := range parsed.TimeSeries {
		d, err := date.Parse(day)
		if err != nil {
			continue
		}
		adjClose, err := strconv.ParseFloat(fields["5. adjusted close"], 64)
		if err != nil || adjClose <= 0 {
			continue
		}
		records = append(records, series.Record{Date: d, Price: adjClose})
	}

	s := series.New(records)
	s.Source = SourceName
	s.FetchedAt = time.Now()
	s.MarkAdjusted()

	clipped := s.Clip(from, to)

	c.logger.WithFields(map[string]interface{}{
		"symbol":  symbol,
		"records": clipped.Len(),
	}).Debug("fetched alpha vantage history")

	return clipped, nil
}

type overviewResponse struct {
	Description string `json:"Description"`
}

// FetchOverview returns the company/fund description, empty when unknown.
func (c *Client) FetchOverview(ctx context.Context, symbol string) (string, error) {
	params := url.Values{}
	params.Set("function", "OVERVIEW")
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)

	var parsed overviewResponse
	if err := c.httpClient.GetJSON(ctx, fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode()), &parsed); err != nil {
		return "", fmt.Errorf("alphavantage overview %s: %w", symbol, err)
	}
	if parsed.Description == "None" {
		return "", nil
	}
	return parsed.Description, nil
}

func emptySeries() *series.Series {
	s := series.New(nil)
	s.Source = SourceName
	s.FetchedAt = time.Now()
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
