// Package fmp is a client for the Financial Modeling Prep API. Its adjClose
// field embeds reinvested distributions, so series from here are always
// marked adjusted.
package fmp

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/wonny/fundlens/internal/series"
	"github.com/wonny/fundlens/pkg/date"
	"github.com/wonny/fundlens/pkg/httputil"
	"github.com/wonny/fundlens/pkg/logger"
)

// SourceName is the provenance tag for series fetched from this provider.
const SourceName = "Financial Modeling Prep"

// Client handles communication with Financial Modeling Prep.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// NewClient creates an FMP client.
func NewClient(httpClient *httputil.Client, apiKey string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("fmp"),
		baseURL:    "https://financialmodelingprep.com",
		apiKey:     apiKey,
	}
}

type historyResponse struct {
	Symbol     string `json:"symbol"`
	Historical []struct {
		Date     string  `json:"date"`
		Close    float64 `json:"close"`
		AdjClose float64 `json:"adjClose"`
	} `json:"historical"`
}

// FetchHistory fetches the daily history for a symbol or ISIN.
func (c *Client) FetchHistory(ctx context.Context, id string, from, to date.Date) (*series.Series, error) {
	params := url.Values{}
	params.Set("from", from.String())
	params.Set("to", to.String())
	params.Set("apikey", c.apiKey)

	fullURL := fmt.Sprintf("%s/api/v3/historical-price-full/%s?%s",
		c.baseURL, url.PathEscape(id), params.Encode())

	var parsed historyResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &parsed); err != nil {
		return nil, fmt.Errorf("fmp history %s: %w", id, err)
	}

	records := make([]series.Record, 0, len(parsed.Historical))
	for _, row := range parsed.Historical {
		d, err := date.Parse(row.Date)
		if err != nil {
			continue
		}
		price := row.AdjClose
		if price <= 0 {
			price = row.Close
		}
		records = append(records, series.Record{Date: d, Price: price})
	}

	s := series.New(records)
	s.Source = SourceName
	s.FetchedAt = time.Now()
	s.MarkAdjusted()

	c.logger.WithFields(map[string]interface{}{
		"id":      id,
		"records": s.Len(),
	}).Debug("fetched fmp history")

	return s, nil
}

type profileRow struct {
	CompanyName string `json:"companyName"`
	Description string `json:"description"`
}

// FetchProfile returns the instrument description, empty when unknown.
func (c *Client) FetchProfile(ctx context.Context, symbol string) (string, error) {
	fullURL := fmt.Sprintf("%s/api/v3/profile/%s?apikey=%s",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(c.apiKey))

	var rows []profileRow
	if err := c.httpClient.GetJSON(ctx, fullURL, &rows); err != nil {
		return "", fmt.Errorf("fmp profile %s: %w", symbol, err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].Description, nil
}

// ETFHolding is one position of an ETF.
type ETFHolding struct {
	Asset     string  `json:"asset"`
	Name      string  `json:"name"`
	WeightPct float64 `json:"weightPercentage"`
}

// FetchETFHoldings returns the holdings of an ETF, empty for non-ETFs.
func (c *Client) FetchETFHoldings(ctx context.Context, symbol string) ([]ETFHolding, error) {
	fullURL := fmt.Sprintf("%s/api/v3/etf-holder/%s?apikey=%s",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(c.apiKey))

	var rows []ETFHolding
	if err := c.httpClient.GetJSON(ctx, fullURL, &rows); err != nil {
		return nil, fmt.Errorf("fmp etf holdings %s: %w", symbol, err)
	}
	return rows, nil
}
