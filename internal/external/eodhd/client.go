// Package eodhd is a client for the EOD Historical Data API, the premium
// total-return source. Its adjusted_close field already embeds reinvested
// distributions, so series from here are always marked adjusted.
package eodhd

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
const SourceName = "EOD Historical Data"

// Client handles communication with EOD Historical Data.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// NewClient creates an EODHD client. The API key must be non-empty; callers
// skip this source entirely when it is not configured.
func NewClient(httpClient *httputil.Client, apiKey string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("eodhd"),
		baseURL:    "https://eodhistoricaldata.com",
		apiKey:     apiKey,
	}
}

type eodRow struct {
	Date          string  `json:"date"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
}

// FetchHistory fetches the daily history for an identifier (ISIN or
// symbol.EXCHANGE). The adjusted close is preferred; rows without one fall
// back to the raw close.
func (c *Client) FetchHistory(ctx context.Context, id string, from, to date.Date) (*series.Series, error) {
	params := url.Values{}
	params.Set("api_token", c.apiKey)
	params.Set("from", from.String())
	params.Set("to", to.String())
	params.Set("period", "d")
	params.Set("fmt", "json")

	fullURL := fmt.Sprintf("%s/api/eod/%s?%s", c.baseURL, url.PathEscape(id), params.Encode())

	var rows []eodRow
	if err := c.httpClient.GetJSON(ctx, fullURL, &rows); err != nil {
		return nil, fmt.Errorf("eodhd history %s: %w", id, err)
	}

	adjusted := false
	records := make([]series.Record, 0, len(rows))
	for _, row := range rows {
		d, err := date.Parse(row.Date)
		if err != nil {
			continue
		}
		price := row.Close
		if row.AdjustedClose > 0 {
			price = row.AdjustedClose
			adjusted = true
		}
		records = append(records, series.Record{Date: d, Price: price})
	}

	s := series.New(records)
	s.Source = SourceName
	s.FetchedAt = time.Now()
	if adjusted {
		s.MarkAdjusted()
	}

	c.logger.WithFields(map[string]interface{}{
		"id":       id,
		"records":  s.Len(),
		"adjusted": adjusted,
	}).Debug("fetched eodhd history")

	return s, nil
}
