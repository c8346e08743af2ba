package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/wonny/fundlens/pkg/date"
)

func unixDate(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}

// Row is one day as Yahoo reports it: raw close, adjusted close when the
// chart carries one, and that day's distribution events.
type Row struct {
	Date        date.Date
	Close       float64
	AdjClose    float64
	Dividend    float64
	CapitalGain float64
}

// History is a parsed chart response.
type History struct {
	Symbol      string
	Rows        []Row
	HasAdjClose bool
}

// chartResponse mirrors the v8 chart API shape. Closes can be null on
// holidays, hence the pointer slices.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
			Events struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
				CapitalGains map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"capitalGains"`
			} `json:"events"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchChart fetches the daily history for a symbol. A symbol Yahoo does not
// know yields an empty history, not an error: the resolver treats it as "this
// source has nothing" and moves on.
func (c *Client) FetchChart(ctx context.Context, symbol string, from, to date.Date) (*History, error) {
	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", from.Unix()))
	params.Set("period2", fmt.Sprintf("%d", to.AddDays(1).Unix()))
	params.Set("interval", "1d")
	params.Set("events", "div|capitalGains")

	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	var parsed chartResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &parsed); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}

	if parsed.Chart.Error != nil {
		c.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"code":   parsed.Chart.Error.Code,
		}).Debug("yahoo chart returned an error payload")
		return &History{Symbol: symbol}, nil
	}
	if len(parsed.Chart.Result) == 0 {
		return &History{Symbol: symbol}, nil
	}

	result := parsed.Chart.Result[0]
	history := &History{Symbol: result.Meta.Symbol}
	if history.Symbol == "" {
		history.Symbol = symbol
	}

	var closes, adjCloses []*float64
	if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}
	if len(result.Indicators.AdjClose) > 0 {
		adjCloses = result.Indicators.AdjClose[0].AdjClose
	}

	dividends := map[date.Date]float64{}
	for _, ev := range result.Events.Dividends {
		d := date.FromTime(unixDate(ev.Date))
		dividends[d] += ev.Amount
	}
	gains := map[date.Date]float64{}
	for _, ev := range result.Events.CapitalGains {
		d := date.FromTime(unixDate(ev.Date))
		gains[d] += ev.Amount
	}

	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		d := date.FromTime(unixDate(ts))

		row := Row{
			Date:        d,
			Close:       *closes[i],
			Dividend:    dividends[d],
			CapitalGain: gains[d],
		}
		if i < len(adjCloses) && adjCloses[i] != nil && *adjCloses[i] > 0 {
			row.AdjClose = *adjCloses[i]
			history.HasAdjClose = true
		}
		history.Rows = append(history.Rows, row)
	}

	sort.Slice(history.Rows, func(i, j int) bool {
		return history.Rows[i].Date.Before(history.Rows[j].Date)
	})

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"rows":   len(history.Rows),
		"adj":    history.HasAdjClose,
	}).Debug("fetched yahoo chart")

	return history, nil
}
