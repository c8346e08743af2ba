package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"sort"
)

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				LongBusinessSummary string `json:"longBusinessSummary"`
			} `json:"assetProfile"`
			TopHoldings struct {
				Holdings []struct {
					HoldingName    string `json:"holdingName"`
					HoldingPercent struct {
						Raw float64 `json:"raw"`
					} `json:"holdingPercent"`
				} `json:"holdings"`
				SectorWeightings []map[string]struct {
					Raw float64 `json:"raw"`
				} `json:"sectorWeightings"`
			} `json:"topHoldings"`
		} `json:"result"`
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

func (c *Client) quoteSummary(ctx context.Context, symbol, modules string) (*quoteSummaryResponse, error) {
	params := url.Values{}
	params.Set("modules", modules)

	fullURL := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s",
		c.baseURL, url.PathEscape(symbol), params.Encode())

	var parsed quoteSummaryResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &parsed); err != nil {
		return nil, fmt.Errorf("yahoo quoteSummary %s: %w", symbol, err)
	}
	return &parsed, nil
}

// FetchDescription returns the instrument's long business summary, empty when
// Yahoo has none.
func (c *Client) FetchDescription(ctx context.Context, symbol string) (string, error) {
	parsed, err := c.quoteSummary(ctx, symbol, "assetProfile")
	if err != nil {
		return "", err
	}
	if parsed.QuoteSummary.Error != nil || len(parsed.QuoteSummary.Result) == 0 {
		return "", nil
	}
	return parsed.QuoteSummary.Result[0].AssetProfile.LongBusinessSummary, nil
}

// Holding is one position in a fund's top holdings.
type Holding struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"` // percent
}

// Profile is a fund's composition as Yahoo reports it.
type Profile struct {
	Sectors  map[string]float64 `json:"sectors"` // sector -> percent
	Holdings []Holding          `json:"holdings"`
}

// FetchProfile returns a fund's sector weights and top holdings. A symbol
// without fund data yields an empty profile.
func (c *Client) FetchProfile(ctx context.Context, symbol string) (*Profile, error) {
	parsed, err := c.quoteSummary(ctx, symbol, "topHoldings")
	if err != nil {
		return nil, err
	}

	profile := &Profile{Sectors: map[string]float64{}}
	if parsed.QuoteSummary.Error != nil || len(parsed.QuoteSummary.Result) == 0 {
		return profile, nil
	}

	top := parsed.QuoteSummary.Result[0].TopHoldings
	for _, h := range top.Holdings {
		profile.Holdings = append(profile.Holdings, Holding{
			Name:   h.HoldingName,
			Weight: h.HoldingPercent.Raw * 100,
		})
	}
	for _, entry := range top.SectorWeightings {
		for sector, w := range entry {
			if w.Raw > 0 {
				profile.Sectors[sector] += w.Raw * 100
			}
		}
	}

	sort.Slice(profile.Holdings, func(i, j int) bool {
		return profile.Holdings[i].Weight > profile.Holdings[j].Weight
	})

	return profile, nil
}
