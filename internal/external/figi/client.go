// Package figi is a client for the OpenFIGI mapping API, used to resolve an
// ISIN into a ticker and basic metadata. The API works without a key at a
// lower rate limit, so the key is optional.
package figi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/wonny/fundlens/pkg/httputil"
	"github.com/wonny/fundlens/pkg/logger"
)

// Client handles communication with OpenFIGI.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// NewClient creates an OpenFIGI client. An empty apiKey is fine.
func NewClient(httpClient *httputil.Client, apiKey string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("figi"),
		baseURL:    "https://api.openfigi.com",
		apiKey:     apiKey,
	}
}

// Mapping is the resolved metadata for one ISIN.
type Mapping struct {
	FIGI         string `json:"figi"`
	Name         string `json:"name"`
	Ticker       string `json:"ticker"`
	ExchangeCode string `json:"exchange_code"`
	SecurityType string `json:"security_type"`
}

type mappingRequest struct {
	IDType  string `json:"idType"`
	IDValue string `json:"idValue"`
}

type mappingResponse struct {
	Data []struct {
		FIGI         string `json:"figi"`
		Name         string `json:"name"`
		Ticker       string `json:"ticker"`
		ExchCode     string `json:"exchCode"`
		SecurityType string `json:"securityType"`
	} `json:"data"`
	Warning string `json:"warning"`
	Error   string `json:"error"`
}

// Map resolves an ISIN. A nil mapping with nil error means OpenFIGI knows
// nothing about the identifier.
func (c *Client) Map(ctx context.Context, isin string) (*Mapping, error) {
	payload := []mappingRequest{{IDType: "ID_ISIN", IDValue: isin}}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal figi request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v3/mapping", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create figi request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-OPENFIGI-APIKEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("figi mapping %s: %w", isin, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("figi mapping %s: unexpected status %d", isin, resp.StatusCode)
	}

	var results []mappingResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("figi mapping %s: decode response: %w", isin, err)
	}

	if len(results) == 0 || len(results[0].Data) == 0 {
		c.logger.WithField("isin", isin).Debug("openfigi has no mapping")
		return nil, nil
	}

	first := results[0].Data[0]
	return &Mapping{
		FIGI:         first.FIGI,
		Name:         first.Name,
		Ticker:       first.Ticker,
		ExchangeCode: first.ExchCode,
		SecurityType: first.SecurityType,
	}, nil
}
