// Package wikipedia fetches article summaries from the Wikipedia REST API,
// the last free-text fallback in the description chain.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/wonny/fundlens/pkg/httputil"
	"github.com/wonny/fundlens/pkg/logger"
)

func jsonDecode(resp *http.Response, v interface{}) error {
	return json.NewDecoder(resp.Body).Decode(v)
}

// Client handles communication with the Wikipedia REST API.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a Wikipedia client.
func NewClient(httpClient *httputil.Client, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("wikipedia"),
		baseURL:    "https://en.wikipedia.org",
	}
}

type summaryResponse struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	Type    string `json:"type"`
}

// Summary returns the plain-text extract for a title, empty when no article
// exists.
func (c *Client) Summary(ctx context.Context, title string) (string, error) {
	fullURL := fmt.Sprintf("%s/api/rest_v1/page/summary/%s", c.baseURL, url.PathEscape(title))

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return "", fmt.Errorf("wikipedia summary %q: %w", title, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wikipedia summary %q: unexpected status %d", title, resp.StatusCode)
	}

	var parsed summaryResponse
	if err := jsonDecode(resp, &parsed); err != nil {
		return "", fmt.Errorf("wikipedia summary %q: %w", title, err)
	}

	// Disambiguation pages are not descriptions.
	if parsed.Type == "disambiguation" {
		return "", nil
	}
	return parsed.Extract, nil
}
