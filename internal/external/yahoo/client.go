// Package yahoo is a client for the Yahoo Finance chart and quoteSummary
// APIs. It is the workhorse source: keyless, covers most exchanges, and
// returns dividends and capital gains as separate event streams.
package yahoo

import (
	"github.com/wonny/fundlens/pkg/httputil"
	"github.com/wonny/fundlens/pkg/logger"
)

// Client handles communication with Yahoo Finance.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a Yahoo Finance client.
func NewClient(httpClient *httputil.Client, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("yahoo"),
		baseURL:    "https://query1.finance.yahoo.com",
	}
}
