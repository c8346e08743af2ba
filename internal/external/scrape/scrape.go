// Package scrape holds best-effort HTML scrapers for finance portals, the
// last rung of the source ladder. Page structures change without notice, so
// an unmatched page yields an empty result rather than an error.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/fundlens/pkg/httputil"
	"github.com/wonny/fundlens/pkg/logger"
)

// BrowserHeaders are the request headers the portals expect; without a
// browser User-Agent several of them answer with a bot wall.
var BrowserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml",
	"Accept-Language": "en-US,en;q=0.9,de;q=0.7",
}

// Scraper fetches and parses portal pages.
type Scraper struct {
	httpClient *httputil.Client
	logger     *logger.Logger

	morningstarURL string
	finanzenURL    string
	justETFURL     string
}

// New creates a Scraper. The injected client should carry BrowserHeaders.
func New(httpClient *httputil.Client, log *logger.Logger) *Scraper {
	if log == nil {
		log = logger.Nop()
	}
	return &Scraper{
		httpClient:     httpClient,
		logger:         log.WithComponent("scrape"),
		morningstarURL: "https://www.morningstar.com",
		finanzenURL:    "https://www.finanzen.net",
		justETFURL:     "https://www.justetf.com",
	}
}

// fetchDocument GETs a page and parses it. Non-200 answers are returned as
// nil documents: the portal is refusing, which callers treat as no data.
func (s *Scraper) fetchDocument(ctx context.Context, fullURL string) (*goquery.Document, error) {
	resp, err := s.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", fullURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.WithFields(map[string]interface{}{
			"url":    fullURL,
			"status": resp.StatusCode,
		}).Debug("portal refused the page")
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", fullURL, err)
	}
	return doc, nil
}

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
var germanDateRe = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{4})$`)

// normalizeDate accepts ISO (2024-01-15) and German (15.01.2024) dates,
// returning ISO or "".
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if isoDateRe.MatchString(s) {
		return s
	}
	if m := germanDateRe.FindStringSubmatch(s); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1]
	}
	return ""
}

// parseDecimal accepts both 1,234.56 and the German 1.234,56.
func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "EUR")
	s = strings.TrimSuffix(s, "USD")
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" || s == "-" {
		return 0, false
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma > lastDot:
		// German: dots group thousands, comma is the decimal mark.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	default:
		s = strings.ReplaceAll(s, ",", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
