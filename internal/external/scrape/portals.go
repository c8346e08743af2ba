package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/fundlens/internal/series"
	"github.com/wonny/fundlens/pkg/date"
)

// Provenance tags for the portal scrapers.
const (
	MorningstarSource = "Morningstar"
	FinanzenSource    = "Finanzen.net"
	JustETFSource     = "JustETF"
)

// Morningstar scrapes the fund snapshot page for recent NAV rows. Returns an
// empty series when the page has no recognizable price table.
func (s *Scraper) Morningstar(ctx context.Context, isin string) (*series.Series, error) {
	url := fmt.Sprintf("%s/funds/xnas/%s/quote", s.morningstarURL, strings.ToLower(isin))

	doc, err := s.fetchDocument(ctx, url)
	if err != nil || doc == nil {
		return emptySeries(MorningstarSource), err
	}

	out := s.parsePriceTable(doc, MorningstarSource)
	s.logger.WithFields(map[string]interface{}{
		"isin":    isin,
		"records": out.Len(),
	}).Debug("scraped morningstar")
	return out, nil
}

// MorningstarDescription scrapes the investment-objective text from the
// snapshot page.
func (s *Scraper) MorningstarDescription(ctx context.Context, isin string) (string, error) {
	url := fmt.Sprintf("%s/funds/xnas/%s/quote", s.morningstarURL, strings.ToLower(isin))

	doc, err := s.fetchDocument(ctx, url)
	if err != nil || doc == nil {
		return "", err
	}

	var text string
	for _, sel := range []string{".investment-objective", ".mdc-security-header__description", "meta[name=description]"} {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if content, ok := node.Attr("content"); ok {
			text = content
		} else {
			text = node.Text()
		}
		if text = strings.TrimSpace(text); text != "" {
			break
		}
	}
	return text, nil
}

// Holding is one scraped portfolio position.
type Holding struct {
	Name      string
	WeightPct float64
}

// MorningstarComposition scrapes the portfolio page for top-holding rows:
// any table row with a name cell and a percent cell counts. Sector tables on
// Morningstar render client-side and are not recoverable here.
func (s *Scraper) MorningstarComposition(ctx context.Context, isin string) ([]Holding, error) {
	url := fmt.Sprintf("%s/funds/xnas/%s/portfolio", s.morningstarURL, strings.ToLower(isin))

	doc, err := s.fetchDocument(ctx, url)
	if err != nil || doc == nil {
		return nil, err
	}

	var holdings []Holding
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		var found []Holding

		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() < 2 {
				return
			}

			name := strings.TrimSpace(cells.Eq(0).Text())
			if name == "" || normalizeDate(name) != "" {
				return
			}

			// The weight is the first trailing cell written as a percent.
			for i := 1; i < cells.Length(); i++ {
				raw := strings.TrimSpace(cells.Eq(i).Text())
				if !strings.HasSuffix(raw, "%") {
					continue
				}
				if w, ok := parseDecimal(raw); ok && w > 0 && w <= 100 {
					found = append(found, Holding{Name: name, WeightPct: w})
				}
				break
			}
		})

		if len(found) > 0 {
			holdings = found
			return false
		}
		return true
	})

	s.logger.WithFields(map[string]interface{}{
		"isin":     isin,
		"holdings": len(holdings),
	}).Debug("scraped morningstar portfolio")
	return holdings, nil
}

// Finanzen scrapes the historical-price table on finanzen.net, which uses
// German number and date formats.
func (s *Scraper) Finanzen(ctx context.Context, isin string) (*series.Series, error) {
	url := fmt.Sprintf("%s/fonds/%s/historisch", s.finanzenURL, strings.ToLower(isin))

	doc, err := s.fetchDocument(ctx, url)
	if err != nil || doc == nil {
		return emptySeries(FinanzenSource), err
	}

	out := s.parsePriceTable(doc, FinanzenSource)
	s.logger.WithFields(map[string]interface{}{
		"isin":    isin,
		"records": out.Len(),
	}).Debug("scraped finanzen")
	return out, nil
}

// JustETF scrapes the ETF profile page. The chart data there is rendered
// client-side, so usually only scattered quote values are recoverable.
func (s *Scraper) JustETF(ctx context.Context, isin string) (*series.Series, error) {
	url := fmt.Sprintf("%s/en/etf-profile.html?isin=%s", s.justETFURL, strings.ToUpper(isin))

	doc, err := s.fetchDocument(ctx, url)
	if err != nil || doc == nil {
		return emptySeries(JustETFSource), err
	}

	out := s.parsePriceTable(doc, JustETFSource)
	s.logger.WithFields(map[string]interface{}{
		"isin":    isin,
		"records": out.Len(),
	}).Debug("scraped justetf")
	return out, nil
}

// parsePriceTable walks every table on the page and collects rows whose
// first cell parses as a date and whose second parses as a price. This is
// deliberately loose: the portals rearrange their markup often, and a miss
// just means an empty series.
func (s *Scraper) parsePriceTable(doc *goquery.Document, source string) *series.Series {
	var records []series.Record

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		var found []series.Record

		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() < 2 {
				return
			}

			iso := normalizeDate(cells.Eq(0).Text())
			if iso == "" {
				return
			}
			d, err := date.Parse(iso)
			if err != nil {
				return
			}

			price, ok := parseDecimal(cells.Eq(1).Text())
			if !ok || price <= 0 {
				return
			}

			found = append(found, series.Record{Date: d, Price: price})
		})

		if len(found) > 0 {
			records = found
			return false // first table with price rows wins
		}
		return true
	})

	out := series.New(records)
	out.Source = source
	out.FetchedAt = time.Now()
	return out
}

func emptySeries(source string) *series.Series {
	out := series.New(nil)
	out.Source = source
	out.FetchedAt = time.Now()
	return out
}
