// Package registry holds the instrument list the pipeline runs over: a
// built-in default set, or a user-supplied YAML or plain-text file.
package registry

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fund is one registered instrument. Despite the name it covers everything
// the pipeline handles: mutual funds, ETFs, equities, indices. At least one
// of ISIN or Ticker must be set.
type Fund struct {
	ISIN        string `yaml:"isin" json:"isin"`
	Ticker      string `yaml:"ticker,omitempty" json:"ticker,omitempty"`
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Manager     string `yaml:"manager,omitempty" json:"manager,omitempty"`
	Category    string `yaml:"category,omitempty" json:"category,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// ID returns the identifier used as cache key and API path segment.
func (f Fund) ID() string {
	if f.ISIN != "" {
		return f.ISIN
	}
	return f.Ticker
}

// DisplayName returns the best human-readable name available.
func (f Fund) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.ID()
}

// Defaults returns the built-in instrument set used when no registry file is
// configured.
func Defaults() []Fund {
	return []Fund{
		{ISIN: "IE00B4L5Y983", Ticker: "IWDA.L", Name: "iShares Core MSCI World", Manager: "BlackRock", Category: "Global Equity ETF"},
		{ISIN: "IE00B3RBWM25", Ticker: "VWRL.L", Name: "Vanguard FTSE All-World", Manager: "Vanguard", Category: "Global Equity ETF"},
		{ISIN: "LU0323578657", Name: "Flossbach von Storch Multiple Opportunities", Manager: "Flossbach von Storch", Category: "Mixed Allocation"},
		{ISIN: "LU0097089360", Name: "DWS Top Dividende", Manager: "DWS", Category: "Equity Income"},
		{ISIN: "US78462F1030", Ticker: "SPY", Name: "SPDR S&P 500 ETF Trust", Manager: "State Street", Category: "US Equity ETF"},
		{ISIN: "US9229087286", Ticker: "VTSMX", Name: "Vanguard Total Stock Market Index", Manager: "Vanguard", Category: "US Equity Fund"},
	}
}

type registryFile struct {
	Funds []Fund `yaml:"funds"`
}

// Load reads a registry file. Two formats are accepted: a YAML document with
// a top-level `funds:` list, and a plain text file with one identifier per
// line (lines that look like ISINs become ISINs, short alphabetic lines
// become tickers; `#` starts a comment).
func Load(path string) ([]Fund, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}

	var parsed registryFile
	if err := yaml.Unmarshal(raw, &parsed); err == nil && len(parsed.Funds) > 0 {
		for i, f := range parsed.Funds {
			if f.ISIN == "" && f.Ticker == "" {
				return nil, fmt.Errorf("registry %s: entry %d has neither isin nor ticker", path, i+1)
			}
		}
		return parsed.Funds, nil
	}

	return parseLines(path, string(raw))
}

func parseLines(path, raw string) ([]Fund, error) {
	var funds []Fund
	for n, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if i := strings.Index(line, "#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}

		switch {
		case LooksLikeISIN(line):
			funds = append(funds, Fund{ISIN: strings.ToUpper(line)})
		case LooksLikeTicker(line):
			funds = append(funds, Fund{Ticker: strings.ToUpper(line)})
		default:
			return nil, fmt.Errorf("registry %s: line %d: %q is neither an ISIN nor a ticker", path, n+1, line)
		}
	}
	if len(funds) == 0 {
		return nil, fmt.Errorf("registry %s: no instruments found", path)
	}
	return funds, nil
}

// LooksLikeISIN reports whether s has ISIN shape: at least 12 alphanumeric
// characters starting with a two-letter country code. The checksum is
// deliberately not enforced here; see ChecksumValid.
func LooksLikeISIN(s string) bool {
	if len(s) < 12 {
		return false
	}
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			if i < 2 {
				return false
			}
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		default:
			return false
		}
	}
	return true
}

// LooksLikeTicker reports whether s has short-ticker shape: one to five
// alphabetic characters.
func LooksLikeTicker(s string) bool {
	if len(s) == 0 || len(s) > 5 {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

// ChecksumValid verifies the ISIN's Luhn check digit. Real-world fund lists
// contain typo'd ISINs that still resolve on some source, so a bad checksum
// is logged as a warning by callers, never rejected.
func ChecksumValid(isin string) bool {
	if len(isin) != 12 {
		return false
	}

	// Expand letters to two digits each, then run Luhn over the digit string.
	var digits []int
	for _, r := range strings.ToUpper(isin) {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, int(r-'0'))
		case r >= 'A' && r <= 'Z':
			v := int(r-'A') + 10
			digits = append(digits, v/10, v%10)
		default:
			return false
		}
	}

	sum := 0
	double := true
	for i := len(digits) - 2; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	check := (10 - sum%10) % 10
	return check == digits[len(digits)-1]
}

// Lookup finds a fund by ISIN or ticker, case-insensitively.
func Lookup(funds []Fund, id string) (Fund, bool) {
	for _, f := range funds {
		if strings.EqualFold(f.ISIN, id) || strings.EqualFold(f.Ticker, id) {
			return f, true
		}
	}
	return Fund{}, false
}
