// Package classify decides whether a fetched price series is already
// total-return-adjusted or raw, from identifier heuristics and from
// source-specific knowledge.
package classify

import "strings"

// Class tags an instrument for the adjustment decision. The two cases are
// exhaustive: every instrument is one or the other.
type Class int

const (
	// ForeignOrEquityOrETF covers everything whose raw close is unadjusted:
	// ETFs, non-domestic funds, equities, indices. Distributions stay in
	// separate fields and the total-return calculator adds them back.
	ForeignOrEquityOrETF Class = iota

	// DomesticAdjustedFund marks a fund in the provider's home market whose
	// native adjusted-close field is trustworthy: prefer it, and reconstruct
	// it from distributions only when the field is absent.
	DomesticAdjustedFund
)

func (c Class) String() string {
	if c == DomesticAdjustedFund {
		return "domestic_adjusted_fund"
	}
	return "foreign_or_equity_or_etf"
}

// homeMarket is the country code of the primary data provider's home market.
// US mutual-fund tickers are five letters ending in X, which is the ticker
// shape the rule below keys on.
const homeMarket = "US"

// Classify tags an instrument from its ISIN and ticker. An instrument is a
// domestic adjusted fund when its ISIN country code matches the provider's
// home market and its ticker has the domestic fund shape. A bare ticker with
// no ISIN lives in the provider's home namespace, so the ticker shape alone
// decides.
func Classify(isin, ticker string) Class {
	if isin != "" && !strings.EqualFold(countryCode(isin), homeMarket) {
		return ForeignOrEquityOrETF
	}
	if fundTickerShape(ticker) {
		return DomesticAdjustedFund
	}
	return ForeignOrEquityOrETF
}

// fundTickerShape reports whether t looks like a domestic mutual-fund ticker:
// exactly five letters, the last one X.
func fundTickerShape(t string) bool {
	if len(t) != 5 {
		return false
	}
	for _, r := range t {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return t[4] == 'X' || t[4] == 'x'
}

func countryCode(isin string) string {
	if len(isin) < 2 {
		return ""
	}
	return strings.ToUpper(isin[:2])
}

// adjustedVendors are the providers that always return an adjusted close.
// Matched as substrings so variant tags like "Yahoo Finance (ISIN)" are not
// accidentally caught while "EOD Historical Data" is.
var adjustedVendors = []string{
	"EOD Historical Data",
	"Alpha Vantage",
	"Financial Modeling Prep",
}

// AdjustedSource reports whether the named source always delivers
// total-return-adjusted prices. When true the series is force-marked adjusted
// and its distribution fields zeroed, regardless of identifier heuristics.
func AdjustedSource(name string) bool {
	for _, v := range adjustedVendors {
		if strings.Contains(name, v) {
			return true
		}
	}
	return false
}
