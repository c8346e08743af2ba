// Package series holds the canonical per-day price record and the ordered
// price series every other component operates on.
package series

import (
	"sort"
	"time"

	"github.com/wonny/fundlens/pkg/date"
)

// Record is one calendar day for one instrument. Price is the raw or adjusted
// close; Dividend and CapitalGain are cash distributions paid that day.
type Record struct {
	Date        date.Date
	Price       float64
	Dividend    float64
	CapitalGain float64
}

// Distribution returns the total cash distribution for the day.
func (r Record) Distribution() float64 {
	return r.Dividend + r.CapitalGain
}

// Series is a date-ascending, date-unique sequence of records for one
// instrument, tagged with where and when it was fetched.
//
// When Adjusted is true the prices already embed reinvested distributions and
// every record carries zero dividend and capital gain; MarkAdjusted enforces
// this so the total-return calculator can never double count.
type Series struct {
	Records   []Record
	Adjusted  bool
	Source    string
	FetchedAt time.Time
}

// New builds a Series from records in any order. Records are sorted by date,
// duplicates collapse to the last occurrence, and records without a positive
// price are dropped.
func New(records []Record) *Series {
	kept := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Price > 0 && !r.Date.IsZero() {
			kept = append(kept, r)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Date.Before(kept[j].Date)
	})

	out := kept[:0]
	for _, r := range kept {
		if n := len(out); n > 0 && out[n-1].Date.Equal(r.Date) {
			out[n-1] = r
			continue
		}
		out = append(out, r)
	}

	return &Series{Records: out}
}

// Len returns the number of records.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// First returns the earliest record. Callers must check Len first.
func (s *Series) First() Record { return s.Records[0] }

// Last returns the latest record. Callers must check Len first.
func (s *Series) Last() Record { return s.Records[len(s.Records)-1] }

// Dates returns the record dates in order.
func (s *Series) Dates() []date.Date {
	out := make([]date.Date, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Date
	}
	return out
}

// Prices returns the prices in date order.
func (s *Series) Prices() []float64 {
	out := make([]float64, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Price
	}
	return out
}

// At returns the record for the given date.
func (s *Series) At(d date.Date) (Record, bool) {
	i := sort.Search(len(s.Records), func(i int) bool {
		return !s.Records[i].Date.Before(d)
	})
	if i < len(s.Records) && s.Records[i].Date.Equal(d) {
		return s.Records[i], true
	}
	return Record{}, false
}

// HasDistributions reports whether any record carries a positive dividend or
// capital gain.
func (s *Series) HasDistributions() bool {
	for _, r := range s.Records {
		if r.Distribution() > 0 {
			return true
		}
	}
	return false
}

// Clip returns a copy restricted to from..to inclusive. A zero bound is open.
func (s *Series) Clip(from, to date.Date) *Series {
	out := &Series{
		Adjusted:  s.Adjusted,
		Source:    s.Source,
		FetchedAt: s.FetchedAt,
	}
	for _, r := range s.Records {
		if !from.IsZero() && r.Date.Before(from) {
			continue
		}
		if !to.IsZero() && r.Date.After(to) {
			continue
		}
		out.Records = append(out.Records, r)
	}
	return out
}

// MarkAdjusted flags the series as total-return-adjusted and zeroes every
// distribution field. An adjusted price already embeds reinvested
// distributions; leaving the fields populated would double count.
func (s *Series) MarkAdjusted() {
	s.Adjusted = true
	for i := range s.Records {
		s.Records[i].Dividend = 0
		s.Records[i].CapitalGain = 0
	}
}
