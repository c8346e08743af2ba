// Package date provides a calendar day value with no time-of-day component.
//
// Price histories are indexed by trading day. Carrying a full time.Time around
// invites timezone drift when sources report midnight in different zones, so the
// series layer works exclusively with this type and converts at the transport
// boundary.
package date

import (
	"fmt"
	"time"
)

// Format is the canonical wire format, ISO-8601 calendar date.
const Format = "2006-01-02"

// Date is a calendar day. The zero value is treated as "no date".
type Date struct {
	year  int
	month time.Month
	day   int
}

// New returns a normalized Date. Out-of-range values roll over the same way
// time.Date does (e.g. Jan 32 becomes Feb 1).
func New(year int, month time.Month, day int) Date {
	y, m, d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Date()
	return Date{year: y, month: m, day: d}
}

// FromTime truncates t to its calendar day in UTC.
func FromTime(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{year: y, month: m, day: d}
}

// Today returns the current calendar day in UTC.
func Today() Date { return FromTime(time.Now()) }

// Parse reads a Date in the canonical "2006-01-02" format.
func Parse(s string) (Date, error) {
	t, err := time.Parse(Format, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return FromTime(t), nil
}

// MustParse is Parse for fixtures and constants; it panics on malformed input.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// Unix returns the Unix timestamp of midnight UTC, the form the chart-style
// price APIs take as period bounds.
func (d Date) Unix() int64 { return d.Time().Unix() }

func (d Date) Year() int         { return d.year }
func (d Date) Month() time.Month { return d.month }
func (d Date) Day() int          { return d.day }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d.year == 0 && d.month == 0 && d.day == 0 }

// Before reports whether d falls before x.
func (d Date) Before(x Date) bool { return d.Compare(x) < 0 }

// After reports whether d falls after x.
func (d Date) After(x Date) bool { return d.Compare(x) > 0 }

// Equal reports whether d and x are the same day.
func (d Date) Equal(x Date) bool { return d.Compare(x) == 0 }

// Compare orders two dates: -1 if d < x, 0 if equal, +1 if d > x.
func (d Date) Compare(x Date) int {
	switch {
	case d.year != x.year:
		return cmpInt(d.year, x.year)
	case d.month != x.month:
		return cmpInt(int(d.month), int(x.month))
	default:
		return cmpInt(d.day, x.day)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// AddDays returns the day n calendar days after d (before, if n is negative).
func (d Date) AddDays(n int) Date { return New(d.year, d.month, d.day+n) }

// AddYears returns the same calendar day n years away, normalized.
func (d Date) AddYears(n int) Date { return New(d.year+n, d.month, d.day) }

// DaysBetween returns the number of calendar days from d to x; negative when x
// precedes d.
func DaysBetween(d, x Date) int {
	return int(x.Time().Sub(d.Time()) / (24 * time.Hour))
}

// String formats the date in the canonical format.
func (d Date) String() string { return d.Time().Format(Format) }

// MarshalJSON encodes the date as a "2006-01-02" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "2006-01-02" string. Timestamps with a time-of-day
// suffix are accepted and truncated, so envelopes written by older builds that
// stored full timestamps still load.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("date: expected quoted string, got %s", s)
	}
	s = s[1 : len(s)-1]
	if len(s) > len(Format) {
		s = s[:len(Format)]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
