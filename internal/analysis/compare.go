package analysis

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/wonny/fundlens/pkg/date"
)

// CompareOptions configures BuildComparison.
type CompareOptions struct {
	// Start overrides the derived common start date. Zero derives it as the
	// latest first-available date across the input series.
	Start date.Date
	// Base is the value every instrument is pinned to at the common start
	// date. Zero means 100.
	Base float64
}

// Comparison is the cross-instrument table: every included instrument valued
// at exactly Base on the common start date and forward-filled thereafter.
// Missing leading values (an instrument that starts after an overridden start
// date) are NaN.
type Comparison struct {
	Start date.Date
	Base  float64
	Dates []date.Date
	Names []string
	// Values is indexed [date][instrument], aligned with Dates and Names.
	Values [][]float64
}

// BuildComparison aligns one total-return series per instrument onto a single
// base-100 table.
//
// The common start date is the latest of the series' first dates, the most
// restrictive choice, so every instrument has real data from day one of the
// comparison. Each column is rescaled by Base over its first valid
// observation at or after the start, pinned exactly to Base there to remove
// floating-point drift, and forward-filled across gaps so no value ever
// appears that was not previously observed.
func BuildComparison(input map[string]TotalReturnSeries, opts CompareOptions) (*Comparison, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("comparison: no series provided")
	}

	base := opts.Base
	if base == 0 {
		base = 100
	}

	names := make([]string, 0, len(input))
	for name, tr := range input {
		if tr.Len() == 0 {
			return nil, fmt.Errorf("comparison: series %q is empty", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	start := opts.Start
	if start.IsZero() {
		for _, name := range names {
			if first := input[name].Dates[0]; start.IsZero() || first.After(start) {
				start = first
			}
		}
	}

	// Union of all observed dates at or after the start.
	seen := map[date.Date]bool{}
	for _, name := range names {
		for _, d := range input[name].Dates {
			if !d.Before(start) {
				seen[d] = true
			}
		}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("comparison: no observations at or after %s", start)
	}

	dates := make([]date.Date, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := &Comparison{
		Start: start,
		Base:  base,
		Dates: dates,
		Names: names,
	}
	out.Values = make([][]float64, len(dates))
	for i := range out.Values {
		row := make([]float64, len(names))
		for j := range row {
			row[j] = math.NaN()
		}
		out.Values[i] = row
	}

	for j, name := range names {
		tr := input[name]
		at := make(map[date.Date]float64, tr.Len())
		for i, d := range tr.Dates {
			if !d.Before(start) {
				at[d] = tr.Values[i]
			}
		}

		// First valid observation at or after the start anchors the scale.
		var anchor float64
		anchored := false
		for i, d := range dates {
			v, ok := at[d]
			if !ok {
				continue
			}
			if !anchored {
				if v <= 0 {
					break
				}
				anchor = v
				anchored = true
				out.Values[i][j] = base // exact, no drift
				continue
			}
			out.Values[i][j] = v / anchor * base
		}
		if !anchored {
			return nil, fmt.Errorf("comparison: series %q has no valid observation at or after %s", name, start)
		}

		// Forward-fill gaps after the first observation; leading gaps stay
		// missing.
		last := math.NaN()
		for i := range dates {
			if !math.IsNaN(out.Values[i][j]) {
				last = out.Values[i][j]
			} else if !math.IsNaN(last) {
				out.Values[i][j] = last
			}
		}
	}

	return out, nil
}

// Column returns the values for one instrument.
func (c *Comparison) Column(name string) ([]float64, bool) {
	for j, n := range c.Names {
		if n == name {
			out := make([]float64, len(c.Dates))
			for i := range c.Dates {
				out[i] = c.Values[i][j]
			}
			return out, true
		}
	}
	return nil, false
}

// ValueAt returns the value for one instrument on one date.
func (c *Comparison) ValueAt(name string, d date.Date) (float64, bool) {
	col, ok := c.Column(name)
	if !ok {
		return 0, false
	}
	for i, cd := range c.Dates {
		if cd.Equal(d) && !math.IsNaN(col[i]) {
			return col[i], true
		}
	}
	return 0, false
}

// MarshalJSON encodes the table with NaN rendered as null, so the output is
// valid JSON for the report layer.
func (c *Comparison) MarshalJSON() ([]byte, error) {
	type row struct {
		Date   date.Date           `json:"date"`
		Values map[string]*float64 `json:"values"`
	}

	rows := make([]row, len(c.Dates))
	for i, d := range c.Dates {
		vals := make(map[string]*float64, len(c.Names))
		for j, name := range c.Names {
			if v := c.Values[i][j]; !math.IsNaN(v) {
				vv := v
				vals[name] = &vv
			} else {
				vals[name] = nil
			}
		}
		rows[i] = row{Date: d, Values: vals}
	}

	return json.Marshal(struct {
		Start date.Date `json:"common_start_date"`
		Base  float64   `json:"base"`
		Names []string  `json:"instruments"`
		Rows  []row     `json:"rows"`
	}{c.Start, c.Base, c.Names, rows})
}

// WriteCSV writes the table as CSV with a date column followed by one column
// per instrument. Missing values are empty cells.
func (c *Comparison) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{"date"}, c.Names...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i, d := range c.Dates {
		row := make([]string, 0, len(c.Names)+1)
		row = append(row, d.String())
		for j := range c.Names {
			v := c.Values[i][j]
			if math.IsNaN(v) {
				row = append(row, "")
			} else {
				row = append(row, strconv.FormatFloat(v, 'f', 4, 64))
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
