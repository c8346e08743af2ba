// Package validate runs advisory sanity checks over a fetched price series.
// A failed check annotates the series and is logged; it never blocks use of
// the data, which is frequently the only data available for the instrument.
package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/wonny/fundlens/internal/analysis"
	"github.com/wonny/fundlens/internal/series"
	"github.com/wonny/fundlens/pkg/date"
	"github.com/wonny/fundlens/pkg/logger"
)

// Thresholds configures the checks.
type Thresholds struct {
	// MaxDailyChange is the absolute day-over-day change above which data is
	// treated as corrupt.
	MaxDailyChange float64
	// SuspiciousChange is the absolute change above which a day is flagged as
	// a soft warning without failing the check.
	SuspiciousChange float64
	// MaxGapDays is the largest tolerated calendar gap between consecutive
	// observations.
	MaxGapDays int
	// ReturnTolerance absorbs floating-point drift in the total-return
	// comparison.
	ReturnTolerance float64
}

// DefaultThresholds returns the standard thresholds: 20% hard jump limit,
// 10% soft warning, 5-day completeness gap.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxDailyChange:   0.20,
		SuspiciousChange: 0.10,
		MaxGapDays:       5,
		ReturnTolerance:  1e-6,
	}
}

// Check is one named check's outcome.
type Check struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// Report collects the three checks for one series.
type Report struct {
	TotalReturn  Check `json:"total_return"`
	Consistency  Check `json:"consistency"`
	Completeness Check `json:"completeness"`
}

// Valid is the conjunction of all checks.
func (r Report) Valid() bool {
	return r.TotalReturn.Passed && r.Consistency.Passed && r.Completeness.Passed
}

// Summary renders the report as one line per check.
func (r Report) Summary() string {
	var b strings.Builder
	for _, c := range []struct {
		name  string
		check Check
	}{
		{"total_return", r.TotalReturn},
		{"consistency", r.Consistency},
		{"completeness", r.Completeness},
	} {
		status := "PASS"
		if !c.check.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "%-12s %s  %s\n", c.name, status, c.check.Message)
	}
	return b.String()
}

// Validator runs the checks.
type Validator struct {
	thresholds Thresholds
	calc       *analysis.Calculator
	log        *logger.Logger
}

// New creates a Validator. A nil logger falls back to a no-op logger.
func New(t Thresholds, log *logger.Logger) *Validator {
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("validate")
	return &Validator{
		thresholds: t,
		calc:       analysis.NewCalculator(log),
		log:        log,
	}
}

// Validate runs all checks over s and logs any failure.
func (v *Validator) Validate(s *series.Series) Report {
	report := Report{
		TotalReturn:  v.checkTotalReturn(s),
		Consistency:  v.checkConsistency(s),
		Completeness: v.checkCompleteness(s),
	}

	if !report.Valid() {
		v.log.WithFields(map[string]interface{}{
			"source":       s.Source,
			"total_return": report.TotalReturn.Passed,
			"consistency":  report.Consistency.Passed,
			"completeness": report.Completeness.Passed,
		}).Warn("series failed validation, keeping it anyway")
	}

	return report
}

// checkTotalReturn confirms the cumulative total return is at least the pure
// price return when distributions are present. Adjusted series pass
// trivially: the price already embeds the distributions.
func (v *Validator) checkTotalReturn(s *series.Series) Check {
	if s.Len() < 2 {
		return Check{Passed: true, Message: "too few records to compare returns"}
	}
	if s.Adjusted {
		return Check{Passed: true, Message: "adjusted series, price return is total return"}
	}
	if !s.HasDistributions() {
		return Check{Passed: true, Message: "no distributions recorded"}
	}

	tr := v.calc.TotalReturn(s)
	priceRatio := s.Last().Price / s.First().Price
	totalRatio := tr.Last() / tr.First()

	if totalRatio+v.thresholds.ReturnTolerance < priceRatio {
		return Check{
			Passed: false,
			Message: fmt.Sprintf("total return %.4f below price return %.4f despite distributions",
				totalRatio, priceRatio),
		}
	}
	return Check{
		Passed:  true,
		Message: fmt.Sprintf("total return %.4f >= price return %.4f", totalRatio, priceRatio),
	}
}

// checkConsistency scans day-over-day changes. Anything past the hard limit
// fails the check; changes in the suspicious band are recorded in the message
// but still pass.
func (v *Validator) checkConsistency(s *series.Series) Check {
	var hard, soft []string

	for i := 1; i < s.Len(); i++ {
		prev := s.Records[i-1].Price
		if prev <= 0 {
			continue
		}
		change := math.Abs(s.Records[i].Price/prev - 1)

		switch {
		case change > v.thresholds.MaxDailyChange:
			hard = append(hard, fmt.Sprintf("%s %+.1f%%", s.Records[i].Date, change*100))
		case change > v.thresholds.SuspiciousChange:
			soft = append(soft, fmt.Sprintf("%s %+.1f%%", s.Records[i].Date, change*100))
		}
	}

	if len(hard) > 0 {
		return Check{
			Passed:  false,
			Message: fmt.Sprintf("%d daily change(s) above %.0f%%: %s", len(hard), v.thresholds.MaxDailyChange*100, strings.Join(hard, ", ")),
		}
	}
	if len(soft) > 0 {
		return Check{
			Passed:  true,
			Message: fmt.Sprintf("%d suspicious daily change(s) above %.0f%%: %s", len(soft), v.thresholds.SuspiciousChange*100, strings.Join(soft, ", ")),
		}
	}
	return Check{Passed: true, Message: "no abnormal daily changes"}
}

// checkCompleteness fails when any gap between consecutive observations
// exceeds the calendar-day limit.
func (v *Validator) checkCompleteness(s *series.Series) Check {
	var maxGap int
	var gapEnd date.Date

	for i := 1; i < s.Len(); i++ {
		gap := date.DaysBetween(s.Records[i-1].Date, s.Records[i].Date)
		if gap > maxGap {
			maxGap = gap
			gapEnd = s.Records[i].Date
		}
	}

	if maxGap > v.thresholds.MaxGapDays {
		return Check{
			Passed:  false,
			Message: fmt.Sprintf("max gap %d days (ending %s) exceeds %d-day limit", maxGap, gapEnd, v.thresholds.MaxGapDays),
		}
	}
	return Check{Passed: true, Message: fmt.Sprintf("max gap %d days", maxGap)}
}
