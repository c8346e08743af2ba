package analysis

import (
	"math"

	"github.com/wonny/fundlens/internal/series"
	"github.com/wonny/fundlens/pkg/date"
)

// SourceComparison summarizes how two sources' series for the same instrument
// agree over their common dates. Used as a diagnostic when a source is
// suspected of a convention mismatch.
type SourceComparison struct {
	CommonDays  int     `json:"common_days"`
	MaxAbsDiff  float64 `json:"max_abs_diff"`
	MeanAbsDiff float64 `json:"mean_abs_diff"`
	MaxRelDiff  float64 `json:"max_rel_diff"` // fraction of the first source's price
	Correlation float64 `json:"correlation"`
}

// CompareSources cross-checks two price series date by date.
func CompareSources(a, b *series.Series) SourceComparison {
	bAt := make(map[date.Date]float64, b.Len())
	for _, r := range b.Records {
		bAt[r.Date] = r.Price
	}

	var pa, pb []float64
	for _, r := range a.Records {
		if p, ok := bAt[r.Date]; ok {
			pa = append(pa, r.Price)
			pb = append(pb, p)
		}
	}

	out := SourceComparison{CommonDays: len(pa)}
	if len(pa) == 0 {
		return out
	}

	var sumAbs float64
	for i := range pa {
		diff := math.Abs(pa[i] - pb[i])
		sumAbs += diff
		if diff > out.MaxAbsDiff {
			out.MaxAbsDiff = diff
		}
		if pa[i] > 0 {
			if rel := diff / pa[i]; rel > out.MaxRelDiff {
				out.MaxRelDiff = rel
			}
		}
	}
	out.MeanAbsDiff = sumAbs / float64(len(pa))

	if sa, sb := populationStd(pa), populationStd(pb); sa > 0 && sb > 0 {
		out.Correlation = covariance(pa, pb) / (sa * sb)
	}

	return out
}
