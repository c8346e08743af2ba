package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/fundlens/internal/analysis"
	"github.com/wonny/fundlens/internal/series"
	"github.com/wonny/fundlens/internal/sources"
	"github.com/wonny/fundlens/pkg/date"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <isin|ticker> [sourceA sourceB]",
	Short: "Cross-check an instrument's prices across independent sources",
	Long: `Compares two sources' answers for the same instrument day by day:
maximum and mean absolute difference, maximum relative difference, and
correlation of overlapping prices. With no source names the ladder is
walked and the first two usable answers are compared. Large divergence
usually means one source serves a different share class or an unadjusted
series.`,
	Args: cobra.RangeArgs(1, 3),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(args) == 2 {
		return fmt.Errorf("name both sources or neither (have: %v)", a.resolver.Sources())
	}

	targets, err := a.resolveTargets(args[:1])
	if err != nil {
		return err
	}
	fund := targets[0]
	inst := sources.Instrument{ISIN: fund.ISIN, Ticker: fund.Ticker, Name: fund.DisplayName()}

	to := date.Today()
	from := to.AddYears(-a.cfg.Analysis.YearsBack)

	names := a.resolver.Sources()
	if len(args) == 3 {
		names = args[1:]
	}

	// Collect the first two usable series from distinct sources, bypassing
	// the cache on purpose.
	var found []*series.Series
	for _, name := range names {
		src, ok := a.resolver.Named(name)
		if !ok {
			if len(args) == 3 {
				return fmt.Errorf("unknown source %q (have: %v)", name, a.resolver.Sources())
			}
			continue
		}

		s, err := src.Fetch(ctx, inst, from, to)
		if err != nil || s == nil || s.Len() <= 10 {
			if len(args) == 3 {
				return fmt.Errorf("source %s returned no usable data for %s", name, fund.ID())
			}
			continue
		}
		if s.Source == "" {
			s.Source = name
		}
		if len(found) > 0 && found[0].Source == s.Source {
			continue
		}

		fmt.Printf("fetched %d records from %s\n", s.Len(), s.Source)
		found = append(found, s)
		if len(found) == 2 {
			break
		}
	}

	if len(found) < 2 {
		return fmt.Errorf("need two independent sources, found %d", len(found))
	}

	cmp := analysis.CompareSources(found[0], found[1])
	if cmp.CommonDays == 0 {
		return fmt.Errorf("sources %s and %s share no dates", found[0].Source, found[1].Source)
	}

	fmt.Printf("\n%s vs %s\n", found[0].Source, found[1].Source)
	fmt.Printf("  common days:       %d\n", cmp.CommonDays)
	fmt.Printf("  max abs diff:      %.4f\n", cmp.MaxAbsDiff)
	fmt.Printf("  mean abs diff:     %.4f\n", cmp.MeanAbsDiff)
	fmt.Printf("  max rel diff:      %.2f%%\n", cmp.MaxRelDiff*100)
	fmt.Printf("  correlation:       %.4f\n", cmp.Correlation)

	if cmp.MaxRelDiff > 0.05 {
		fmt.Println("\nWarning: sources diverge by more than 5%; they may serve different share classes or adjustment conventions.")
	}
	return nil
}
