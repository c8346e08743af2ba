package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/fundlens/internal/analysis"
	"github.com/wonny/fundlens/pkg/date"
)

var compareCmd = &cobra.Command{
	Use:   "compare [isin|ticker ...]",
	Short: "Compare instruments on a common base-100 scale",
	Long: `Fetches the given instruments (default: the whole registry), normalizes
each total-return series to the same base at the common start date, and
writes the comparison table.

The common start date is the latest first-available date across the
instruments, so every column has real data from day one. --start overrides
it; instruments that begin later show empty leading cells.

Example:
  fundlens compare
  fundlens compare IE00B4L5Y983 SPY --start 2021-01-01 --format csv --out cmp.csv`,
	RunE: runCompare,
}

var (
	compareStart  string
	compareBase   float64
	compareOut    string
	compareFormat string
)

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVar(&compareStart, "start", "", "comparison start date (YYYY-MM-DD)")
	compareCmd.Flags().Float64Var(&compareBase, "base", 0, "normalization base (default 100)")
	compareCmd.Flags().StringVar(&compareOut, "out", "", "output file (default stdout)")
	compareCmd.Flags().StringVar(&compareFormat, "format", "json", "output format (json|csv)")
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var opts analysis.CompareOptions
	if compareStart != "" {
		start, err := date.Parse(compareStart)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
		opts.Start = start
	}
	opts.Base = compareBase

	if compareFormat != "json" && compareFormat != "csv" {
		return fmt.Errorf("unknown --format %q (want json or csv)", compareFormat)
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	targets, err := a.resolveTargets(args)
	if err != nil {
		return err
	}

	svc := newAdHocService(a, targets)
	if err := svc.Refresh(ctx); err != nil {
		return err
	}

	cmp, err := svc.Comparison(opts)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if compareOut != "" {
		f, err := os.Create(compareOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", compareOut, err)
		}
		defer f.Close()
		out = f
	}

	if compareFormat == "csv" {
		return cmp.WriteCSV(out)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(cmp)
}
