package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [isin|ticker ...]",
	Short: "Fetch price history and print per-instrument metrics",
	Long: `Fetches historical prices for the given instruments (default: the whole
registry), walking the source ladder and caching results, then prints the
computed metrics.

Example:
  fundlens fetch
  fundlens fetch IE00B4L5Y983 SPY`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	targets, err := a.resolveTargets(args)
	if err != nil {
		return err
	}

	svc := a.service
	if len(args) > 0 {
		// Ad-hoc targets replace the registry for this invocation only.
		svc = newAdHocService(a, targets)
	}
	if err := svc.Refresh(ctx); err != nil {
		return err
	}
	results, _ := svc.Results()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INSTRUMENT\tSOURCE\tRECORDS\tTOTAL %\tANNUAL %\tVOL %\tSHARPE\tMAXDD %\tBETA\tVALID")
	for _, r := range results {
		if !r.OK() {
			fmt.Fprintf(w, "%s\tERROR: %v\t\t\t\t\t\t\t\t\n", r.Fund.DisplayName(), r.Err)
			continue
		}

		beta := "-"
		if r.Metrics.Beta != nil {
			beta = fmt.Sprintf("%.2f", *r.Metrics.Beta)
		}
		valid := "yes"
		if r.Report != nil && !r.Report.Valid() {
			valid = "no"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%s\t%s\n",
			r.Fund.DisplayName(), r.Series.Source, r.Series.Len(),
			r.Metrics.TotalReturn, r.Metrics.AnnualizedReturn, r.Metrics.Volatility,
			r.Metrics.SharpeRatio, r.Metrics.MaxDrawdown, beta, valid)
	}
	return w.Flush()
}
