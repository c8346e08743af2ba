package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/fundlens/internal/registry"
	"github.com/wonny/fundlens/internal/sources"
)

var describeCmd = &cobra.Command{
	Use:   "describe <isin|ticker>",
	Short: "Show an instrument's description and composition",
	Args:  cobra.ExactArgs(1),
	RunE:  runDescribe,
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
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
	fund := targets[0]
	inst := sources.Instrument{ISIN: fund.ISIN, Ticker: fund.Ticker, Name: fund.DisplayName()}

	fmt.Printf("%s\n", fund.DisplayName())
	if fund.ISIN != "" {
		fmt.Printf("ISIN:   %s\n", fund.ISIN)
		if !registry.ChecksumValid(fund.ISIN) {
			fmt.Println("        (checksum does not verify)")
		}
	}
	if ticker := a.describer.Ticker(ctx, inst); ticker != "" {
		fmt.Printf("Ticker: %s\n", ticker)
	}
	if fund.Manager != "" {
		fmt.Printf("Manager: %s\n", fund.Manager)
	}
	if fund.Category != "" {
		fmt.Printf("Category: %s\n", fund.Category)
	}

	text, source, err := a.describer.Describe(ctx, inst)
	if err != nil {
		return err
	}
	if text == "" {
		fmt.Println("\nNo description available.")
	} else {
		fmt.Printf("\n%s\n(source: %s)\n", text, source)
	}

	comp, err := a.composer.Compose(ctx, inst, a.describer.Ticker(ctx, inst))
	if err != nil {
		return err
	}
	if comp.Empty() {
		return nil
	}

	if len(comp.Sectors) > 0 {
		fmt.Println("\nSectors:")
		for sector, weight := range comp.Sectors {
			fmt.Printf("  %-24s %6.2f%%\n", sector, weight)
		}
	}
	if len(comp.Holdings) > 0 {
		fmt.Println("\nTop holdings:")
		for _, h := range comp.Holdings {
			fmt.Printf("  %-40s %6.2f%%\n", h.Name, h.WeightPct)
		}
	}
	fmt.Printf("(composition source: %s)\n", comp.Source)
	return nil
}
