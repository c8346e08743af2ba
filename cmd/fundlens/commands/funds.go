package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wonny/fundlens/internal/registry"
)

var fundsCmd = &cobra.Command{
	Use:   "funds",
	Short: "Manage the instrument registry",
}

var fundsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered instruments",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ISIN\tTICKER\tNAME\tMANAGER\tCATEGORY")
		for _, f := range a.funds {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", f.ISIN, f.Ticker, f.Name, f.Manager, f.Category)
		}
		return w.Flush()
	},
}

var (
	fundAddTicker string
	fundAddName   string
)

var fundsAddCmd = &cobra.Command{
	Use:   "add <isin>",
	Short: "Resolve an ISIN and print a registry entry for it",
	Long: `Looks the ISIN up on OpenFIGI and prints a YAML snippet ready to paste
into the registry file. The registry file itself is never modified.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		isin := args[0]

		if !registry.LooksLikeISIN(isin) {
			return fmt.Errorf("%q does not look like an ISIN", isin)
		}
		if !registry.ChecksumValid(isin) {
			fmt.Fprintln(os.Stderr, "warning: ISIN checksum does not verify")
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		fund := registry.Fund{ISIN: isin, Ticker: fundAddTicker, Name: fundAddName}
		if fund.Ticker == "" || fund.Name == "" {
			if m := a.describer.Mapping(ctx, isin); m != nil {
				if fund.Ticker == "" {
					fund.Ticker = m.Ticker
				}
				if fund.Name == "" {
					fund.Name = m.Name
				}
			}
		}

		fmt.Println("funds:")
		fmt.Printf("  - isin: %s\n", fund.ISIN)
		if fund.Ticker != "" {
			fmt.Printf("    ticker: %s\n", fund.Ticker)
		}
		if fund.Name != "" {
			fmt.Printf("    name: %s\n", fund.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fundsCmd)
	fundsCmd.AddCommand(fundsListCmd)
	fundsCmd.AddCommand(fundsAddCmd)

	fundsAddCmd.Flags().StringVar(&fundAddTicker, "ticker", "", "override the resolved ticker")
	fundsAddCmd.Flags().StringVar(&fundAddName, "name", "", "override the resolved name")
}
