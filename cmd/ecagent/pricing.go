package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"ecagent-hq/ecagent/pkg/cli"
	"ecagent-hq/ecagent/pkg/pricing"
)

var pricingFlags struct {
	db        string
	format    string
	contracts int
}

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Manage bid tab price history",
	Long: `Manage the bid tab price history used to fill in unit costs.

When engine.use_price_history is enabled, pay items whose rule declares no
unit cost are priced at the average historical unit price.

Subcommands:
  import  - Import bid tab CSV exports
  show    - Show price history for all items or one item`,
}

var pricingImportCmd = &cobra.Command{
	Use:   "import CSV_FILE...",
	Short: "Import bid tab CSV exports",
	Long: `Import bid tab CSV exports into the price history database.

Columns are detected from the header row: contract and item columns are
required; description, quantity, unit price, letting date, district and route
are read when present.

Examples:
  ecagent pricing import bidtabs-2023.csv bidtabs-2024.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: importBidTabs,
}

var pricingShowCmd = &cobra.Command{
	Use:   "show [ITEM_NUMBER]",
	Short: "Show price history",
	Long: `Without arguments, summarise every pay item in the price history. With an
item number, show its average unit price and the contracts that bid it, most
recent letting first.

Examples:
  ecagent pricing show
  ecagent pricing show 205-12345 --contracts 5`,
	Args: cobra.MaximumNArgs(1),
	RunE: showPricing,
}

func init() {
	rootCmd.AddCommand(pricingCmd)
	pricingCmd.AddCommand(pricingImportCmd, pricingShowCmd)

	pricingCmd.PersistentFlags().StringVar(&pricingFlags.db, "db", "", "price history database (overrides pricing.db_path)")
	pricingShowCmd.Flags().StringVarP(&pricingFlags.format, "format", "f", "text", "output format: text, json, yaml")
	pricingShowCmd.Flags().IntVar(&pricingFlags.contracts, "contracts", 10, "number of contracts to show for an item")
}

func openPricingFromFlags(cmd *cobra.Command) (*pricing.Store, error) {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return nil, err
	}
	if pricingFlags.db != "" {
		cfg.Pricing.DBPath = pricingFlags.db
	}
	return openPricingStore(cfg, logger)
}

func importBidTabs(cmd *cobra.Command, args []string) error {
	s, err := openPricingFromFlags(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()
	total := 0
	for _, path := range args {
		records, err := pricing.ReadCSVFile(path)
		if err != nil {
			return cli.NewCommandError("pricing import", err)
		}
		n, err := s.Import(ctx, records)
		if err != nil {
			return cli.NewCommandError("pricing import", fmt.Errorf("%s: %w", path, err))
		}
		fmt.Fprintf(out, "✓ %s: %d bids imported\n", path, n)
		total += n
	}
	if len(args) > 1 {
		fmt.Fprintf(out, "Total: %d bids\n", total)
	}
	return nil
}

type itemSummaries []pricing.ItemSummary

func (s itemSummaries) String() string {
	if len(s) == 0 {
		return "No price history. Import bid tabs with: ecagent pricing import FILE.csv"
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Item", "Description", "Bids", "Average", "Min", "Max"})
	for _, item := range s {
		t.AppendRow(table.Row{item.ItemNumber, item.Description, item.Bids,
			money(item.AveragePrice), money(item.MinPrice), money(item.MaxPrice)})
	}
	t.SetStyle(table.StyleLight)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	return t.Render()
}

// itemHistory is the price history of one pay item.
type itemHistory struct {
	ItemNumber   string             `json:"item_number" yaml:"item_number"`
	AveragePrice float64            `json:"average_unit_price" yaml:"average_unit_price"`
	Bids         int                `json:"bids" yaml:"bids"`
	Contracts    []pricing.Contract `json:"contracts" yaml:"contracts"`
}

func (h itemHistory) String() string {
	var b strings.Builder
	if h.Bids == 0 {
		fmt.Fprintf(&b, "No bids for %s.", h.ItemNumber)
		return b.String()
	}
	fmt.Fprintf(&b, "%s: average unit price %s over %d bids\n\n", h.ItemNumber, money(h.AveragePrice), h.Bids)

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Contract", "Letting", "District", "Route", "Quantity", "Unit Price"})
	for _, c := range h.Contracts {
		t.AppendRow(table.Row{c.Contract, c.LettingDate, c.District, c.Route,
			fmt.Sprintf("%.2f", c.Quantity), money(c.AveragePrice)})
	}
	t.SetStyle(table.StyleLight)
	b.WriteString(t.Render())
	return b.String()
}

func showPricing(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(pricingFlags.format))
	if err != nil {
		return err
	}
	s, err := openPricingFromFlags(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := commandContext(cmd)
	if len(args) == 0 {
		items, err := s.Items(ctx)
		if err != nil {
			return cli.NewCommandError("pricing show", err)
		}
		return formatter.FormatTo(cmd.OutOrStdout(), itemSummaries(items))
	}

	item := args[0]
	avg, bids, err := s.AveragePrice(ctx, item)
	if err != nil {
		return cli.NewCommandError("pricing show", err)
	}
	contracts, err := s.Contracts(ctx, item)
	if err != nil {
		return cli.NewCommandError("pricing show", err)
	}
	history := itemHistory{
		ItemNumber:   item,
		AveragePrice: avg,
		Bids:         bids,
		Contracts:    pricing.SelectContracts(contracts, pricingFlags.contracts, nil),
	}
	return formatter.FormatTo(cmd.OutOrStdout(), history)
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
