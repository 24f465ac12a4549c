package main

import (
	"fmt"
	"io"
	"strings"

	"tradedash/aggregation"
	"tradedash/config"
	"tradedash/database"
	"tradedash/loader"
	"tradedash/logger"
	"tradedash/model"

	"github.com/spf13/cobra"
)

var (
	summaryData            string
	summaryCategories      []string
	summaryImportExport    []string
	summaryPaymentTerms    []string
	summaryShippingMethods []string
	summaryYears           []int
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the dashboard figures without starting a server",
	Long: `Loads the CSV into an in-memory database, applies the optional filters,
and prints the figures behind each chart.`,
	Example: `  tradedash summary --data Imports_Exports_Dataset.csv
  tradedash summary --category Toys --category Clothing --year 2022
  tradedash summary --payment-terms "Net 30" --shipping-method Air`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringVar(&summaryData, "data", "", "CSV file (default: data_path from config)")
	// 値にカンマを含むことがあるため、繰り返し指定で複数選択します。
	summaryCmd.Flags().StringArrayVar(&summaryCategories, "category", nil, "Only include this category (repeatable)")
	summaryCmd.Flags().StringArrayVar(&summaryImportExport, "import-export", nil, "Only include Import or Export (repeatable)")
	summaryCmd.Flags().StringArrayVar(&summaryPaymentTerms, "payment-terms", nil, "Only include these payment terms (repeatable)")
	summaryCmd.Flags().StringArrayVar(&summaryShippingMethods, "shipping-method", nil, "Only include these shipping methods (repeatable)")
	summaryCmd.Flags().IntSliceVar(&summaryYears, "year", nil, "Only include these years")
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()
	if summaryData != "" {
		cfg.DataPath = summaryData
	}
	ctx := logger.WithContext(cmd.Context(), log)

	db, err := openDatabase(":memory:")
	if err != nil {
		return err
	}
	defer db.Close()

	d, err := loader.LoadDataset(ctx, db, loader.OptionsFromConfig(cfg))
	if err != nil {
		return err
	}

	filters := summaryFilters(cmd)
	records, err := database.QueryTrades(ctx, db, d.ID, filters)
	if err != nil {
		return err
	}
	summary := aggregation.BuildSummary(records, model.SummaryOptions{
		HighValueQuantile: cfg.HighValueQuantile,
		HistogramBins:     cfg.HistogramBins,
		MonthlyMode:       cfg.MonthlyMode,
		MonthlyByYear:     cfg.MonthlyByYear,
	})
	printSummary(cmd.OutOrStdout(), d, summary)
	return nil
}

// summaryFilters は指定されたフラグだけを条件にします。未指定の項目は全選択です。
func summaryFilters(cmd *cobra.Command) model.DashboardFilters {
	var f model.DashboardFilters
	changed := cmd.Flags().Changed
	if changed("category") {
		f.Categories = summaryCategories
	}
	if changed("import-export") {
		f.ImportExport = summaryImportExport
	}
	if changed("payment-terms") {
		f.PaymentTerms = summaryPaymentTerms
	}
	if changed("shipping-method") {
		f.ShippingMethods = summaryShippingMethods
	}
	if changed("year") {
		f.Years = summaryYears
	}
	return f
}

func printSummary(w io.Writer, d *model.Dataset, s model.DashboardSummary) {
	fmt.Fprintf(w, "Dataset %s: %d of %d rows sampled, %d dropped\n", d.SourcePath, d.KeptRows, d.TotalRows, d.DroppedRows)
	fmt.Fprintf(w, "Rows matching filters: %d\n\n", s.RowCount)

	hv := s.HighValue
	fmt.Fprintf(w, "High-value transactions (Value >= %.2f, q=%.2f): %d of %d (%.1f%%)\n\n",
		hv.Threshold, hv.Quantile, hv.HighCount, hv.Total, hv.Percent)

	fmt.Fprintln(w, "Shipping methods:")
	for _, c := range s.ShippingCounts {
		fmt.Fprintf(w, "  %-12s %d\n", c.Name, c.Count)
	}

	fmt.Fprintln(w, "\nWeight by category (median, IQR):")
	for _, b := range s.WeightBoxes {
		fmt.Fprintf(w, "  %-12s %8.2f  [%.2f, %.2f]  n=%d\n", b.Category, b.Median, b.Q1, b.Q3, b.Count)
	}

	fmt.Fprintf(w, "\nMonthly trend (%s of Value):\n", s.MonthlyMode)
	for _, p := range s.Monthly {
		fmt.Fprintf(w, "  %-9s %12.2f  (%d)\n", p.Label(), p.Value, p.Count)
	}

	if len(s.ValueHistogram.Bins) > 0 {
		bins := s.ValueHistogram.Bins
		fmt.Fprintf(w, "\nValue range: %.2f .. %.2f in %d bins\n", bins[0].Lower, bins[len(bins)-1].Upper, len(bins))
	}
	fmt.Fprintln(w, strings.Repeat("-", 40))
}
