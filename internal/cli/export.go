package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nwafound/ramp-bc-export/internal/export"
	"github.com/nwafound/ramp-bc-export/internal/exporter"
	"github.com/nwafound/ramp-bc-export/internal/ramp"
)

var (
	exportType       string
	exportAll        bool
	exportPeriod     string
	exportStart      string
	exportEnd        string
	exportMarkSynced bool
	exportEnableSync bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export Ramp data as a Business Central journal batch",
	Long: `Fetches the selected Ramp resource types for a reconciliation period and
writes the combined journal batch as CSV and XLSX files. A fetch failure in
one type never aborts the others; records without required G/L coding are
skipped and counted.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportType, "type", "t", "", "resource type to export (transactions|bills|reimbursements|cashbacks|statements)")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "export all available resource types")
	exportCmd.Flags().StringVarP(&exportPeriod, "period", "p", "monthly", "reconciliation period (monthly|bi-weekly|statement)")
	exportCmd.Flags().StringVar(&exportStart, "start", "", "start date (YYYY-MM-DD), overrides the period window")
	exportCmd.Flags().StringVar(&exportEnd, "end", "", "end date (YYYY-MM-DD), overrides the period window")
	exportCmd.Flags().BoolVar(&exportMarkSynced, "mark-synced", false, "mark exported transactions as synced after export")
	exportCmd.Flags().BoolVar(&exportEnableSync, "enable-sync", false, "allow live writes to Ramp; without it --mark-synced is a dry run")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportAll == (exportType != "") {
		return fmt.Errorf("exactly one of --all or --type must be specified")
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	opts := exporter.Options{
		All:        exportAll,
		Start:      exportStart,
		End:        exportEnd,
		MarkSynced: exportMarkSynced,
	}

	if exportType != "" {
		rt, err := ramp.ParseResourceType(exportType)
		if err != nil {
			return err
		}
		opts.Type = rt
	}

	period, err := exporter.ParsePeriod(exportPeriod)
	if err != nil {
		return err
	}
	opts.Period = period

	client := newClient(cfg, exportEnableSync, logger)

	ctx := cmd.Context()
	if err := client.Authenticate(ctx); err != nil {
		return fmt.Errorf("failed to authenticate with Ramp: %w", err)
	}

	runner := exporter.NewRunner(client, cfg, export.NewWriter(cfg.Export.OutputDir, logger), logger)
	summary, err := runner.Run(ctx, opts)
	if err != nil {
		return err
	}

	printSummary(summary, logger)
	return nil
}

func printSummary(summary *exporter.Summary, logger *zap.Logger) {
	for _, report := range summary.Reports {
		if report.Err != "" {
			fmt.Printf("%-15s fetch failed: %s\n", report.Type, report.Err)
			continue
		}
		fmt.Printf("%-15s fetched=%d rows=%d skipped=%d\n",
			report.Type, report.Fetched, report.Rows, report.Skipped)
	}

	if summary.NoData {
		fmt.Println("No data found for the specified types and period.")
		return
	}

	fmt.Printf("Exported %d rows from %d records (%d skipped for missing coding)\n",
		summary.TotalRows, summary.TotalFetched, summary.TotalSkipped)
	fmt.Printf("Excel: %s\n", summary.XLSXPath)
	fmt.Printf("CSV:   %s\n", summary.CSVPath)

	if summary.Synced > 0 || summary.SyncFailed > 0 {
		fmt.Printf("Sync pass: %d succeeded, %d failed\n", summary.Synced, summary.SyncFailed)
	}

	logger.Info("Export finished",
		zap.Int("total_rows", summary.TotalRows),
		zap.Int("total_fetched", summary.TotalFetched),
		zap.Int("total_skipped", summary.TotalSkipped))
}
