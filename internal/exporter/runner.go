// Package exporter orchestrates one export batch: fetch each selected Ramp
// resource type, normalize it to journal lines, write the combined table,
// and optionally mark exported transactions as synced.
package exporter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nwafound/ramp-bc-export/internal/config"
	"github.com/nwafound/ramp-bc-export/internal/export"
	"github.com/nwafound/ramp-bc-export/internal/journal"
	"github.com/nwafound/ramp-bc-export/internal/ramp"
)

// Statuses the original reconciliation flow pins per resource type.
// Transactions use the configurable status filter instead.
const (
	billStatusFilter          = "APPROVED"
	reimbursementStatusFilter = "PAID"
)

// Options selects what one Run exports.
type Options struct {
	// Type is the single resource type to export. Mutually exclusive
	// with All.
	Type ramp.ResourceType
	// All exports every available resource type.
	All bool
	// Period picks the fetch window per type; Start/End override it.
	Period Period
	Start  string
	End    string
	// MarkSynced attempts the best-effort sync side-call after export.
	// Whether any network write actually happens is additionally gated by
	// the client's own live-write capability flag.
	MarkSynced bool
}

// TypeReport is the per-resource-type outcome, letting a human reconcile
// records fetched vs rows exported vs rows skipped for missing coding.
type TypeReport struct {
	Type    ramp.ResourceType `json:"type"`
	Fetched int               `json:"fetched"`
	Rows    int               `json:"rows"`
	Skipped int               `json:"skipped"`
	Err     string            `json:"error,omitempty"`
}

// Summary is the outcome of one Run.
type Summary struct {
	Reports      []TypeReport `json:"reports"`
	TotalFetched int          `json:"total_fetched"`
	TotalRows    int          `json:"total_rows"`
	TotalSkipped int          `json:"total_skipped"`
	XLSXPath     string       `json:"xlsx_path,omitempty"`
	CSVPath      string       `json:"csv_path,omitempty"`
	Synced       int          `json:"synced"`
	SyncFailed   int          `json:"sync_failed"`
	// NoData is true when the combined table across every processed type
	// was empty and the export step was skipped. Distinct from an error.
	NoData bool `json:"no_data"`
}

// Runner runs export batches. It holds no state across runs.
type Runner struct {
	client *ramp.Client
	cfg    *config.Config
	writer *export.Writer
	logger *zap.Logger
}

// NewRunner creates a new batch runner
func NewRunner(client *ramp.Client, cfg *config.Config, writer *export.Writer, logger *zap.Logger) *Runner {
	return &Runner{
		client: client,
		cfg:    cfg,
		writer: writer,
		logger: logger,
	}
}

// Run performs one export batch. A fetch failure in one resource type is
// reported and isolated; the remaining types still export. The returned
// error covers only batch-level failures (bad options, file write).
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.All == (opts.Type != "") {
		return nil, fmt.Errorf("exactly one of a single type or all types must be selected")
	}

	available := r.client.CheckAvailableEndpoints(ctx)

	var types []ramp.ResourceType
	if opts.All {
		for _, rt := range ramp.AllResourceTypes {
			if available[string(rt)] {
				types = append(types, rt)
			}
		}
		if len(types) == 0 {
			return nil, fmt.Errorf("no resource types are available with the granted scopes")
		}
	} else {
		if !available[string(opts.Type)] {
			return nil, fmt.Errorf("%s endpoint is not available (OAuth scope not granted)", opts.Type)
		}
		types = []ramp.ResourceType{opts.Type}
	}

	period := opts.Period
	if period == "" {
		period = PeriodMonthly
	}
	ranges, err := DateRanges(period, time.Now())
	if err != nil {
		return nil, err
	}
	if opts.Start != "" && opts.End != "" {
		override := Range{Start: opts.Start, End: opts.End}
		for _, rt := range types {
			ranges[rt] = override
		}
	}

	summary := &Summary{}
	var combined []journal.Line
	var exportedTransactions []ramp.Transaction

	for _, rt := range types {
		rng := ranges[rt]
		r.logger.Info("Fetching resource type",
			zap.String("type", string(rt)),
			zap.String("start", rng.Start),
			zap.String("end", rng.End))

		report := TypeReport{Type: rt}
		fetched, result, transactions, err := r.fetchAndTransform(ctx, rt, rng)
		if err != nil {
			r.logger.Error("Failed to fetch resource type, continuing with the rest",
				zap.String("type", string(rt)),
				zap.Error(err))
			report.Err = err.Error()
			summary.Reports = append(summary.Reports, report)
			continue
		}

		report.Fetched = fetched
		report.Rows = len(result.Lines)
		report.Skipped = result.Skipped
		summary.Reports = append(summary.Reports, report)

		summary.TotalFetched += fetched
		summary.TotalSkipped += result.Skipped
		combined = append(combined, result.Lines...)

		if rt == ramp.ResourceTransactions {
			exportedTransactions = transactions
		}
	}

	summary.TotalRows = len(combined)
	if len(combined) == 0 {
		r.logger.Info("No data found for the selected types and period")
		summary.NoData = true
		return summary, nil
	}

	prefix := exportPrefix(opts, period)
	xlsxPath, csvPath, err := r.writer.Write(combined, prefix)
	if err != nil {
		return summary, fmt.Errorf("failed to write export files: %w", err)
	}
	summary.XLSXPath = xlsxPath
	summary.CSVPath = csvPath

	if opts.MarkSynced && available[ramp.ProbeAccounting] && len(exportedTransactions) > 0 {
		summary.Synced, summary.SyncFailed = r.markSynced(ctx, exportedTransactions)
	}

	return summary, nil
}

// fetchAndTransform fetches one resource type and normalizes it. The
// transaction slice is returned so the sync pass can reuse it instead of
// fetching the collection a second time.
func (r *Runner) fetchAndTransform(ctx context.Context, rt ramp.ResourceType, rng Range) (int, journal.Result, []ramp.Transaction, error) {
	q := ramp.Query{
		StartDate: rng.Start,
		EndDate:   rng.End,
		PageSize:  r.cfg.Ramp.PageSize,
	}

	switch rt {
	case ramp.ResourceTransactions:
		q.Status = r.cfg.Ramp.StatusFilter
		records, err := r.client.GetTransactions(ctx, q)
		if err != nil {
			return 0, journal.Result{}, nil, err
		}
		return len(records), journal.TransactionLines(records, r.cfg, r.logger), records, nil
	case ramp.ResourceBills:
		q.Status = billStatusFilter
		records, err := r.client.GetBills(ctx, q)
		if err != nil {
			return 0, journal.Result{}, nil, err
		}
		return len(records), journal.BillLines(records, r.cfg, r.logger), nil, nil
	case ramp.ResourceReimbursements:
		q.Status = reimbursementStatusFilter
		records, err := r.client.GetReimbursements(ctx, q)
		if err != nil {
			return 0, journal.Result{}, nil, err
		}
		return len(records), journal.ReimbursementLines(records, r.cfg, r.logger), nil, nil
	case ramp.ResourceCashbacks:
		records, err := r.client.GetCashbacks(ctx, q)
		if err != nil {
			return 0, journal.Result{}, nil, err
		}
		return len(records), journal.CashbackLines(records, r.cfg, r.logger), nil, nil
	case ramp.ResourceStatements:
		records, err := r.client.GetStatements(ctx, q)
		if err != nil {
			return 0, journal.Result{}, nil, err
		}
		return len(records), journal.StatementLines(records, r.cfg, r.logger), nil, nil
	}
	return 0, journal.Result{}, nil, fmt.Errorf("unknown resource type %q", rt)
}

// markSynced runs the best-effort sync pass over exported transactions.
// Failures are counted, never raised; the export files already exist.
func (r *Runner) markSynced(ctx context.Context, transactions []ramp.Transaction) (synced, failed int) {
	reference := "BC_EXPORT_" + time.Now().Format("20060102_150405")

	for _, tx := range transactions {
		if tx.ID == "" {
			continue
		}
		if ramp.IsAlreadySynced(tx) {
			r.logger.Debug("Transaction already marked as synced",
				zap.String("transaction_id", tx.ID))
			continue
		}
		if r.client.MarkTransactionSynced(ctx, tx.ID, reference) {
			synced++
		} else {
			r.logger.Warn("Failed to mark transaction as synced",
				zap.String("transaction_id", tx.ID))
			failed++
		}
	}

	r.logger.Info("Sync pass finished",
		zap.Int("synced", synced),
		zap.Int("failed", failed),
		zap.Bool("live", r.client.SyncEnabled()))

	return synced, failed
}

// exportPrefix names the output files after what the batch contained.
func exportPrefix(opts Options, period Period) string {
	if opts.All {
		return "RAMP_ALL_" + strings.ToUpper(strings.ReplaceAll(string(period), "-", "_"))
	}
	return "RAMP_" + strings.ToUpper(string(opts.Type))
}
