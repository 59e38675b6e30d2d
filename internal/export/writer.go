// Package export renders journal batches as files: a CSV for the Business
// Central import and a parallel XLSX for human review.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/nwafound/ramp-bc-export/internal/journal"
)

// SheetName is the XLSX sheet the review rendering lands on.
const SheetName = "Journal_Entries"

// Writer writes journal batches to an output directory.
type Writer struct {
	outputDir string
	logger    *zap.Logger
}

// NewWriter creates a new export writer
func NewWriter(outputDir string, logger *zap.Logger) *Writer {
	return &Writer{
		outputDir: outputDir,
		logger:    logger,
	}
}

// Write renders the batch to an XLSX and a CSV file and returns both paths.
// An empty batch is a logged no-op, not an error: no files are produced and
// both paths come back empty. File names carry the caller's prefix and a
// timestamp; uniqueness within one second is not guaranteed and not needed.
func (w *Writer) Write(lines []journal.Line, prefix string) (xlsxPath, csvPath string, err error) {
	if len(lines) == 0 {
		w.logger.Info("No data to export")
		return "", "", nil
	}

	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}

	base := fmt.Sprintf("BC_Journal_%s_%s", prefix, time.Now().Format("20060102_150405"))
	csvPath = filepath.Join(w.outputDir, base+".csv")
	xlsxPath = filepath.Join(w.outputDir, base+".xlsx")

	if err := w.writeCSV(lines, csvPath); err != nil {
		return "", "", err
	}
	if err := w.writeXLSX(lines, xlsxPath); err != nil {
		return "", "", err
	}

	w.logger.Info("Exported journal batch",
		zap.Int("rows", len(lines)),
		zap.String("csv", csvPath),
		zap.String("xlsx", xlsxPath))

	return xlsxPath, csvPath, nil
}

func (w *Writer) writeCSV(lines []journal.Line, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(journal.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, line := range lines {
		if err := cw.Write(line.Record()); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func (w *Writer) writeXLSX(lines []journal.Line, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	for col, name := range journal.Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(SheetName, cell, name); err != nil {
			return fmt.Errorf("failed to set header cell: %w", err)
		}
	}

	for row, line := range lines {
		for col, value := range line.Record() {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return fmt.Errorf("failed to compute cell: %w", err)
			}
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return fmt.Errorf("failed to set cell: %w", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save XLSX file: %w", err)
	}
	return nil
}
