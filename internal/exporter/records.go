package exporter

import (
	"fmt"
	"log/slog"

	"bopcli/internal/dataprocessing"
	"bopcli/pkg/contracts/domain"
)

// RecordHeaders is the column layout of a record export
var RecordHeaders = []string{"description", "date", "value", "fiscal_year"}

// SummaryHeaders is the column layout of a fiscal-year summary export
var SummaryHeaders = []string{
	"description", "fiscal_year", "periods", "total", "mean", "min", "max", "first_date", "last_date",
}

// WriteRecords streams records to filePath in the canonical long format
func (w *CSVWriter) WriteRecords(filePath string, records []domain.Record) error {
	stream, err := w.CreateStreamWriter(filePath, RecordHeaders)
	if err != nil {
		return err
	}

	for i, rec := range records {
		row := []string{
			rec.Description,
			formatDate(rec.Date),
			formatFloat(rec.Value),
			formatInt(rec.FiscalYear),
		}
		if err := stream.WriteRecord(row); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filePath, err)
	}

	w.logger.Info("Records exported",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(records)))
	return nil
}

// WriteFiscalYearSummary writes one row per (description, fiscal year)
func (w *CSVWriter) WriteFiscalYearSummary(filePath string, summaries []dataprocessing.FiscalYearSummary) error {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Description,
			formatInt(s.FiscalYear),
			formatInt(s.Periods),
			formatFloat(s.Total),
			formatFloat(s.Mean),
			formatFloat(s.Min),
			formatFloat(s.Max),
			formatDate(s.FirstDate),
			formatDate(s.LastDate),
		})
	}

	return w.WriteCSV(filePath, WriteOptions{
		Headers:   SummaryHeaders,
		Records:   rows,
		BOMPrefix: w.bomPrefix,
	})
}
