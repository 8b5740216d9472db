// Package exporter writes pipeline output to CSV.
//
// CSVWriter is the core writer, with optional UTF-8 BOM for Excel and a
// streaming mode for large record sets. WriteRecords emits the canonical long
// format (description, date, value, fiscal_year); WriteFiscalYearSummary emits
// the per-fiscal-year rollup.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter("/data/out", true, logger)
//	err := writer.WriteRecords("indicators.csv", result.Records)
package exporter
