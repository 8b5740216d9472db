// Package dataprocessing turns balance-of-payments tables into canonical
// records and derives the current-account indicator hierarchy from them.
//
// # Architecture
//
// The package is organized into three main components:
//
// 1. Normalizer: reshapes wide or long tables into (description, date, value, fiscal_year) records
// 2. Resolver: maps free-text descriptions to canonical categories by keyword containment
// 3. Engine: pivots records per period and computes balances, the calculated current account and ratios
//
// # Usage
//
//	normalizer := dataprocessing.NewNormalizer(logger, dataprocessing.DefaultNormalizerOptions())
//	normalized, err := normalizer.Normalize(ctx, table)
//	if err != nil {
//	    return err
//	}
//
//	engine := dataprocessing.NewEngine(dataprocessing.NewDefaultResolver(), logger)
//	derived, err := engine.Derive(ctx, normalized.Records)
//
// # Data Flow
//
//	RawTable → Normalizer → Records → PeriodMatrix → Engine → Records + derived rows
//
// # Error Handling
//
// Only structural problems are errors: a missing description column
// (MissingColumnError) or a long table without date/value columns
// (AmbiguousShapeError). Rows with unparsable dates or values are dropped and
// counted in NormalizeReport. Indicators whose inputs are not resolved are
// omitted and reported through the availability flags.
//
// # Missing Values
//
// Period matrix cells are Values with an explicit validity bit. Every binary
// operation propagates a missing operand, except the secondary income credit
// sum which treats a missing credit or remittance as zero. Division by a zero
// GDP yields a missing ratio.
package dataprocessing
