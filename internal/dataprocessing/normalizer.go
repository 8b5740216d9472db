package dataprocessing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"bopcli/pkg/contracts/domain"
)

// Shape is the detected layout of an input table
type Shape string

const (
	ShapeWide Shape = "wide"
	ShapeLong Shape = "long"
)

const descriptionColumn = "description"

// DefaultValueColumns are the accepted value column labels of a long table
var DefaultValueColumns = []string{"value", "val", "amount"}

// NormalizerOptions configures date and value column discovery
type NormalizerOptions struct {
	// DateStrategies are tried in order at column level
	DateStrategies []DateStrategy
	// FallbackDate is applied per value when no column strategy parses anything
	FallbackDate DateStrategy
	// NoFallback disables FallbackDate entirely
	NoFallback bool
	// ValueColumns are the accepted value column labels (case-insensitive)
	ValueColumns []string
}

// DefaultNormalizerOptions returns the standard strategies and column names
func DefaultNormalizerOptions() NormalizerOptions {
	return NormalizerOptions{
		DateStrategies: DefaultDateStrategies(),
		FallbackDate:   GeneralStrategy{},
		ValueColumns:   DefaultValueColumns,
	}
}

// NormalizeReport counts what happened to the input rows
type NormalizeReport struct {
	Shape             Shape  `json:"shape"`
	InputRows         int    `json:"input_rows"`
	DateStrategy      string `json:"date_strategy"`
	UnparsableDates   int    `json:"unparsable_dates"`
	NonNumericValues  int    `json:"non_numeric_values"`
	EmptyDescriptions int    `json:"empty_descriptions"`
	DuplicatesMerged  int    `json:"duplicates_merged"`
	OutputRows        int    `json:"output_rows"`
}

// Dropped returns the number of rows excluded for data-quality reasons
func (r NormalizeReport) Dropped() int {
	return r.UnparsableDates + r.NonNumericValues + r.EmptyDescriptions
}

// NormalizeResult is the canonical record stream plus diagnostics
type NormalizeResult struct {
	Records []domain.Record `json:"records"`
	Report  NormalizeReport `json:"report"`
}

// Normalizer reshapes wide or long tables into canonical records
type Normalizer struct {
	logger  *slog.Logger
	options NormalizerOptions
}

// NewNormalizer creates a normalizer. Zero-valued options fall back to defaults.
func NewNormalizer(logger *slog.Logger, options NormalizerOptions) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultNormalizerOptions()
	if len(options.DateStrategies) == 0 {
		options.DateStrategies = defaults.DateStrategies
	}
	if options.NoFallback {
		options.FallbackDate = nil
	} else if options.FallbackDate == nil {
		options.FallbackDate = defaults.FallbackDate
	}
	if len(options.ValueColumns) == 0 {
		options.ValueColumns = defaults.ValueColumns
	}
	return &Normalizer{
		logger:  logger.With(slog.String("component", "normalizer")),
		options: options,
	}
}

// longRow is one (description, period, value) triple before coercion
type longRow struct {
	description any
	date        any
	value       any
}

// Normalize converts a raw table into records ordered by (date, description).
// Structural problems return MissingColumnError or AmbiguousShapeError; rows
// with bad dates, values or descriptions are dropped and counted.
func (n *Normalizer) Normalize(ctx context.Context, table domain.RawTable) (*NormalizeResult, error) {
	descIdx, err := findDescriptionColumn(table.Columns)
	if err != nil {
		return nil, err
	}

	shape, rows, err := n.reshape(table, descIdx)
	if err != nil {
		return nil, err
	}

	report := NormalizeReport{
		Shape:     shape,
		InputRows: len(rows),
	}

	dates := n.parseDates(rows, &report)

	sums := make(map[domain.RecordKey]float64, len(rows))
	for i, row := range rows {
		if !dates.Parsed[i] {
			continue
		}
		value, ok := coerceFloat(row.value)
		if !ok {
			report.NonNumericValues++
			continue
		}
		description := strings.TrimSpace(cellString(row.description))
		if description == "" {
			report.EmptyDescriptions++
			continue
		}

		key := domain.RecordKey{Date: domain.TruncateDay(dates.Dates[i]), Description: description}
		if prev, exists := sums[key]; exists {
			report.DuplicatesMerged++
			sums[key] = prev + value
			continue
		}
		sums[key] = value
	}

	records := make([]domain.Record, 0, len(sums))
	for key, value := range sums {
		records = append(records, domain.NewRecord(key.Description, key.Date, value))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Less(records[j])
	})
	report.OutputRows = len(records)

	n.logger.InfoContext(ctx, "table normalized",
		slog.String("shape", string(report.Shape)),
		slog.String("date_strategy", report.DateStrategy),
		slog.Int("input_rows", report.InputRows),
		slog.Int("unparsable_dates", report.UnparsableDates),
		slog.Int("non_numeric_values", report.NonNumericValues),
		slog.Int("empty_descriptions", report.EmptyDescriptions),
		slog.Int("duplicates_merged", report.DuplicatesMerged),
		slog.Int("output_rows", report.OutputRows))

	return &NormalizeResult{Records: records, Report: report}, nil
}

func findDescriptionColumn(columns []string) (int, error) {
	idx, found := -1, 0
	for i, c := range columns {
		if strings.ToLower(strings.TrimSpace(c)) == descriptionColumn {
			if idx < 0 {
				idx = i
			}
			found++
		}
	}
	if found != 1 {
		return -1, &MissingColumnError{Column: descriptionColumn, Found: found, Columns: columns}
	}
	return idx, nil
}

// reshape detects the table shape and flattens it into long rows.
// A table carrying both a date and a value column is long regardless of any
// extra columns; otherwise more than one period column means wide.
func (n *Normalizer) reshape(table domain.RawTable, descIdx int) (Shape, []longRow, error) {
	others := make([]int, 0, len(table.Columns))
	for i := range table.Columns {
		if i != descIdx {
			others = append(others, i)
		}
	}

	dateIdx := findDateColumn(table.Columns, others)
	valueIdx := n.findValueColumn(table.Columns, others)

	switch {
	case dateIdx >= 0 && valueIdx >= 0:
		rows := make([]longRow, 0, len(table.Rows))
		for i := range table.Rows {
			rows = append(rows, longRow{
				description: table.Cell(i, descIdx),
				date:        table.Cell(i, dateIdx),
				value:       table.Cell(i, valueIdx),
			})
		}
		return ShapeLong, rows, nil

	case len(others) > 1:
		rows := make([]longRow, 0, len(table.Rows)*len(others))
		for _, col := range others {
			period := strings.TrimSpace(table.Columns[col])
			for i := range table.Rows {
				rows = append(rows, longRow{
					description: table.Cell(i, descIdx),
					date:        period,
					value:       table.Cell(i, col),
				})
			}
		}
		return ShapeWide, rows, nil

	default:
		labels := make([]string, 0, len(others))
		for _, i := range others {
			labels = append(labels, table.Columns[i])
		}
		return "", nil, &AmbiguousShapeError{
			Columns:      labels,
			MissingDate:  dateIdx < 0,
			MissingValue: valueIdx < 0,
		}
	}
}

func findDateColumn(columns []string, candidates []int) int {
	for _, i := range candidates {
		if strings.ToLower(strings.TrimSpace(columns[i])) == "date" {
			return i
		}
	}
	for _, i := range candidates {
		if strings.Contains(strings.ToLower(columns[i]), "date") {
			return i
		}
	}
	return -1
}

func (n *Normalizer) findValueColumn(columns []string, candidates []int) int {
	for _, i := range candidates {
		label := strings.ToLower(strings.TrimSpace(columns[i]))
		for _, want := range n.options.ValueColumns {
			if label == strings.ToLower(want) {
				return i
			}
		}
	}
	return -1
}

// parseDates resolves every row's date. time.Time cells are taken as-is;
// the remaining cells go through the strategy chain as one column.
func (n *Normalizer) parseDates(rows []longRow, report *NormalizeReport) DateColumn {
	out := DateColumn{
		Dates:  make([]time.Time, len(rows)),
		Parsed: make([]bool, len(rows)),
	}

	var raw []string
	var positions []int
	for i, row := range rows {
		if t, ok := row.date.(time.Time); ok {
			out.Dates[i] = t
			out.Parsed[i] = true
			continue
		}
		raw = append(raw, strings.TrimSpace(cellString(row.date)))
		positions = append(positions, i)
	}

	out.Strategy = "native"
	if len(raw) > 0 {
		col := ParseDateColumn(raw, n.options.DateStrategies, n.options.FallbackDate)
		for j, i := range positions {
			out.Dates[i] = col.Dates[j]
			out.Parsed[i] = col.Parsed[j]
		}
		out.Strategy = col.Strategy
		out.Unparsable = col.Unparsable
	}

	report.DateStrategy = out.Strategy
	report.UnparsableDates = out.Unparsable
	return out
}

// cellString renders a cell the way it would appear in a text file
func cellString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.Format(domain.DateLayout)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// coerceFloat converts a cell to a finite float. Thousands separators are stripped from strings.
func coerceFloat(cell any) (float64, bool) {
	var f float64
	switch v := cell.(type) {
	case nil:
		return 0, false
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
