package files

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"bopcli/pkg/contracts/domain"
)

// ErrEmptyInput is returned when a file has no header row
var ErrEmptyInput = errors.New("input has no header row")

// UnsupportedFormatError is returned for files the loader cannot read
type UnsupportedFormatError struct {
	Path      string
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported input format %q for %s", e.Extension, e.Path)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// IsSupported reports whether the loader can read a file with this name
func IsSupported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx", ".xlsm":
		return true
	}
	return false
}

// Loader reads CSV and Excel files into raw tables
type Loader struct {
	sheet  string
	logger *slog.Logger
}

// NewLoader creates a loader. sheet selects the workbook sheet; empty means the first sheet.
func NewLoader(sheet string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		sheet:  sheet,
		logger: logger.With(slog.String("component", "loader")),
	}
}

// Load reads path into a RawTable, dispatching on the file extension
func (l *Loader) Load(ctx context.Context, path string) (domain.RawTable, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var (
		table domain.RawTable
		err   error
	)
	switch ext {
	case ".csv":
		table, err = l.loadCSV(path)
	case ".xlsx", ".xlsm":
		table, err = l.loadWorkbook(path)
	default:
		return domain.RawTable{}, &UnsupportedFormatError{Path: path, Extension: ext}
	}
	if err != nil {
		return domain.RawTable{}, err
	}

	l.logger.InfoContext(ctx, "input loaded",
		slog.String("path", path),
		slog.Int("columns", len(table.Columns)),
		slog.Int("rows", table.Len()))
	return table, nil
}

func (l *Loader) loadCSV(path string) (domain.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses CSV from r. The first record is the header; a leading UTF-8
// BOM is stripped and rows may be ragged.
func ReadCSV(r io.Reader) (domain.RawTable, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return domain.RawTable{}, err
		}
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("failed to read csv: %w", err)
	}
	return tableFromRows(records)
}

func (l *Loader) loadWorkbook(path string) (domain.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet := l.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return domain.RawTable{}, fmt.Errorf("workbook %s: %w", path, ErrEmptyInput)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return tableFromRows(rows)
}

// tableFromRows takes the first non-empty row as the header and drops blank rows
func tableFromRows(rows [][]string) (domain.RawTable, error) {
	header := -1
	for i, row := range rows {
		if !blank(row) {
			header = i
			break
		}
	}
	if header < 0 {
		return domain.RawTable{}, ErrEmptyInput
	}

	columns := make([]string, len(rows[header]))
	for i, c := range rows[header] {
		columns[i] = strings.TrimSpace(c)
	}

	data := make([][]string, 0, len(rows)-header-1)
	for _, row := range rows[header+1:] {
		if blank(row) {
			continue
		}
		data = append(data, row)
	}
	return domain.NewRawTable(columns, data), nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
