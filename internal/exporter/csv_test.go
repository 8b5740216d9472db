package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bopcli/internal/dataprocessing"
	"bopcli/pkg/contracts/domain"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	content = bytes.TrimPrefix(content, utf8BOM)
	rows, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, false, nil)

	tests := []struct {
		name     string
		filePath string
		options  WriteOptions
		wantBOM  bool
		wantRows [][]string
	}{
		{
			name:     "headers and records",
			filePath: "basic.csv",
			options: WriteOptions{
				Headers: []string{"a", "b"},
				Records: [][]string{{"1", "2"}, {"3", "4"}},
			},
			wantRows: [][]string{{"a", "b"}, {"1", "2"}, {"3", "4"}},
		},
		{
			name:     "bom prefix in nested directory",
			filePath: filepath.Join("nested", "bom.csv"),
			options: WriteOptions{
				Headers:   []string{"a"},
				Records:   [][]string{{"x,y"}},
				BOMPrefix: true,
			},
			wantBOM:  true,
			wantRows: [][]string{{"a"}, {"x,y"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, writer.WriteCSV(tt.filePath, tt.options))

			path := filepath.Join(dir, tt.filePath)
			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBOM, bytes.HasPrefix(content, utf8BOM))
			assert.Equal(t, tt.wantRows, readCSV(t, path))
		})
	}
}

func TestCSVWriter_Append(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, false, nil)

	require.NoError(t, writer.WriteCSV("log.csv", WriteOptions{Headers: []string{"n"}, Records: [][]string{{"1"}}}))
	require.NoError(t, writer.WriteCSV("log.csv", WriteOptions{Headers: []string{"n"}, Records: [][]string{{"2"}}, Append: true}))

	assert.Equal(t, [][]string{{"n"}, {"1"}, {"2"}}, readCSV(t, filepath.Join(dir, "log.csv")))
}

func TestCSVWriter_AbsolutePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abs.csv")
	writer := NewCSVWriter("/nonexistent", false, nil)

	assert.Equal(t, path, writer.Path(path))
	require.NoError(t, writer.WriteCSV(path, WriteOptions{Headers: []string{"a"}}))
	assert.FileExists(t, path)
}

func TestCSVWriter_WriteRecords(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, true, nil)

	records := []domain.Record{
		domain.NewRecord("Exports of goods fob", time.Date(2013, time.July, 1, 0, 0, 0, 0, time.UTC), 100),
		domain.NewRecord("ca_percent_gdp", time.Date(2013, time.June, 1, 0, 0, 0, 0, time.UTC), 4.25),
	}
	require.NoError(t, writer.WriteRecords("indicators.csv", records))

	path := filepath.Join(dir, "indicators.csv")
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, utf8BOM))

	assert.Equal(t, [][]string{
		RecordHeaders,
		{"Exports of goods fob", "2013-07-01", "100", "2014"},
		{"ca_percent_gdp", "2013-06-01", "4.25", "2013"},
	}, readCSV(t, path))
}

func TestCSVWriter_WriteFiscalYearSummary(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, false, nil)

	summaries := []dataprocessing.FiscalYearSummary{{
		Description: "balance_on_goods",
		FiscalYear:  2014,
		Periods:     2,
		Total:       35,
		Mean:        17.5,
		Min:         15,
		Max:         20,
		FirstDate:   time.Date(2013, time.July, 1, 0, 0, 0, 0, time.UTC),
		LastDate:    time.Date(2013, time.August, 1, 0, 0, 0, 0, time.UTC),
	}}
	require.NoError(t, writer.WriteFiscalYearSummary("fy.csv", summaries))

	assert.Equal(t, [][]string{
		SummaryHeaders,
		{"balance_on_goods", "2014", "2", "35", "17.5", "15", "20", "2013-07-01", "2013-08-01"},
	}, readCSV(t, filepath.Join(dir, "fy.csv")))
}

func TestCSVWriter_StreamWriter(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, false, nil)

	stream, err := writer.CreateStreamWriter("stream.csv", []string{"a", "b"})
	require.NoError(t, err)
	require.NoError(t, stream.WriteRecord([]string{"1", "2"}))
	require.NoError(t, stream.Close())

	assert.Equal(t, [][]string{{"a", "b"}, {"1", "2"}}, readCSV(t, filepath.Join(dir, "stream.csv")))
}
