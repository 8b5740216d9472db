package files

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	input := "\xEF\xBB\xBFDescription,Jul-13,Aug-13\n" +
		"Exports of goods fob,100,\"1,050\"\n" +
		"Imports of goods fob,60\n"

	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Description", "Jul-13", "Aug-13"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "1,050", table.Cell(0, 2))
	assert.Equal(t, "60", table.Cell(1, 1))
	assert.Nil(t, table.Cell(1, 2))
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestLoader_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bop.csv")
	require.NoError(t, os.WriteFile(path, []byte("Description,Jul-13\nGDP,1000\n"), 0644))

	table, err := NewLoader("", nil).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 0, table.ColumnIndex("description"))
	assert.Equal(t, "1000", table.Cell(0, 1))
}

func TestLoader_Workbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bop.xlsx")

	f := excelize.NewFile()
	sheet := "Sheet1"
	// header on row 3, after a title and a blank row
	require.NoError(t, f.SetCellValue(sheet, "A1", "Balance of payments"))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Description", "Jul-13", "Aug-13"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"Exports of goods fob", 100, 105}))
	require.NoError(t, f.SetSheetRow(sheet, "A6", &[]any{"Imports of goods fob", 60, 65}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := NewLoader("", nil).Load(context.Background(), path)
	require.NoError(t, err)

	// the title row is the first non-empty row
	assert.Equal(t, []string{"Balance of payments"}, table.Columns)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, "Description", table.Cell(0, 0))
	assert.Equal(t, "105", table.Cell(1, 2))
}

func TestLoader_WorkbookNamedSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bop.xlsx")

	f := excelize.NewFile()
	_, err := f.NewSheet("BOP")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("BOP", "A1", &[]any{"Description", "2014-01"}))
	require.NoError(t, f.SetSheetRow("BOP", "A2", &[]any{"GDP", 2000}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := NewLoader("BOP", nil).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Description", "2014-01"}, table.Columns)
	assert.Equal(t, "2000", table.Cell(0, 1))

	_, err = NewLoader("Missing", nil).Load(context.Background(), path)
	assert.Error(t, err)
}

func TestLoader_UnsupportedFormat(t *testing.T) {
	_, err := NewLoader("", nil).Load(context.Background(), "report.pdf")

	var unsupported *UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, ".pdf", unsupported.Extension)
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("a.CSV"))
	assert.True(t, IsSupported("a.xlsx"))
	assert.True(t, IsSupported("a.xlsm"))
	assert.False(t, IsSupported("a.xls"))
	assert.False(t, IsSupported("a"))
}
