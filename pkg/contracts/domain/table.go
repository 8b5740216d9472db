package domain

import (
	"strings"
)

// RawTable is an untyped table as produced by a loader. Cells may hold
// strings, numbers, time.Time values or nil.
type RawTable struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// NewRawTable builds a table from string rows, the common case for file loaders
func NewRawTable(columns []string, rows [][]string) RawTable {
	table := RawTable{
		Columns: columns,
		Rows:    make([][]any, 0, len(rows)),
	}
	for _, row := range rows {
		cells := make([]any, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		table.Rows = append(table.Rows, cells)
	}
	return table
}

// Cell returns the cell at row i, column j, or nil for ragged rows
func (t RawTable) Cell(i, j int) any {
	if i < 0 || i >= len(t.Rows) {
		return nil
	}
	row := t.Rows[i]
	if j < 0 || j >= len(row) {
		return nil
	}
	return row[j]
}

// ColumnIndex finds a column by trimmed, case-insensitive label. It returns -1 when absent.
func (t RawTable) ColumnIndex(label string) int {
	want := strings.ToLower(strings.TrimSpace(label))
	for i, c := range t.Columns {
		if strings.ToLower(strings.TrimSpace(c)) == want {
			return i
		}
	}
	return -1
}

// Len returns the number of data rows
func (t RawTable) Len() int {
	return len(t.Rows)
}
