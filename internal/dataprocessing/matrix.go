package dataprocessing

import (
	"sort"
	"time"

	"bopcli/pkg/contracts/domain"
)

// PeriodMatrix is a pivoted view of records: one row per date, one column per description.
// It is built per derivation and never shared.
type PeriodMatrix struct {
	dates   []time.Time
	index   map[time.Time]int
	columns []string
	series  map[string]Series
}

// NewPeriodMatrix pivots records, summing any duplicate (date, description) pairs.
// Raw columns are ordered by description; cells with no record are missing.
func NewPeriodMatrix(records []domain.Record) *PeriodMatrix {
	m := &PeriodMatrix{
		index:  make(map[time.Time]int),
		series: make(map[string]Series),
	}

	descriptions := make(map[string]bool)
	for _, rec := range records {
		day := domain.TruncateDay(rec.Date)
		if _, ok := m.index[day]; !ok {
			m.index[day] = -1
			m.dates = append(m.dates, day)
		}
		descriptions[rec.Description] = true
	}
	sort.Slice(m.dates, func(i, j int) bool { return m.dates[i].Before(m.dates[j]) })
	for i, d := range m.dates {
		m.index[d] = i
	}

	m.columns = make([]string, 0, len(descriptions))
	for d := range descriptions {
		m.columns = append(m.columns, d)
	}
	sort.Strings(m.columns)
	for _, col := range m.columns {
		m.series[col] = make(Series, len(m.dates))
	}

	for _, rec := range records {
		row := m.index[domain.TruncateDay(rec.Date)]
		cell := m.series[rec.Description][row]
		if cell.Valid {
			m.series[rec.Description][row] = Some(cell.Float64 + rec.Value)
			continue
		}
		m.series[rec.Description][row] = Some(rec.Value)
	}
	return m
}

// Dates returns the matrix dates in ascending order
func (m *PeriodMatrix) Dates() []time.Time {
	out := make([]time.Time, len(m.dates))
	copy(out, m.dates)
	return out
}

// Columns returns the column names in matrix order
func (m *PeriodMatrix) Columns() []string {
	out := make([]string, len(m.columns))
	copy(out, m.columns)
	return out
}

// Len returns the number of periods
func (m *PeriodMatrix) Len() int {
	return len(m.dates)
}

// Has reports whether a column exists
func (m *PeriodMatrix) Has(column string) bool {
	_, ok := m.series[column]
	return ok
}

// Series returns a column, or nil if it does not exist
func (m *PeriodMatrix) Series(column string) Series {
	s, ok := m.series[column]
	if !ok {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// At returns the cell for a column and date
func (m *PeriodMatrix) At(column string, date time.Time) Value {
	s, ok := m.series[column]
	if !ok {
		return Missing
	}
	row, ok := m.index[domain.TruncateDay(date)]
	if !ok {
		return Missing
	}
	return s[row]
}

// Set adds or replaces a column. A new column is appended after the existing ones.
func (m *PeriodMatrix) Set(column string, s Series) {
	if len(s) != len(m.dates) {
		panic("dataprocessing: series length does not match matrix periods")
	}
	if _, exists := m.series[column]; !exists {
		m.columns = append(m.columns, column)
	}
	m.series[column] = s
}

// Rename moves a column to a new name, keeping its position. Renaming onto an
// existing column drops the old one.
func (m *PeriodMatrix) Rename(from, to string) bool {
	s, ok := m.series[from]
	if !ok || from == to {
		return ok
	}
	if _, exists := m.series[to]; exists {
		m.drop(to)
	}
	for i, c := range m.columns {
		if c == from {
			m.columns[i] = to
			break
		}
	}
	delete(m.series, from)
	m.series[to] = s
	return true
}

func (m *PeriodMatrix) drop(column string) {
	for i, c := range m.columns {
		if c == column {
			m.columns = append(m.columns[:i], m.columns[i+1:]...)
			break
		}
	}
	delete(m.series, column)
}

// Flatten melts the matrix back into records, dates ascending and columns in
// matrix order. Missing cells are skipped; their count is returned.
func (m *PeriodMatrix) Flatten() ([]domain.Record, int) {
	records := make([]domain.Record, 0, len(m.dates)*len(m.columns))
	missing := 0
	for row, date := range m.dates {
		for _, col := range m.columns {
			cell := m.series[col][row]
			if !cell.Valid {
				missing++
				continue
			}
			records = append(records, domain.NewRecord(col, date, cell.Float64))
		}
	}
	return records, missing
}
