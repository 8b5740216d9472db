package domain

import (
	"time"
)

// DateLayout is the canonical day-precision date format used in exports and storage
const DateLayout = "2006-01-02"

// Record is a canonical long-format observation
type Record struct {
	Description string    `json:"description" db:"description" validate:"required"`
	Date        time.Time `json:"date" db:"date" validate:"required"`
	Value       float64   `json:"value" db:"value"`
	FiscalYear  int       `json:"fiscal_year" db:"fiscal_year"`
}

// NewRecord builds a record with the date truncated to the day and the fiscal year assigned
func NewRecord(description string, date time.Time, value float64) Record {
	day := TruncateDay(date)
	return Record{
		Description: description,
		Date:        day,
		Value:       value,
		FiscalYear:  FiscalYear(day),
	}
}

// FiscalYear returns the July-June fiscal year a date belongs to.
// A fiscal year is named for the calendar year in which it ends, so
// 2013-07-01 through 2014-06-30 is fiscal year 2014.
func FiscalYear(date time.Time) int {
	if date.Month() >= time.July {
		return date.Year() + 1
	}
	return date.Year()
}

// TruncateDay drops the time-of-day component and normalizes to UTC
func TruncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RecordKey identifies a record within a run
type RecordKey struct {
	Date        time.Time
	Description string
}

// Key returns the (date, description) identity of the record
func (r Record) Key() RecordKey {
	return RecordKey{Date: r.Date, Description: r.Description}
}

// Less orders records by date, then description
func (r Record) Less(other Record) bool {
	if !r.Date.Equal(other.Date) {
		return r.Date.Before(other.Date)
	}
	return r.Description < other.Description
}
