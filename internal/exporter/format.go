package exporter

import (
	"strconv"
	"time"

	"bopcli/pkg/contracts/domain"
)

// formatFloat formats a value with the shortest exact representation, so
// trailing zeros never appear
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}
