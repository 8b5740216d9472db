package dataprocessing

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DateStrategy parses a single raw date string. Implementations must be pure.
type DateStrategy interface {
	Name() string
	Parse(raw string) (time.Time, bool)
}

// LayoutStrategy parses with a fixed time layout
type LayoutStrategy struct {
	Label  string
	Layout string
}

// Name returns the strategy label
func (s LayoutStrategy) Name() string {
	return s.Label
}

// Parse parses raw with the strategy layout
func (s LayoutStrategy) Parse(raw string) (time.Time, bool) {
	t, err := time.Parse(s.Layout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// GeneralStrategy accepts any format dateparse recognises
type GeneralStrategy struct{}

// Name returns the strategy label
func (GeneralStrategy) Name() string {
	return "general"
}

// Parse parses raw with dateparse in UTC
func (GeneralStrategy) Parse(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DefaultDateStrategies returns the column-level strategies in the order they are tried
func DefaultDateStrategies() []DateStrategy {
	return []DateStrategy{
		LayoutStrategy{Label: "%b-%y", Layout: "Jan-06"},
		LayoutStrategy{Label: "%b-%Y", Layout: "Jan-2006"},
		LayoutStrategy{Label: "%Y-%m-%d", Layout: "2006-01-02"},
		LayoutStrategy{Label: "%Y-%m", Layout: "2006-01"},
	}
}

// DateColumn is the result of parsing a column of raw dates
type DateColumn struct {
	Dates      []time.Time
	Parsed     []bool
	Strategy   string
	Unparsable int
}

// ParseDateColumn tries each column strategy in order and adopts the first one
// that parses at least one value; values it rejects stay unparsable. When no
// strategy parses anything, fallback is applied to each value independently.
func ParseDateColumn(values []string, strategies []DateStrategy, fallback DateStrategy) DateColumn {
	for _, strategy := range strategies {
		col := applyStrategy(values, strategy)
		if col.Unparsable < len(values) {
			return col
		}
	}
	if fallback != nil {
		return applyStrategy(values, fallback)
	}
	return DateColumn{
		Dates:      make([]time.Time, len(values)),
		Parsed:     make([]bool, len(values)),
		Strategy:   "none",
		Unparsable: len(values),
	}
}

func applyStrategy(values []string, strategy DateStrategy) DateColumn {
	col := DateColumn{
		Dates:    make([]time.Time, len(values)),
		Parsed:   make([]bool, len(values)),
		Strategy: strategy.Name(),
	}
	for i, raw := range values {
		t, ok := strategy.Parse(strings.TrimSpace(raw))
		if !ok {
			col.Unparsable++
			continue
		}
		col.Dates[i] = t
		col.Parsed[i] = true
	}
	return col
}
