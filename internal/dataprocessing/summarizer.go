package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"bopcli/pkg/contracts/domain"
)

// FiscalYearSummary aggregates one description over one fiscal year
type FiscalYearSummary struct {
	Description string    `json:"description" csv:"Description"`
	FiscalYear  int       `json:"fiscal_year" csv:"FiscalYear"`
	Periods     int       `json:"periods" csv:"Periods"`
	Total       float64   `json:"total" csv:"Total"`
	Mean        float64   `json:"mean" csv:"Mean"`
	Min         float64   `json:"min" csv:"Min"`
	Max         float64   `json:"max" csv:"Max"`
	FirstDate   time.Time `json:"first_date" csv:"FirstDate"`
	LastDate    time.Time `json:"last_date" csv:"LastDate"`
}

// Summarizer rolls monthly records up to fiscal years
type Summarizer struct {
	logger *slog.Logger
}

// NewSummarizer creates a fiscal-year summarizer
func NewSummarizer(logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{logger: logger.With(slog.String("component", "summarizer"))}
}

type summaryKey struct {
	description string
	fiscalYear  int
}

// ByFiscalYear groups records by (description, fiscal year). Availability flag
// rows are skipped. Output is ordered by fiscal year, then description.
func (s *Summarizer) ByFiscalYear(ctx context.Context, records []domain.Record) []FiscalYearSummary {
	groups := make(map[summaryKey]*FiscalYearSummary)
	for _, rec := range records {
		if domain.IsFlag(rec.Description) {
			continue
		}
		key := summaryKey{description: rec.Description, fiscalYear: rec.FiscalYear}
		g, ok := groups[key]
		if !ok {
			g = &FiscalYearSummary{
				Description: rec.Description,
				FiscalYear:  rec.FiscalYear,
				Min:         math.Inf(1),
				Max:         math.Inf(-1),
				FirstDate:   rec.Date,
				LastDate:    rec.Date,
			}
			groups[key] = g
		}
		g.Periods++
		g.Total += rec.Value
		g.Min = math.Min(g.Min, rec.Value)
		g.Max = math.Max(g.Max, rec.Value)
		if rec.Date.Before(g.FirstDate) {
			g.FirstDate = rec.Date
		}
		if rec.Date.After(g.LastDate) {
			g.LastDate = rec.Date
		}
	}

	out := make([]FiscalYearSummary, 0, len(groups))
	for _, g := range groups {
		g.Mean = g.Total / float64(g.Periods)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FiscalYear != out[j].FiscalYear {
			return out[i].FiscalYear < out[j].FiscalYear
		}
		return out[i].Description < out[j].Description
	})

	s.logger.DebugContext(ctx, "fiscal year summaries generated",
		slog.Int("record_count", len(records)),
		slog.Int("summary_count", len(out)))
	return out
}
