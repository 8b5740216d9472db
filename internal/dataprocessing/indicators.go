package dataprocessing

import (
	"context"
	"log/slog"

	"bopcli/pkg/contracts/domain"
)

// Availability records which aggregate indicators could be computed in a run
type Availability map[string]bool

// DeriveReport counts derived output
type DeriveReport struct {
	Periods      int            `json:"periods"`
	InputRows    int            `json:"input_rows"`
	OutputRows   int            `json:"output_rows"`
	MissingCells int            `json:"missing_cells"`
	Derived      map[string]int `json:"derived"`
}

// DeriveResult is the augmented record stream with the inputs used to build it
type DeriveResult struct {
	Records      []domain.Record `json:"records"`
	Categories   CategoryMap     `json:"categories"`
	Availability Availability    `json:"availability"`
	Report       DeriveReport    `json:"report"`
	Matrix       *PeriodMatrix   `json:"-"`
}

// Engine derives the current-account hierarchy from canonical records
type Engine struct {
	resolver *Resolver
	logger   *slog.Logger
}

// NewEngine creates an indicator engine. A nil resolver uses the default rule table.
func NewEngine(resolver *Resolver, logger *slog.Logger) *Engine {
	if resolver == nil {
		resolver = NewDefaultResolver()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		resolver: resolver,
		logger:   logger.With(slog.String("component", "indicator_engine")),
	}
}

// Derive pivots records per period, computes every indicator whose inputs were
// resolved, and flattens the matrix back into records. Missing inputs omit the
// dependent indicator; they are never an error.
func (e *Engine) Derive(ctx context.Context, records []domain.Record) (*DeriveResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := NewPeriodMatrix(records)
	categories := e.resolver.Resolve(m.Columns())

	col := func(key string) Series {
		label, ok := categories[key]
		if !ok {
			return nil
		}
		return m.Series(label)
	}
	sub := func(a, b Value) Value { return a.Sub(b) }

	// Raw inputs are read before any derived column is written so that a
	// derived name colliding with a raw description cannot feed itself.
	exports, imports := col(domain.CategoryExports), col(domain.CategoryImports)
	svcExport, svcImport := col(domain.CategoryServicesExport), col(domain.CategoryServicesImport)
	piCredit, piDebit := col(domain.CategoryPICredit), col(domain.CategoryPIDebit)
	secCredit, remittances := col(domain.CategorySecondaryCredit), col(domain.CategoryWorkersRemittances)
	secDebit := col(domain.CategorySecondaryDebit)
	gdp := col(domain.CategoryGDP)

	derived := make(map[string]Series)
	var order []string
	put := func(name string, s Series) {
		derived[name] = s
		order = append(order, name)
	}

	if exports != nil && imports != nil {
		put(domain.IndicatorBalanceOnGoods, exports.Zip(imports, sub))
	}
	if svcExport != nil && svcImport != nil {
		put(domain.IndicatorBalanceOnServices, svcExport.Zip(svcImport, sub))
	}
	if piCredit != nil && piDebit != nil {
		put(domain.IndicatorBalanceOnPrimaryIncome, piCredit.Zip(piDebit, sub))
	}

	// Secondary credit and remittances default to zero when missing, in the addition only.
	var combined Series
	switch {
	case secCredit != nil && remittances != nil:
		combined = secCredit.Zip(remittances, func(a, b Value) Value { return a.OrZero().Add(b.OrZero()) })
	case secCredit != nil:
		combined = secCredit.Map(Value.OrZero)
	case remittances != nil:
		combined = remittances.Map(Value.OrZero)
	}
	if combined != nil {
		put(domain.IndicatorSecondaryCreditCombined, combined)
		if secDebit != nil {
			put(domain.IndicatorBalanceOnSecondaryIncome, combined.Zip(secDebit, sub))
		}
	}

	// Partial sum over whichever components exist; the flags tell consumers
	// which ones contributed.
	var calculated Series
	for _, component := range domain.CurrentAccountComponents {
		s, ok := derived[component]
		if !ok {
			continue
		}
		if calculated == nil {
			calculated = append(Series(nil), s...)
			continue
		}
		calculated = calculated.Zip(s, func(a, b Value) Value { return a.Add(b) })
	}
	if calculated != nil {
		put(domain.IndicatorCurrentAccountCalculated, calculated)
	}

	for _, name := range order {
		m.Set(name, derived[name])
	}

	if reportedLabel, ok := categories[domain.CategoryCurrentAccountBalance]; ok {
		m.Rename(reportedLabel, domain.IndicatorCurrentAccountReported)
		if calculated != nil {
			reported := m.Series(domain.IndicatorCurrentAccountReported)
			m.Set(domain.IndicatorCurrentAccountDiff, reported.Zip(calculated, sub))
			order = append(order, domain.IndicatorCurrentAccountDiff)
		}
	}

	if calculated != nil && gdp != nil {
		ratio := calculated.Zip(gdp, func(ca, g Value) Value {
			return ca.Div(g).Mul(Some(100))
		})
		m.Set(domain.IndicatorCAPercentGDP, ratio)
		order = append(order, domain.IndicatorCAPercentGDP)
	}

	availability := make(Availability, len(domain.FlaggedIndicators))
	for _, indicator := range domain.FlaggedIndicators {
		_, ok := derived[indicator]
		availability[indicator] = ok
		flag := Some(0)
		if ok {
			flag = Some(1)
		}
		m.Set(domain.FlagName(indicator), Constant(m.Len(), flag))
	}

	out, missing := m.Flatten()

	report := DeriveReport{
		Periods:      m.Len(),
		InputRows:    len(records),
		OutputRows:   len(out),
		MissingCells: missing,
		Derived:      make(map[string]int, len(order)),
	}
	for _, name := range order {
		report.Derived[name] = countValid(m.Series(name))
	}

	e.logger.InfoContext(ctx, "indicators derived",
		slog.Int("periods", report.Periods),
		slog.Int("categories_resolved", len(categories)),
		slog.Int("input_rows", report.InputRows),
		slog.Int("output_rows", report.OutputRows),
		slog.Int("missing_cells", report.MissingCells),
		slog.Bool("has_current_account", availability[domain.IndicatorCurrentAccountCalculated]))

	return &DeriveResult{
		Records:      out,
		Categories:   categories,
		Availability: availability,
		Report:       report,
		Matrix:       m,
	}, nil
}

func countValid(s Series) int {
	n := 0
	for _, v := range s {
		if v.Valid {
			n++
		}
	}
	return n
}
