package operations

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"bopcli/internal/dataprocessing"
	"bopcli/internal/exporter"
	"bopcli/internal/files"
	"bopcli/internal/narrative"
	"bopcli/internal/store"
)

// Step IDs in execution order
const (
	StepLoad      = "load"
	StepNormalize = "normalize"
	StepDerive    = "derive"
	StepPersist   = "persist"
	StepExport    = "export"
	StepNarrate   = "narrate"
)

// Dependencies are the collaborators of the standard pipeline. Store,
// Writer and Generator are optional; their steps skip when they are nil.
type Dependencies struct {
	Loader         *files.Loader
	Normalizer     *dataprocessing.Normalizer
	Engine         *dataprocessing.Engine
	Summarizer     *dataprocessing.Summarizer
	Store          store.Store
	Writer         *exporter.CSVWriter
	Generator      narrative.Generator
	SummaryMaxRows int
}

// NewPipeline registers the standard steps in execution order
func NewPipeline(deps Dependencies) (*Registry, error) {
	if deps.Loader == nil || deps.Normalizer == nil || deps.Engine == nil {
		return nil, fmt.Errorf("loader, normalizer and engine are required")
	}
	if deps.Summarizer == nil {
		deps.Summarizer = dataprocessing.NewSummarizer(nil)
	}

	registry := NewRegistry()
	for _, step := range []Step{
		&LoadStep{BaseStep: NewBaseStep(StepLoad, "Load input"), loader: deps.Loader},
		&NormalizeStep{BaseStep: NewBaseStep(StepNormalize, "Normalize table"), normalizer: deps.Normalizer},
		&DeriveStep{BaseStep: NewBaseStep(StepDerive, "Derive indicators"), engine: deps.Engine, summarizer: deps.Summarizer},
		&PersistStep{BaseStep: NewBaseStep(StepPersist, "Persist records"), store: deps.Store},
		&ExportStep{BaseStep: NewBaseStep(StepExport, "Export CSV"), writer: deps.Writer},
		&NarrateStep{BaseStep: NewBaseStep(StepNarrate, "Generate narrative"), generator: deps.Generator, maxRows: deps.SummaryMaxRows},
	} {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// LoadStep reads the input file into a raw table
type LoadStep struct {
	BaseStep
	loader *files.Loader
}

func (s *LoadStep) Execute(ctx context.Context, state *RunState) error {
	if state.Request.Input == "" {
		return NewValidationError(s.ID(), "input path is required")
	}
	table, err := s.loader.Load(ctx, state.Request.Input)
	if err != nil {
		return err
	}
	state.Table = table
	state.Note("%d rows, %d columns", len(table.Rows), len(table.Columns))
	return nil
}

// NormalizeStep reshapes the raw table into canonical records
type NormalizeStep struct {
	BaseStep
	normalizer *dataprocessing.Normalizer
}

func (s *NormalizeStep) Execute(ctx context.Context, state *RunState) error {
	if state.Table.Columns == nil {
		return NewValidationError(s.ID(), "no table loaded")
	}
	result, err := s.normalizer.Normalize(ctx, state.Table)
	if err != nil {
		return err
	}
	state.Normalized = result
	state.Note("%s table, %d records, %d rows dropped",
		result.Report.Shape, result.Report.OutputRows, result.Report.Dropped())
	return nil
}

// DeriveStep computes the current-account hierarchy and fiscal-year totals
type DeriveStep struct {
	BaseStep
	engine     *dataprocessing.Engine
	summarizer *dataprocessing.Summarizer
}

func (s *DeriveStep) Execute(ctx context.Context, state *RunState) error {
	if state.Normalized == nil {
		return NewValidationError(s.ID(), "no normalized records")
	}
	result, err := s.engine.Derive(ctx, state.Normalized.Records)
	if err != nil {
		return err
	}
	state.Derived = result
	state.Summaries = s.summarizer.ByFiscalYear(ctx, result.Records)
	state.Note("%d periods, %d records, %d missing cells",
		result.Report.Periods, result.Report.OutputRows, result.Report.MissingCells)
	return nil
}

// PersistStep upserts the derived records into the configured store
type PersistStep struct {
	BaseStep
	store store.Store
}

func (s *PersistStep) Execute(ctx context.Context, state *RunState) error {
	if !store.Enabled(s.store) {
		return Skip("no database configured")
	}
	n, err := s.store.UpsertRecords(ctx, state.RunID, state.Records())
	if err != nil {
		return err
	}
	state.Persisted = n
	state.Note("%d records upserted", n)
	return nil
}

// ExportStep writes the record stream and fiscal-year summary as CSV
type ExportStep struct {
	BaseStep
	writer *exporter.CSVWriter
}

func (s *ExportStep) Execute(ctx context.Context, state *RunState) error {
	if s.writer == nil {
		return Skip("export disabled")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stem := exportStem(state.Request)
	recordsFile := stem + "_indicators.csv"
	summaryFile := stem + "_fiscal_years.csv"

	if err := s.writer.WriteRecords(recordsFile, state.Records()); err != nil {
		return err
	}
	if err := s.writer.WriteFiscalYearSummary(summaryFile, state.Summaries); err != nil {
		return err
	}

	state.Exports = []string{s.writer.Path(recordsFile), s.writer.Path(summaryFile)}
	state.Note("wrote %s", strings.Join(state.Exports, ", "))
	return nil
}

func exportStem(req RunRequest) string {
	if req.Name != "" {
		return req.Name
	}
	base := filepath.Base(req.Input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// NarrateStep asks the configured LLM provider for commentary
type NarrateStep struct {
	BaseStep
	generator narrative.Generator
	maxRows   int
}

func (s *NarrateStep) Execute(ctx context.Context, state *RunState) error {
	if s.generator == nil {
		return Skip("no narrative provider configured")
	}
	if !state.Request.Narrate {
		return Skip("narrative not requested")
	}
	text, err := narrative.Analyze(ctx, s.generator, state.Records(), s.maxRows)
	if err != nil {
		return err
	}
	state.Narrative = text
	state.Note("%d characters from %s", len(text), s.generator.Name())
	return nil
}
