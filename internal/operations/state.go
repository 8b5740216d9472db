package operations

import (
	"fmt"
	"time"

	"bopcli/internal/dataprocessing"
	"bopcli/pkg/contracts/domain"
)

// RunState carries data between the steps of a single run. Each run owns
// its state; nothing in it is shared across runs.
type RunState struct {
	RunID     string
	Request   RunRequest
	StartedAt time.Time

	Table      domain.RawTable
	Normalized *dataprocessing.NormalizeResult
	Derived    *dataprocessing.DeriveResult
	Summaries  []dataprocessing.FiscalYearSummary
	Persisted  int
	Exports    []string
	Narrative  string

	steps   []*StepState
	current *StepState
}

// NewRunState creates the state for a run over the given steps
func NewRunState(runID string, req RunRequest, steps []Step) *RunState {
	s := &RunState{
		RunID:     runID,
		Request:   req,
		StartedAt: time.Now(),
		steps:     make([]*StepState, 0, len(steps)),
	}
	for _, step := range steps {
		s.steps = append(s.steps, NewStepState(step.ID(), step.Name()))
	}
	return s
}

// Note sets the completion message of the step being executed
func (s *RunState) Note(format string, args ...any) {
	if s.current == nil {
		return
	}
	s.current.mu.Lock()
	s.current.Message = fmt.Sprintf(format, args...)
	s.current.mu.Unlock()
}

// Records returns the most processed record stream available
func (s *RunState) Records() []domain.Record {
	switch {
	case s.Derived != nil:
		return s.Derived.Records
	case s.Normalized != nil:
		return s.Normalized.Records
	default:
		return nil
	}
}

// Result snapshots the state into a RunResult
func (s *RunState) Result(status RunStatus, err error) *RunResult {
	r := &RunResult{
		RunID:      s.RunID,
		Input:      s.Request.Input,
		Status:     status,
		StartedAt:  s.StartedAt,
		FinishedAt: time.Now(),
		Steps:      s.steps,
		Summaries:  s.Summaries,
		Persisted:  s.Persisted,
		Exports:    s.Exports,
		Narrative:  s.Narrative,
		Records:    s.Records(),
	}
	r.RecordCount = len(r.Records)
	if s.Normalized != nil {
		report := s.Normalized.Report
		r.Normalize = &report
	}
	if s.Derived != nil {
		report := s.Derived.Report
		r.Derive = &report
		r.Categories = s.Derived.Categories
		r.Availability = s.Derived.Availability
	}
	if err != nil {
		r.Error = err.Error()
		r.FailedStep = FailedStep(err)
	}
	return r
}
