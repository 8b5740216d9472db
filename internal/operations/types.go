package operations

import (
	"time"

	"bopcli/internal/dataprocessing"
	"bopcli/pkg/contracts/domain"
)

// RunStatus is the overall outcome of a run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunRequest describes one input to push through the pipeline
type RunRequest struct {
	// Input is a CSV or Excel file path
	Input string `json:"input"`
	// Name overrides the export file stem; defaults to the input base name
	Name string `json:"name,omitempty"`
	// Narrate requests LLM commentary when a generator is configured
	Narrate bool `json:"narrate"`
}

// RunResult is the outcome of a pipeline run
type RunResult struct {
	RunID        string                             `json:"run_id"`
	Input        string                             `json:"input"`
	Status       RunStatus                          `json:"status"`
	StartedAt    time.Time                          `json:"started_at"`
	FinishedAt   time.Time                          `json:"finished_at"`
	Error        string                             `json:"error,omitempty"`
	FailedStep   string                             `json:"failed_step,omitempty"`
	Steps        []*StepState                       `json:"steps"`
	Normalize    *dataprocessing.NormalizeReport    `json:"normalize,omitempty"`
	Derive       *dataprocessing.DeriveReport       `json:"derive,omitempty"`
	Categories   dataprocessing.CategoryMap         `json:"categories,omitempty"`
	Availability dataprocessing.Availability        `json:"availability,omitempty"`
	RecordCount  int                                `json:"record_count"`
	Summaries    []dataprocessing.FiscalYearSummary `json:"fiscal_years,omitempty"`
	Persisted    int                                `json:"persisted"`
	Exports      []string                           `json:"exports,omitempty"`
	Narrative    string                             `json:"narrative,omitempty"`
	Records      []domain.Record                    `json:"-"`
}

// Duration returns the wall time of the run
func (r *RunResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Step returns the state of the step with the given ID, or nil
func (r *RunResult) Step(id string) *StepState {
	for _, s := range r.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}
