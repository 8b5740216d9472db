package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"bopcli/internal/infrastructure"
)

// DefaultWorkers bounds RunBatch when no worker count is given
const DefaultWorkers = 4

// Manager executes registered steps against one or many inputs
type Manager struct {
	registry *Registry
	tracer   *RunTracer
	logger   *slog.Logger
	workers  int
}

// NewManager creates a manager over the registry's steps. A nil tracer
// records spans on the global provider without metrics.
func NewManager(registry *Registry, tracer *RunTracer, workers int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = NewRunTracer(nil)
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Manager{
		registry: registry,
		tracer:   tracer,
		logger:   logger.With(slog.String("component", "operations")),
		workers:  workers,
	}
}

// Run executes every step in order. The first failing step stops the run;
// the returned result describes what was done so far and is never nil.
func (m *Manager) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	runID := uuid.NewString()
	steps := m.registry.List()
	state := NewRunState(runID, req, steps)

	logger := m.logger.With(slog.String("run_id", runID), slog.String("input", req.Input))
	logger.InfoContext(ctx, "run started", slog.Int("steps", len(steps)))

	ctx, span := m.tracer.StartRun(ctx, runID, req)

	for i, step := range steps {
		if err := m.executeStep(ctx, step, state.steps[i], state, logger); err != nil {
			opErr := NewExecutionError(step.ID(), err)
			var stepErr *OperationError
			if errors.As(err, &stepErr) {
				opErr = stepErr
			}
			opErr.RunID = runID

			status := RunStatusFailed
			if opErr.Type == ErrorTypeCancellation {
				status = RunStatusCancelled
			}
			result := state.Result(status, opErr)
			m.tracer.RecordCounts(ctx, state)
			m.tracer.EndRun(ctx, span, result, opErr)

			logger.ErrorContext(ctx, "run failed",
				slog.String("step", step.ID()),
				slog.String("error", opErr.Error()),
				slog.Duration("duration", result.Duration()))
			return result, opErr
		}
	}

	result := state.Result(RunStatusCompleted, nil)
	m.tracer.RecordCounts(ctx, state)
	m.tracer.EndRun(ctx, span, result, nil)

	logger.InfoContext(ctx, "run completed",
		slog.Int("records", result.RecordCount),
		slog.Int("persisted", result.Persisted),
		slog.Duration("duration", result.Duration()))
	return result, nil
}

func (m *Manager) executeStep(ctx context.Context, step Step, ss *StepState, state *RunState, logger *slog.Logger) error {
	if err := ctx.Err(); err != nil {
		ss.Fail(err)
		return err
	}

	stepCtx, span := m.tracer.StartStep(ctx, step)
	state.current = ss
	ss.Start()

	err := step.Execute(stepCtx, state)

	state.current = nil
	var skip *SkipError
	switch {
	case err == nil:
		ss.Complete()
		logger.DebugContext(ctx, "step completed",
			slog.String("step", step.ID()),
			slog.String("message", ss.Message),
			slog.Duration("duration", ss.Duration()))
	case errors.As(err, &skip):
		ss.Skip(skip.Reason)
		logger.InfoContext(ctx, "step skipped", slog.String("step", step.ID()), slog.String("reason", skip.Reason))
		err = nil
	case errors.Is(err, ErrSkipped):
		ss.Skip("")
		err = nil
	default:
		ss.Fail(err)
	}

	m.tracer.EndStep(ctx, span, ss, err)
	return err
}

// RunBatch runs each request independently with at most the configured
// number in flight. A failed run does not cancel the others. Results keep
// the order of reqs; the error joins every run failure.
func (m *Manager) RunBatch(ctx context.Context, reqs []RunRequest) ([]*RunResult, error) {
	results := make([]*RunResult, len(reqs))
	errs := make([]error, len(reqs))

	var g errgroup.Group
	g.SetLimit(m.workers)

	start := time.Now()
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			result, err := m.Run(ctx, req)
			results[i] = result
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", req.Input, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	err := errors.Join(errs...)
	m.logger.InfoContext(ctx, "batch finished",
		slog.Int("runs", len(reqs)),
		slog.Int("failed", countErrors(errs)),
		slog.Duration("duration", time.Since(start)))
	return results, err
}

// Steps returns the registered step IDs in execution order
func (m *Manager) Steps() []string {
	return m.registry.ListIDs()
}

func countErrors(errs []error) int {
	n := 0
	for _, err := range errs {
		if err != nil {
			n++
		}
	}
	return n
}
