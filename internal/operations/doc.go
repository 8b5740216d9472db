// Package operations runs the balance-of-payments pipeline.
//
// A run pushes one input file through an ordered list of steps held in a
// Registry: load, normalize, derive, persist, export and narrate. Each step
// reads and writes a per-run RunState. Steps whose collaborator is not
// configured (no database, export disabled, no LLM key) return a SkipError
// and are recorded as skipped rather than failed.
//
// Manager.Run executes a single input; Manager.RunBatch executes many in
// parallel with a bounded worker count, each with isolated state. Runs are
// traced with OpenTelemetry spans and counted through the infrastructure
// business metrics.
//
// Example usage:
//
//	registry, err := operations.NewPipeline(operations.Dependencies{
//		Loader:     files.NewLoader("", logger),
//		Normalizer: dataprocessing.NewNormalizer(logger, dataprocessing.DefaultNormalizerOptions()),
//		Engine:     dataprocessing.NewEngine(nil, logger),
//	})
//	manager := operations.NewManager(registry, nil, 4, logger)
//	result, err := manager.Run(ctx, operations.RunRequest{Input: "bop.xlsx"})
package operations
