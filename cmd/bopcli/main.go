// Command bopcli runs the balance-of-payments pipeline over one file or
// every CSV and Excel file in a directory and prints the run results as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"bopcli/internal/app"
	"bopcli/internal/config"
	"bopcli/internal/infrastructure"
	"bopcli/internal/operations"
	"bopcli/internal/validation"
	"bopcli/pkg/contracts"
)

// Exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

type options struct {
	in       string
	out      string
	rules    string
	sheet    string
	config   string
	narrate  bool
	noExport bool
	version  bool
	workers  int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("bopcli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.in, "in", "", "input file or directory of .csv/.xlsx/.xlsm files (defaults to paths.input_dir)")
	fs.StringVar(&opts.out, "out", "", "output directory for CSV exports (defaults to paths.output_dir)")
	fs.StringVar(&opts.rules, "rules", "", "YAML category rule table")
	fs.StringVar(&opts.sheet, "sheet", "", "worksheet to read from Excel inputs (defaults to the first)")
	fs.StringVar(&opts.config, "config", "", "YAML config file")
	fs.BoolVar(&opts.narrate, "narrate", false, "request LLM commentary when a provider key is configured")
	fs.BoolVar(&opts.noExport, "no-export", false, "skip writing CSV exports")
	fs.BoolVar(&opts.version, "version", false, "print the version and exit")
	fs.IntVar(&opts.workers, "workers", 0, "parallel runs when -in is a directory")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

func loadConfig(opts options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.config != "" {
		cfg, err = config.LoadFile(opts.config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.in != "" {
		cfg.Paths.InputDir = opts.in
	}
	if opts.out != "" {
		cfg.Paths.OutputDir = opts.out
	}
	if opts.rules != "" {
		cfg.Pipeline.RulesFile = opts.rules
	}
	if opts.sheet != "" {
		cfg.Pipeline.Sheet = opts.sheet
	}
	if opts.workers > 0 {
		cfg.Pipeline.Workers = opts.workers
	}
	if opts.noExport {
		cfg.Pipeline.Export = false
	}
	// The CLI has no /metrics endpoint to serve
	cfg.Telemetry.MetricExporter = "none"
	return cfg, cfg.Validate()
}

// preflight checks paths before any run starts and returns the inputs
func preflight(cfg *config.Config, v *validation.FileValidator) ([]string, error) {
	inputs, err := v.ResolveInputs(cfg.Paths.InputDir)
	if err != nil {
		return nil, err
	}
	if cfg.Pipeline.RulesFile != "" {
		if err := v.ValidateFile(cfg.Pipeline.RulesFile); err != nil {
			return nil, err
		}
	}
	if cfg.Pipeline.Export {
		if err := v.ValidateOutputDirectory(cfg.Paths.OutputDir); err != nil {
			return nil, err
		}
	}
	return inputs, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetVersionString())
		return exitOK
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "bopcli: %v\n", err)
		return exitUsage
	}
	logger := infrastructure.NewLogger(cfg.Logging.Level, stderr)

	inputs, err := preflight(cfg, validation.NewFileValidator(logger))
	if err != nil {
		logger.Error("Invalid arguments", slog.String("error", err.Error()))
		return exitUsage
	}

	application, err := app.NewWithLogger(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", slog.String("error", err.Error()))
		return exitFailed
	}
	defer func() {
		if err := application.CloseWithTimeout(); err != nil {
			infrastructure.WithError(logger, err).Warn("Shutdown incomplete")
		}
	}()

	reqs := make([]operations.RunRequest, 0, len(inputs))
	for _, in := range inputs {
		reqs = append(reqs, operations.RunRequest{Input: filepath.Clean(in), Narrate: opts.narrate})
	}

	results, runErr := application.Manager.RunBatch(ctx, reqs)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		logger.Error("write results", slog.String("error", err.Error()))
		return exitFailed
	}

	if runErr != nil {
		logger.Error("batch finished with failures", slog.String("error", runErr.Error()))
		return exitFailed
	}
	return exitOK
}
