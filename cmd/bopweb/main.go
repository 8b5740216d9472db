package main

import (
	"flag"
	"log/slog"
	"os"

	"bopcli/internal/app"
	"bopcli/internal/config"
	"bopcli/internal/infrastructure"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults to BOP_CONFIG_FILE or ./config.yaml)")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Relative paths are anchored at the working directory so logs show
	// where uploads and exports land
	if wd, err := os.Getwd(); err == nil {
		cfg.Paths.Resolve(wd)
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	runErr := application.Run()
	if err := infrastructure.CloseLogFile(); err != nil {
		slog.Error("Failed to close log file", slog.String("error", err.Error()))
	}
	if runErr != nil {
		slog.Error("Application error", slog.String("error", runErr.Error()))
		os.Exit(1)
	}
}
