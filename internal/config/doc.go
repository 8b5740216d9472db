// Package config provides centralized configuration management for bopcli.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later ones winning:
//
//	1. Default values (Default)
//	2. A YAML file (BOP_CONFIG_FILE, config.yaml or configs/config.yaml)
//	3. A .env file in the working directory
//	4. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern BOP_<SECTION>_<FIELD>:
//
//	BOP_SERVER_PORT=8080
//	BOP_DATABASE_DRIVER=sqlite
//	BOP_DATABASE_SQLITE_PATH=data/bop.db
//	BOP_NARRATIVE_ANTHROPIC_API_KEY=...
//	BOP_TELEMETRY_METRIC_EXPORTER=prometheus
//
// # Validation
//
// Load validates the result with go-playground/validator struct tags and
// returns an error naming the first offending field.
package config
