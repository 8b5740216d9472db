package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. BOP_SERVER_PORT
const EnvPrefix = "BOP"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Database  DatabaseConfig  `yaml:"database" envconfig:"DATABASE"`
	Narrative NarrativeConfig `yaml:"narrative" envconfig:"NARRATIVE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"gt=0"`
	ResultTTL       time.Duration `yaml:"result_ttl" envconfig:"RESULT_TTL" validate:"gt=0"`
	// RateLimitRPS caps run submissions per second; 0 disables the limiter
	RateLimitRPS    float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS" validate:"min=0"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST" validate:"min=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// PathsConfig contains file system locations
type PathsConfig struct {
	InputDir  string `yaml:"input_dir" envconfig:"INPUT_DIR"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	UploadDir string `yaml:"upload_dir" envconfig:"UPLOAD_DIR" validate:"required"`
}

// PipelineConfig tunes the normalize/derive/export run
type PipelineConfig struct {
	RulesFile      string `yaml:"rules_file" envconfig:"RULES_FILE"`
	Sheet          string `yaml:"sheet" envconfig:"SHEET"`
	Workers        int    `yaml:"workers" envconfig:"WORKERS" validate:"min=1,max=64"`
	BOMPrefix      bool   `yaml:"bom_prefix" envconfig:"BOM_PREFIX"`
	Export         bool   `yaml:"export" envconfig:"EXPORT"`
	FallbackDates  bool   `yaml:"fallback_dates" envconfig:"FALLBACK_DATES"`
	SummaryMaxRows int    `yaml:"summary_max_rows" envconfig:"SUMMARY_MAX_ROWS" validate:"min=1"`
}

// Database drivers
const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig selects and tunes the persistence sink
type DatabaseConfig struct {
	Driver          string        `yaml:"driver" envconfig:"DRIVER" validate:"oneof=none sqlite postgres"`
	SQLitePath      string        `yaml:"sqlite_path" envconfig:"SQLITE_PATH" validate:"required_if=Driver sqlite"`
	PostgresURL     string        `yaml:"postgres_url" envconfig:"POSTGRES_URL" validate:"required_if=Driver postgres"`
	MaxOpenConns    int           `yaml:"max_open_conns" envconfig:"MAX_OPEN_CONNS" validate:"min=0"`
	MaxIdleConns    int           `yaml:"max_idle_conns" envconfig:"MAX_IDLE_CONNS" validate:"min=0"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" envconfig:"CONN_MAX_LIFETIME"`
}

// NarrativeConfig configures the optional LLM commentary step. Keys are
// only ever read from configuration.
type NarrativeConfig struct {
	Enabled           bool          `yaml:"enabled" envconfig:"ENABLED"`
	AnthropicAPIKey   string        `yaml:"anthropic_api_key" envconfig:"ANTHROPIC_API_KEY"`
	AnthropicModel    string        `yaml:"anthropic_model" envconfig:"ANTHROPIC_MODEL"`
	AnthropicBaseURL  string        `yaml:"anthropic_base_url" envconfig:"ANTHROPIC_BASE_URL" validate:"omitempty,url"`
	OpenAIAPIKey      string        `yaml:"openai_api_key" envconfig:"OPENAI_API_KEY"`
	OpenAIModel       string        `yaml:"openai_model" envconfig:"OPENAI_MODEL"`
	OpenAIBaseURL     string        `yaml:"openai_base_url" envconfig:"OPENAI_BASE_URL" validate:"omitempty,url"`
	MaxTokens         int           `yaml:"max_tokens" envconfig:"MAX_TOKENS" validate:"min=1"`
	MaxRetries        int           `yaml:"max_retries" envconfig:"MAX_RETRIES" validate:"min=0,max=10"`
	RetryDelay        time.Duration `yaml:"retry_delay" envconfig:"RETRY_DELAY"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	RequestsPerMinute float64       `yaml:"requests_per_minute" envconfig:"REQUESTS_PER_MINUTE" validate:"gt=0"`
}

// TelemetryConfig controls OpenTelemetry metrics and tracing
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"min=0,max=1"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxUploadBytes:  32 << 20,
			ResultTTL:       time.Hour,
			RateLimitRPS:    2,
			RateLimitBurst:  5,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/bop.log",
		},
		Paths: PathsConfig{
			InputDir:  "data/input",
			OutputDir: "data/output",
			UploadDir: "data/uploads",
		},
		Pipeline: PipelineConfig{
			Workers:        4,
			BOMPrefix:      true,
			Export:         true,
			FallbackDates:  true,
			SummaryMaxRows: 40,
		},
		Database: DatabaseConfig{
			Driver:          DriverNone,
			SQLitePath:      "data/bop.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Narrative: NarrativeConfig{
			AnthropicModel:    "claude-3-5-sonnet-latest",
			AnthropicBaseURL:  "https://api.anthropic.com",
			OpenAIModel:       "gpt-4o-mini",
			OpenAIBaseURL:     "https://api.openai.com",
			MaxTokens:         1024,
			MaxRetries:        3,
			RetryDelay:        2 * time.Second,
			Timeout:           60 * time.Second,
			RequestsPerMinute: 30,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "bopcli",
			Environment:    "development",
			MetricExporter: "prometheus",
			TraceExporter:  "none",
			SampleRatio:    1.0,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. A .env file in the working
// directory is read first without overriding variables already set. The YAML
// file is taken from BOP_CONFIG_FILE or the first of the usual locations.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	path := os.Getenv(EnvPrefix + "_CONFIG_FILE")
	if path == "" {
		path = getConfigFilePath()
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit YAML file; an empty path skips the file
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// Fields carry no default tags, so envconfig only touches variables that are set.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and normalizes a few values
func (c *Config) Validate() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	if c.Database.Driver == "" {
		c.Database.Driver = DriverNone
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid %s: failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return err
	}
	return nil
}

// NarrativeConfigured reports whether any LLM provider has a key
func (c *Config) NarrativeConfigured() bool {
	return c.Narrative.Enabled && (c.Narrative.AnthropicAPIKey != "" || c.Narrative.OpenAIAPIKey != "")
}

// getConfigFilePath returns the first config file found in common locations
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}
