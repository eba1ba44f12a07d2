package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. EXP_SERVER_PORT
const EnvPrefix = "EXP"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Database  DatabaseConfig  `yaml:"database" envconfig:"DATABASE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RunTimeout      time.Duration `yaml:"run_timeout" envconfig:"RUN_TIMEOUT" default:"30m" validate:"gt=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/expenditure.log"`
}

// PathsConfig contains file system paths configuration.
// Relative directories are resolved against BaseDir (the working directory when empty).
type PathsConfig struct {
	BaseDir        string `yaml:"base_dir" envconfig:"BASE_DIR"`
	RawDir         string `yaml:"raw_dir" envconfig:"RAW_DIR" default:"data/raw" validate:"required"`
	TransformedDir string `yaml:"transformed_dir" envconfig:"TRANSFORMED_DIR" default:"data/transformed" validate:"required"`
	CleanedDir     string `yaml:"cleaned_dir" envconfig:"CLEANED_DIR" default:"data/cleaned" validate:"required"`
	LogsDir        string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// PipelineConfig controls batch processing
type PipelineConfig struct {
	Categories       []string `yaml:"categories" envconfig:"CATEGORIES" validate:"dive,required"`
	Extensions       []string `yaml:"extensions" envconfig:"EXTENSIONS" default:".csv,.xlsx" validate:"min=1,dive,startswith=."`
	Workers          int      `yaml:"workers" envconfig:"WORKERS" default:"1" validate:"min=1,max=32"`
	Encoding         string   `yaml:"encoding" envconfig:"ENCODING" default:"utf8" validate:"oneof=utf8 windows1252"`
	Sheet            string   `yaml:"sheet" envconfig:"SHEET"`
	WriteTransformed bool     `yaml:"write_transformed" envconfig:"WRITE_TRANSFORMED" default:"true"`
	WriteCombined    bool     `yaml:"write_combined" envconfig:"WRITE_COMBINED" default:"true"`
	ExcelBOM         bool     `yaml:"excel_bom" envconfig:"EXCEL_BOM" default:"false"`
	HistorySize      int      `yaml:"history_size" envconfig:"HISTORY_SIZE" default:"20" validate:"min=1"`
}

// DatabaseConfig configures the optional relational sink
type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED" default:"false"`
	Driver  string `yaml:"driver" envconfig:"DRIVER" default:"sqlite3" validate:"oneof=sqlite3 postgres"`
	DSN     string `yaml:"dsn" envconfig:"DSN" default:"data/expenditure.db" validate:"required_if=Enabled true"`
}

// TelemetryConfig configures tracing and metrics
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" default:"expenditure"`
	TracesToStdout bool   `yaml:"traces_to_stdout" envconfig:"TRACES_TO_STDOUT" default:"false"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads configuration from .env, environment variables and an optional
// YAML file. Environment variables take precedence over the file.
// An empty configFile searches the usual locations.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs lays file values over env defaults. A value from the file is
// taken when it is non-zero and the matching variable is not set.
func mergeConfigs(fileConfig, envConfig Config) Config {
	overlay(&envConfig.Server.Port, fileConfig.Server.Port, "SERVER_PORT")
	overlay(&envConfig.Server.ReadTimeout, fileConfig.Server.ReadTimeout, "SERVER_READ_TIMEOUT")
	overlay(&envConfig.Server.WriteTimeout, fileConfig.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT")
	overlay(&envConfig.Server.IdleTimeout, fileConfig.Server.IdleTimeout, "SERVER_IDLE_TIMEOUT")
	overlay(&envConfig.Server.ShutdownTimeout, fileConfig.Server.ShutdownTimeout, "SERVER_SHUTDOWN_TIMEOUT")
	overlay(&envConfig.Server.RunTimeout, fileConfig.Server.RunTimeout, "SERVER_RUN_TIMEOUT")

	overlaySlice(&envConfig.Security.AllowedOrigins, fileConfig.Security.AllowedOrigins, "SECURITY_ALLOWED_ORIGINS")
	overlay(&envConfig.Security.RateLimit.RPS, fileConfig.Security.RateLimit.RPS, "SECURITY_RATE_LIMIT_RPS")
	overlay(&envConfig.Security.RateLimit.Burst, fileConfig.Security.RateLimit.Burst, "SECURITY_RATE_LIMIT_BURST")

	overlay(&envConfig.Logging.Level, fileConfig.Logging.Level, "LOGGING_LEVEL")
	overlay(&envConfig.Logging.Output, fileConfig.Logging.Output, "LOGGING_OUTPUT")
	overlay(&envConfig.Logging.FilePath, fileConfig.Logging.FilePath, "LOGGING_FILE_PATH")

	overlay(&envConfig.Paths.BaseDir, fileConfig.Paths.BaseDir, "PATHS_BASE_DIR")
	overlay(&envConfig.Paths.RawDir, fileConfig.Paths.RawDir, "PATHS_RAW_DIR")
	overlay(&envConfig.Paths.TransformedDir, fileConfig.Paths.TransformedDir, "PATHS_TRANSFORMED_DIR")
	overlay(&envConfig.Paths.CleanedDir, fileConfig.Paths.CleanedDir, "PATHS_CLEANED_DIR")
	overlay(&envConfig.Paths.LogsDir, fileConfig.Paths.LogsDir, "PATHS_LOGS_DIR")

	overlaySlice(&envConfig.Pipeline.Categories, fileConfig.Pipeline.Categories, "PIPELINE_CATEGORIES")
	overlaySlice(&envConfig.Pipeline.Extensions, fileConfig.Pipeline.Extensions, "PIPELINE_EXTENSIONS")
	overlay(&envConfig.Pipeline.Workers, fileConfig.Pipeline.Workers, "PIPELINE_WORKERS")
	overlay(&envConfig.Pipeline.Encoding, fileConfig.Pipeline.Encoding, "PIPELINE_ENCODING")
	overlay(&envConfig.Pipeline.Sheet, fileConfig.Pipeline.Sheet, "PIPELINE_SHEET")
	overlay(&envConfig.Pipeline.HistorySize, fileConfig.Pipeline.HistorySize, "PIPELINE_HISTORY_SIZE")

	overlay(&envConfig.Database.Enabled, fileConfig.Database.Enabled, "DATABASE_ENABLED")
	overlay(&envConfig.Database.Driver, fileConfig.Database.Driver, "DATABASE_DRIVER")
	overlay(&envConfig.Database.DSN, fileConfig.Database.DSN, "DATABASE_DSN")

	overlay(&envConfig.Telemetry.ServiceName, fileConfig.Telemetry.ServiceName, "TELEMETRY_SERVICE_NAME")
	overlay(&envConfig.Telemetry.TracesToStdout, fileConfig.Telemetry.TracesToStdout, "TELEMETRY_TRACES_TO_STDOUT")

	return envConfig
}

func overlay[T comparable](dst *T, fileValue T, key string) {
	var zero T
	if fileValue == zero || envSet(key) {
		return
	}
	*dst = fileValue
}

func overlaySlice(dst *[]string, fileValue []string, key string) {
	if len(fileValue) == 0 || envSet(key) {
		return
	}
	*dst = fileValue
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + key)
	return ok
}

// Validate checks field constraints declared in struct tags
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RunTimeout:      DefaultRunTimeout,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Output:   "console",
			FilePath: "logs/expenditure.log",
		},
		Paths: PathsConfig{
			RawDir:         DefaultRawDir,
			TransformedDir: DefaultTransformedDir,
			CleanedDir:     DefaultCleanedDir,
			LogsDir:        DefaultLogsDir,
		},
		Pipeline: PipelineConfig{
			Extensions:       []string{".csv", ".xlsx"},
			Workers:          1,
			Encoding:         "utf8",
			WriteTransformed: true,
			WriteCombined:    true,
			HistorySize:      DefaultHistorySize,
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "data/expenditure.db",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			MetricsEnabled: true,
		},
	}
}
