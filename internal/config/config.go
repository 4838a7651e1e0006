package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"genexpr/domain/stats"
	"genexpr/internal"
	"genexpr/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig
	Analysis AnalysisConfig
	Server   ServerConfig
	LogLevel internal.LogLevel
}

// DataConfig holds dataset location settings
type DataConfig struct {
	DatasetPath string
}

// AnalysisConfig holds the multiple-testing run settings
type AnalysisConfig struct {
	Alpha          float64
	Methods        []stats.CorrectionMethod
	Variance       stats.VarianceAssumption
	ReferenceGroup string
	Workers        int
	TopGenes       int
	CorrelateTop   int
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// Addr is the listen address for the HTTP API.
func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

// LoadDotEnv loads a .env file when present. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Wrapf(err, "failed to load %s", p)
		}
	}
	return nil
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	analysis, err := loadAnalysisConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load analysis configuration")
	}

	level := internal.LogLevelInfo
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if level, err = internal.ParseLogLevel(raw); err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, err)
		}
	}

	config := &Config{
		Data: DataConfig{
			DatasetPath: getEnvOrDefault("DATASET_PATH", ""),
		},
		Analysis: *analysis,
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		LogLevel: level,
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadAnalysisConfig() (*AnalysisConfig, error) {
	alpha, err := getEnvFloat("ALPHA", 0.10)
	if err != nil {
		return nil, err
	}

	methods, err := stats.ParseCorrectionMethods(getEnvOrDefault("CORRECTION_METHODS", "holm,BY"))
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}

	variance, err := stats.ParseVarianceAssumption(getEnvOrDefault("VARIANCE_ASSUMPTION", string(stats.VarianceWelch)))
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}

	workers, err := getEnvInt("WORKERS", runtime.NumCPU())
	if err != nil {
		return nil, err
	}
	top, err := getEnvInt("TOP_GENES", 20)
	if err != nil {
		return nil, err
	}
	correlate, err := getEnvInt("CORRELATE_TOP", 10)
	if err != nil {
		return nil, err
	}

	return &AnalysisConfig{
		Alpha:          alpha,
		Methods:        methods,
		Variance:       variance,
		ReferenceGroup: strings.TrimSpace(os.Getenv("REFERENCE_GROUP")),
		Workers:        workers,
		TopGenes:       top,
		CorrelateTop:   correlate,
	}, nil
}

// Validate checks ranges that the individual parsers cannot.
func (a AnalysisConfig) Validate() error {
	if !(a.Alpha > 0 && a.Alpha < 1) {
		return errors.ConfigInvalid(fmt.Sprintf("ALPHA must be in (0,1), got %v", a.Alpha))
	}
	if a.Workers < 1 {
		return errors.ConfigInvalid(fmt.Sprintf("WORKERS must be >= 1, got %d", a.Workers))
	}
	if a.TopGenes < 0 || a.CorrelateTop < 0 {
		return errors.ConfigInvalid("TOP_GENES and CORRELATE_TOP must be >= 0")
	}
	if a.CorrelateTop == 1 {
		return errors.ConfigInvalid("CORRELATE_TOP must be 0 or at least 2")
	}
	return nil
}

func validateConfig(config *Config) error {
	if err := config.Analysis.Validate(); err != nil {
		return err
	}
	if _, err := strconv.Atoi(config.Server.Port); err != nil {
		return errors.ConfigInvalid(fmt.Sprintf("PORT must be numeric, got %q", config.Server.Port))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be an integer, got %q", key, value))
	}
	return intValue, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be a number, got %q", key, value))
	}
	return floatValue, nil
}
