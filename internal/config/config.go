package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"gojsm/internal/closure"
	"gojsm/internal/engine"
	"gojsm/internal/errors"
	"gojsm/internal/induction"
)

// Config represents the complete application configuration
type Config struct {
	JSM      JSMConfig      `yaml:"jsm"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	LogLevel string         `yaml:"log_level"`
}

// JSMConfig holds the engine defaults used when a request does not override them
type JSMConfig struct {
	Method             string `yaml:"method"`
	ExtThreshold       int    `yaml:"ext_threshold"`
	IntThreshold       int    `yaml:"int_threshold"`
	BanCounterexamples bool   `yaml:"ban_counterexamples"`
	MaxSteps           int    `yaml:"max_steps"`
}

// DatabaseConfig holds database connection settings. An empty URL disables
// run persistence.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// Options converts the engine section into model options.
func (j JSMConfig) Options() engine.Options {
	return engine.Options{
		Method: j.Method,
		Thresholds: induction.Thresholds{
			Extensional: j.ExtThreshold,
			Intensional: j.IntThreshold,
		},
		BanCounterexamples: j.BanCounterexamples,
	}
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	defaults := engine.DefaultOptions()
	return &Config{
		JSM: JSMConfig{
			Method:             defaults.Method,
			ExtThreshold:       defaults.Thresholds.Extensional,
			IntThreshold:       defaults.Thresholds.Intensional,
			BanCounterexamples: defaults.BanCounterexamples,
		},
		Database: DatabaseConfig{Driver: "postgres"},
		Server:   ServerConfig{Port: "8080", GinMode: "debug"},
		LogLevel: "INFO",
	}
}

// Load reads configuration from the optional YAML file named by
// JSM_CONFIG_FILE, then from environment variables, and validates it.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("JSM_CONFIG_FILE"))
}

// LoadFile is Load with an explicit YAML file. Environment variables take
// precedence over the file; an empty path skips the file.
func LoadFile(path string) (*Config, error) {
	config := Default()

	if path != "" {
		if err := loadYAML(path, config); err != nil {
			return nil, errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	applyEnv(config)

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadYAML(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

func applyEnv(config *Config) {
	config.JSM.Method = getEnvOrDefault("JSM_METHOD", config.JSM.Method)
	config.JSM.ExtThreshold = getEnvIntOrDefault("JSM_EXT_THRESHOLD", config.JSM.ExtThreshold)
	config.JSM.IntThreshold = getEnvIntOrDefault("JSM_INT_THRESHOLD", config.JSM.IntThreshold)
	config.JSM.BanCounterexamples = getEnvBoolOrDefault("JSM_BAN_COUNTEREXAMPLES", config.JSM.BanCounterexamples)
	config.JSM.MaxSteps = getEnvIntOrDefault("JSM_MAX_STEPS", config.JSM.MaxSteps)

	config.Database.Driver = getEnvOrDefault("DATABASE_DRIVER", config.Database.Driver)
	config.Database.URL = getEnvOrDefault("DATABASE_URL", config.Database.URL)

	config.Server.Port = getEnvOrDefault("PORT", config.Server.Port)
	config.Server.GinMode = getEnvOrDefault("GIN_MODE", config.Server.GinMode)

	config.LogLevel = getEnvOrDefault("LOG_LEVEL", config.LogLevel)
}

func validateConfig(config *Config) error {
	if err := config.JSM.Options().Validate(); err != nil {
		return err
	}
	if _, err := closure.GetStrategy(config.JSM.Method); err != nil {
		return err
	}
	switch strings.ToLower(config.Database.Driver) {
	case "postgres", "sqlite3":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unsupported database driver %q", config.Database.Driver))
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
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

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
