// Package config loads and validates the dashboard configuration.
//
// DESIGN: All configuration MUST come from YAML files. No defaults.
// This ensures explicit, auditable configuration for local deployments.
//
// FILES:
//   - config.go:     Root Config struct, Load(), Validate()
//   - providers.go:  LLM provider configs, endpoint resolution, priority list
//   - monitoring.go: Logging and telemetry settings
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oselz/hookboard/internal/monitoring"
)

// Config is the root configuration for the Hookboard dashboard.
// All fields are required - no defaults are applied.
type Config struct {
	Server     ServerConfig     `yaml:"server"`     // HTTP server settings
	Services   ServicesConfig   `yaml:"services"`   // Default local service URLs
	Providers  ProvidersConfig  `yaml:"providers"`  // LLM provider configurations
	Generation GenerationConfig `yaml:"generation"` // Hook generation settings
	Settings   SettingsConfig   `yaml:"settings"`   // Managed settings documents
	Stats      StatsConfig      `yaml:"stats"`      // Usage statistics store
	Monitoring MonitoringConfig `yaml:"monitoring"` // Telemetry and logging
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // Port to listen on
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // Max time to read request
	WriteTimeout time.Duration `yaml:"write_timeout"` // Max time to write response
}

// ServicesConfig contains default local service URLs. These are used only
// when a generation prompt does not carry explicit service URLs.
type ServicesConfig struct {
	OllamaURL string `yaml:"ollama_url"` // Local Ollama API base URL
	TTSURL    string `yaml:"tts_url"`    // Local TTS service base URL
}

// GenerationConfig contains hook generation orchestration settings.
type GenerationConfig struct {
	// Priority is the ordered list of provider names to try.
	// The first entry is the preferred (local) provider.
	Priority []string `yaml:"priority"`

	// Timeout bounds each individual provider call.
	Timeout time.Duration `yaml:"timeout"`
}

// SettingsConfig points at the settings documents the dashboard manages.
// Paths are explicit so the dashboard stays agnostic of any particular
// assistant's directory conventions.
type SettingsConfig struct {
	UserSettingsPath    string `yaml:"user_settings_path"`    // user-level settings JSON
	ProjectSettingsPath string `yaml:"project_settings_path"` // project-level settings JSON
	InstructionsPath    string `yaml:"instructions_path"`     // markdown instructions doc
}

// StatsConfig contains usage statistics store settings.
type StatsConfig struct {
	DatabasePath string `yaml:"database_path"` // SQLite database file path
	TokenModel   string `yaml:"token_model"`   // Tokenizer model for usage estimates
}

// expandEnvWithDefaults expands environment variables with support for default values.
// Supports both ${VAR} and ${VAR:-default} syntax.
func expandEnvWithDefaults(s string) string {
	// Pattern matches ${VAR:-default} or ${VAR}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

// Load reads configuration from a YAML file.
// Returns an error if the file doesn't exist or is invalid.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration from raw YAML bytes.
// Supports ${VAR:-default} env var expansion, env overrides, and validation.
func LoadFromBytes(data []byte) (*Config, error) {
	// Expand environment variables (supports ${VAR:-default} syntax)
	expanded := expandEnvWithDefaults(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// ExpandEnvWithDefaults expands environment variables with support for
// default values. Exported for use by the onboarding flow.
func ExpandEnvWithDefaults(s string) string {
	return expandEnvWithDefaults(s)
}

// applyEnvOverrides applies environment variable overrides to the config.
// This allows wrappers to redirect log and data paths without modifying
// the base config files.
func (c *Config) applyEnvOverrides() {
	// HOOKBOARD_TELEMETRY_LOG overrides the telemetry log path
	if envPath := os.Getenv("HOOKBOARD_TELEMETRY_LOG"); envPath != "" {
		c.Monitoring.TelemetryPath = envPath
		c.Monitoring.TelemetryEnabled = true
	}

	// HOOKBOARD_STATS_DB overrides the statistics database path
	if envPath := os.Getenv("HOOKBOARD_STATS_DB"); envPath != "" {
		c.Stats.DatabasePath = envPath
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ReadTimeout == 0 {
		return fmt.Errorf("server.read_timeout is required")
	}
	if c.Server.WriteTimeout == 0 {
		return fmt.Errorf("server.write_timeout is required")
	}

	// Services validation
	if c.Services.OllamaURL == "" {
		return fmt.Errorf("services.ollama_url is required")
	}

	// Stats validation
	if c.Stats.DatabasePath == "" {
		return fmt.Errorf("stats.database_path is required")
	}

	// Providers validation (if defined)
	if c.Providers != nil {
		if err := c.Providers.Validate(); err != nil {
			return err
		}
	}

	// Generation validation (priority entries must reference defined providers)
	if err := c.ValidateGeneration(); err != nil {
		return err
	}

	return nil
}

// TelemetryConfig builds the monitoring telemetry config.
func (c *Config) TelemetryConfig() monitoring.TelemetryConfig {
	return monitoring.TelemetryConfig{
		Enabled:     c.Monitoring.TelemetryEnabled,
		LogPath:     c.Monitoring.TelemetryPath,
		LogToStdout: c.Monitoring.LogToStdout,
	}
}

// LoggerConfig builds the monitoring logger config.
func (c *Config) LoggerConfig() monitoring.LoggerConfig {
	return monitoring.LoggerConfig{
		Level:  c.Monitoring.LogLevel,
		Format: c.Monitoring.LogFormat,
		Output: c.Monitoring.LogOutput,
	}
}
