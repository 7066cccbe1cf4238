// Package monitoring - types.go defines shared types.
//
// DESIGN: These types are used by both server/ and monitoring/ packages.
// Defined here ONCE to avoid duplication and circular imports.
//
// TYPES:
//   - GenerationEvent: Telemetry data for each hook generation
//   - SettingsEvent:   Telemetry data for settings reads/patches
//   - Config types:    TelemetryConfig, LoggerConfig, AlertConfig
package monitoring

import "time"

// =============================================================================
// EVENT TYPES - Structured data for telemetry recording
// =============================================================================

// ProviderAttempt captures one provider attempt inside a generation event.
type ProviderAttempt struct {
	Provider string `json:"provider"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// GenerationEvent captures a hook generation request through the dashboard.
type GenerationEvent struct {
	RequestID       string            `json:"request_id"`
	Timestamp       time.Time         `json:"timestamp"`
	EventType       string            `json:"event_type"`
	Pattern         string            `json:"pattern"`
	Scope           string            `json:"scope"`
	Provider        string            `json:"provider,omitempty"` // winning provider
	Model           string            `json:"model,omitempty"`
	Attempts        []ProviderAttempt `json:"attempts,omitempty"`
	DefaultedFields []string          `json:"defaulted_fields,omitempty"`
	PromptBytes     int               `json:"prompt_bytes"`
	CodeBytes       int               `json:"code_bytes"`
	PromptTokens    int               `json:"prompt_tokens,omitempty"`
	CodeTokens      int               `json:"code_tokens,omitempty"`
	Success         bool              `json:"success"`
	Error           string            `json:"error,omitempty"`
	TotalLatencyMs  int64             `json:"total_latency_ms"`
}

// SettingsEvent captures a settings read or patch operation.
type SettingsEvent struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Scope     string    `json:"scope"`
	Operation string    `json:"operation"` // "read", "patch", "mcp_add", "mcp_remove"
	Path      string    `json:"path,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// =============================================================================
// CONFIG TYPES
// =============================================================================

// TelemetryConfig contains telemetry configuration.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	LogPath     string `yaml:"log_path"`
	LogToStdout bool   `yaml:"log_to_stdout"`
}

// LoggerConfig contains logging configuration.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	Output string `yaml:"output"` // stdout, stderr, or file path
}

// AlertConfig contains alert thresholds.
type AlertConfig struct {
	HighLatencyThreshold time.Duration `yaml:"high_latency_threshold"`
}
