// Package monitoring - alerts.go flags anomalies and errors.
//
// DESIGN: AlertManager logs notable events at appropriate levels:
//   - FlagHighLatency:       Warn when request exceeds threshold
//   - FlagGenerationFailure: Error when all providers are exhausted
//   - FlagProviderError:     Warn on a single provider failure
//   - FlagPanic:             Error on recovered panics
package monitoring

import "time"

// AlertManager flags anomalies and errors.
type AlertManager struct {
	logger               *Logger
	highLatencyThreshold time.Duration
}

// NewAlertManager creates a new alert manager.
func NewAlertManager(logger *Logger, cfg AlertConfig) *AlertManager {
	threshold := cfg.HighLatencyThreshold
	if threshold == 0 {
		threshold = 5 * time.Second
	}
	return &AlertManager{logger: logger, highLatencyThreshold: threshold}
}

// FlagHighLatency logs when request latency exceeds threshold.
func (am *AlertManager) FlagHighLatency(requestID string, latency time.Duration, path string) {
	if latency < am.highLatencyThreshold {
		return
	}
	am.logger.Warn().
		Str("request_id", requestID).
		Dur("latency", latency).
		Str("path", path).
		Msg("high_latency")
}

// FlagGenerationFailure logs a terminal generation failure (all providers tried).
func (am *AlertManager) FlagGenerationFailure(requestID string, attempts int, err error) {
	am.logger.Error().
		Str("request_id", requestID).
		Int("attempts", attempts).
		Err(err).
		Msg("generation_failed")
}

// FlagProviderError logs a single provider failure.
func (am *AlertManager) FlagProviderError(requestID, provider, errorMsg string) {
	am.logger.Warn().
		Str("request_id", requestID).
		Str("provider", provider).
		Str("error", errorMsg).
		Msg("provider_error")
}

// FlagInvalidRequest logs an invalid request.
func (am *AlertManager) FlagInvalidRequest(requestID, reason string) {
	am.logger.Debug().
		Str("request_id", requestID).
		Str("reason", reason).
		Msg("invalid_request")
}

// FlagPanic logs a recovered panic.
func (am *AlertManager) FlagPanic(requestID string, panicValue interface{}, stack string) {
	am.logger.Error().
		Str("request_id", requestID).
		Interface("panic", panicValue).
		Msg("panic_recovered")
}
