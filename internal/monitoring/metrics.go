// Package monitoring - metrics.go provides simple counters.
//
// DESIGN: Lightweight in-memory counters for operational metrics:
//   - requests/successes:      Total and successful HTTP request counts
//   - generations/failures:    Hook generation outcomes
//   - fallbacks:               Generations served by a non-first provider
//   - parse_defaults:          Prompt fields that fell back to defaults
//
// For production, export these to Prometheus or similar.
package monitoring

import (
	"sync/atomic"
	"time"
)

// MetricsCollector collects operational metrics.
type MetricsCollector struct {
	requests      atomic.Int64
	successes     atomic.Int64
	generations   atomic.Int64
	genFailures   atomic.Int64
	fallbacks     atomic.Int64
	parseDefaults atomic.Int64
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// RecordRequest records an HTTP request.
func (mc *MetricsCollector) RecordRequest(success bool, _ time.Duration) {
	mc.requests.Add(1)
	if success {
		mc.successes.Add(1)
	}
}

// RecordGeneration records a hook generation outcome.
// fallback is true when a provider other than the first in priority order
// produced the code.
func (mc *MetricsCollector) RecordGeneration(success, fallback bool) {
	mc.generations.Add(1)
	if !success {
		mc.genFailures.Add(1)
	}
	if fallback {
		mc.fallbacks.Add(1)
	}
}

// RecordParseDefaults records how many prompt fields were defaulted.
func (mc *MetricsCollector) RecordParseDefaults(n int) {
	if n > 0 {
		mc.parseDefaults.Add(int64(n))
	}
}

// Stats returns current metrics.
func (mc *MetricsCollector) Stats() map[string]int64 {
	return map[string]int64{
		"requests":            mc.requests.Load(),
		"successes":           mc.successes.Load(),
		"generations":         mc.generations.Load(),
		"generation_failures": mc.genFailures.Load(),
		"fallbacks":           mc.fallbacks.Load(),
		"parse_defaults":      mc.parseDefaults.Load(),
	}
}

// Stop is a no-op for compatibility.
func (mc *MetricsCollector) Stop() {}
