// Provider capability contract.
//
// DESIGN: Both operations fold every underlying transport/parsing failure
// into their returned structure - a provider implementation never returns a
// Go error and never lets one escape this boundary. The orchestrator can
// therefore treat every provider identically, and adding a provider is a
// matter of implementing these two operations.
package hookgen

import "context"

// HealthStatus is the result of a provider reachability probe.
type HealthStatus struct {
	Available   bool     `json:"available"`
	Error       string   `json:"error,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Outcome is the result of one provider generation attempt.
// Code is set iff Success; Error is set iff !Success.
type Outcome struct {
	Success     bool     `json:"success"`
	Code        string   `json:"code,omitempty"`
	Error       string   `json:"error,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Provider is one LLM completion backend capable of producing hook code.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Name returns the provider identifier (e.g. "ollama", "anthropic").
	Name() string

	// Model returns the model identifier this provider generates with.
	Model() string

	// HealthCheck is a cheap reachability probe. It must not fail with an
	// error - unreachable or misconfigured services are reported through
	// the returned status.
	HealthCheck(ctx context.Context) HealthStatus

	// GenerateHookCode performs the generation call. Transport and parsing
	// failures are converted into a failed Outcome, never propagated.
	GenerateHookCode(ctx context.Context, req *HookRequest) Outcome
}
