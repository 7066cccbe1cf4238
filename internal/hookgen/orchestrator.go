// Generation orchestrator - drives providers in priority order.
//
// DESIGN: Deterministic single pass, no retries within a provider. For each
// provider: health check, then generate, short-circuiting on the first
// success. A provider that panics instead of returning a structured outcome
// is recovered here and downgraded to an ordinary failure record, so one
// malfunctioning provider can never abort evaluation of the rest.
//
// On terminal failure the aggregate carries every attempt in priority order
// plus the first-seen-order deduplicated union of all suggestions. No
// placeholder code is ever substituted.
package hookgen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrAllProvidersExhausted is the fixed terminal failure message.
const ErrAllProvidersExhausted = "generation failed with all available services"

// adapterFaultSuggestion is attached when a provider panics instead of
// returning a structured outcome.
const adapterFaultSuggestion = "check service configuration and authentication"

// DefaultProviderTimeout bounds each provider call when no timeout is configured.
const DefaultProviderTimeout = 2 * time.Minute

// Attempt records one failed provider attempt.
type Attempt struct {
	Provider    string   `json:"provider"`
	Error       string   `json:"error"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Result is the orchestrator's final output.
// On success: Code, Provider and Model are set.
// On failure: Error, Attempts and Suggestions are set.
type Result struct {
	Success     bool      `json:"success"`
	Code        string    `json:"code,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	Model       string    `json:"model,omitempty"`
	Error       string    `json:"error,omitempty"`
	Attempts    []Attempt `json:"attempts,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
}

// Err converts a failed Result into the single error surfaced to callers:
// the aggregate reason with every remediation suggestion appended. Returns
// nil for successful results.
func (r *Result) Err() error {
	if r.Success {
		return nil
	}
	if len(r.Suggestions) == 0 {
		return fmt.Errorf("%s", r.Error)
	}
	return fmt.Errorf("%s: %s", r.Error, strings.Join(r.Suggestions, "; "))
}

// Orchestrator tries providers in a fixed priority order.
type Orchestrator struct {
	providers []Provider
	timeout   time.Duration
}

// NewOrchestrator creates an orchestrator over an ordered provider list.
// timeout bounds each individual provider call; zero uses
// DefaultProviderTimeout.
func NewOrchestrator(providers []Provider, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &Orchestrator{providers: providers, timeout: timeout}
}

// Providers returns the priority-ordered provider list.
func (o *Orchestrator) Providers() []Provider {
	return o.providers
}

// Generate runs the fallback sequence. Attempts always lists every provider
// tried, in priority order; Success is true iff some provider succeeded.
func (o *Orchestrator) Generate(ctx context.Context, req *HookRequest) *Result {
	result := &Result{}

	for _, p := range o.providers {
		health := o.checkHealth(ctx, p)
		if !health.Available {
			suggestions := health.Suggestions
			if len(suggestions) == 0 {
				suggestions = []string{fmt.Sprintf("start the %s service and try again", p.Name())}
			}
			errMsg := health.Error
			if errMsg == "" {
				errMsg = fmt.Sprintf("%s service is not available", p.Name())
			}
			result.Attempts = append(result.Attempts, Attempt{
				Provider:    p.Name(),
				Error:       errMsg,
				Suggestions: suggestions,
			})
			log.Debug().Str("provider", p.Name()).Str("error", errMsg).Msg("provider unavailable, trying next")
			continue
		}

		outcome := o.generate(ctx, p, req)
		if outcome.Success {
			result.Success = true
			result.Code = outcome.Code
			result.Provider = p.Name()
			result.Model = p.Model()
			return result
		}

		result.Attempts = append(result.Attempts, Attempt{
			Provider:    p.Name(),
			Error:       outcome.Error,
			Suggestions: outcome.Suggestions,
		})
		log.Warn().Str("provider", p.Name()).Str("error", outcome.Error).Msg("generation attempt failed")
	}

	result.Error = ErrAllProvidersExhausted
	result.Suggestions = dedupSuggestions(result.Attempts)
	return result
}

// Available reports whether any provider could plausibly generate right
// now. This is an optimistic pre-check for UI gating only - health can flap
// between this call and a subsequent Generate.
func (o *Orchestrator) Available(ctx context.Context) bool {
	for _, p := range o.providers {
		if o.checkHealth(ctx, p).Available {
			return true
		}
	}
	return false
}

// checkHealth runs a provider health check with the call timeout and a
// panic guard.
func (o *Orchestrator) checkHealth(ctx context.Context, p Provider) (status HealthStatus) {
	defer func() {
		if r := recover(); r != nil {
			status = HealthStatus{
				Available:   false,
				Error:       fmt.Sprintf("%s health check panicked: %v", p.Name(), r),
				Suggestions: []string{adapterFaultSuggestion},
			}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return p.HealthCheck(ctx)
}

// generate runs a provider generation call with the call timeout and a
// panic guard. A panicking provider yields a failed outcome instead of
// crashing the orchestrator.
func (o *Orchestrator) generate(ctx context.Context, p Provider, req *HookRequest) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{
				Success:     false,
				Error:       fmt.Sprintf("%s generation panicked: %v", p.Name(), r),
				Suggestions: []string{adapterFaultSuggestion},
			}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return p.GenerateHookCode(ctx, req)
}

// dedupSuggestions unions every attempt's suggestions, keeping first-seen
// order and dropping duplicates.
func dedupSuggestions(attempts []Attempt) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range attempts {
		for _, s := range a.Suggestions {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
