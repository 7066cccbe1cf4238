package hookgen

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is a scriptable Provider for orchestrator tests.
type fakeProvider struct {
	name        string
	model       string
	health      HealthStatus
	outcome     Outcome
	healthCalls int
	genCalls    int
	panicOnGen  bool
}

func (f *fakeProvider) Name() string  { return f.name }
func (f *fakeProvider) Model() string { return f.model }

func (f *fakeProvider) HealthCheck(_ context.Context) HealthStatus {
	f.healthCalls++
	return f.health
}

func (f *fakeProvider) GenerateHookCode(_ context.Context, _ *HookRequest) Outcome {
	f.genCalls++
	if f.panicOnGen {
		panic("connection pool corrupted")
	}
	return f.outcome
}

func healthyProvider(name, model string, outcome Outcome) *fakeProvider {
	return &fakeProvider{
		name:    name,
		model:   model,
		health:  HealthStatus{Available: true},
		outcome: outcome,
	}
}

func testRequest() *HookRequest {
	return &HookRequest{
		EventType:   EventNotification,
		Pattern:     "*",
		Scope:       ScopeUser,
		Description: "Custom hook",
	}
}

// =============================================================================
// SHORT-CIRCUIT AND PRIORITY ORDER
// =============================================================================

func TestOrchestrator_FirstProviderWins(t *testing.T) {
	local := healthyProvider("ollama", "qwen2.5-coder:7b", Outcome{Success: true, Code: "#!/bin/bash\necho ok"})
	cloud := healthyProvider("anthropic", "claude-sonnet-4", Outcome{Success: true, Code: "never used"})
	o := NewOrchestrator([]Provider{local, cloud}, time.Second)

	result := o.Generate(context.Background(), testRequest())

	require.True(t, result.Success)
	assert.Equal(t, "#!/bin/bash\necho ok", result.Code)
	assert.Equal(t, "ollama", result.Provider)
	assert.Equal(t, "qwen2.5-coder:7b", result.Model)
	assert.Empty(t, result.Attempts)

	// Short-circuit: the second provider is never touched.
	assert.Zero(t, cloud.healthCalls)
	assert.Zero(t, cloud.genCalls)
}

func TestOrchestrator_FallbackToSecondProvider(t *testing.T) {
	local := &fakeProvider{
		name:   "ollama",
		model:  "qwen2.5-coder:7b",
		health: HealthStatus{Available: false, Error: "connection refused", Suggestions: []string{"start the local Ollama service (ollama serve)"}},
	}
	cloud := healthyProvider("anthropic", "claude-sonnet-4", Outcome{Success: true, Code: "#!/bin/bash\ntrue"})
	o := NewOrchestrator([]Provider{local, cloud}, time.Second)

	result := o.Generate(context.Background(), testRequest())

	require.True(t, result.Success)
	assert.Equal(t, "anthropic", result.Provider)
	assert.Equal(t, "claude-sonnet-4", result.Model)

	// The unavailable provider is skipped without a generation call but
	// still recorded as an attempt.
	assert.Zero(t, local.genCalls)
	require.Len(t, result.Attempts, 1)
	assert.Equal(t, "ollama", result.Attempts[0].Provider)
	assert.Equal(t, "connection refused", result.Attempts[0].Error)
}

// =============================================================================
// TERMINAL FAILURE AGGREGATION
// =============================================================================

func TestOrchestrator_AllProvidersExhausted(t *testing.T) {
	local := &fakeProvider{
		name:   "ollama",
		model:  "qwen2.5-coder:7b",
		health: HealthStatus{Available: false, Error: "service down", Suggestions: []string{"start service A", "check credentials"}},
	}
	cloud := healthyProvider("anthropic", "claude-sonnet-4", Outcome{
		Success:     false,
		Error:       "401 unauthorized",
		Suggestions: []string{"check credentials", "verify the API key"},
	})
	o := NewOrchestrator([]Provider{local, cloud}, time.Second)

	result := o.Generate(context.Background(), testRequest())

	require.False(t, result.Success)
	assert.Empty(t, result.Code)
	assert.Equal(t, "generation failed with all available services", result.Error)

	// Attempts appear in priority order.
	require.Len(t, result.Attempts, 2)
	assert.Equal(t, "ollama", result.Attempts[0].Provider)
	assert.Equal(t, "anthropic", result.Attempts[1].Provider)

	// Suggestions are the first-seen-order deduplicated union.
	assert.Equal(t, []string{"start service A", "check credentials", "verify the API key"}, result.Suggestions)

	err := result.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generation failed with all available services")
	assert.Contains(t, err.Error(), "start service A")
}

func TestOrchestrator_UnavailableWithoutSuggestionsGetsDefault(t *testing.T) {
	local := &fakeProvider{name: "ollama", health: HealthStatus{Available: false}}
	o := NewOrchestrator([]Provider{local}, time.Second)

	result := o.Generate(context.Background(), testRequest())

	require.False(t, result.Success)
	require.Len(t, result.Attempts, 1)
	assert.Equal(t, "ollama service is not available", result.Attempts[0].Error)
	assert.Equal(t, []string{"start the ollama service and try again"}, result.Attempts[0].Suggestions)
}

func TestOrchestrator_NoProviders(t *testing.T) {
	o := NewOrchestrator(nil, time.Second)

	result := o.Generate(context.Background(), testRequest())

	require.False(t, result.Success)
	assert.Equal(t, "generation failed with all available services", result.Error)
	assert.Empty(t, result.Attempts)
}

// =============================================================================
// PANIC CONTAINMENT
// =============================================================================

func TestOrchestrator_PanickingProviderBecomesFailedAttempt(t *testing.T) {
	broken := &fakeProvider{
		name:       "ollama",
		health:     HealthStatus{Available: true},
		panicOnGen: true,
	}
	cloud := healthyProvider("anthropic", "claude-sonnet-4", Outcome{Success: true, Code: "#!/bin/bash\ntrue"})
	o := NewOrchestrator([]Provider{broken, cloud}, time.Second)

	result := o.Generate(context.Background(), testRequest())

	// The panic is contained and the next provider still runs.
	require.True(t, result.Success)
	assert.Equal(t, "anthropic", result.Provider)

	require.Len(t, result.Attempts, 1)
	assert.Contains(t, result.Attempts[0].Error, "panicked")
	assert.Equal(t, []string{"check service configuration and authentication"}, result.Attempts[0].Suggestions)
}

// =============================================================================
// AVAILABILITY
// =============================================================================

func TestOrchestrator_Available(t *testing.T) {
	down := &fakeProvider{name: "ollama", health: HealthStatus{Available: false}}
	up := &fakeProvider{name: "anthropic", health: HealthStatus{Available: true}}

	assert.False(t, NewOrchestrator([]Provider{down}, time.Second).Available(context.Background()))
	assert.True(t, NewOrchestrator([]Provider{down, up}, time.Second).Available(context.Background()))
	assert.False(t, NewOrchestrator(nil, time.Second).Available(context.Background()))
}

// =============================================================================
// SERVICE - FULL PIPELINE
// =============================================================================

func TestService_ExecuteSuccess(t *testing.T) {
	provider := healthyProvider("ollama", "qwen2.5-coder:7b", Outcome{Success: true, Code: "#!/bin/bash\necho done"})
	svc := NewService(NewParser(testDefaults), NewOrchestrator([]Provider{provider}, time.Second))

	result, err := svc.Execute(context.Background(), ExecuteRequest{Prompt: "Hook Type: Stop\nUser Description: Announce"})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, EventStop, result.Request.EventType)
	assert.True(t, result.Generation.Success)
	assert.Equal(t, "#!/bin/bash\necho done", result.Generation.Code)
}

func TestService_ExecuteEmptyPrompt(t *testing.T) {
	svc := NewService(NewParser(testDefaults), NewOrchestrator(nil, time.Second))

	result, err := svc.Execute(context.Background(), ExecuteRequest{})

	require.Error(t, err)
	assert.Nil(t, result)
}

func TestService_ExecuteAllExhausted(t *testing.T) {
	provider := &fakeProvider{name: "ollama", health: HealthStatus{Available: false, Suggestions: []string{"start ollama"}}}
	svc := NewService(NewParser(testDefaults), NewOrchestrator([]Provider{provider}, time.Second))

	result, err := svc.Execute(context.Background(), ExecuteRequest{Prompt: "do a thing"})

	// The result is still returned so callers can record the attempts.
	require.Error(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Generation.Success)
	assert.Contains(t, err.Error(), "generation failed with all available services")
	assert.Contains(t, err.Error(), "start ollama")
}
