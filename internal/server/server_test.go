package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oselz/hookboard/internal/config"
	"github.com/oselz/hookboard/internal/events"
	"github.com/oselz/hookboard/internal/hookgen"
	"github.com/oselz/hookboard/internal/monitoring"
	"github.com/oselz/hookboard/internal/settings"
)

// stubProvider is a scriptable hookgen.Provider for handler tests.
type stubProvider struct {
	name    string
	model   string
	health  hookgen.HealthStatus
	outcome hookgen.Outcome
}

func (p *stubProvider) Name() string  { return p.name }
func (p *stubProvider) Model() string { return p.model }

func (p *stubProvider) HealthCheck(_ context.Context) hookgen.HealthStatus {
	return p.health
}

func (p *stubProvider) GenerateHookCode(_ context.Context, _ *hookgen.HookRequest) hookgen.Outcome {
	return p.outcome
}

func newTestServer(t *testing.T, providers ...hookgen.Provider) *httptest.Server {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		Server: config.ServerConfig{Port: 4519, ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second},
		Settings: config.SettingsConfig{
			UserSettingsPath:    filepath.Join(dir, "user.json"),
			ProjectSettingsPath: filepath.Join(dir, "project.json"),
			InstructionsPath:    filepath.Join(dir, "instructions.md"),
		},
	}

	logger := monitoring.New(monitoring.LoggerConfig{Level: "error", Format: "json", Output: "stderr"})
	tracker, err := monitoring.NewTracker(monitoring.TelemetryConfig{})
	require.NoError(t, err)

	svc := hookgen.NewService(
		hookgen.NewParser(hookgen.Defaults{}),
		hookgen.NewOrchestrator(providers, time.Second),
	)

	srv := New(cfg, Deps{
		Logger:   logger,
		Metrics:  monitoring.NewMetricsCollector(),
		Alerts:   monitoring.NewAlertManager(logger, monitoring.AlertConfig{}),
		Tracker:  tracker,
		Hub:      events.NewHub(logger),
		Service:  svc,
		Settings: settings.NewManager(cfg.Settings),
	})

	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// =============================================================================
// BASIC ENDPOINTS
// =============================================================================

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/health", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decodeBody(t, resp)["status"])
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/metrics", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body, "requests")
}

func TestSecurityHeadersAndCORS(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}

// =============================================================================
// HOOK GENERATION
// =============================================================================

func TestGenerateHook_Success(t *testing.T) {
	ts := newTestServer(t, &stubProvider{
		name:    "ollama",
		model:   "qwen2.5-coder:7b",
		health:  hookgen.HealthStatus{Available: true},
		outcome: hookgen.Outcome{Success: true, Code: "#!/bin/bash\necho hi"},
	})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/hooks/generate", map[string]string{
		"prompt": "Hook Type: Stop\nUser Description: Say done",
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "#!/bin/bash\necho hi", body["code"])
	assert.Equal(t, "ollama", body["provider"])
	assert.Equal(t, "Stop", body["event_type"])
}

func TestGenerateHook_InvalidHookType(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/hooks/generate", map[string]string{
		"prompt": "Hook Type: OnSave",
	})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "OnSave")
}

func TestGenerateHook_EmptyPrompt(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/hooks/generate", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateHook_AllProvidersFail(t *testing.T) {
	ts := newTestServer(t,
		&stubProvider{
			name:   "ollama",
			health: hookgen.HealthStatus{Available: false, Error: "down", Suggestions: []string{"start ollama"}},
		},
		&stubProvider{
			name:    "anthropic",
			health:  hookgen.HealthStatus{Available: true},
			outcome: hookgen.Outcome{Success: false, Error: "401", Suggestions: []string{"check the key"}},
		},
	)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/hooks/generate", map[string]string{
		"prompt": "do a thing",
	})

	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "generation failed with all available services", body["error"])

	attempts := body["attempts"].([]any)
	require.Len(t, attempts, 2)
	assert.Equal(t, "ollama", attempts[0].(map[string]any)["provider"])
	assert.Equal(t, "anthropic", attempts[1].(map[string]any)["provider"])

	suggestions := body["suggestions"].([]any)
	assert.Equal(t, []any{"start ollama", "check the key"}, suggestions)
}

func TestAvailability(t *testing.T) {
	ts := newTestServer(t, &stubProvider{
		name:   "ollama",
		model:  "qwen2.5-coder:7b",
		health: hookgen.HealthStatus{Available: false, Error: "down"},
	})

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/hooks/availability", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["available"])

	providers := body["providers"].([]any)
	require.Len(t, providers, 1)
	entry := providers[0].(map[string]any)
	assert.Equal(t, "ollama", entry["name"])
	assert.Equal(t, false, entry["available"])
	assert.Equal(t, "down", entry["error"])
}

// =============================================================================
// SETTINGS AND MCP
// =============================================================================

func TestSettingsGetAndPatch(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/settings/user", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPatch, ts.URL+"/api/settings/user", map[string]any{
		"path":  "theme",
		"value": "dark",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "dark", decodeBody(t, resp)["theme"])
}

func TestSettingsUnknownScope(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/settings/nope", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMCPServerLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/mcp/user/servers", map[string]any{
		"name":    "files",
		"command": "mcp-files",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/mcp/user/servers", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	servers := decodeBody(t, resp)["servers"].([]any)
	require.Len(t, servers, 1)
	assert.Equal(t, "files", servers[0].(map[string]any)["name"])

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/mcp/user/servers/files", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/mcp/user/servers/files", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInstructionsRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPut, ts.URL+"/api/instructions", map[string]string{
		"content": "# Rules\nBe careful.",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/instructions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "# Rules\nBe careful.", decodeBody(t, resp)["content"])
}

// =============================================================================
// STATS
// =============================================================================

func TestStatsDisabledWithoutStore(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/stats/usage", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/stats/recent", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
