// HTTP handlers for the dashboard API.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/oselz/hookboard/internal/hookgen"
	"github.com/oselz/hookboard/internal/monitoring"
	"github.com/oselz/hookboard/internal/settings"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, msg string, status int) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// writeRawJSON writes a body that is already JSON encoded.
func (s *Server) writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write response")
	}
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		requestID := monitoring.RequestIDFromContext(r.Context())
		s.alerts.FlagInvalidRequest(requestID, err.Error())
		s.writeError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.metrics.Stats())
}

// =============================================================================
// HOOK GENERATION
// =============================================================================

// generateAttempt is one provider attempt in the generation response.
type generateAttempt struct {
	Provider    string   `json:"provider"`
	Error       string   `json:"error,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// generateResponse is the body of POST /api/hooks/generate.
type generateResponse struct {
	Success         bool              `json:"success"`
	Code            string            `json:"code,omitempty"`
	Provider        string            `json:"provider,omitempty"`
	Model           string            `json:"model,omitempty"`
	EventType       string            `json:"event_type,omitempty"`
	DefaultedFields []string          `json:"defaulted_fields,omitempty"`
	Error           string            `json:"error,omitempty"`
	Attempts        []generateAttempt `json:"attempts,omitempty"`
	Suggestions     []string          `json:"suggestions,omitempty"`
}

func (s *Server) handleGenerateHook(w http.ResponseWriter, r *http.Request) {
	requestID := monitoring.RequestIDFromContext(r.Context())

	var req hookgen.ExecuteRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	start := time.Now()
	result, err := s.service.Execute(r.Context(), req)
	latency := time.Since(start)

	// A nil result means the request never reached the providers: empty
	// prompt or an unknown hook type.
	if result == nil {
		s.alerts.FlagInvalidRequest(requestID, err.Error())
		s.writeJSON(w, http.StatusBadRequest, generateResponse{Success: false, Error: err.Error()})
		return
	}

	gen := result.Generation
	event := s.buildGenerationEvent(requestID, req, result, latency)
	s.recordGeneration(r.Context(), requestID, event, result)

	resp := generateResponse{
		Success:         gen.Success,
		Code:            gen.Code,
		Provider:        gen.Provider,
		Model:           gen.Model,
		EventType:       string(result.Request.EventType),
		DefaultedFields: result.DefaultedFields,
	}

	if gen.Success {
		s.writeJSON(w, http.StatusOK, resp)
		return
	}

	resp.Error = gen.Error
	resp.Suggestions = gen.Suggestions
	for _, a := range gen.Attempts {
		resp.Attempts = append(resp.Attempts, generateAttempt{
			Provider:    a.Provider,
			Error:       a.Error,
			Suggestions: a.Suggestions,
		})
	}
	s.writeJSON(w, http.StatusBadGateway, resp)
}

// buildGenerationEvent assembles the telemetry event for one generation.
func (s *Server) buildGenerationEvent(requestID string, req hookgen.ExecuteRequest, result *hookgen.ExecuteResult, latency time.Duration) *monitoring.GenerationEvent {
	gen := result.Generation
	event := &monitoring.GenerationEvent{
		RequestID:       requestID,
		Timestamp:       time.Now().UTC(),
		EventType:       string(result.Request.EventType),
		Pattern:         result.Request.Pattern,
		Scope:           string(result.Request.Scope),
		Provider:        gen.Provider,
		Model:           gen.Model,
		DefaultedFields: result.DefaultedFields,
		PromptBytes:     len(req.Prompt),
		CodeBytes:       len(gen.Code),
		Success:         gen.Success,
		Error:           gen.Error,
		TotalLatencyMs:  latency.Milliseconds(),
	}
	if s.tokens != nil {
		event.PromptTokens = s.tokens.Count(req.Prompt)
		event.CodeTokens = s.tokens.Count(gen.Code)
	}
	for _, a := range gen.Attempts {
		event.Attempts = append(event.Attempts, monitoring.ProviderAttempt{
			Provider: a.Provider,
			Error:    a.Error,
		})
	}
	if gen.Success {
		event.Attempts = append(event.Attempts, monitoring.ProviderAttempt{
			Provider: gen.Provider,
			Success:  true,
		})
	}
	return event
}

// recordGeneration fans the event out to metrics, telemetry, the stats
// store, alerts, and live subscribers. Recording failures never fail the
// request.
func (s *Server) recordGeneration(ctx context.Context, requestID string, event *monitoring.GenerationEvent, result *hookgen.ExecuteResult) {
	gen := result.Generation

	// Fallback means the winner was not the first provider tried.
	fallback := gen.Success && len(gen.Attempts) > 0
	s.metrics.RecordGeneration(gen.Success, fallback)
	s.metrics.RecordParseDefaults(len(result.DefaultedFields))

	for _, a := range gen.Attempts {
		s.alerts.FlagProviderError(requestID, a.Provider, a.Error)
	}
	if !gen.Success {
		s.alerts.FlagGenerationFailure(requestID, len(gen.Attempts), gen.Err())
	}

	s.tracker.RecordGeneration(event)
	if s.store != nil {
		if err := s.store.RecordGeneration(ctx, event); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to persist generation record")
		}
	}
	s.hub.Broadcast(event)
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	available := s.service.Available(r.Context())

	providers := []map[string]any{}
	for _, p := range s.service.Orchestrator().Providers() {
		status := p.HealthCheck(r.Context())
		entry := map[string]any{
			"name":      p.Name(),
			"model":     p.Model(),
			"available": status.Available,
		}
		if status.Error != "" {
			entry["error"] = status.Error
		}
		providers = append(providers, entry)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"available": available,
		"providers": providers,
	})
}

// =============================================================================
// SETTINGS AND MCP SERVERS
// =============================================================================

func (s *Server) settingsEvent(r *http.Request, scope, op, path string, err error) {
	event := &monitoring.SettingsEvent{
		RequestID: monitoring.RequestIDFromContext(r.Context()),
		Timestamp: time.Now().UTC(),
		Scope:     scope,
		Operation: op,
		Path:      path,
		Success:   err == nil,
	}
	if err != nil {
		event.Error = err.Error()
	}
	s.tracker.RecordSettings(event)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	scope := r.PathValue("scope")
	data, err := s.settings.ReadSettings(scope)
	s.settingsEvent(r, scope, "read", "", err)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeRawJSON(w, http.StatusOK, data)
}

// patchSettingsRequest is the body of PATCH /api/settings/{scope}.
type patchSettingsRequest struct {
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}

func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	scope := r.PathValue("scope")

	var req patchSettingsRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	err := s.settings.PatchSettings(scope, req.Path, req.Value)
	s.settingsEvent(r, scope, "patch", req.Path, err)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := s.settings.ReadSettings(scope)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeRawJSON(w, http.StatusOK, data)
}

func (s *Server) handleGetInstructions(w http.ResponseWriter, r *http.Request) {
	content, err := s.settings.ReadInstructions()
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"content": content})
}

type putInstructionsRequest struct {
	Content string `json:"content"`
}

func (s *Server) handlePutInstructions(w http.ResponseWriter, r *http.Request) {
	var req putInstructionsRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := s.settings.WriteInstructions(req.Content); err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListMCPServers(w http.ResponseWriter, r *http.Request) {
	scope := r.PathValue("scope")
	servers, err := s.settings.ListMCPServers(scope)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"servers": servers})
}

func (s *Server) handleAddMCPServer(w http.ResponseWriter, r *http.Request) {
	scope := r.PathValue("scope")

	var srv settings.MCPServer
	if !s.decodeJSON(w, r, &srv) {
		return
	}

	err := s.settings.AddMCPServer(scope, srv)
	s.settingsEvent(r, scope, "mcp_add", srv.Name, err)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"status": "ok", "name": srv.Name})
}

func (s *Server) handleRemoveMCPServer(w http.ResponseWriter, r *http.Request) {
	scope := r.PathValue("scope")
	name := r.PathValue("name")

	err := s.settings.RemoveMCPServer(scope, name)
	s.settingsEvent(r, scope, "mcp_remove", name, err)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// USAGE STATISTICS
// =============================================================================

func (s *Server) handleUsageStats(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, "stats store is disabled", http.StatusServiceUnavailable)
		return
	}
	summary, err := s.store.Usage(r.Context())
	if err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRecentGenerations(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, "stats store is disabled", http.StatusServiceUnavailable)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	records, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"generations": records})
}
