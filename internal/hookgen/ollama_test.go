package hookgen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ollamaTestServer(t *testing.T, chatHandler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models": []}`))
	})
	if chatHandler != nil {
		mux.HandleFunc("/api/chat", chatHandler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestOllamaProvider_HealthCheck(t *testing.T) {
	server := ollamaTestServer(t, nil)

	p := NewOllamaProvider(server.URL, "qwen2.5-coder:7b")
	status := p.HealthCheck(context.Background())

	assert.True(t, status.Available)
	assert.Empty(t, status.Error)
}

func TestOllamaProvider_HealthCheckUnreachable(t *testing.T) {
	// Nothing listens on this port.
	p := NewOllamaProvider("http://127.0.0.1:1", "qwen2.5-coder:7b")
	status := p.HealthCheck(context.Background())

	assert.False(t, status.Available)
	assert.Contains(t, status.Error, "unreachable")
	assert.Contains(t, status.Suggestions, "start the local Ollama service (ollama serve)")
}

func TestOllamaProvider_GenerateHookCode(t *testing.T) {
	server := ollamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "qwen2.5-coder:7b", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaChatMessage{Role: "assistant", Content: "```bash\n#!/bin/bash\necho hi\n```"},
		})
	})

	p := NewOllamaProvider(server.URL, "qwen2.5-coder:7b")
	outcome := p.GenerateHookCode(context.Background(), testRequest())

	require.True(t, outcome.Success)
	// Markdown fences are stripped.
	assert.Equal(t, "#!/bin/bash\necho hi", outcome.Code)
}

func TestOllamaProvider_RequestURLOverride(t *testing.T) {
	var hits int
	override := ollamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaChatMessage{Content: "#!/bin/bash\ntrue"},
		})
	})

	// Configured base URL points nowhere; the per-request URL wins.
	p := NewOllamaProvider("http://127.0.0.1:1", "qwen2.5-coder:7b")

	req := testRequest()
	req.Services = map[string]string{ServiceOllama: override.URL}
	outcome := p.GenerateHookCode(context.Background(), req)

	require.True(t, outcome.Success)
	assert.Equal(t, 1, hits)
}

func TestOllamaProvider_ModelMissing(t *testing.T) {
	server := ollamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "model not found"}`, http.StatusNotFound)
	})

	p := NewOllamaProvider(server.URL, "missing-model")
	outcome := p.GenerateHookCode(context.Background(), testRequest())

	require.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "404")
	assert.Contains(t, outcome.Suggestions, "pull the model locally (ollama pull missing-model)")
}

func TestOllamaProvider_EmptyCompletion(t *testing.T) {
	server := ollamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaChatResponse{})
	})

	p := NewOllamaProvider(server.URL, "qwen2.5-coder:7b")
	outcome := p.GenerateHookCode(context.Background(), testRequest())

	require.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "empty completion")
}
