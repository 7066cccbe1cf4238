package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// PROVIDER DETECTION
// =============================================================================

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		endpoint string
		expected string
	}{
		{"https://api.anthropic.com/v1/messages", "anthropic"},
		{"https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent", "gemini"},
		{"https://bedrock-runtime.us-east-1.amazonaws.com/model/x/invoke", "bedrock"},
		{"https://api.openai.com/v1/chat/completions", "openai"},
		{"http://localhost:8000/v1/chat/completions", "openai"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, DetectProvider(tt.endpoint), tt.endpoint)
	}
}

// =============================================================================
// PARAMETER VALIDATION
// =============================================================================

func TestCall_ParamValidation(t *testing.T) {
	ctx := context.Background()

	_, err := Call(ctx, Params{APIKey: "k", Model: "m"})
	assert.ErrorContains(t, err, "endpoint required")

	_, err = Call(ctx, Params{Endpoint: "https://api.anthropic.com/v1/messages", Model: "m"})
	assert.ErrorContains(t, err, "api key required")

	_, err = Call(ctx, Params{Endpoint: "https://api.anthropic.com/v1/messages", APIKey: "k"})
	assert.ErrorContains(t, err, "model required")
}

func TestCall_BedrockNeedsNoAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("x-api-key"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var req AnthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "bedrock-2023-05-31", req.AnthropicVersion)

		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{{"type": "text", "text": "ok"}},
		})
	}))
	defer server.Close()

	result, err := Call(context.Background(), Params{
		Provider:   "bedrock",
		Endpoint:   server.URL,
		Model:      "anthropic.claude-3",
		UserPrompt: "hi",
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result.Content)
}

// =============================================================================
// ANTHROPIC CALLS
// =============================================================================

func TestCall_Anthropic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req AnthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-sonnet-4", req.Model)
		assert.Equal(t, "system text", req.System)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user text", req.Messages[0].Content)
		assert.Equal(t, 0.2, req.Temperature)
		assert.Empty(t, req.AnthropicVersion)

		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{{"type": "text", "text": "#!/bin/bash\necho hi"}},
			"usage":   map[string]int{"input_tokens": 12, "output_tokens": 34},
		})
	}))
	defer server.Close()

	result, err := Call(context.Background(), Params{
		Provider:     "anthropic",
		Endpoint:     server.URL,
		APIKey:       "sk-ant-test",
		Model:        "claude-sonnet-4",
		SystemPrompt: "system text",
		UserPrompt:   "user text",
		MaxTokens:    4096,
	})

	require.NoError(t, err)
	assert.Equal(t, "#!/bin/bash\necho hi", result.Content)
	assert.Equal(t, 12, result.InputTokens)
	assert.Equal(t, 34, result.OutputTokens)
	assert.Equal(t, "anthropic", result.Provider)
}

func TestCall_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "invalid api key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := Call(context.Background(), Params{
		Provider:   "anthropic",
		Endpoint:   server.URL,
		APIKey:     "bad",
		Model:      "claude-sonnet-4",
		UserPrompt: "hi",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid api key")
}

// =============================================================================
// OPENAI CALLS
// =============================================================================

func TestCall_OpenAI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		// o-series models reject the temperature field, so it is omitted.
		assert.NotContains(t, string(raw), "temperature")

		var req OpenAIChatRequest
		require.NoError(t, json.Unmarshal(raw, &req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "generated"}},
			},
			"usage": map[string]int{"prompt_tokens": 5, "completion_tokens": 7},
		})
	}))
	defer server.Close()

	result, err := Call(context.Background(), Params{
		Provider:     "openai",
		Endpoint:     server.URL,
		APIKey:       "sk-test",
		Model:        "gpt-4o",
		SystemPrompt: "sys",
		UserPrompt:   "usr",
	})

	require.NoError(t, err)
	assert.Equal(t, "generated", result.Content)
	assert.Equal(t, 5, result.InputTokens)
	assert.Equal(t, 7, result.OutputTokens)
}

// =============================================================================
// RESPONSE EXTRACTORS
// =============================================================================

func TestExtractAnthropicResponse_NoText(t *testing.T) {
	_, err := ExtractAnthropicResponse(&AnthropicResponse{})
	assert.Error(t, err)
}

func TestExtractOpenAIResponse_NoChoices(t *testing.T) {
	_, err := ExtractOpenAIResponse(&OpenAIChatResponse{})
	assert.Error(t, err)
}

func TestExtractGeminiResponse(t *testing.T) {
	resp := &GeminiResponse{}
	_, err := ExtractGeminiResponse(resp)
	assert.Error(t, err)

	resp.Candidates = []struct {
		Content      GeminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	}{
		{Content: GeminiContent{Parts: []GeminiPart{{Text: "hello"}}}},
	}
	text, err := ExtractGeminiResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}
