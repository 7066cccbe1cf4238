// Local Ollama provider.
//
// Health is probed via GET /api/tags (cheap, no model load). Generation
// uses the /api/chat endpoint with streaming disabled. A per-request
// service URL from the prompt overrides the configured base URL.
package hookgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const ollamaMaxResponseSize = 4 * 1024 * 1024

// OllamaProvider generates hook code with a locally running Ollama service.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaProvider creates a provider for the Ollama service at baseURL.
func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	return &OllamaProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{}, // timeouts come from the caller's context
	}
}

// Name returns "ollama".
func (p *OllamaProvider) Name() string { return "ollama" }

// Model returns the configured model identifier.
func (p *OllamaProvider) Model() string { return p.model }

// HealthCheck probes the Ollama tags endpoint.
func (p *OllamaProvider) HealthCheck(ctx context.Context) HealthStatus {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return HealthStatus{Available: false, Error: fmt.Sprintf("invalid ollama URL: %v", err), Suggestions: ollamaSuggestions()}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return HealthStatus{Available: false, Error: fmt.Sprintf("ollama unreachable: %v", err), Suggestions: ollamaSuggestions()}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, ollamaMaxResponseSize))

	if resp.StatusCode != http.StatusOK {
		return HealthStatus{
			Available:   false,
			Error:       fmt.Sprintf("ollama returned status %d", resp.StatusCode),
			Suggestions: ollamaSuggestions(),
		}
	}

	return HealthStatus{Available: true}
}

func ollamaSuggestions() []string {
	return []string{
		"start the local Ollama service (ollama serve)",
		"check the configured ollama_url",
	}
}

// ollamaChatRequest is the /api/chat request body.
type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ollamaChatResponse is the non-streaming /api/chat response body.
type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
	Error   string            `json:"error"`
}

// GenerateHookCode asks the local model for hook code. All transport and
// parsing failures are folded into the returned Outcome.
func (p *OllamaProvider) GenerateHookCode(ctx context.Context, hookReq *HookRequest) Outcome {
	endpoint := p.baseURL
	if u := hookReq.ServiceURL(ServiceOllama); u != "" {
		endpoint = strings.TrimSuffix(u, "/")
	}

	body, err := json.Marshal(&ollamaChatRequest{
		Model: p.model,
		Messages: []ollamaChatMessage{
			{Role: "system", Content: BuildSystemPrompt()},
			{Role: "user", Content: BuildUserPrompt(hookReq)},
		},
		Stream: false,
	})
	if err != nil {
		return failedOutcome(fmt.Sprintf("failed to build ollama request: %v", err), ollamaSuggestions())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return failedOutcome(fmt.Sprintf("invalid ollama URL: %v", err), ollamaSuggestions())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return failedOutcome(fmt.Sprintf("ollama request failed: %v", err), ollamaSuggestions())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, ollamaMaxResponseSize))
	if err != nil {
		return failedOutcome(fmt.Sprintf("failed to read ollama response: %v", err), nil)
	}

	if resp.StatusCode != http.StatusOK {
		return failedOutcome(
			fmt.Sprintf("ollama returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200)),
			[]string{fmt.Sprintf("pull the model locally (ollama pull %s)", p.model)},
		)
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return failedOutcome(fmt.Sprintf("failed to parse ollama response: %v", err), nil)
	}
	if chatResp.Error != "" {
		return failedOutcome(
			fmt.Sprintf("ollama error: %s", chatResp.Error),
			[]string{fmt.Sprintf("pull the model locally (ollama pull %s)", p.model)},
		)
	}

	code := ExtractCode(chatResp.Message.Content)
	if code == "" {
		return failedOutcome("ollama returned an empty completion", nil)
	}

	return Outcome{Success: true, Code: code}
}

func failedOutcome(errMsg string, suggestions []string) Outcome {
	return Outcome{Success: false, Error: errMsg, Suggestions: suggestions}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Ensure OllamaProvider implements Provider
var _ Provider = (*OllamaProvider)(nil)
