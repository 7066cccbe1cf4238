// Package llm is the API client for cloud completion backends.
//
// Call is the single entry point for calling any supported LLM provider
// (Anthropic, OpenAI, Gemini, Bedrock) for text generation.
//
// ADDING A NEW PROVIDER:
//  1. Add types to types.go (XRequest, XResponse) with an Extract*Response()
//  2. Add case to DetectProvider(), setAuthHeaders(), buildRequestBody(), parseResponse()
//  3. Add unit tests in llm_test.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout for LLM API calls.
	DefaultTimeout = 60 * time.Second

	// maxResponseSize prevents OOM on unexpectedly large API responses (10MB).
	maxResponseSize = 10 * 1024 * 1024

	// maxErrorBodyLen limits error body in error messages to avoid log bloat.
	maxErrorBodyLen = 500

	// anthropicVersion is the Anthropic API version header value.
	anthropicVersion = "2023-06-01"
)

// Params contains parameters for calling an LLM provider.
type Params struct {
	// Provider overrides auto-detection. One of: "anthropic", "openai",
	// "gemini", "bedrock". If empty, provider is detected from the Endpoint URL.
	Provider string

	Endpoint     string
	APIKey       string // API key (x-api-key for Anthropic, x-goog-api-key for Gemini)
	Model        string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Timeout      time.Duration

	// ExtraHeaders are added to the request.
	ExtraHeaders map[string]string

	// HTTPClient overrides the default HTTP client (useful for testing and
	// connection pooling). If nil, a default client is created with
	// context-based timeout. For Bedrock, an HTTPClient with a SigV4
	// signing transport should be provided.
	HTTPClient *http.Client
}

// validate checks that required fields are present and sets defaults.
func (p *Params) validate() error {
	if p.Endpoint == "" {
		return fmt.Errorf("endpoint required")
	}
	// Bedrock uses SigV4 signing via HTTPClient transport, not an API key.
	if p.APIKey == "" && p.Provider != "bedrock" {
		return fmt.Errorf("api key required")
	}
	if p.Model == "" {
		return fmt.Errorf("model required")
	}
	if p.Timeout == 0 {
		p.Timeout = DefaultTimeout
	}
	return nil
}

// Result contains the response from an LLM call.
type Result struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Provider     string
}

// Call invokes an LLM provider for text generation.
//
// Provider detection (when params.Provider is empty):
//   - "anthropic" in URL → Anthropic Messages API
//   - "generativelanguage.googleapis.com" in URL → Gemini generateContent API
//   - "bedrock" in URL → Bedrock (Anthropic Messages format, SigV4 auth)
//   - otherwise → OpenAI Chat Completions API
//
// For proxy/custom endpoints where the URL doesn't identify the provider,
// set params.Provider explicitly.
func Call(ctx context.Context, params Params) (*Result, error) {
	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("invalid llm call params: %w", err)
	}

	provider := params.Provider
	if provider == "" {
		provider = DetectProvider(params.Endpoint)
	}

	body, err := buildRequestBody(provider, params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", provider, err)
	}

	ctx, cancel := context.WithTimeout(ctx, params.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, params.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", provider, err)
	}

	req.Header.Set("Content-Type", "application/json")
	setAuthHeaders(req, provider, params.APIKey)
	for k, v := range params.ExtraHeaders {
		req.Header.Set(k, v)
	}

	client := params.HTTPClient
	if client == nil {
		client = &http.Client{} // timeout via context, not client
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", provider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", provider, err)
	}

	if resp.StatusCode != http.StatusOK {
		errBody := string(respBody)
		if len(errBody) > maxErrorBodyLen {
			errBody = errBody[:maxErrorBodyLen] + "... (truncated)"
		}
		return nil, fmt.Errorf("%s API returned status %d: %s", provider, resp.StatusCode, errBody)
	}

	return parseResponse(provider, respBody)
}

// DetectProvider infers the LLM provider from an endpoint URL.
// Exported for testing. For production use, prefer setting Provider explicitly.
func DetectProvider(endpoint string) string {
	switch {
	case strings.Contains(endpoint, "bedrock-runtime") || strings.Contains(endpoint, "bedrock"):
		return "bedrock"
	case strings.Contains(endpoint, "anthropic"):
		return "anthropic"
	case strings.Contains(endpoint, "generativelanguage.googleapis.com"):
		return "gemini"
	default:
		return "openai"
	}
}

func setAuthHeaders(req *http.Request, provider, apiKey string) {
	switch provider {
	case "anthropic":
		req.Header.Set("x-api-key", apiKey)
		req.Header.Set("anthropic-version", anthropicVersion)
	case "bedrock":
		// Bedrock auth is handled by the SigV4 signing transport in the
		// HTTPClient. No API key headers needed.
	case "gemini":
		req.Header.Set("x-goog-api-key", apiKey)
	default: // openai
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))
	}
}

// Temperature strategy: 0.2 for mostly-deterministic code output.
// OpenAI o-series models (o1, o3) reject the temperature field, so
// it is omitted for OpenAI.
func buildRequestBody(provider string, params Params) ([]byte, error) {
	switch provider {
	case "anthropic", "bedrock":
		// Bedrock with Anthropic models uses the same Messages API format.
		// The anthropic_version field uses bedrock-2023-05-31 for Bedrock.
		req := &AnthropicRequest{
			Model:       params.Model,
			MaxTokens:   params.MaxTokens,
			System:      params.SystemPrompt,
			Messages:    []AnthropicMessage{{Role: "user", Content: params.UserPrompt}},
			Temperature: 0.2,
		}
		if provider == "bedrock" {
			req.AnthropicVersion = "bedrock-2023-05-31"
		}
		return json.Marshal(req)
	case "gemini":
		return json.Marshal(&GeminiRequest{
			SystemInstruction: &GeminiContent{
				Parts: []GeminiPart{{Text: params.SystemPrompt}},
			},
			Contents: []GeminiContent{
				{Role: "user", Parts: []GeminiPart{{Text: params.UserPrompt}}},
			},
			GenerationConfig: &GeminiGenerationConfig{
				MaxOutputTokens: params.MaxTokens,
				Temperature:     0.2,
			},
		})
	default: // openai, no temperature field
		return json.Marshal(&OpenAIChatRequest{
			Model: params.Model,
			Messages: []OpenAIMessage{
				{Role: "system", Content: params.SystemPrompt},
				{Role: "user", Content: params.UserPrompt},
			},
			MaxCompletionTokens: params.MaxTokens,
		})
	}
}

func parseResponse(provider string, body []byte) (*Result, error) {
	result := &Result{Provider: provider}

	switch provider {
	case "anthropic", "bedrock":
		// Bedrock with Anthropic models returns the same response format
		var resp AnthropicResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse %s response: %w", provider, err)
		}
		content, err := ExtractAnthropicResponse(&resp)
		if err != nil {
			return nil, err
		}
		result.Content = content
		result.InputTokens = resp.Usage.InputTokens
		result.OutputTokens = resp.Usage.OutputTokens

	case "gemini":
		var resp GeminiResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse %s response: %w", provider, err)
		}
		content, err := ExtractGeminiResponse(&resp)
		if err != nil {
			return nil, err
		}
		result.Content = content
		result.InputTokens = resp.UsageMetadata.PromptTokenCount
		result.OutputTokens = resp.UsageMetadata.CandidatesTokenCount

	default: // openai
		var resp OpenAIChatResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse %s response: %w", provider, err)
		}
		content, err := ExtractOpenAIResponse(&resp)
		if err != nil {
			return nil, err
		}
		result.Content = content
		result.InputTokens = resp.Usage.PromptTokens
		result.OutputTokens = resp.Usage.CompletionTokens
	}

	return result, nil
}
