// Wire types for the supported completion APIs.
//
// Each provider gets request/response structs plus an Extract*Response()
// that pulls the generated text out of the provider-specific envelope.
package llm

import "fmt"

// =============================================================================
// ANTHROPIC - Messages API (also used by Bedrock with Anthropic models)
// =============================================================================

// AnthropicMessage is a single message in the Messages API.
type AnthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AnthropicRequest is the Messages API request body.
type AnthropicRequest struct {
	Model            string             `json:"model,omitempty"`
	AnthropicVersion string             `json:"anthropic_version,omitempty"` // Bedrock only
	MaxTokens        int                `json:"max_tokens"`
	System           string             `json:"system,omitempty"`
	Messages         []AnthropicMessage `json:"messages"`
	Temperature      float64            `json:"temperature"`
}

// AnthropicResponse is the Messages API response body.
type AnthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// ExtractAnthropicResponse returns the first text block of the response.
func ExtractAnthropicResponse(resp *AnthropicResponse) (string, error) {
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("anthropic response contains no text content")
}

// =============================================================================
// OPENAI - Chat Completions API (also used by OpenAI-compatible endpoints)
// =============================================================================

// OpenAIMessage is a single chat message.
type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAIChatRequest is the Chat Completions request body.
type OpenAIChatRequest struct {
	Model               string          `json:"model"`
	Messages            []OpenAIMessage `json:"messages"`
	MaxCompletionTokens int             `json:"max_completion_tokens,omitempty"`
}

// OpenAIChatResponse is the Chat Completions response body.
type OpenAIChatResponse struct {
	Choices []struct {
		Message      OpenAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// ExtractOpenAIResponse returns the first choice's message content.
func ExtractOpenAIResponse(resp *OpenAIChatResponse) (string, error) {
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai response contains no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// =============================================================================
// GEMINI - generateContent API
// =============================================================================

// GeminiPart is a single content part.
type GeminiPart struct {
	Text string `json:"text"`
}

// GeminiContent is a role-tagged list of parts.
type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiGenerationConfig tunes generation.
type GeminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature"`
}

// GeminiRequest is the generateContent request body.
type GeminiRequest struct {
	SystemInstruction *GeminiContent          `json:"systemInstruction,omitempty"`
	Contents          []GeminiContent         `json:"contents"`
	GenerationConfig  *GeminiGenerationConfig `json:"generationConfig,omitempty"`
}

// GeminiResponse is the generateContent response body.
type GeminiResponse struct {
	Candidates []struct {
		Content      GeminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// ExtractGeminiResponse returns the first candidate's first text part.
func ExtractGeminiResponse(resp *GeminiResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini response contains no candidates")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			return part.Text, nil
		}
	}
	return "", fmt.Errorf("gemini response contains no text parts")
}
