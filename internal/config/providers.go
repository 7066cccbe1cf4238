// Provider configuration - LLM provider credentials and endpoints.
//
// DESIGN: Providers are declared as a name → config map. The generation
// priority list references providers by name, so adding a provider is a
// config change, not an orchestration change.
package config

import (
	"fmt"
	"strings"
)

// ProviderConfig holds one LLM provider's credentials and endpoint.
type ProviderConfig struct {
	// Kind selects the wire protocol: "ollama", "anthropic", "openai",
	// "gemini", "bedrock". Defaults to the provider name when empty.
	Kind string `yaml:"kind,omitempty"`

	// APIKey for cloud providers. Empty for local providers and Bedrock
	// (Bedrock uses the AWS credential chain via SigV4 signing).
	APIKey string `yaml:"api_key,omitempty"`

	// Model identifier sent with generation requests.
	Model string `yaml:"model"`

	// Endpoint overrides the auto-resolved endpoint URL.
	Endpoint string `yaml:"endpoint,omitempty"`
}

// ProvidersConfig maps provider name → config.
type ProvidersConfig map[string]ProviderConfig

// ResolvedProvider is a provider config with name and endpoint resolved.
type ResolvedProvider struct {
	Provider string
	Kind     string
	APIKey   string
	Model    string
	Endpoint string
}

// ResolveProviderEndpoint returns the default API endpoint for a provider kind.
// Unknown kinds fall back to the OpenAI-compatible chat completions path.
func ResolveProviderEndpoint(kind, model string) string {
	switch kind {
	case "anthropic":
		return "https://api.anthropic.com/v1/messages"
	case "gemini":
		return fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", model)
	case "ollama":
		return "http://localhost:11434/api/chat"
	default:
		return "https://api.openai.com/v1/chat/completions"
	}
}

// GetKind returns the effective provider kind for this config.
func (p ProviderConfig) GetKind(name string) string {
	if p.Kind != "" {
		return p.Kind
	}
	return name
}

// GetEndpoint returns the endpoint to use, preferring the configured
// override and falling back to auto-resolution.
func (p ProviderConfig) GetEndpoint(name string) string {
	if p.Endpoint != "" {
		return p.Endpoint
	}
	return ResolveProviderEndpoint(p.GetKind(name), p.Model)
}

// IsLocal reports whether the provider runs on the local machine and
// needs a reachability probe before use.
func (p ProviderConfig) IsLocal(name string) bool {
	kind := p.GetKind(name)
	return kind == "ollama" || strings.Contains(p.Endpoint, "localhost") || strings.Contains(p.Endpoint, "127.0.0.1")
}

// Validate checks every declared provider.
func (pc ProvidersConfig) Validate() error {
	for name, p := range pc {
		if name == "" {
			return fmt.Errorf("providers: empty provider name")
		}
		if p.Model == "" {
			return fmt.Errorf("providers.%s: model is required", name)
		}
		// API keys may be empty: local providers and Bedrock don't use them.
	}
	return nil
}

// ResolveProvider resolves a named provider's full configuration.
func (c *Config) ResolveProvider(name string) (*ResolvedProvider, error) {
	if name == "" {
		return nil, fmt.Errorf("provider name is required")
	}
	p, ok := c.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider '%s' is not defined in providers", name)
	}
	return &ResolvedProvider{
		Provider: name,
		Kind:     p.GetKind(name),
		APIKey:   p.APIKey,
		Model:    p.Model,
		Endpoint: p.GetEndpoint(name),
	}, nil
}

// ValidateGeneration checks the generation priority list against the
// declared providers.
func (c *Config) ValidateGeneration() error {
	if len(c.Generation.Priority) == 0 {
		return fmt.Errorf("generation.priority requires at least one provider")
	}
	seen := make(map[string]bool)
	for _, name := range c.Generation.Priority {
		if seen[name] {
			return fmt.Errorf("generation.priority: provider '%s' listed twice", name)
		}
		seen[name] = true
		if _, ok := c.Providers[name]; !ok {
			return fmt.Errorf("generation.priority references undefined provider '%s'", name)
		}
	}
	return nil
}

// CloudCredentialPresent reports whether any non-local provider in the
// priority list has a usable credential. Bedrock counts as credentialed
// since it authenticates via the AWS credential chain.
func (c *Config) CloudCredentialPresent() bool {
	for _, name := range c.Generation.Priority {
		p, ok := c.Providers[name]
		if !ok || p.IsLocal(name) {
			continue
		}
		if p.APIKey != "" || p.GetKind(name) == "bedrock" {
			return true
		}
	}
	return false
}
