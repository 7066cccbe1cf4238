// Cloud completion provider.
//
// Wraps the shared llm client for Anthropic, OpenAI, Gemini and Bedrock
// endpoints. Cloud readiness is assumed when a credential is configured -
// the health check does not make a network call, so transient API problems
// surface as ordinary generation failures.
package hookgen

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/oselz/hookboard/internal/config"
	"github.com/oselz/hookboard/internal/llm"
)

// CloudProvider generates hook code through a cloud completion API.
type CloudProvider struct {
	name       string
	kind       string
	apiKey     string
	model      string
	endpoint   string
	maxTokens  int
	httpClient *http.Client // non-nil only for Bedrock (SigV4 signing)
	initErr    error        // Bedrock transport construction failure, reported via HealthCheck
}

// NewCloudProvider creates a provider from a resolved provider config.
// Bedrock providers get a SigV4 signing HTTP client; a failure to build it
// is captured and reported through HealthCheck rather than returned here.
func NewCloudProvider(rp *config.ResolvedProvider, maxTokens int) *CloudProvider {
	p := &CloudProvider{
		name:      rp.Provider,
		kind:      rp.Kind,
		apiKey:    rp.APIKey,
		model:     rp.Model,
		endpoint:  rp.Endpoint,
		maxTokens: maxTokens,
	}
	if maxTokens <= 0 {
		p.maxTokens = 4096
	}

	if rp.Kind == "bedrock" {
		transport, err := llm.NewBedrockSigningTransport(awsRegion(), nil)
		if err != nil {
			p.initErr = err
		} else {
			p.httpClient = &http.Client{Transport: transport}
		}
	}

	return p
}

func awsRegion() string {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	return region
}

// Name returns the configured provider name.
func (p *CloudProvider) Name() string { return p.name }

// Model returns the configured model identifier.
func (p *CloudProvider) Model() string { return p.model }

// HealthCheck reports availability based on credential presence. No
// network probe is made.
func (p *CloudProvider) HealthCheck(ctx context.Context) HealthStatus {
	if p.initErr != nil {
		return HealthStatus{
			Available:   false,
			Error:       fmt.Sprintf("%s credentials unavailable: %v", p.name, p.initErr),
			Suggestions: []string{"configure AWS credentials for the Bedrock provider"},
		}
	}
	if p.kind != "bedrock" && p.apiKey == "" {
		return HealthStatus{
			Available:   false,
			Error:       fmt.Sprintf("no API credential configured for %s", p.name),
			Suggestions: []string{fmt.Sprintf("set the %s api_key in the config or environment", p.name)},
		}
	}
	return HealthStatus{Available: true}
}

// GenerateHookCode calls the cloud completion API. All transport and
// parsing failures are folded into the returned Outcome.
func (p *CloudProvider) GenerateHookCode(ctx context.Context, hookReq *HookRequest) Outcome {
	result, err := llm.Call(ctx, llm.Params{
		Provider:     p.kind,
		Endpoint:     p.endpoint,
		APIKey:       p.apiKey,
		Model:        p.model,
		SystemPrompt: BuildSystemPrompt(),
		UserPrompt:   BuildUserPrompt(hookReq),
		MaxTokens:    p.maxTokens,
		HTTPClient:   p.httpClient,
	})
	if err != nil {
		return failedOutcome(
			fmt.Sprintf("%s generation failed: %v", p.name, err),
			[]string{fmt.Sprintf("verify the %s API key and endpoint", p.name)},
		)
	}

	code := ExtractCode(result.Content)
	if code == "" {
		return failedOutcome(fmt.Sprintf("%s returned an empty completion", p.name), nil)
	}

	return Outcome{Success: true, Code: code}
}

// Ensure CloudProvider implements Provider
var _ Provider = (*CloudProvider)(nil)
