// Top-level generation service - the inbound call surface.
//
// DESIGN: Execute parses the prompt and runs the orchestrator. On failure
// the caller receives ONE error embedding the aggregate reason and every
// remediation suggestion. Placeholder or fallback hook code is never
// substituted - a failed generation is an observable failure.
package hookgen

import (
	"context"
	"fmt"
)

// ExecuteRequest is the inbound generation call. Description and
// SubagentType are carried by the hook-builder UI but unused by the core.
type ExecuteRequest struct {
	Description  string `json:"description"`
	Prompt       string `json:"prompt"`
	SubagentType string `json:"subagent_type"`
}

// ExecuteResult is the outcome of one Execute call, for telemetry and the
// dashboard response.
type ExecuteResult struct {
	Request         *HookRequest
	DefaultedFields []string
	Generation      *Result
}

// Service wires the parser and orchestrator together.
type Service struct {
	parser       *Parser
	orchestrator *Orchestrator
}

// NewService creates the generation service.
func NewService(parser *Parser, orchestrator *Orchestrator) *Service {
	return &Service{parser: parser, orchestrator: orchestrator}
}

// Orchestrator exposes the underlying orchestrator for availability checks.
func (s *Service) Orchestrator() *Orchestrator {
	return s.orchestrator
}

// Execute runs the full pipeline. The returned ExecuteResult is always
// non-nil when parsing succeeded, even on generation failure, so callers
// can record every attempt. The error is non-nil iff the prompt was invalid
// or all providers were exhausted.
func (s *Service) Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResult, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	hookReq, defaulted, err := s.parser.Parse(req.Prompt)
	if err != nil {
		return nil, err
	}

	result := s.orchestrator.Generate(ctx, hookReq)
	execResult := &ExecuteResult{
		Request:         hookReq,
		DefaultedFields: defaulted,
		Generation:      result,
	}

	if !result.Success {
		return execResult, result.Err()
	}
	return execResult, nil
}

// Available reports whether generation is currently possible. Optimistic:
// a true result does not guarantee a subsequent Execute succeeds.
func (s *Service) Available(ctx context.Context) bool {
	return s.orchestrator.Available(ctx)
}
