// Package hookgen generates automation hook scripts via LLM providers.
//
// DESIGN: A free-form prompt (built by the dashboard's hook-builder UI) is
// parsed into a HookRequest, then an ordered list of providers is tried in
// priority order until one produces code:
//
//	Execute → Parser → Orchestrator → [local provider, cloud provider, ...]
//
// Per-provider failures are recorded, never thrown; only the terminal
// all-providers-exhausted condition surfaces as an error to the caller.
// There is no fallback/placeholder code on failure - failed generation is
// an observable failure.
package hookgen

import "fmt"

// EventType identifies which assistant lifecycle event triggers a hook.
type EventType string

// The fixed set of hook events.
const (
	EventPreToolUse   EventType = "PreToolUse"
	EventPostToolUse  EventType = "PostToolUse"
	EventNotification EventType = "Notification"
	EventStop         EventType = "Stop"
	EventSubagentStop EventType = "SubagentStop"
)

// DefaultEventType is used when a prompt does not name a hook type.
const DefaultEventType = EventNotification

// knownEventTypes is the closed enumeration for validation.
var knownEventTypes = map[EventType]bool{
	EventPreToolUse:   true,
	EventPostToolUse:  true,
	EventNotification: true,
	EventStop:         true,
	EventSubagentStop: true,
}

// ParseEventType validates a hook type string against the fixed enumeration.
// Unrecognized values are rejected rather than passed through.
func ParseEventType(s string) (EventType, error) {
	et := EventType(s)
	if !knownEventTypes[et] {
		return "", fmt.Errorf("unknown hook type %q (expected one of PreToolUse, PostToolUse, Notification, Stop, SubagentStop)", s)
	}
	return et, nil
}

// Scope says whether a hook belongs to the user or the current project.
type Scope string

const (
	ScopeUser    Scope = "user"
	ScopeProject Scope = "project"
)

// Service name keys for HookRequest.Services.
const (
	ServiceOllama = "ollama"
	ServiceTTS    = "tts"
)

// ProjectInfo carries optional project context from the prompt.
type ProjectInfo struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Config string `json:"config,omitempty"`
}

// HookRequest is the normalized generation request. It is constructed once
// per generation call from the raw prompt, is immutable after construction,
// and is never persisted.
type HookRequest struct {
	EventType   EventType         `json:"event_type"`
	Pattern     string            `json:"pattern"`
	Scope       Scope             `json:"scope"`
	Description string            `json:"description"`
	Project     *ProjectInfo      `json:"project,omitempty"`
	Services    map[string]string `json:"services"` // service name → endpoint URL
}

// ServiceURL returns the resolved URL for a named service, or "" if absent.
func (r *HookRequest) ServiceURL(name string) string {
	if r.Services == nil {
		return ""
	}
	return r.Services[name]
}
