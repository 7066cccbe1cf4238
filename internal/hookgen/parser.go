// Prompt parser - extracts a HookRequest from a semi-structured prompt.
//
// DESIGN: The hook-builder UI emits a prompt template with fixed textual
// markers ("Hook Type:", "Event Pattern:", ...). Parsing is best-effort:
// every field is optional and falls back to a documented default, except the
// hook type, which is validated against the fixed event enumeration and
// rejected when unrecognized. Defaulted fields are reported to the caller so
// prompt-template drift stays observable.
package hookgen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Field markers recognized in the prompt template.
var (
	hookTypeRe    = regexp.MustCompile(`Hook Type:\s*(\S+)`)
	patternRe     = regexp.MustCompile(`Event Pattern:\s*([^\n]+)`)
	scopeRe       = regexp.MustCompile(`Scope:\s*(\S+)`)
	descriptionRe = regexp.MustCompile(`User Description:\s*([^\n]+)`)
	projectRe     = regexp.MustCompile(`Project:\s*([^\n]+?)\s+at\s+([^\n]+)`)
	projConfigRe  = regexp.MustCompile(`Config:\s*([^\n]+)`)
	ollamaRe      = regexp.MustCompile(`Ollama LLM API:\s*(\S+)`)
	ttsRe         = regexp.MustCompile(`TTS Service:\s*(\S+)`)
)

// projectContextMarker gates project extraction: a "Project: x at y" line
// counts only inside an explicit PROJECT CONTEXT block.
const projectContextMarker = "PROJECT CONTEXT:"

// Defaults carries the process-wide service URL defaults, injected at
// construction so the parser stays a pure function of its inputs.
type Defaults struct {
	OllamaURL string
	TTSURL    string
}

// Parser extracts HookRequests from prompt text.
type Parser struct {
	defaults Defaults
}

// NewParser creates a parser with the given service URL defaults.
func NewParser(defaults Defaults) *Parser {
	return &Parser{defaults: defaults}
}

// Parse extracts a HookRequest from the prompt. The second return value
// lists the fields that fell back to defaults, in a fixed order. The only
// error condition is an unrecognized hook type.
func (p *Parser) Parse(prompt string) (*HookRequest, []string, error) {
	req := &HookRequest{
		EventType:   DefaultEventType,
		Pattern:     "*",
		Scope:       ScopeUser,
		Description: "Custom hook",
		Services:    make(map[string]string),
	}
	var defaulted []string

	if m := hookTypeRe.FindStringSubmatch(prompt); m != nil {
		et, err := ParseEventType(strings.TrimSpace(m[1]))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid prompt: %w", err)
		}
		req.EventType = et
	} else {
		defaulted = append(defaulted, "event_type")
	}

	if m := patternRe.FindStringSubmatch(prompt); m != nil {
		req.Pattern = strings.TrimSpace(m[1])
	} else {
		defaulted = append(defaulted, "pattern")
	}

	if m := scopeRe.FindStringSubmatch(prompt); m != nil {
		req.Scope = Scope(strings.TrimSpace(m[1]))
	} else {
		defaulted = append(defaulted, "scope")
	}

	if m := descriptionRe.FindStringSubmatch(prompt); m != nil {
		req.Description = strings.TrimSpace(m[1])
	} else {
		defaulted = append(defaulted, "description")
	}

	// Project context is present only when the prompt carries the explicit
	// PROJECT CONTEXT block with a "Project: <name> at <path>" line.
	if idx := strings.Index(prompt, projectContextMarker); idx >= 0 {
		block := prompt[idx:]
		if m := projectRe.FindStringSubmatch(block); m != nil {
			req.Project = &ProjectInfo{
				Name: strings.TrimSpace(m[1]),
				Path: strings.TrimSpace(m[2]),
			}
			if cm := projConfigRe.FindStringSubmatch(block); cm != nil {
				req.Project.Config = strings.TrimSpace(cm[1])
			}
		}
	}

	// Service URLs fall back to the configured defaults.
	if m := ollamaRe.FindStringSubmatch(prompt); m != nil {
		req.Services[ServiceOllama] = strings.TrimSpace(m[1])
	} else if p.defaults.OllamaURL != "" {
		req.Services[ServiceOllama] = p.defaults.OllamaURL
	}
	if m := ttsRe.FindStringSubmatch(prompt); m != nil {
		req.Services[ServiceTTS] = strings.TrimSpace(m[1])
	} else if p.defaults.TTSURL != "" {
		req.Services[ServiceTTS] = p.defaults.TTSURL
	}

	if len(defaulted) > 0 {
		log.Debug().
			Strs("fields", defaulted).
			Msg("prompt fields defaulted")
	}

	return req, defaulted, nil
}
