// Prompt construction and completion post-processing.
package hookgen

import (
	"fmt"
	"strings"
)

// BuildSystemPrompt returns the system instruction shared by all providers.
func BuildSystemPrompt() string {
	return `You are an expert in writing automation hooks for AI coding assistants.
A hook is a self-contained POSIX shell script that receives the event payload
as JSON on stdin and communicates decisions through its exit code and stdout.

Requirements:
- Output ONLY the shell script, no explanations and no markdown fences.
- Start with a #!/bin/bash shebang and a short comment describing the hook.
- Read the JSON payload from stdin; use jq for field access.
- Exit 0 to allow the action, exit 2 to block it with a message on stderr.
- Never write outside the project directory and never call destructive commands.`
}

// BuildUserPrompt renders a HookRequest into the user message sent to the
// completion API.
func BuildUserPrompt(req *HookRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write a hook script for the %s event.\n", req.EventType)
	fmt.Fprintf(&b, "Tool/event pattern to match: %s\n", req.Pattern)
	fmt.Fprintf(&b, "Hook scope: %s\n", req.Scope)
	fmt.Fprintf(&b, "Intent: %s\n", req.Description)

	if req.Project != nil {
		fmt.Fprintf(&b, "\nProject context: %s at %s\n", req.Project.Name, req.Project.Path)
		if req.Project.Config != "" {
			fmt.Fprintf(&b, "Project config: %s\n", req.Project.Config)
		}
	}

	if tts := req.ServiceURL(ServiceTTS); tts != "" {
		fmt.Fprintf(&b, "\nA local TTS service is available at %s for spoken notifications.\n", tts)
	}

	return b.String()
}

// ExtractCode normalizes a completion into bare script text: markdown code
// fences are stripped when the model wraps its answer despite instructions.
func ExtractCode(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		// Drop the opening fence (possibly with a language tag) and the
		// closing fence if present.
		lines = lines[1:]
		for i := len(lines) - 1; i >= 0; i-- {
			if strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
				lines = lines[:i]
				break
			}
		}
		content = strings.TrimSpace(strings.Join(lines, "\n"))
	}

	return content
}
