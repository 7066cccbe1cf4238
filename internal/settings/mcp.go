package settings

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// mcpServersKey is the top-level settings key holding MCP server
// registrations, keyed by server name.
const mcpServersKey = "mcpServers"

var mcpNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MCPServer is one MCP server registration in a settings document.
// Stdio servers carry Command/Args/Env; remote servers carry URL and
// Transport ("sse" or "http").
type MCPServer struct {
	Name      string            `json:"name"`
	Command   string            `json:"command,omitempty"`
	Args      []string          `json:"args,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
	URL       string            `json:"url,omitempty"`
	Transport string            `json:"transport,omitempty"`
}

// Validate checks the registration is well-formed before it is written.
func (s *MCPServer) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("MCP server name is required")
	}
	if !mcpNameRe.MatchString(s.Name) {
		return fmt.Errorf("MCP server name %q may only contain letters, digits, hyphens and underscores", s.Name)
	}
	if s.Command == "" && s.URL == "" {
		return fmt.Errorf("MCP server %q needs a command or a url", s.Name)
	}
	if s.Command != "" && s.URL != "" {
		return fmt.Errorf("MCP server %q cannot have both a command and a url", s.Name)
	}
	if s.URL != "" && s.Transport != "" && s.Transport != "sse" && s.Transport != "http" {
		return fmt.Errorf("MCP server %q has unknown transport %q", s.Name, s.Transport)
	}
	return nil
}

// ListMCPServers returns the registrations in a scope, sorted by name.
func (m *Manager) ListMCPServers(scope string) ([]MCPServer, error) {
	data, err := m.ReadSettings(scope)
	if err != nil {
		return nil, err
	}

	servers := []MCPServer{}
	entries := gjson.GetBytes(data, mcpServersKey)
	if !entries.Exists() {
		return servers, nil
	}

	var iterErr error
	entries.ForEach(func(key, value gjson.Result) bool {
		var srv MCPServer
		if err := json.Unmarshal([]byte(value.Raw), &srv); err != nil {
			iterErr = fmt.Errorf("malformed MCP server entry %q: %w", key.String(), err)
			return false
		}
		srv.Name = key.String()
		servers = append(servers, srv)
		return true
	})
	if iterErr != nil {
		return nil, iterErr
	}

	sort.Slice(servers, func(i, j int) bool { return servers[i].Name < servers[j].Name })
	return servers, nil
}

// AddMCPServer registers or replaces a server in a scope.
func (m *Manager) AddMCPServer(scope string, srv MCPServer) error {
	if err := srv.Validate(); err != nil {
		return err
	}

	data, err := m.ReadSettings(scope)
	if err != nil {
		return err
	}

	// Name lives in the map key, not the entry body.
	name := srv.Name
	srv.Name = ""
	entry, err := json.Marshal(srv)
	if err != nil {
		return fmt.Errorf("failed to encode MCP server %q: %w", name, err)
	}

	updated, err := sjson.SetRawBytes(data, mcpServersKey+"."+name, entry)
	if err != nil {
		return fmt.Errorf("failed to register MCP server %q: %w", name, err)
	}

	filePath, err := m.pathFor(scope)
	if err != nil {
		return err
	}
	return writeFileAtomic(filePath, updated)
}

// RemoveMCPServer deletes a registration. Removing an unknown name is an
// error so the dashboard can surface typos.
func (m *Manager) RemoveMCPServer(scope, name string) error {
	if !mcpNameRe.MatchString(name) {
		return fmt.Errorf("invalid MCP server name %q", name)
	}

	data, err := m.ReadSettings(scope)
	if err != nil {
		return err
	}

	if !gjson.GetBytes(data, mcpServersKey+"."+name).Exists() {
		return fmt.Errorf("no MCP server named %q in %s settings", name, scope)
	}

	updated, err := sjson.DeleteBytes(data, mcpServersKey+"."+name)
	if err != nil {
		return fmt.Errorf("failed to remove MCP server %q: %w", name, err)
	}

	filePath, err := m.pathFor(scope)
	if err != nil {
		return err
	}
	return writeFileAtomic(filePath, updated)
}
