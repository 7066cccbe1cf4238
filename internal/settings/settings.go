// Package settings manages the assistant configuration documents the
// dashboard edits: user and project settings JSON plus the markdown
// instructions doc.
//
// DESIGN: Documents are addressed by explicit configured paths - the
// package has no knowledge of any assistant's directory conventions. JSON
// reads and patches are path-addressed via gjson/sjson so the dashboard
// never needs a schema for the settings documents it edits. Writes are
// atomic (temp file + rename).
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/oselz/hookboard/internal/config"
)

// Scope names accepted by the manager.
const (
	ScopeUser    = "user"
	ScopeProject = "project"
)

// Manager reads and patches the configured settings documents.
type Manager struct {
	cfg config.SettingsConfig
}

// NewManager creates a manager over the configured document paths.
func NewManager(cfg config.SettingsConfig) *Manager {
	return &Manager{cfg: cfg}
}

// pathFor maps a scope name to the configured settings file path.
func (m *Manager) pathFor(scope string) (string, error) {
	switch scope {
	case ScopeUser:
		if m.cfg.UserSettingsPath == "" {
			return "", fmt.Errorf("user settings path is not configured")
		}
		return m.cfg.UserSettingsPath, nil
	case ScopeProject:
		if m.cfg.ProjectSettingsPath == "" {
			return "", fmt.Errorf("project settings path is not configured")
		}
		return m.cfg.ProjectSettingsPath, nil
	default:
		return "", fmt.Errorf("unknown settings scope %q (expected user or project)", scope)
	}
}

// ReadSettings returns the raw settings document for a scope. A missing
// file reads as an empty JSON object so the dashboard can render a blank
// editor.
func (m *Manager) ReadSettings(scope string) ([]byte, error) {
	path, err := m.pathFor(scope)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []byte("{}"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s settings: %w", scope, err)
	}

	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s settings at %s is not valid JSON", scope, path)
	}
	return data, nil
}

// GetValue returns the JSON value at a gjson path, or an error when the
// path does not exist.
func (m *Manager) GetValue(scope, path string) ([]byte, error) {
	data, err := m.ReadSettings(scope)
	if err != nil {
		return nil, err
	}

	result := gjson.GetBytes(data, path)
	if !result.Exists() {
		return nil, fmt.Errorf("no value at path %q in %s settings", path, scope)
	}
	return []byte(result.Raw), nil
}

// PatchSettings sets the raw JSON value at a gjson path and writes the
// document back atomically.
func (m *Manager) PatchSettings(scope, path string, rawValue []byte) error {
	if path == "" {
		return fmt.Errorf("settings path is required")
	}
	if !gjson.ValidBytes(rawValue) {
		return fmt.Errorf("patch value is not valid JSON")
	}

	data, err := m.ReadSettings(scope)
	if err != nil {
		return err
	}

	updated, err := sjson.SetRawBytes(data, path, rawValue)
	if err != nil {
		return fmt.Errorf("failed to patch %s settings at %q: %w", scope, path, err)
	}

	filePath, err := m.pathFor(scope)
	if err != nil {
		return err
	}
	return writeFileAtomic(filePath, updated)
}

// DeleteValue removes the value at a gjson path and writes the document
// back atomically.
func (m *Manager) DeleteValue(scope, path string) error {
	if path == "" {
		return fmt.Errorf("settings path is required")
	}

	data, err := m.ReadSettings(scope)
	if err != nil {
		return err
	}

	updated, err := sjson.DeleteBytes(data, path)
	if err != nil {
		return fmt.Errorf("failed to delete %q from %s settings: %w", path, scope, err)
	}

	filePath, err := m.pathFor(scope)
	if err != nil {
		return err
	}
	return writeFileAtomic(filePath, updated)
}

// ReadInstructions returns the markdown instructions document. Missing
// file reads as empty.
func (m *Manager) ReadInstructions() (string, error) {
	if m.cfg.InstructionsPath == "" {
		return "", fmt.Errorf("instructions path is not configured")
	}

	data, err := os.ReadFile(m.cfg.InstructionsPath)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read instructions: %w", err)
	}
	return string(data), nil
}

// WriteInstructions replaces the markdown instructions document.
func (m *Manager) WriteInstructions(content string) error {
	if m.cfg.InstructionsPath == "" {
		return fmt.Errorf("instructions path is not configured")
	}
	return writeFileAtomic(m.cfg.InstructionsPath, []byte(content))
}

// writeFileAtomic writes via a temp file in the target directory and renames.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
