// Interactive first-run setup: writes a starter config and persists the
// optional cloud API key to the global .env file.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/term"
)

const defaultPort = 4519

// runInit walks the user through a minimal setup and writes
// ~/.config/hookboard/config.yaml plus an optional .env with credentials.
func runInit() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("could not determine home directory: %w", err)
	}
	configDir := filepath.Join(homeDir, ".config", "hookboard")

	printHeader("Hookboard Setup")

	configPath := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		if !promptYesNo(fmt.Sprintf("Config already exists at %s. Overwrite?", configPath)) {
			printInfo("Keeping existing config")
			return nil
		}
	}

	port := promptInt("Dashboard port", defaultPort)
	ollamaURL := promptDefault("Ollama URL", "http://localhost:11434")
	ollamaModel := promptDefault("Ollama model", "qwen2.5-coder:7b")

	// API key is read without echo when stdin is a terminal.
	apiKey := promptSecret("Anthropic API key (Enter to skip cloud fallback): ")
	if apiKey != "" && !strings.HasPrefix(apiKey, "sk-ant-") {
		printWarn("Key doesn't start with 'sk-ant-'. Proceeding anyway...")
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("could not create %s: %w", configDir, err)
	}

	cfg := buildStarterConfig(configDir, port, ollamaURL, ollamaModel, apiKey != "")
	if err := os.WriteFile(configPath, []byte(cfg), 0600); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}
	printSuccess("Config written to " + configPath)

	if apiKey != "" {
		envPath := filepath.Join(configDir, ".env")
		if err := appendToEnvFile(envPath, "ANTHROPIC_API_KEY", apiKey); err != nil {
			printWarn(fmt.Sprintf("Could not persist API key: %v", err))
		} else {
			printSuccess("API key saved to " + envPath)
		}
	}

	fmt.Println()
	printInfo("Run 'hookboard serve' to start the dashboard")
	return nil
}

// buildStarterConfig renders the starter config YAML.
func buildStarterConfig(configDir string, port int, ollamaURL, ollamaModel string, withCloud bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "server:\n  port: %d\n  read_timeout: 30s\n  write_timeout: 120s\n\n", port)
	fmt.Fprintf(&b, "services:\n  ollama_url: %s\n  tts_url: ${TTS_URL:-http://localhost:8052}\n\n", ollamaURL)

	fmt.Fprintf(&b, "providers:\n")
	fmt.Fprintf(&b, "  ollama:\n    kind: ollama\n    model: %s\n    endpoint: %s\n", ollamaModel, ollamaURL)
	if withCloud {
		fmt.Fprintf(&b, "  anthropic:\n    kind: anthropic\n    api_key: ${ANTHROPIC_API_KEY:-}\n    model: claude-sonnet-4-20250514\n")
	}

	fmt.Fprintf(&b, "\ngeneration:\n  priority:\n    - ollama\n")
	if withCloud {
		fmt.Fprintf(&b, "    - anthropic\n")
	}
	fmt.Fprintf(&b, "  timeout: 2m\n\n")

	fmt.Fprintf(&b, "settings:\n")
	fmt.Fprintf(&b, "  user_settings_path: %s\n", filepath.Join(configDir, "user_settings.json"))
	fmt.Fprintf(&b, "  project_settings_path: .hookboard/settings.json\n")
	fmt.Fprintf(&b, "  instructions_path: %s\n\n", filepath.Join(configDir, "instructions.md"))

	fmt.Fprintf(&b, "stats:\n  database_path: %s\n  token_model: gpt-4o\n\n", filepath.Join(configDir, "stats.db"))

	fmt.Fprintf(&b, "monitoring:\n  log_level: info\n  log_format: console\n  log_output: stdout\n")
	fmt.Fprintf(&b, "  telemetry_enabled: true\n  telemetry_path: %s\n", filepath.Join(configDir, "telemetry.jsonl"))
	fmt.Fprintf(&b, "  log_to_stdout: false\n  high_latency_threshold: 10s\n")

	return b.String()
}

// appendToEnvFile appends or updates a key=value pair in an .env file.
func appendToEnvFile(envPath, key, value string) error {
	dir := filepath.Dir(envPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	var lines []string
	found := false

	if file, err := os.Open(envPath); err == nil {
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, key+"=") {
				lines = append(lines, fmt.Sprintf("%s=%s", key, value))
				found = true
			} else {
				lines = append(lines, line)
			}
		}
		file.Close()
	}

	if !found {
		lines = append(lines, fmt.Sprintf("%s=%s", key, value))
	}

	output := strings.Join(lines, "\n") + "\n"
	return os.WriteFile(envPath, []byte(output), 0600)
}

// =============================================================================
// PROMPT HELPERS
// =============================================================================

func promptDefault(label, def string) string {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("%s [%s]: ", label, def)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return def
	}
	return input
}

func promptInt(label string, def int) int {
	for {
		raw := promptDefault(label, strconv.Itoa(def))
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 65535 {
			printWarn("Enter a port between 1 and 65535")
			continue
		}
		return n
	}
}

func promptYesNo(question string) bool {
	answer := promptDefault(question+" (y/N)", "n")
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

// promptSecret reads a line without echo when stdin is a terminal.
func promptSecret(prompt string) string {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		data, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(data))
	}

	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// Print helper functions for consistent output formatting.
func printHeader(title string) {
	fmt.Printf("\033[1m\033[0;36m========================================\033[0m\n")
	fmt.Printf("\033[1m\033[0;36m       %s\033[0m\n", title)
	fmt.Printf("\033[1m\033[0;36m========================================\033[0m\n")
	fmt.Println()
}

func printSuccess(msg string) {
	fmt.Printf("\033[0;32m[OK]\033[0m %s\n", msg)
}

func printInfo(msg string) {
	fmt.Printf("\033[0;34m[INFO]\033[0m %s\n", msg)
}

func printWarn(msg string) {
	fmt.Printf("\033[1;33m[WARN]\033[0m %s\n", msg)
}
