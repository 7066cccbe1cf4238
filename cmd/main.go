// Package main is the entry point for the Hookboard dashboard backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/oselz/hookboard/internal/config"
	"github.com/oselz/hookboard/internal/events"
	"github.com/oselz/hookboard/internal/hookgen"
	"github.com/oselz/hookboard/internal/monitoring"
	"github.com/oselz/hookboard/internal/server"
	"github.com/oselz/hookboard/internal/settings"
	"github.com/oselz/hookboard/internal/stats"
)

// ANSI color codes
const (
	hookboardBlue = "\033[38;2;58;110;189m"
	bold          = "\033[1m"
	reset         = "\033[0m"
)

// ASCII banner for startup
const banner = `
 ██╗  ██╗ ██████╗  ██████╗ ██╗  ██╗██████╗  ██████╗  █████╗ ██████╗ ██████╗
 ██║  ██║██╔═══██╗██╔═══██╗██║ ██╔╝██╔══██╗██╔═══██╗██╔══██╗██╔══██╗██╔══██╗
 ███████║██║   ██║██║   ██║█████╔╝ ██████╔╝██║   ██║███████║██████╔╝██║  ██║
 ██╔══██║██║   ██║██║   ██║██╔═██╗ ██╔══██╗██║   ██║██╔══██║██╔══██╗██║  ██║
 ██║  ██║╚██████╔╝╚██████╔╝██║  ██╗██████╔╝╚██████╔╝██║  ██║██║  ██║██████╔╝
 ╚═╝  ╚═╝ ╚═════╝  ╚═════╝ ╚═╝  ╚═╝╚═════╝  ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚═════╝
`

func printBanner() {
	fmt.Print(hookboardBlue + bold + banner + reset + "\n")
}

// loadEnvFiles loads .env from standard locations
func loadEnvFiles() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		_ = godotenv.Load()
		return
	}

	// Try loading from ~/.config/hookboard/.env first
	configEnv := filepath.Join(homeDir, ".config", "hookboard", ".env")
	if _, err := os.Stat(configEnv); err == nil {
		_ = godotenv.Load(configEnv)
	}

	// Also load local .env (can override)
	_ = godotenv.Load()
}

func main() {
	// Handle subcommands first (before flags)
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve", "start":
			runDashboardServer(os.Args[2:])
			return
		case "init":
			printBanner()
			if err := runInit(); err != nil {
				fmt.Fprintf(os.Stderr, "Init failed: %v\n", err)
				os.Exit(1)
			}
			return
		case "version", "-v", "--version":
			PrintVersion()
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}

	// Default: start the server
	runDashboardServer(os.Args[1:])
}

// resolveServeConfig resolves the config for the serve command.
// Checks: user flag -> filesystem locations -> embedded default.
// Returns raw bytes and source description.
func resolveServeConfig(userConfig string) ([]byte, string, error) {
	// If user specified a config path, read it directly
	if userConfig != "" {
		data, err := os.ReadFile(userConfig)
		if err != nil {
			return nil, "", fmt.Errorf("config file not found: %s", userConfig)
		}
		return data, userConfig, nil
	}

	homeDir, _ := os.UserHomeDir()

	// Search filesystem in order of preference
	searchPaths := []string{}
	if homeDir != "" {
		searchPaths = append(searchPaths,
			filepath.Join(homeDir, ".config", "hookboard", "config.yaml"),
		)
	}
	searchPaths = append(searchPaths, "configs/config.yaml")

	for _, path := range searchPaths {
		if data, err := os.ReadFile(path); err == nil {
			return data, path, nil
		}
	}

	// Fall back to embedded config
	if data, err := getEmbeddedConfig("config"); err == nil {
		return data, "(embedded) config.yaml", nil
	}

	return nil, "", fmt.Errorf("no config file found. Specify --config path or run 'hookboard init'")
}

// buildProviders resolves the configured priority list into providers.
func buildProviders(cfg *config.Config) ([]hookgen.Provider, error) {
	providers := make([]hookgen.Provider, 0, len(cfg.Generation.Priority))
	for _, name := range cfg.Generation.Priority {
		rp, err := cfg.ResolveProvider(name)
		if err != nil {
			return nil, err
		}
		if rp.Kind == "ollama" {
			// The Ollama provider wants the base URL, not the chat endpoint.
			base := strings.TrimSuffix(rp.Endpoint, "/api/chat")
			providers = append(providers, hookgen.NewOllamaProvider(base, rp.Model))
			continue
		}
		providers = append(providers, hookgen.NewCloudProvider(rp, 0))
	}
	return providers, nil
}

// runDashboardServer starts the dashboard backend.
func runDashboardServer(args []string) {
	// Load .env files from standard locations
	loadEnvFiles()

	// Parse flags
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	debug := fs.Bool("debug", false, "enable debug logging")
	noBanner := fs.Bool("no-banner", false, "suppress startup banner")
	_ = fs.Parse(args) // ExitOnError handles errors

	// Print banner unless suppressed
	if !*noBanner {
		printBanner()
	}

	// Setup logging
	setupLogging(*debug)

	// Resolve config from filesystem
	configData, configSource, err := resolveServeConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("No config file found")
	}

	log.Info().
		Str("version", Version).
		Str("config", configSource).
		Msg("Hookboard starting")

	// Load configuration from bytes
	cfg, err := config.LoadFromBytes(configData)
	if err != nil {
		log.Fatal().Err(err).Str("config", configSource).Msg("failed to load configuration")
	}

	log.Info().
		Int("port", cfg.Server.Port).
		Strs("providers", cfg.Generation.Priority).
		Msg("configuration loaded")

	// Wire monitoring
	logger := monitoring.New(cfg.LoggerConfig())
	monitoring.Global(cfg.LoggerConfig())
	metrics := monitoring.NewMetricsCollector()
	alerts := monitoring.NewAlertManager(logger, monitoring.AlertConfig{
		HighLatencyThreshold: cfg.Monitoring.HighLatencyThreshold,
	})
	tracker, err := monitoring.NewTracker(cfg.TelemetryConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}

	// Wire the generation pipeline
	providers, err := buildProviders(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure providers")
	}
	parser := hookgen.NewParser(hookgen.Defaults{
		OllamaURL: cfg.Services.OllamaURL,
		TTSURL:    cfg.Services.TTSURL,
	})
	orchestrator := hookgen.NewOrchestrator(providers, cfg.Generation.Timeout)
	service := hookgen.NewService(parser, orchestrator)

	// Wire storage and live events
	store, err := stats.Open(cfg.Stats.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open stats database")
	}
	defer store.Close()

	hub := events.NewHub(logger)

	srv := server.New(cfg, server.Deps{
		Logger:   logger,
		Metrics:  metrics,
		Alerts:   alerts,
		Tracker:  tracker,
		Hub:      hub,
		Service:  service,
		Settings: settings.NewManager(cfg.Settings),
		Store:    store,
		Tokens:   stats.NewTokenCounter(cfg.Stats.TokenModel),
	})

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
		if err := tracker.Close(); err != nil {
			log.Error().Err(err).Msg("telemetry close error")
		}
	}()

	// Start server
	if err := srv.Start(); err != nil {
		if err.Error() != "http: Server closed" {
			log.Fatal().Err(err).Msg("server error")
		}
	}

	log.Info().Msg("Hookboard stopped")
}

// setupLogging configures zerolog console output for startup messages.
func setupLogging(debug bool) {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	})

	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// printHelp prints usage information
func printHelp() {
	printBanner()
	fmt.Println("Hookboard - local dashboard backend for coding-assistant hooks")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  hookboard [command]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  (none)       Start the dashboard server (default)")
	fmt.Println("  serve        Start the dashboard server")
	fmt.Println("  init         Interactive first-run setup")
	fmt.Println("  version      Print version information")
	fmt.Println("  help         Show this help message")
	fmt.Println()
	fmt.Println("Server Options:")
	fmt.Println("  hookboard serve [--config FILE] [--debug] [--no-banner]")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  hookboard                          Start with the default config")
	fmt.Println("  hookboard serve --debug            Start with debug logging")
	fmt.Println("  hookboard init                     Write a starter config")
}
