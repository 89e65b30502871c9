package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ensemble-ai/ensemble"
	"github.com/ensemble-ai/ensemble/config"
	"github.com/ensemble-ai/ensemble/logging"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "ensemble",
	Short: "Multi-agent query orchestrator",
	Long: `Ensemble routes natural-language queries across a set of specialized
agents. It launches the configured agent processes, aggregates their tools
into one namespaced catalog and lets a language model call them to answer
each query, coordinating multi-agent work through a built-in task and
messaging service.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// API keys usually live in a local .env during development.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "ensemble.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(agentsCmd)
}

// newLogger builds the logger shared by all commands. Logs go to stderr so
// answers on stdout stay clean.
func newLogger() *logging.OrchestratorLogger {
	level := slog.LevelInfo
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return logging.New(&logging.Config{Level: level, Format: logFormat, Output: os.Stderr})
}

// loadOrchestrator loads the configuration and constructs the orchestrator.
// A missing config file is reported as a warning and yields an empty agent
// roster rather than an error.
func loadOrchestrator(logger *logging.OrchestratorLogger) (*ensemble.Orchestrator, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if cfg == nil {
			return nil, nil, err
		}
		logger.Warn("config file not found, starting with empty agent roster", "path", configPath)
	}

	orch, err := ensemble.New(cfg, func(o *ensemble.Options) {
		o.Logger = logger
	})
	if err != nil {
		return nil, nil, err
	}
	return orch, cfg, nil
}
