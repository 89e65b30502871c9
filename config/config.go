// Package config loads the declarative ensemble configuration: the agent
// roster, the intent routing table and the model settings. Configuration is
// one YAML document; a missing or unreadable file yields an empty agent set
// (the orchestrator then answers with its bounded fallback text instead of
// crashing).
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// NamespaceSeparator joins agent id and tool name in the external tool
// namespace. Agent ids must not contain it; this is enforced at load time.
const NamespaceSeparator = "_"

// AgentConfig describes one agent subprocess: how to launch it and which
// capability tags it carries.
type AgentConfig struct {
	ID           string            `yaml:"id"`
	Command      string            `yaml:"command"`
	Args         []string          `yaml:"args"`
	Env          map[string]string `yaml:"env"`
	Capabilities []string          `yaml:"capabilities"`
}

// RouteConfig maps one intent category to an agent via trigger keywords.
type RouteConfig struct {
	Category string   `yaml:"category"`
	Agent    string   `yaml:"agent"`
	Keywords []string `yaml:"keywords"`
}

// ModelConfig selects and tunes the language model driving orchestration.
type ModelConfig struct {
	Provider      string  `yaml:"provider"` // anthropic or openai
	Name          string  `yaml:"name"`
	MaxTokens     int64   `yaml:"max_tokens"`
	Temperature   float64 `yaml:"temperature"`
	MaxIterations int     `yaml:"max_iterations"`
}

// Config is the root configuration document.
type Config struct {
	Agents        []AgentConfig `yaml:"agents"`
	Routing       []RouteConfig `yaml:"routing"`
	DefaultAgents []string      `yaml:"default_agents"`
	Coordinator   string        `yaml:"coordinator"` // agent id of the coordination tool surface
	Model         ModelConfig   `yaml:"model"`
}

// Default returns the configuration applied before the YAML document is
// merged on top.
func Default() *Config {
	return &Config{
		Coordinator: "coordinator",
		Model: ModelConfig{
			Provider:      "anthropic",
			MaxTokens:     4096,
			Temperature:   0.7,
			MaxIterations: 10,
		},
	}
}

// Load reads and validates the configuration at path. A missing file is not
// an error: the defaults (empty agent set) are returned along with
// os.ErrNotExist wrapped, so callers can log a warning and proceed.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate enforces the structural invariants the rest of the system relies
// on: unique agent ids, ids free of the namespace separator, and routes that
// reference configured agents.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Agents))
	for _, a := range c.Agents {
		if a.ID == "" {
			return fmt.Errorf("agent with empty id")
		}
		if strings.Contains(a.ID, NamespaceSeparator) {
			return fmt.Errorf("agent id %q contains namespace separator %q", a.ID, NamespaceSeparator)
		}
		if seen[a.ID] {
			return fmt.Errorf("duplicate agent id %q", a.ID)
		}
		seen[a.ID] = true
	}

	known := func(id string) bool { return seen[id] || id == c.Coordinator }

	for _, r := range c.Routing {
		if r.Category == "" {
			return fmt.Errorf("route with empty category")
		}
		if !known(r.Agent) {
			return fmt.Errorf("route %q references unknown agent %q", r.Category, r.Agent)
		}
		if len(r.Keywords) == 0 {
			return fmt.Errorf("route %q has no keywords", r.Category)
		}
	}

	for _, id := range c.DefaultAgents {
		if !known(id) {
			return fmt.Errorf("default agent %q is not configured", id)
		}
	}

	switch c.Model.Provider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("unknown model provider %q", c.Model.Provider)
	}

	if c.Model.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.Model.MaxIterations)
	}

	return nil
}

// Agent returns the configuration for an agent id.
func (c *Config) Agent(id string) (AgentConfig, bool) {
	for _, a := range c.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return AgentConfig{}, false
}
