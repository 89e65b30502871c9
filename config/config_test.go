package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "coordinator", cfg.Coordinator)
	assert.Equal(t, "anthropic", cfg.Model.Provider)
	assert.Equal(t, 10, cfg.Model.MaxIterations)
	assert.Empty(t, cfg.Agents)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	// Defaults are still usable so the caller can proceed with a warning.
	require.NotNil(t, cfg)
	assert.Empty(t, cfg.Agents)
}

func TestLoadValid(t *testing.T) {
	doc := `
agents:
  - id: tracker
    command: bin/tracker-agent
    args: ["-data", "backlog.md"]
    capabilities: ["issue tracking"]
routing:
  - category: issue_tracking
    agent: tracker
    keywords: ["ticket", "bug"]
default_agents: [tracker]
model:
  provider: openai
  name: gpt-4o-mini
  max_iterations: 5
`
	path := filepath.Join(t.TempDir(), "ensemble.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Agents, 1)
	assert.Equal(t, "tracker", cfg.Agents[0].ID)
	assert.Equal(t, []string{"-data", "backlog.md"}, cfg.Agents[0].Args)
	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, 5, cfg.Model.MaxIterations)
	// Defaults survive where the document is silent.
	assert.Equal(t, "coordinator", cfg.Coordinator)

	agent, ok := cfg.Agent("tracker")
	require.True(t, ok)
	assert.Equal(t, []string{"issue tracking"}, agent.Capabilities)

	_, ok = cfg.Agent("missing")
	assert.False(t, ok)
}

func TestValidateRejections(t *testing.T) {
	base := func() *Config {
		cfg := Default()
		cfg.Agents = []AgentConfig{{ID: "tracker", Command: "bin/tracker-agent"}}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"empty agent id", func(cfg *Config) { cfg.Agents[0].ID = "" }},
		{"separator in agent id", func(cfg *Config) { cfg.Agents[0].ID = "my_tracker" }},
		{"duplicate agent id", func(cfg *Config) { cfg.Agents = append(cfg.Agents, cfg.Agents[0]) }},
		{"route references unknown agent", func(cfg *Config) {
			cfg.Routing = []RouteConfig{{Category: "x", Agent: "ghost", Keywords: []string{"k"}}}
		}},
		{"route without keywords", func(cfg *Config) {
			cfg.Routing = []RouteConfig{{Category: "x", Agent: "tracker"}}
		}},
		{"unknown default agent", func(cfg *Config) { cfg.DefaultAgents = []string{"ghost"} }},
		{"unknown provider", func(cfg *Config) { cfg.Model.Provider = "mystery" }},
		{"non-positive iterations", func(cfg *Config) { cfg.Model.MaxIterations = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateAllowsCoordinatorReferences(t *testing.T) {
	cfg := Default()
	cfg.Agents = []AgentConfig{{ID: "tracker", Command: "bin/tracker-agent"}}
	cfg.Routing = []RouteConfig{{Category: "coordination", Agent: "coordinator", Keywords: []string{"delegate"}}}
	cfg.DefaultAgents = []string{"coordinator"}
	assert.NoError(t, cfg.Validate())
}
