package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensemble-ai/ensemble/config"
)

func testRoutes() []config.RouteConfig {
	return []config.RouteConfig{
		{Category: "issue_tracking", Agent: "tracker", Keywords: []string{"ticket", "bug", "sprint", "backlog"}},
		{Category: "source_control", Agent: "repo", Keywords: []string{"commit", "code", "repository"}},
		{Category: "documentation", Agent: "docs", Keywords: []string{"document", "spec", "notes"}},
	}
}

func TestRouteSingleCategory(t *testing.T) {
	r := New(testRoutes(), []string{"tracker"}, "coordinator")

	d := r.Route("Show me the open tickets in this sprint")
	require.NotEmpty(t, d.Agents)
	assert.Equal(t, []string{"tracker"}, d.Agents)
	assert.Equal(t, ComplexityLow, d.Complexity)
	assert.GreaterOrEqual(t, d.Scores["tracker"], 1)
	// Single relevant agent: no coordinator.
	assert.NotContains(t, d.Agents, "coordinator")
}

func TestRouteMultiCategoryAppendsCoordinator(t *testing.T) {
	r := New(testRoutes(), nil, "coordinator")

	d := r.Route("Link the bug ticket to the commit that introduced it")
	assert.Contains(t, d.Agents, "tracker")
	assert.Contains(t, d.Agents, "repo")
	// Coordinator is appended last when more than one category matched.
	assert.Equal(t, "coordinator", d.Agents[len(d.Agents)-1])
	assert.Equal(t, ComplexityHigh, d.Complexity)
}

func TestRouteOrdersByScore(t *testing.T) {
	r := New(testRoutes(), nil, "")

	// Two tracker keywords, one repo keyword.
	d := r.Route("bug in the sprint caused by a commit")
	require.Len(t, d.Agents, 2)
	assert.Equal(t, "tracker", d.Agents[0])
	assert.Equal(t, "repo", d.Agents[1])
	assert.Equal(t, 2, d.Scores["tracker"])
	assert.Equal(t, 1, d.Scores["repo"])
	assert.Equal(t, ComplexityMedium, d.Complexity)
}

func TestRouteNoMatchFallsBackToDefaults(t *testing.T) {
	r := New(testRoutes(), []string{"tracker", "repo"}, "coordinator")

	d := r.Route("what is the weather like today")
	assert.Equal(t, []string{"tracker", "repo"}, d.Agents)
	assert.Empty(t, d.Scores)
	// Defaults are not a multi-category match: no coordinator.
	assert.NotContains(t, d.Agents, "coordinator")
	assert.Equal(t, ComplexityMedium, d.Complexity)
}

func TestRouteNoMatchNoDefaults(t *testing.T) {
	r := New(testRoutes(), nil, "coordinator")

	d := r.Route("completely unrelated")
	assert.Empty(t, d.Agents)
	assert.Equal(t, ComplexityLow, d.Complexity)
}

func TestRouteCaseInsensitive(t *testing.T) {
	r := New(testRoutes(), nil, "")

	d := r.Route("SHOW ME THE BACKLOG")
	assert.Equal(t, []string{"tracker"}, d.Agents)
}

func TestRouteSharedAgentKeepsHigherScore(t *testing.T) {
	routes := append(testRoutes(), config.RouteConfig{
		Category: "quality", Agent: "tracker", Keywords: []string{"flaky", "regression", "coverage"},
	})
	r := New(routes, nil, "coordinator")

	d := r.Route("flaky regression coverage on one ticket")
	// Both categories map to tracker; the agent appears once with the
	// higher score.
	assert.Equal(t, []string{"tracker"}, d.Agents)
	assert.Equal(t, 3, d.Scores["tracker"])
}

func TestRouteDeterministicTieBreak(t *testing.T) {
	r := New(testRoutes(), nil, "")
	for i := 0; i < 10; i++ {
		d := r.Route("the commit and the document")
		require.Len(t, d.Agents, 2)
		// Equal scores: config order wins.
		assert.Equal(t, "repo", d.Agents[0])
		assert.Equal(t, "docs", d.Agents[1])
	}
}
