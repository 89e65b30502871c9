package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensemble-ai/ensemble/core"
)

// -------------------- Test fakes --------------------

type stubSession struct {
	ops     []core.Operation
	listErr error
	invoked []string
}

func (s *stubSession) ListOperations(ctx context.Context) ([]core.Operation, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.ops, nil
}

func (s *stubSession) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	s.invoked = append(s.invoked, name)
	return fmt.Sprintf("result of %s", name), nil
}

type mapResolver map[string]core.AgentSession

func (m mapResolver) Session(agentID string) (core.AgentSession, bool) {
	s, ok := m[agentID]
	return s, ok
}

// -------------------- Tests --------------------

func TestSplitFirstSeparator(t *testing.T) {
	agentID, toolName, err := Split("tracker_search_issues")
	require.NoError(t, err)
	// The cut happens at the first separator; the tool name keeps its own
	// underscores.
	assert.Equal(t, "tracker", agentID)
	assert.Equal(t, "search_issues", toolName)
}

func TestSplitMalformed(t *testing.T) {
	for _, name := range []string{"", "tracker", "tracker_", "_search"} {
		_, _, err := Split(name)
		assert.Error(t, err, name)
	}
}

func TestNamespacedNameRoundTrip(t *testing.T) {
	d := Descriptor{AgentID: "repo", Name: "file_history"}
	agentID, toolName, err := Split(d.NamespacedName())
	require.NoError(t, err)
	assert.Equal(t, d.AgentID, agentID)
	assert.Equal(t, d.Name, toolName)
}

func TestBuildMergesAgents(t *testing.T) {
	resolver := mapResolver{
		"tracker": &stubSession{ops: []core.Operation{
			{Name: "search_issues", Description: "Search the backlog"},
			{Name: "get_issue", Description: "Fetch one issue"},
		}},
		"repo": &stubSession{ops: []core.Operation{
			{Name: "search_commits", Description: "Search commits"},
		}},
	}

	cat := NewBuilder(resolver, nil).Build(context.Background(), []string{"tracker", "repo"})
	require.False(t, cat.Empty())
	assert.Equal(t, 3, cat.Len())
	assert.Equal(t, []string{"tracker", "repo"}, cat.Agents())

	names := make([]string, 0, cat.Len())
	for _, d := range cat.Descriptors() {
		names = append(names, d.NamespacedName())
	}
	assert.Equal(t, []string{"tracker_search_issues", "tracker_get_issue", "repo_search_commits"}, names)

	// Descriptions carry the owning agent prefix.
	assert.Equal(t, "[tracker] Search the backlog", cat.Descriptors()[0].Description)
}

func TestBuildOmitsUnavailableAgents(t *testing.T) {
	resolver := mapResolver{
		"tracker": &stubSession{ops: []core.Operation{{Name: "search_issues"}}},
		"broken":  &stubSession{listErr: errors.New("boom")},
	}

	// "ghost" is not connected at all; "broken" fails to list. Neither
	// aborts the build.
	cat := NewBuilder(resolver, nil).Build(context.Background(), []string{"tracker", "broken", "ghost"})
	assert.Equal(t, 1, cat.Len())
	assert.Equal(t, []string{"tracker"}, cat.Agents())
}

func TestBuildEmpty(t *testing.T) {
	cat := NewBuilder(mapResolver{}, nil).Build(context.Background(), []string{"a", "b"})
	assert.True(t, cat.Empty())
	assert.Equal(t, 0, cat.Len())
}

func TestBuildRejectsSeparatorBreakingNames(t *testing.T) {
	resolver := mapResolver{
		"tracker": &stubSession{ops: []core.Operation{
			{Name: "_leading", Description: "bad"},
			{Name: "search_issues", Description: "good"},
		}},
	}

	cat := NewBuilder(resolver, nil).Build(context.Background(), []string{"tracker"})
	require.Equal(t, 1, cat.Len())
	assert.Equal(t, "tracker_search_issues", cat.Descriptors()[0].NamespacedName())
}

func TestDispatch(t *testing.T) {
	tracker := &stubSession{ops: []core.Operation{{Name: "search_issues"}}}
	repo := &stubSession{ops: []core.Operation{{Name: "search_commits"}}}
	resolver := mapResolver{"tracker": tracker, "repo": repo}

	cat := NewBuilder(resolver, nil).Build(context.Background(), []string{"tracker", "repo"})

	out, err := cat.Dispatch(context.Background(), "repo_search_commits", map[string]any{"query": "auth"})
	require.NoError(t, err)
	assert.Equal(t, "result of search_commits", out)
	// The owning session was invoked with the bare tool name.
	assert.Equal(t, []string{"search_commits"}, repo.invoked)
	assert.Empty(t, tracker.invoked)
}

func TestDispatchSurvivesResolverRemoval(t *testing.T) {
	tracker := &stubSession{ops: []core.Operation{{Name: "search_issues"}}}
	resolver := mapResolver{"tracker": tracker}

	cat := NewBuilder(resolver, nil).Build(context.Background(), []string{"tracker"})
	// Binding happened at build time; later resolver changes do not affect
	// this catalog.
	delete(resolver, "tracker")

	out, err := cat.Dispatch(context.Background(), "tracker_search_issues", nil)
	require.NoError(t, err)
	assert.Equal(t, "result of search_issues", out)
}

func TestDispatchUnknownTool(t *testing.T) {
	cat := NewBuilder(mapResolver{
		"tracker": &stubSession{ops: []core.Operation{{Name: "search_issues"}}},
	}, nil).Build(context.Background(), []string{"tracker"})

	_, err := cat.Dispatch(context.Background(), "tracker_missing", nil)
	assert.Error(t, err)

	_, err = cat.Dispatch(context.Background(), "garbage", nil)
	assert.Error(t, err)
}
