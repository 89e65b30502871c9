package coordinator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolsetListOperations(t *testing.T) {
	ts := NewToolset(NewService())

	ops, err := ts.ListOperations(context.Background())
	require.NoError(t, err)
	require.Len(t, ops, 8)

	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Name
		assert.NotEmpty(t, op.Description, op.Name)
		assert.NotNil(t, op.InputSchema, op.Name)
	}
	assert.Equal(t, []string{
		"send_message", "create_task", "update_task_status", "get_messages",
		"simulate_communication", "get_workload", "orchestrate_workflow", "get_metrics",
	}, names)
}

func TestToolsetSendAndGetMessages(t *testing.T) {
	ts := NewToolset(NewService())
	ctx := context.Background()

	out, err := ts.Invoke(ctx, "send_message", map[string]any{
		"from_agent":        "planner",
		"to_agent":          "tracker",
		"message_type":      "request",
		"content":           "Need the sprint status",
		"requires_response": true,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "MSG-0001")
	assert.Contains(t, out, "Requires response: true")

	out, err = ts.Invoke(ctx, "get_messages", map[string]any{"agent": "tracker"})
	require.NoError(t, err)
	assert.Contains(t, out, "Need the sprint status")
	assert.Contains(t, out, "(requires response)")

	out, err = ts.Invoke(ctx, "get_messages", map[string]any{"agent": "ghost"})
	require.NoError(t, err)
	assert.Contains(t, out, "No unread messages for ghost.")
}

func TestToolsetTaskLifecycle(t *testing.T) {
	ts := NewToolset(NewService())
	ctx := context.Background()

	out, err := ts.Invoke(ctx, "create_task", map[string]any{
		"title":           "Fix the login bug",
		"description":     "Trace the session expiry",
		"assigned_agents": []any{"tracker", "repo"},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "TASK-0001")
	assert.Contains(t, out, "tracker, repo")

	out, err = ts.Invoke(ctx, "update_task_status", map[string]any{
		"task_id":    "TASK-0001",
		"new_status": "in_progress",
		"agent":      "tracker",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "in_progress")

	// Unknown ids and bad enums come back as text, not errors, so the
	// model can recover.
	out, err = ts.Invoke(ctx, "update_task_status", map[string]any{
		"task_id":    "TASK-0404",
		"new_status": "completed",
		"agent":      "tracker",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "TASK-0404 not found")

	out, err = ts.Invoke(ctx, "update_task_status", map[string]any{
		"task_id":    "TASK-0001",
		"new_status": "finished",
		"agent":      "tracker",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "unknown task status")
}

func TestToolsetWorkflowAndWorkload(t *testing.T) {
	ts := NewToolset(NewService())
	ctx := context.Background()

	out, err := ts.Invoke(ctx, "orchestrate_workflow", map[string]any{
		"workflow_type": "sprint_planning",
		"parameters":    map[string]any{"sprint": "S4"},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "TASK-0001")
	assert.Contains(t, out, "TASK-0004")
	assert.Contains(t, out, "dependency order")

	out, err = ts.Invoke(ctx, "orchestrate_workflow", map[string]any{
		"workflow_type": "nonexistent",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "unknown workflow type")

	out, err = ts.Invoke(ctx, "get_workload", map[string]any{"agent": "tracker"})
	require.NoError(t, err)
	assert.Contains(t, out, "Workload for tracker")
	// One pending sprint_planning task for tracker: score 2.
	assert.Contains(t, out, "Workload score: 2")
}

func TestToolsetSimulateCommunication(t *testing.T) {
	ts := NewToolset(NewService())

	out, err := ts.Invoke(context.Background(), "simulate_communication", map[string]any{
		"from_agent": "planner",
		"to_agent":   "repo",
		"request":    "Analyze the technical debt",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "technical debt")
	assert.Contains(t, out, "Both messages logged")
}

func TestToolsetMetricsIsJSON(t *testing.T) {
	ts := NewToolset(NewService())
	svc := ts.Service()
	svc.Send("a", "b", MessageNotification, "hello")

	out, err := ts.Invoke(context.Background(), "get_metrics", nil)
	require.NoError(t, err)

	var m Metrics
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, 1, m.TotalMessages)
}

func TestToolsetUnknownTool(t *testing.T) {
	ts := NewToolset(NewService())
	_, err := ts.Invoke(context.Background(), "teleport", nil)
	assert.Error(t, err)
}
