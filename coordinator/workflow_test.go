package coordinator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrchestrateTechnicalDebtAnalysis(t *testing.T) {
	svc := NewService()

	tasks, err := svc.OrchestrateWorkflow("technical_debt_analysis", map[string]any{"repository": "demo"})
	require.NoError(t, err)
	require.Len(t, tasks, 4)

	// Each step depends on every earlier step.
	assert.Empty(t, tasks[0].Dependencies)
	assert.Equal(t, []string{tasks[0].ID}, tasks[1].Dependencies)
	assert.Equal(t, []string{tasks[0].ID, tasks[1].ID}, tasks[2].Dependencies)
	assert.Equal(t, []string{tasks[0].ID, tasks[1].ID, tasks[2].ID}, tasks[3].Dependencies)

	assert.Equal(t, []string{"planner"}, tasks[0].Assigned)
	assert.Equal(t, []string{"repo"}, tasks[1].Assigned)
	assert.Equal(t, []string{"tracker"}, tasks[2].Assigned)
	assert.Equal(t, []string{"docs"}, tasks[3].Assigned)

	// Workflow parameters stay attached to every created task.
	for _, task := range tasks {
		stored, err := svc.Task(task.ID)
		require.NoError(t, err)
		assert.Equal(t, "demo", stored.Results["repository"])
	}

	// Every assignee got its assignment message.
	for _, agent := range []string{"planner", "repo", "tracker", "docs"} {
		assert.NotEmpty(t, svc.Messages(agent, false), agent)
	}
}

func TestOrchestrateSprintPlanning(t *testing.T) {
	svc := NewService()

	tasks, err := svc.OrchestrateWorkflow("sprint_planning", nil)
	require.NoError(t, err)
	require.Len(t, tasks, 4)

	// The first two steps are independent, the third waits on both, the
	// fourth waits on the third.
	assert.Empty(t, tasks[0].Dependencies)
	assert.Empty(t, tasks[1].Dependencies)
	assert.Equal(t, []string{tasks[0].ID, tasks[1].ID}, tasks[2].Dependencies)
	assert.Equal(t, []string{tasks[2].ID}, tasks[3].Dependencies)
}

func TestOrchestrateUnknownWorkflow(t *testing.T) {
	svc := NewService()

	_, err := svc.OrchestrateWorkflow("world_domination", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownWorkflow)
	// The rejection names the available types.
	assert.Contains(t, err.Error(), "technical_debt_analysis")
	assert.Contains(t, err.Error(), "sprint_planning")
	assert.Empty(t, svc.Tasks())
}

func TestRegisterWorkflow(t *testing.T) {
	svc := NewService()

	err := svc.RegisterWorkflow("release_notes", []WorkflowStep{
		{Title: "Collect changes", Description: "d", Agent: "repo"},
		{Title: "Write notes", Description: "d", Agent: "docs", DependsOn: []int{0}},
	})
	require.NoError(t, err)
	assert.Contains(t, svc.WorkflowTypes(), "release_notes")

	tasks, err := svc.OrchestrateWorkflow("release_notes", nil)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, []string{tasks[0].ID}, tasks[1].Dependencies)
}

func TestRegisterWorkflowRejectsForwardDependency(t *testing.T) {
	svc := NewService()

	err := svc.RegisterWorkflow("broken", []WorkflowStep{
		{Title: "a", Agent: "repo", DependsOn: []int{1}},
		{Title: "b", Agent: "docs"},
	})
	assert.Error(t, err)

	err = svc.RegisterWorkflow("self", []WorkflowStep{
		{Title: "a", Agent: "repo", DependsOn: []int{0}},
	})
	assert.Error(t, err)
}

func TestSimulateExchange(t *testing.T) {
	svc := NewService()

	response, err := svc.SimulateExchange("planner", "tracker", "List the critical bugs")
	require.NoError(t, err)
	assert.Contains(t, response, "critical bugs")

	// Both halves of the exchange are recorded, with the response linked
	// to its request.
	reqs := svc.Messages("tracker", false)
	require.Len(t, reqs, 1)
	assert.Equal(t, MessageRequest, reqs[0].Type)
	assert.True(t, reqs[0].RequiresResponse)

	resps := svc.Messages("planner", false)
	require.Len(t, resps, 1)
	assert.Equal(t, MessageResponse, resps[0].Type)
	assert.Equal(t, reqs[0].ID, resps[0].ParentID)
	assert.Equal(t, response, resps[0].Content)
}

func TestSimulateExchangeUnknownAgent(t *testing.T) {
	svc := NewService()

	response, err := svc.SimulateExchange("planner", "mystery", "do something")
	require.NoError(t, err)
	assert.Contains(t, response, "planner")
}
