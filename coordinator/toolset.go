package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ensemble-ai/ensemble/core"
)

// Toolset exposes the coordination service as an in-process core.AgentSession
// so the language model can call it like any subprocess agent. Every tool
// returns formatted text; operation-level failures (unknown task, unknown
// workflow) come back as descriptive text, not errors, so the model can keep
// reasoning.
type Toolset struct {
	svc *Service
}

// NewToolset wraps a Service in its tool surface.
func NewToolset(svc *Service) *Toolset {
	return &Toolset{svc: svc}
}

// Service returns the wrapped coordination service.
func (t *Toolset) Service() *Service { return t.svc }

func agentEnum() map[string]any {
	return map[string]any{"type": "string", "description": "Agent id"}
}

// ListOperations implements core.AgentSession.
func (t *Toolset) ListOperations(ctx context.Context) ([]core.Operation, error) {
	return []core.Operation{
		{
			Name:        "send_message",
			Description: "Send a message from one agent to another",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"from_agent": agentEnum(),
					"to_agent":   agentEnum(),
					"message_type": map[string]any{
						"type":        "string",
						"enum":        []string{"request", "response", "notification", "task_assignment", "status_update"},
						"description": "Type of message",
					},
					"content":           map[string]any{"type": "string", "description": "Message content"},
					"requires_response": map[string]any{"type": "boolean", "description": "Whether this message requires a response"},
				},
				"required": []string{"from_agent", "to_agent", "message_type", "content"},
			},
		},
		{
			Name:        "create_task",
			Description: "Create a multi-agent coordination task",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":       map[string]any{"type": "string", "description": "Task title"},
					"description": map[string]any{"type": "string", "description": "Detailed task description"},
					"assigned_agents": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Agents assigned to this task",
					},
					"dependencies": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Ids of tasks this task depends on",
					},
				},
				"required": []string{"title", "description", "assigned_agents"},
			},
		},
		{
			Name:        "update_task_status",
			Description: "Update the status of a coordination task",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task_id": map[string]any{"type": "string", "description": "Task id to update"},
					"new_status": map[string]any{
						"type":        "string",
						"enum":        []string{"pending", "in_progress", "completed", "failed", "cancelled"},
						"description": "New task status",
					},
					"agent":   agentEnum(),
					"results": map[string]any{"type": "object", "description": "Task results or additional data"},
				},
				"required": []string{"task_id", "new_status", "agent"},
			},
		},
		{
			Name:        "get_messages",
			Description: "Get messages addressed to a specific agent",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"agent":       agentEnum(),
					"unread_only": map[string]any{"type": "boolean", "description": "Only return recent (unread) messages"},
				},
				"required": []string{"agent"},
			},
		},
		{
			Name:        "simulate_communication",
			Description: "Simulate a request/response exchange between two agents",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"from_agent": agentEnum(),
					"to_agent":   agentEnum(),
					"request":    map[string]any{"type": "string", "description": "Request to send to the target agent"},
				},
				"required": []string{"from_agent", "to_agent", "request"},
			},
		},
		{
			Name:        "get_workload",
			Description: "Get current workload and score for an agent",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"agent": agentEnum(),
				},
				"required": []string{"agent"},
			},
		},
		{
			Name:        "orchestrate_workflow",
			Description: "Orchestrate a multi-agent workflow as a chain of dependent tasks",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"workflow_type": map[string]any{
						"type":        "string",
						"enum":        t.svc.WorkflowTypes(),
						"description": "Type of workflow to orchestrate",
					},
					"parameters": map[string]any{"type": "object", "description": "Workflow-specific parameters"},
				},
				"required": []string{"workflow_type"},
			},
		},
		{
			Name:        "get_metrics",
			Description: "Get metrics about inter-agent coordination and communication",
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		},
	}, nil
}

// Invoke implements core.AgentSession.
func (t *Toolset) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "send_message":
		return t.sendMessage(args)
	case "create_task":
		return t.createTask(args)
	case "update_task_status":
		return t.updateTaskStatus(args)
	case "get_messages":
		return t.getMessages(args)
	case "simulate_communication":
		return t.simulateCommunication(args)
	case "get_workload":
		return t.getWorkload(args)
	case "orchestrate_workflow":
		return t.orchestrateWorkflow(args)
	case "get_metrics":
		return t.getMetrics()
	default:
		return "", fmt.Errorf("unknown coordination tool %q", name)
	}
}

func (t *Toolset) sendMessage(args map[string]any) (string, error) {
	from := stringArg(args, "from_agent")
	to := stringArg(args, "to_agent")
	content := stringArg(args, "content")
	typ, err := ParseMessageType(stringArg(args, "message_type"))
	if err != nil {
		return err.Error(), nil
	}

	var opts []func(m *Message)
	if boolArg(args, "requires_response") {
		opts = append(opts, WithRequiresResponse())
	}
	msg := t.svc.Send(from, to, typ, content, opts...)

	var b strings.Builder
	b.WriteString("Message sent.\n")
	fmt.Fprintf(&b, "- ID: %s\n", msg.ID)
	fmt.Fprintf(&b, "- From: %s\n", msg.From)
	fmt.Fprintf(&b, "- To: %s\n", msg.To)
	fmt.Fprintf(&b, "- Type: %s\n", msg.Type)
	fmt.Fprintf(&b, "- Content: %s\n", msg.Content)
	fmt.Fprintf(&b, "- Timestamp: %s\n", msg.Timestamp.Format("2006-01-02T15:04:05"))
	fmt.Fprintf(&b, "- Requires response: %t", msg.RequiresResponse)
	return b.String(), nil
}

func (t *Toolset) createTask(args map[string]any) (string, error) {
	title := stringArg(args, "title")
	description := stringArg(args, "description")
	assigned := stringSliceArg(args, "assigned_agents")
	deps := stringSliceArg(args, "dependencies")

	task, err := t.svc.CreateTask(title, description, assigned, OrchestratorAgent, deps)
	if err != nil {
		return err.Error(), nil
	}

	var b strings.Builder
	b.WriteString("Coordination task created.\n")
	fmt.Fprintf(&b, "- ID: %s\n", task.ID)
	fmt.Fprintf(&b, "- Title: %s\n", task.Title)
	fmt.Fprintf(&b, "- Assigned agents: %s\n", strings.Join(task.Assigned, ", "))
	fmt.Fprintf(&b, "- Status: %s\n", task.Status)
	if len(task.Dependencies) > 0 {
		fmt.Fprintf(&b, "- Dependencies: %s\n", strings.Join(task.Dependencies, ", "))
	}
	b.WriteString("Task assignment messages sent to all assigned agents.")
	return b.String(), nil
}

func (t *Toolset) updateTaskStatus(args map[string]any) (string, error) {
	taskID := stringArg(args, "task_id")
	agent := stringArg(args, "agent")
	status, err := ParseTaskStatus(stringArg(args, "new_status"))
	if err != nil {
		return err.Error(), nil
	}
	results, _ := args["results"].(map[string]any)

	task, err := t.svc.UpdateStatus(taskID, status, agent, results)
	if err != nil {
		return fmt.Sprintf("Task %s not found.", taskID), nil
	}

	var b strings.Builder
	b.WriteString("Task status updated.\n")
	fmt.Fprintf(&b, "- Task: %s\n", task.ID)
	fmt.Fprintf(&b, "- New status: %s\n", task.Status)
	fmt.Fprintf(&b, "- Updated by: %s\n", agent)
	b.WriteString("Status update notifications sent to other assigned agents.")
	return b.String(), nil
}

func (t *Toolset) getMessages(args map[string]any) (string, error) {
	agent := stringArg(args, "agent")
	unreadOnly := true
	if v, ok := args["unread_only"].(bool); ok {
		unreadOnly = v
	}

	messages := t.svc.Messages(agent, unreadOnly)
	if len(messages) == 0 {
		qualifier := ""
		if unreadOnly {
			qualifier = "unread "
		}
		return fmt.Sprintf("No %smessages for %s.", qualifier, agent), nil
	}

	// Show at most the 10 most recent.
	if len(messages) > 10 {
		messages = messages[len(messages)-10:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Messages for %s (%d shown):\n", agent, len(messages))
	for _, m := range messages {
		content := m.Content
		if len(content) > 100 {
			content = content[:100] + "..."
		}
		fmt.Fprintf(&b, "\n%s [%s] from %s: %s", m.ID, m.Type, m.From, content)
		if m.RequiresResponse {
			b.WriteString(" (requires response)")
		}
	}
	return b.String(), nil
}

func (t *Toolset) simulateCommunication(args map[string]any) (string, error) {
	from := stringArg(args, "from_agent")
	to := stringArg(args, "to_agent")
	request := stringArg(args, "request")

	response, err := t.svc.SimulateExchange(from, to, request)
	if err != nil {
		return err.Error(), nil
	}

	var b strings.Builder
	b.WriteString("Agent communication simulated.\n")
	fmt.Fprintf(&b, "- Request from %s to %s: %s\n", from, to, request)
	fmt.Fprintf(&b, "- Response from %s: %s\n", to, response)
	b.WriteString("Both messages logged in the coordination system.")
	return b.String(), nil
}

func (t *Toolset) getWorkload(args map[string]any) (string, error) {
	agent := stringArg(args, "agent")
	w := t.svc.Workload(agent)

	var b strings.Builder
	fmt.Fprintf(&b, "Workload for %s:\n", w.Agent)
	fmt.Fprintf(&b, "- Total tasks: %d\n", w.TotalTasks)
	fmt.Fprintf(&b, "- Pending: %d\n", w.PendingTasks)
	fmt.Fprintf(&b, "- In progress: %d\n", w.InProgress)
	fmt.Fprintf(&b, "- Completed: %d\n", w.CompletedTasks)
	fmt.Fprintf(&b, "- Recent messages: %d\n", w.RecentMessages)
	fmt.Fprintf(&b, "- Workload score: %d", w.Score)
	return b.String(), nil
}

func (t *Toolset) orchestrateWorkflow(args map[string]any) (string, error) {
	workflowType := stringArg(args, "workflow_type")
	params, _ := args["parameters"].(map[string]any)

	tasks, err := t.svc.OrchestrateWorkflow(workflowType, params)
	if err != nil {
		return err.Error(), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Workflow %q orchestrated.\nCreated tasks:\n", workflowType)
	for i, task := range tasks {
		fmt.Fprintf(&b, "%d. %s: %s (agents: %s)\n", i+1, task.ID, task.Title, strings.Join(task.Assigned, ", "))
	}
	b.WriteString("Tasks will execute in dependency order.")
	return b.String(), nil
}

func (t *Toolset) getMetrics() (string, error) {
	m := t.svc.CollectMetrics()
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal metrics: %w", err)
	}
	return string(data), nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func boolArg(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func stringSliceArg(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

var _ core.AgentSession = (*Toolset)(nil)
