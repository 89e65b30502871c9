// Package coordinator implements the inter-agent message queue and the
// dependency-ordered task registry. It is used two ways: directly as a
// library by the orchestrator, and as an in-process tool surface (Toolset)
// the language model can call like any other agent.
//
// All state lives in one Service guarded by a single mutex; every mutating
// operation is one critical section. Messages and tasks are retained for the
// process lifetime — there is no eviction, and nothing survives a restart.
package coordinator

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// MessageType classifies an inter-agent message.
type MessageType int

const (
	// MessageRequest asks another agent to do or report something.
	MessageRequest MessageType = iota
	// MessageResponse answers a prior request (carries the parent id).
	MessageResponse
	// MessageNotification is informational, no response expected.
	MessageNotification
	// MessageTaskAssignment notifies an agent it was assigned a task.
	MessageTaskAssignment
	// MessageStatusUpdate notifies co-assignees of a task status change.
	MessageStatusUpdate
)

var messageTypeNames = map[MessageType]string{
	MessageRequest:        "request",
	MessageResponse:       "response",
	MessageNotification:   "notification",
	MessageTaskAssignment: "task_assignment",
	MessageStatusUpdate:   "status_update",
}

// String returns the configuration/tool-surface key for the message type.
func (t MessageType) String() string {
	if s, ok := messageTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// ParseMessageType maps a string key to its MessageType. Unknown keys are an
// error; the tool surface relies on this for load-time validation of model
// supplied arguments.
func ParseMessageType(s string) (MessageType, error) {
	for t, name := range messageTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown message type %q", s)
}

// TaskStatus is the lifecycle state of a coordination task.
type TaskStatus int

const (
	// StatusPending means the task has been created but not started.
	StatusPending TaskStatus = iota
	// StatusInProgress means an assignee is working the task.
	StatusInProgress
	// StatusCompleted means the task finished successfully.
	StatusCompleted
	// StatusFailed means the task finished unsuccessfully.
	StatusFailed
	// StatusCancelled means the task was abandoned.
	StatusCancelled
)

var taskStatusNames = map[TaskStatus]string{
	StatusPending:    "pending",
	StatusInProgress: "in_progress",
	StatusCompleted:  "completed",
	StatusFailed:     "failed",
	StatusCancelled:  "cancelled",
}

// String returns the configuration/tool-surface key for the status.
func (s TaskStatus) String() string {
	if n, ok := taskStatusNames[s]; ok {
		return n
	}
	return "unknown"
}

// ParseTaskStatus maps a string key to its TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, error) {
	for st, name := range taskStatusNames {
		if name == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown task status %q", s)
}

// Message is one append-only inter-agent message. Ids are monotonic per
// process run; there is no delivery acknowledgment beyond being queryable by
// the recipient.
type Message struct {
	ID               string         `json:"id"`
	From             string         `json:"from"`
	To               string         `json:"to"`
	Type             MessageType    `json:"type"`
	Content          string         `json:"content"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	Timestamp        time.Time      `json:"timestamp"`
	RequiresResponse bool           `json:"requires_response"`
	ParentID         string         `json:"parent_id,omitempty"`
}

// Task is one unit of multi-agent work. Dependencies reference only tasks
// that existed when the task was created, so the dependency graph is acyclic
// by construction.
type Task struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Assigned     []string       `json:"assigned_agents"`
	Status       TaskStatus     `json:"status"`
	CreatedBy    string         `json:"created_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Dependencies []string       `json:"dependencies,omitempty"`
	Results      map[string]any `json:"results,omitempty"`
}

// Workload is a derived per-agent load snapshot. It is computed on demand
// and never stored.
type Workload struct {
	Agent          string `json:"agent"`
	TotalTasks     int    `json:"total_tasks"`
	PendingTasks   int    `json:"pending_tasks"`
	InProgress     int    `json:"in_progress_tasks"`
	CompletedTasks int    `json:"completed_tasks"`
	RecentMessages int    `json:"recent_messages"`
	// Score weights open work: pending*2 + in_progress*3.
	Score int `json:"workload_score"`
}

// Metrics summarizes coordination activity since process start.
type Metrics struct {
	TotalMessages  int            `json:"total_messages"`
	TotalTasks     int            `json:"total_tasks"`
	MessagesByType map[string]int `json:"messages_by_type"`
	TasksByStatus  map[string]int `json:"tasks_by_status"`
	AgentActivity  map[string]int `json:"agent_activity"` // messages sent + received per agent
}

// Errors surfaced by coordinator operations. They are descriptive by design:
// the tool surface converts them into not-found text for the model rather
// than hard failures.
var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrUnknownWorkflow = errors.New("unknown workflow type")
	ErrUnknownDep      = errors.New("dependency references unknown task")
)

// OrchestratorAgent identifies the coordinating process itself as a message
// sender and task creator.
const OrchestratorAgent = "orchestrator"

// DefaultUnreadWindow approximates unread state: with no real read-offset
// tracking, messages newer than this trailing window count as unread.
const DefaultUnreadWindow = 24 * time.Hour

// Service owns the message queue and task registry.
type Service struct {
	mu           sync.Mutex
	messages     []Message
	tasks        []Task
	taskIndex    map[string]int
	msgSeq       int
	taskSeq      int
	workflows    map[string][]WorkflowStep
	unreadWindow time.Duration
	now          func() time.Time
}

// Options tunes a Service.
type Options struct {
	// UnreadWindow overrides DefaultUnreadWindow.
	UnreadWindow time.Duration
	// Now overrides the clock; tests use it to pin timestamps.
	Now func() time.Time
}

// NewService creates an empty coordination service.
func NewService(optFns ...func(o *Options)) *Service {
	opts := Options{UnreadWindow: DefaultUnreadWindow, Now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Service{
		taskIndex:    make(map[string]int),
		unreadWindow: opts.UnreadWindow,
		now:          opts.Now,
	}
}

// Send appends a message with a freshly allocated id and timestamp and
// returns it.
func (s *Service) Send(from, to string, typ MessageType, content string, optFns ...func(m *Message)) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendLocked(from, to, typ, content, optFns...)
}

// WithMetadata attaches metadata to an outgoing message.
func WithMetadata(md map[string]any) func(m *Message) {
	return func(m *Message) { m.Metadata = md }
}

// WithRequiresResponse marks an outgoing message as requiring a response.
func WithRequiresResponse() func(m *Message) {
	return func(m *Message) { m.RequiresResponse = true }
}

// WithParent correlates an outgoing message to the request it answers.
func WithParent(parentID string) func(m *Message) {
	return func(m *Message) { m.ParentID = parentID }
}

func (s *Service) sendLocked(from, to string, typ MessageType, content string, optFns ...func(m *Message)) Message {
	s.msgSeq++
	msg := Message{
		ID:        fmt.Sprintf("MSG-%04d", s.msgSeq),
		From:      from,
		To:        to,
		Type:      typ,
		Content:   content,
		Timestamp: s.now(),
	}
	for _, fn := range optFns {
		fn(&msg)
	}
	s.messages = append(s.messages, msg)
	return msg
}

// Messages returns messages addressed to agent. With unreadOnly set, only
// messages inside the trailing unread window are returned; there is no true
// read-offset tracking.
func (s *Service) Messages(agent string, unreadOnly bool) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messagesLocked(agent, unreadOnly)
}

func (s *Service) messagesLocked(agent string, unreadOnly bool) []Message {
	cutoff := s.now().Add(-s.unreadWindow)
	var out []Message
	for _, m := range s.messages {
		if m.To != agent {
			continue
		}
		if unreadOnly && !m.Timestamp.After(cutoff) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// CreateTask allocates a pending task and synchronously sends a
// requires-response task_assignment message to every assigned agent. Every
// dependency must name an already existing task, which keeps the dependency
// graph acyclic.
func (s *Service) CreateTask(title, description string, assigned []string, createdBy string, dependencies []string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createTaskLocked(title, description, assigned, createdBy, dependencies)
}

func (s *Service) createTaskLocked(title, description string, assigned []string, createdBy string, dependencies []string) (Task, error) {
	for _, dep := range dependencies {
		if _, ok := s.taskIndex[dep]; !ok {
			return Task{}, fmt.Errorf("%w: %s", ErrUnknownDep, dep)
		}
	}

	s.taskSeq++
	now := s.now()
	task := Task{
		ID:           fmt.Sprintf("TASK-%04d", s.taskSeq),
		Title:        title,
		Description:  description,
		Assigned:     append([]string{}, assigned...),
		Status:       StatusPending,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
		Dependencies: append([]string{}, dependencies...),
		Results:      map[string]any{},
	}
	s.taskIndex[task.ID] = len(s.tasks)
	s.tasks = append(s.tasks, task)

	for _, agent := range assigned {
		s.sendLocked(OrchestratorAgent, agent, MessageTaskAssignment,
			fmt.Sprintf("New task assigned: %s", title),
			WithMetadata(map[string]any{
				"task_id":      task.ID,
				"description":  description,
				"dependencies": append([]string{}, dependencies...),
			}),
			WithRequiresResponse(),
		)
	}

	return task, nil
}

// UpdateStatus mutates a task's status, timestamp and result map, then sends
// a status_update notification to every other assigned agent (the actor is
// excluded). Unknown ids return ErrTaskNotFound.
func (s *Service) UpdateStatus(taskID string, newStatus TaskStatus, actingAgent string, results map[string]any) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.taskIndex[taskID]
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	task := &s.tasks[idx]
	oldStatus := task.Status
	task.Status = newStatus
	task.UpdatedAt = s.now()
	for k, v := range results {
		task.Results[k] = v
	}

	for _, assigned := range task.Assigned {
		if assigned == actingAgent {
			continue
		}
		s.sendLocked(actingAgent, assigned, MessageStatusUpdate,
			fmt.Sprintf("Task %s status changed: %s -> %s", taskID, oldStatus, newStatus),
			WithMetadata(map[string]any{
				"task_id":    taskID,
				"old_status": oldStatus.String(),
				"new_status": newStatus.String(),
				"updated_by": actingAgent,
			}),
		)
	}

	return *task, nil
}

// Task returns a task by id.
func (s *Service) Task(taskID string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.taskIndex[taskID]
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return s.tasks[idx], nil
}

// Tasks returns a snapshot of every task in creation order.
func (s *Service) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Task{}, s.tasks...)
}

// Workload aggregates an agent's task counts, recent message count and the
// weighted score. It is a pure function of current state: calling it twice
// with no intervening mutation returns identical results.
func (s *Service) Workload(agent string) Workload {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := Workload{Agent: agent}
	for _, t := range s.tasks {
		if !contains(t.Assigned, agent) {
			continue
		}
		w.TotalTasks++
		switch t.Status {
		case StatusPending:
			w.PendingTasks++
		case StatusInProgress:
			w.InProgress++
		case StatusCompleted:
			w.CompletedTasks++
		}
	}
	w.RecentMessages = len(s.messagesLocked(agent, true))
	w.Score = w.PendingTasks*2 + w.InProgress*3
	return w
}

// CollectMetrics summarizes coordination activity.
func (s *Service) CollectMetrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := Metrics{
		TotalMessages:  len(s.messages),
		TotalTasks:     len(s.tasks),
		MessagesByType: map[string]int{},
		TasksByStatus:  map[string]int{},
		AgentActivity:  map[string]int{},
	}
	for _, msg := range s.messages {
		m.MessagesByType[msg.Type.String()]++
		m.AgentActivity[msg.From]++
		m.AgentActivity[msg.To]++
	}
	for _, t := range s.tasks {
		m.TasksByStatus[t.Status.String()]++
	}
	return m
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
