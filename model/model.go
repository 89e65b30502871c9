// Package model defines the provider-neutral language model interface the
// orchestration loop drives, so downstream logic never branches per vendor.
package model

import (
	"context"
	"fmt"
)

// Role identifies the author of a turn.
type Role string

const (
	// RoleUser is the querying side: the original query, built context and
	// tool results fed back to the model.
	RoleUser Role = "user"
	// RoleAssistant is the model side: text and tool call requests.
	RoleAssistant Role = "assistant"
)

// StopReason explains why the model stopped generating.
type StopReason string

const (
	// StopEndTurn means the model finished its answer.
	StopEndTurn StopReason = "end_turn"
	// StopToolUse means the model requested tool calls and is waiting for
	// their results.
	StopToolUse StopReason = "tool_use"
	// StopMaxTokens means generation hit the token ceiling.
	StopMaxTokens StopReason = "max_tokens"
)

// ToolCall is one function call requested by the model. ID correlates the
// call with its eventual result regardless of completion order.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult carries one tool call's outcome back to the model. IsError
// marks results that describe a failure; the content stays readable text so
// the model's reasoning remains coherent.
type ToolResult struct {
	CallID  string `json:"call_id"`
	Content string `json:"content"`
	IsError bool   `json:"is_error"`
}

// ToolDefinition declaratively exposes a callable tool to the model.
// InputSchema is a minimal JSON Schema object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Turn is one entry in the conversation history. An assistant turn may carry
// tool calls; a user turn may carry the results answering them.
type Turn struct {
	Role        Role         `json:"role"`
	Text        string       `json:"text,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// Request is the normalized model input for one generation.
type Request struct {
	System string           `json:"system,omitempty"`
	Turns  []Turn           `json:"turns"`
	Tools  []ToolDefinition `json:"tools,omitempty"`
}

// Usage captures token counts for a response.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is one complete model generation.
type Response struct {
	Text       string     `json:"text"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	StopReason StopReason `json:"stop_reason"`
	Usage      *Usage     `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Model is the minimal interface the orchestration loop requires.
type Model interface {
	// Generate produces one complete response for the request. Blocking;
	// honors ctx cancellation.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a scripted in-memory Model for tests and examples. Each call
// to Generate consumes the next scripted response; when the script runs out
// it keeps returning the last entry (or an error if nothing was scripted).
type MockModel struct {
	info    Info
	script  []Response
	errAt   map[int]error
	calls   int
	lastReq *Request
}

// NewMockModel constructs an empty-scripted mock.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:  Info{Name: name, Provider: "mock"},
		errAt: make(map[int]error),
	}
}

// Queue appends a scripted response.
func (m *MockModel) Queue(resp Response) *MockModel {
	m.script = append(m.script, resp)
	return m
}

// FailAt makes the n-th Generate call (0-based) return err.
func (m *MockModel) FailAt(n int, err error) *MockModel {
	m.errAt[n] = err
	return m
}

// Calls returns how many times Generate ran.
func (m *MockModel) Calls() int { return m.calls }

// LastRequest returns the most recent request, for assertions.
func (m *MockModel) LastRequest() *Request { return m.lastReq }

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := m.calls
	m.calls++
	m.lastReq = &req

	if err, ok := m.errAt[n]; ok {
		return nil, err
	}
	if len(m.script) == 0 {
		return nil, fmt.Errorf("mock model has no scripted responses")
	}
	if n >= len(m.script) {
		n = len(m.script) - 1
	}
	resp := m.script[n]
	return &resp, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
