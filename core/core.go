// Package core holds the contracts shared by every ensemble component.
//
// The central abstraction is AgentSession: anything that can enumerate its
// callable operations and invoke them by name. The connector produces
// MCP-backed sessions for subprocess agents; the coordinator implements the
// same interface in-process. Downstream code (catalog, engine) never knows
// the difference.
package core

import "context"

// Operation describes one callable capability exposed by an agent.
// InputSchema is a minimal JSON Schema object (type/properties/required).
type Operation struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// AgentSession is the operation contract every agent implements.
//
// Implementations must be safe for concurrent Invoke calls: the engine
// dispatches a whole batch of tool calls in parallel against the sessions
// that back them.
type AgentSession interface {
	// ListOperations returns the agent's callable operations. A transport
	// or protocol failure is returned as an error; the caller decides
	// whether that is fatal (the catalog builder treats it as non-fatal).
	ListOperations(ctx context.Context) ([]Operation, error)

	// Invoke calls a named operation and returns its text result. Agents
	// signal operation-level failure by returning an error; the text result
	// of a successful call may still describe a domain-level failure.
	Invoke(ctx context.Context, name string, args map[string]any) (string, error)
}
