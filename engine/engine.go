// Package engine drives the bounded orchestration loop: it feeds the query
// and tool catalog to the model, dispatches requested tool calls in parallel,
// folds the results back into the conversation and repeats until the model
// answers in plain text or the iteration ceiling is hit.
package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ensemble-ai/ensemble/catalog"
	"github.com/ensemble-ai/ensemble/logging"
	"github.com/ensemble-ai/ensemble/model"
)

// User-facing fallback responses. The loop never surfaces raw errors to the
// caller; every failure mode maps to one of these.
const (
	// EmptyCatalogMessage is returned when no agent contributed any tools.
	EmptyCatalogMessage = "I'm sorry, but I couldn't connect to any agents to help with your request."
	// MaxIterationsMessage is returned verbatim when the loop hits its
	// iteration ceiling without a final answer.
	MaxIterationsMessage = "I've reached the maximum number of iterations while processing your request. Please try a simpler query."
	// ModelErrorPrefix prefixes the error text when a model call fails.
	ModelErrorPrefix = "I encountered an error while processing your request: "
	// EmptyCompletionMessage is returned when the model finishes without any
	// usable text.
	EmptyCompletionMessage = "I couldn't generate a proper response."
)

// DefaultMaxIterations bounds the model/tool round trips for one query.
const DefaultMaxIterations = 10

// Session is the mutable conversation state for one query. The engine
// appends assistant and tool-result turns as the loop progresses, so a
// caller can inspect the full exchange afterwards.
type Session struct {
	ID     string
	System string
	Turns  []model.Turn
}

// NewSession creates a session seeded with the user query.
func NewSession(system, query string) *Session {
	return &Session{
		ID:     uuid.NewString(),
		System: system,
		Turns:  []model.Turn{{Role: model.RoleUser, Text: query}},
	}
}

// Options configures an Engine.
type Options struct {
	// MaxIterations caps model/tool round trips. Values below 1 fall back
	// to DefaultMaxIterations.
	MaxIterations int
	// MaxParallel limits concurrent tool dispatches within one batch.
	// Zero or negative means no limit beyond the batch size.
	MaxParallel int
	Logger      *logging.OrchestratorLogger
}

// Engine runs the orchestration loop against a model.
type Engine struct {
	model         model.Model
	maxIterations int
	maxParallel   int
	logger        *logging.OrchestratorLogger
}

// New creates an Engine for the given model.
func New(m model.Model, optFns ...func(o *Options)) *Engine {
	opts := Options{
		MaxIterations: DefaultMaxIterations,
		Logger:        logging.New(nil).WithComponent("engine"),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxIterations < 1 {
		opts.MaxIterations = DefaultMaxIterations
	}
	return &Engine{
		model:         m,
		maxIterations: opts.MaxIterations,
		maxParallel:   opts.MaxParallel,
		logger:        opts.Logger,
	}
}

// Run executes the loop for one session. It always returns user-facing text;
// internal failures are logged and mapped to the fixed fallback responses.
func (e *Engine) Run(ctx context.Context, sess *Session, cat *catalog.Catalog) string {
	if cat == nil || cat.Empty() {
		e.logger.Warn("empty tool catalog, short-circuiting", "session", sess.ID)
		return EmptyCatalogMessage
	}

	logger := e.logger.WithAttr("session", sess.ID)
	tools := toolDefinitions(cat)

	for iteration := 1; iteration <= e.maxIterations; iteration++ {
		req := model.Request{System: sess.System, Turns: sess.Turns, Tools: tools}

		start := time.Now()
		resp, err := e.model.Generate(ctx, req)
		logger.LogModelCall(e.model.Info().Name, iteration, time.Since(start), err)
		if err != nil {
			return ModelErrorPrefix + err.Error()
		}

		if len(resp.ToolCalls) == 0 {
			if strings.TrimSpace(resp.Text) == "" {
				return EmptyCompletionMessage
			}
			sess.Turns = append(sess.Turns, model.Turn{Role: model.RoleAssistant, Text: resp.Text})
			return resp.Text
		}

		sess.Turns = append(sess.Turns, model.Turn{
			Role:      model.RoleAssistant,
			Text:      resp.Text,
			ToolCalls: resp.ToolCalls,
		})

		results := e.dispatchBatch(ctx, logger, cat, resp.ToolCalls)
		sess.Turns = append(sess.Turns, model.Turn{Role: model.RoleUser, ToolResults: results})
	}

	logger.Warn("iteration ceiling reached", "max_iterations", e.maxIterations)
	return MaxIterationsMessage
}

// dispatchBatch executes one batch of tool calls in parallel and returns the
// results in the batch's original order. One failing or panicking call never
// disturbs its siblings; its result carries the error text instead.
func (e *Engine) dispatchBatch(ctx context.Context, logger *logging.OrchestratorLogger, cat *catalog.Catalog, calls []model.ToolCall) []model.ToolResult {
	n := len(calls)
	results := make([]model.ToolResult, n)

	if n == 1 {
		results[0] = e.dispatchOne(ctx, logger, cat, calls[0])
		return results
	}

	maxPar := e.maxParallel
	if maxPar <= 0 || maxPar > n {
		maxPar = n
	}
	sem := make(chan struct{}, maxPar)

	var wg sync.WaitGroup
	for i := range calls {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, call model.ToolCall) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = e.dispatchOne(ctx, logger, cat, call)
		}(i, calls[i])
	}
	wg.Wait()

	return results
}

// dispatchOne executes a single tool call with panic safety. Any error is
// folded into the result content so the model can react to it.
func (e *Engine) dispatchOne(ctx context.Context, logger *logging.OrchestratorLogger, cat *catalog.Catalog, call model.ToolCall) model.ToolResult {
	start := time.Now()

	var (
		content string
		err     error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic during tool execution: %v", r)
				logger.Error("tool call panicked", "tool", call.Name, "recover", r, "stack", string(debug.Stack()))
			}
		}()
		content, err = cat.Dispatch(ctx, call.Name, call.Arguments)
	}()

	logger.LogToolCall(call.Name, time.Since(start), err)

	if err != nil {
		return model.ToolResult{
			CallID:  call.ID,
			Content: fmt.Sprintf("Error executing tool %s: %v", call.Name, err),
			IsError: true,
		}
	}
	return model.ToolResult{CallID: call.ID, Content: content}
}

// toolDefinitions converts catalog descriptors into model tool definitions
// under their namespaced names.
func toolDefinitions(cat *catalog.Catalog) []model.ToolDefinition {
	descriptors := cat.Descriptors()
	defs := make([]model.ToolDefinition, len(descriptors))
	for i, d := range descriptors {
		schema := d.InputSchema
		if schema == nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		defs[i] = model.ToolDefinition{
			Name:        d.NamespacedName(),
			Description: d.Description,
			InputSchema: schema,
		}
	}
	return defs
}
