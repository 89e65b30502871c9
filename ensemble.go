// Package ensemble provides a high-level façade over the query orchestration
// engine: agent connection management, intent routing, tool catalog
// aggregation and the bounded model loop. Most applications interact with
// this package by:
//  1. Creating an Orchestrator via New() with a configuration
//  2. Calling Start() to launch and connect the configured agents
//  3. Submitting queries via Submit(), which always returns user-facing text
//  4. Calling Shutdown() to tear down every agent connection
//
// The façade delegates routing to router.Router, connection lifecycle to
// connector.Connector, per-query tool aggregation to catalog.Builder and the
// model loop to engine.Engine. Defaults are safe for local development; a
// production deployment typically supplies its own model and logger.
package ensemble

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ensemble-ai/ensemble/catalog"
	"github.com/ensemble-ai/ensemble/config"
	"github.com/ensemble-ai/ensemble/connector"
	"github.com/ensemble-ai/ensemble/coordinator"
	"github.com/ensemble-ai/ensemble/engine"
	"github.com/ensemble-ai/ensemble/history"
	"github.com/ensemble-ai/ensemble/logging"
	"github.com/ensemble-ai/ensemble/model"
	anthropicmodel "github.com/ensemble-ai/ensemble/model/anthropic"
	openaimodel "github.com/ensemble-ai/ensemble/model/openai"
	"github.com/ensemble-ai/ensemble/router"
)

// maxHistoryExchanges bounds how many prior exchanges are folded into the
// system prompt for follow-up queries.
const maxHistoryExchanges = 5

// Exchange is one completed query/response pair, used as conversation
// context for follow-up queries.
type Exchange = history.Exchange

// Options configures an Orchestrator.
type Options struct {
	// Model overrides the model derived from the configuration. Useful for
	// tests and custom providers.
	Model model.Model
	// Transport overrides how agent processes are launched and spoken to.
	Transport connector.Transport
	// ConnectTimeout bounds each agent connection attempt.
	ConnectTimeout time.Duration
	// HistoryLimit caps the exchanges retained per conversation. Zero
	// means unlimited.
	HistoryLimit int
	// Logger receives structured logs from every component.
	Logger *logging.OrchestratorLogger
}

// Orchestrator is the high-level entry point aggregating the connector,
// router, coordinator and engine.
type Orchestrator struct {
	cfg       *config.Config
	connector *connector.Connector
	router    *router.Router
	coord     *coordinator.Service
	builder   *catalog.Builder
	engine    *engine.Engine
	history   *history.InMemoryStore
	logger    *logging.OrchestratorLogger
}

// New creates an Orchestrator for the given configuration. The configuration
// is validated up front; a nil configuration uses the built-in defaults.
func New(cfg *config.Config, optFns ...func(o *Options)) (*Orchestrator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	opts := Options{
		ConnectTimeout: connector.DefaultConnectTimeout,
		Logger:         logging.New(nil),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	m := opts.Model
	if m == nil {
		var err error
		m, err = modelFromConfig(cfg.Model)
		if err != nil {
			return nil, err
		}
	}

	conn := connector.New(func(o *connector.Options) {
		if opts.Transport != nil {
			o.Transport = opts.Transport
		}
		o.ConnectTimeout = opts.ConnectTimeout
		o.Logger = opts.Logger.WithComponent("connector")
	})

	return &Orchestrator{
		cfg:       cfg,
		connector: conn,
		router:    router.New(cfg.Routing, cfg.DefaultAgents, cfg.Coordinator),
		coord:     coordinator.NewService(),
		builder:   catalog.NewBuilder(conn, opts.Logger.WithComponent("catalog")),
		engine: engine.New(m, func(o *engine.Options) {
			o.MaxIterations = cfg.Model.MaxIterations
			o.Logger = opts.Logger.WithComponent("engine")
		}),
		history: history.NewInMemoryStore(opts.HistoryLimit),
		logger:  opts.Logger,
	}, nil
}

// modelFromConfig builds the configured provider's model adapter.
func modelFromConfig(mc config.ModelConfig) (model.Model, error) {
	switch mc.Provider {
	case "anthropic":
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			if mc.Name != "" {
				o.Model = anthropic.Model(mc.Name)
			}
			o.Temperature = mc.Temperature
			o.MaxTokens = int64(mc.MaxTokens)
		}), nil
	case "openai":
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			if mc.Name != "" {
				o.Model = mc.Name
			}
			o.Temperature = mc.Temperature
			o.MaxCompletionTokens = int64(mc.MaxTokens)
		}), nil
	default:
		return nil, fmt.Errorf("unsupported model provider %q", mc.Provider)
	}
}

// Start connects every configured agent and registers the in-process
// coordination tool surface. Individual agent failures are logged, not
// fatal.
func (o *Orchestrator) Start(ctx context.Context) {
	o.connector.ConnectAll(ctx, o.cfg.Agents)
	o.connector.RegisterLocal(
		o.cfg.Coordinator,
		coordinator.NewToolset(o.coord),
		[]string{"messaging", "task management", "workflow orchestration"},
	)
}

// Submit answers one query. It routes the query to relevant agents, builds
// the namespaced tool catalog and runs the orchestration loop. The returned
// string is always user-facing; failures map to fixed fallback responses.
func (o *Orchestrator) Submit(ctx context.Context, query string, history []Exchange) string {
	decision := o.router.Route(query)
	o.logger.Info("routed query",
		"agents", decision.Agents,
		"complexity", string(decision.Complexity),
	)

	cat := o.builder.Build(ctx, decision.Agents)
	if cat.Empty() {
		o.logger.Warn("no tools available for query", "agents", decision.Agents)
		return engine.EmptyCatalogMessage
	}

	sess := engine.NewSession(o.systemPrompt(decision, cat, history), query)
	return o.engine.Run(ctx, sess, cat)
}

// systemPrompt assembles the per-query system prompt: the orchestrator role,
// the roster of agents contributing tools, routing metadata and a bounded
// tail of prior conversation.
func (o *Orchestrator) systemPrompt(decision router.Decision, cat *catalog.Catalog, history []Exchange) string {
	var b strings.Builder
	b.WriteString("You are an orchestrator that answers user queries by calling tools exposed by specialized agents.\n\n")

	b.WriteString(fmt.Sprintf("Relevant agents for this query (complexity: %s):\n", decision.Complexity))
	for _, agentID := range cat.Agents() {
		line := fmt.Sprintf("- %s", agentID)
		if score, ok := decision.Scores[agentID]; ok && score > 0 {
			line += fmt.Sprintf(" (relevance %d)", score)
		}
		if ac, ok := o.cfg.Agent(agentID); ok && len(ac.Capabilities) > 0 {
			line += ": " + strings.Join(ac.Capabilities, ", ")
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\nGuidelines:\n")
	b.WriteString(fmt.Sprintf("- Tool names are prefixed with the owning agent id, separated by %q.\n", catalog.Separator))
	b.WriteString("- Call tools to gather facts before answering; do not invent data.\n")
	b.WriteString(fmt.Sprintf("- When a request spans multiple agents, use the %s tools to assign tasks and sequence the work.\n", o.cfg.Coordinator))
	b.WriteString("- Give the user a single consolidated answer.\n")

	if len(history) > 0 {
		start := 0
		if len(history) > maxHistoryExchanges {
			start = len(history) - maxHistoryExchanges
		}
		b.WriteString("\nRecent conversation:\n")
		for _, ex := range history[start:] {
			b.WriteString("User: " + ex.Query + "\n")
			b.WriteString("Assistant: " + ex.Response + "\n")
		}
	}

	return b.String()
}

// SubmitConversation answers a query within a named conversation: the stored
// exchanges are used as context and the new exchange is recorded afterwards.
func (o *Orchestrator) SubmitConversation(ctx context.Context, conversationID, query string) string {
	answer := o.Submit(ctx, query, o.history.Exchanges(conversationID))
	o.history.Append(conversationID, Exchange{Query: query, Response: answer})
	return answer
}

// History exposes the conversation store.
func (o *Orchestrator) History() *history.InMemoryStore { return o.history }

// Coordinator exposes the inter-agent coordination service, for inspection
// and direct workflow orchestration.
func (o *Orchestrator) Coordinator() *coordinator.Service { return o.coord }

// Connections returns a snapshot of every agent connection.
func (o *Orchestrator) Connections() []connector.Connection {
	return o.connector.Connections()
}

// Shutdown disconnects every agent. Always safe to call, even after partial
// startup.
func (o *Orchestrator) Shutdown() {
	o.connector.DisconnectAll()
}
