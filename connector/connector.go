// Package connector manages the lifecycle of agent connections: launching
// agent processes, the connection state machine, timeouts and cleanup.
//
// State transitions are monotonic. Connecting leads only to Ready or Failed;
// Ready may fall back to Disconnected on shutdown; a connection never
// re-enters Connecting. One agent's failure never aborts the others.
package connector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ensemble-ai/ensemble/config"
	"github.com/ensemble-ai/ensemble/core"
	"github.com/ensemble-ai/ensemble/logging"
)

// State is the connection lifecycle state.
type State int

const (
	// StateDisconnected is the terminal state after shutdown.
	StateDisconnected State = iota
	// StateConnecting means a dial attempt is in flight.
	StateConnecting
	// StateReady means the session is usable.
	StateReady
	// StateFailed means the dial attempt failed; the connection is dead.
	StateFailed
)

// String returns a readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// validTransitions encodes the monotonic state machine.
var validTransitions = map[State][]State{
	StateConnecting: {StateReady, StateFailed},
	StateReady:      {StateDisconnected},
}

// Connection is one agent's connection record. Owned exclusively by the
// Connector; callers observe it through snapshots.
type Connection struct {
	AgentID      string
	Capabilities []string
	State        State
	session      Session
}

func (c *Connection) transition(to State) error {
	for _, allowed := range validTransitions[c.State] {
		if allowed == to {
			c.State = to
			return nil
		}
	}
	return fmt.Errorf("invalid transition %s -> %s for agent %s", c.State, to, c.AgentID)
}

// DefaultConnectTimeout bounds one dial attempt, handshake included.
const DefaultConnectTimeout = 30 * time.Second

// Options configures a Connector.
type Options struct {
	Transport      Transport
	ConnectTimeout time.Duration
	Logger         logging.Logger
}

// Connector owns the registry of agent connections.
type Connector struct {
	mu        sync.Mutex
	conns     map[string]*Connection
	transport Transport
	timeout   time.Duration
	logger    logging.Logger
}

// New creates a Connector. Defaults: stdio MCP transport, 30 second connect
// timeout, no-op logger.
func New(optFns ...func(o *Options)) *Connector {
	opts := Options{
		Transport:      StdioTransport{},
		ConnectTimeout: DefaultConnectTimeout,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Connector{
		conns:     make(map[string]*Connection),
		transport: opts.Transport,
		timeout:   opts.ConnectTimeout,
		logger:    opts.Logger,
	}
}

// ConnectAll dials every configured agent. Agents whose launch target does
// not exist are skipped with a logged error; individual dial failures are
// logged and do not abort the rest. Zero successful connections is a
// warning, not an error — downstream handles the empty catalog.
func (c *Connector) ConnectAll(ctx context.Context, agents []config.AgentConfig) {
	for _, spec := range agents {
		if err := ValidateLaunchTarget(spec); err != nil {
			c.logger.Error("agent launch target missing, skipping", "agent", spec.ID, "error", err.Error())
			continue
		}
		if err := c.Connect(ctx, spec); err != nil {
			c.logger.Error("failed to connect to agent", "agent", spec.ID, "error", err.Error())
		}
	}

	ready := c.Ready()
	if len(ready) == 0 {
		c.logger.Warn("no agents connected successfully")
		return
	}
	c.logger.Info("agents connected", "count", len(ready), "agents", ready)
}

// Connect dials one agent with the configured timeout. On expiry the
// in-flight attempt is cancelled and any session the transport eventually
// produces is closed — no handle survives a failed or timed-out attempt.
func (c *Connector) Connect(ctx context.Context, spec config.AgentConfig) error {
	conn := &Connection{
		AgentID:      spec.ID,
		Capabilities: spec.Capabilities,
		State:        StateConnecting,
	}

	c.mu.Lock()
	c.conns[spec.ID] = conn
	c.mu.Unlock()

	c.logger.Info("connecting to agent", "agent", spec.ID, "command", spec.Command)

	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type dialResult struct {
		session Session
		err     error
	}
	resultCh := make(chan dialResult, 1)

	go func() {
		session, err := c.transport.Dial(dialCtx, spec)
		resultCh <- dialResult{session: session, err: err}
	}()

	var res dialResult
	select {
	case res = <-resultCh:
	case <-dialCtx.Done():
		// The transport may still return a session after the deadline;
		// close it when it does so nothing leaks.
		go func() {
			if late := <-resultCh; late.session != nil {
				_ = late.session.Close()
			}
		}()
		res = dialResult{err: fmt.Errorf("connect to %s: %w", spec.ID, dialCtx.Err())}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if res.err != nil {
		if res.session != nil {
			_ = res.session.Close()
		}
		_ = conn.transition(StateFailed)
		return res.err
	}

	conn.session = res.session
	if err := conn.transition(StateReady); err != nil {
		_ = res.session.Close()
		return err
	}

	c.logger.Info("connected to agent", "agent", spec.ID)
	return nil
}

// RegisterLocal wires an in-process agent (such as the coordination tool
// surface) into the registry as an already-ready connection.
func (c *Connector) RegisterLocal(id string, session core.AgentSession, capabilities []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conns[id] = &Connection{
		AgentID:      id,
		Capabilities: capabilities,
		State:        StateReady,
		session:      nopCloserSession{session},
	}
}

// Session returns the live session for a Ready agent.
func (c *Connector) Session(agentID string) (core.AgentSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, ok := c.conns[agentID]
	if !ok || conn.State != StateReady {
		return nil, false
	}
	return conn.session, true
}

// StateOf reports an agent's connection state. Unknown agents report
// Disconnected.
func (c *Connector) StateOf(agentID string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok := c.conns[agentID]; ok {
		return conn.State
	}
	return StateDisconnected
}

// Ready returns the ids of all Ready agents.
func (c *Connector) Ready() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.conns))
	for id, conn := range c.conns {
		if conn.State == StateReady {
			ids = append(ids, id)
		}
	}
	return ids
}

// Connections returns a snapshot of every connection record.
func (c *Connector) Connections() []Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Connection, 0, len(c.conns))
	for _, conn := range c.conns {
		out = append(out, Connection{
			AgentID:      conn.AgentID,
			Capabilities: append([]string{}, conn.Capabilities...),
			State:        conn.State,
		})
	}
	return out
}

// DisconnectAll closes every live session independently, continuing past
// individual close errors, and always empties the registry afterwards.
func (c *Connector) DisconnectAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, conn := range c.conns {
		if conn.session != nil {
			if err := conn.session.Close(); err != nil {
				c.logger.Error("error closing agent session", "agent", id, "error", err.Error())
			}
		}
		if conn.State == StateReady {
			_ = conn.transition(StateDisconnected)
		}
	}
	c.conns = make(map[string]*Connection)
}

// nopCloserSession adapts an in-process AgentSession to the Session
// interface; there is no underlying channel to close.
type nopCloserSession struct {
	core.AgentSession
}

func (nopCloserSession) Close() error { return nil }
