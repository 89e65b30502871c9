// Package catalog aggregates the operations of connected agents into one
// namespaced tool catalog and dispatches namespaced calls back to the owning
// agent.
//
// External tool names take the form <agentId>_<toolName>. Recovery splits on
// the first separator only, so agent ids must not contain it and tool names
// must not begin with it; both are validated when the catalog is built. The
// catalog is rebuilt per query and never persisted.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ensemble-ai/ensemble/core"
	"github.com/ensemble-ai/ensemble/logging"
)

// Separator joins agent id and tool name in the external namespace.
const Separator = "_"

// ErrEmptyCatalog signals that no tools could be aggregated; the
// orchestration loop must short-circuit instead of invoking the model.
var ErrEmptyCatalog = errors.New("no tools available from any agent")

// Descriptor is one catalog entry: an agent operation plus its owner.
type Descriptor struct {
	AgentID     string
	Name        string
	Description string
	InputSchema map[string]any
}

// NamespacedName returns the external tool name for this descriptor.
func (d Descriptor) NamespacedName() string {
	return d.AgentID + Separator + d.Name
}

// Split recovers (agentId, toolName) from an external tool name by cutting
// at the first separator.
func Split(namespaced string) (agentID, toolName string, err error) {
	agentID, toolName, found := strings.Cut(namespaced, Separator)
	if !found || agentID == "" || toolName == "" {
		return "", "", fmt.Errorf("malformed namespaced tool name %q", namespaced)
	}
	return agentID, toolName, nil
}

// boundTool is a resolved dispatch target: the owning session and the bare
// tool name. Binding happens once at build time so dispatch never re-parses
// strings beyond the single namespace decode.
type boundTool struct {
	descriptor Descriptor
	session    core.AgentSession
}

// Catalog is the merged, namespaced tool catalog for one query.
type Catalog struct {
	entries []Descriptor
	bound   map[string]boundTool
}

// SessionResolver looks up the live session for an agent id. The connector
// satisfies this.
type SessionResolver interface {
	Session(agentID string) (core.AgentSession, bool)
}

// Builder assembles catalogs from connected agents.
type Builder struct {
	resolver SessionResolver
	logger   logging.Logger
}

// NewBuilder creates a catalog builder over the given session resolver.
func NewBuilder(resolver SessionResolver, logger logging.Logger) *Builder {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Builder{resolver: resolver, logger: logger}
}

// Build lists the operations of every named agent and merges them under the
// namespace. Agents that are unreachable or fail to list are omitted
// without failing the build. Operations whose names would break namespace
// round-tripping are rejected with a logged error.
func (b *Builder) Build(ctx context.Context, agentIDs []string) *Catalog {
	cat := &Catalog{bound: make(map[string]boundTool)}

	for _, agentID := range agentIDs {
		session, ok := b.resolver.Session(agentID)
		if !ok {
			b.logger.Debug("agent not connected, omitting from catalog", "agent", agentID)
			continue
		}

		ops, err := session.ListOperations(ctx)
		if err != nil {
			b.logger.Warn("failed to list agent operations, omitting", "agent", agentID, "error", err.Error())
			continue
		}

		for _, op := range ops {
			if strings.Contains(agentID, Separator) {
				b.logger.Error("agent id contains namespace separator, omitting", "agent", agentID)
				break
			}
			if op.Name == "" || strings.HasPrefix(op.Name, Separator) {
				b.logger.Error("tool name breaks namespace round-trip, omitting", "agent", agentID, "tool", op.Name)
				continue
			}

			d := Descriptor{
				AgentID:     agentID,
				Name:        op.Name,
				Description: fmt.Sprintf("[%s] %s", agentID, op.Description),
				InputSchema: op.InputSchema,
			}
			if _, exists := cat.bound[d.NamespacedName()]; exists {
				continue
			}
			cat.entries = append(cat.entries, d)
			cat.bound[d.NamespacedName()] = boundTool{descriptor: d, session: session}
		}
	}

	return cat
}

// Empty reports whether the catalog holds no tools.
func (c *Catalog) Empty() bool { return len(c.entries) == 0 }

// Len returns the number of tools in the catalog.
func (c *Catalog) Len() int { return len(c.entries) }

// Descriptors returns the catalog entries in aggregation order.
func (c *Catalog) Descriptors() []Descriptor {
	return append([]Descriptor{}, c.entries...)
}

// Agents returns the distinct agent ids contributing to the catalog, in
// first-contribution order.
func (c *Catalog) Agents() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range c.entries {
		if !seen[d.AgentID] {
			seen[d.AgentID] = true
			out = append(out, d.AgentID)
		}
	}
	return out
}

// Dispatch decodes the namespaced name once, then invokes through the bound
// session. Unknown names are an error; the engine converts dispatch errors
// into tool-result text rather than aborting the turn.
func (c *Catalog) Dispatch(ctx context.Context, namespaced string, args map[string]any) (string, error) {
	bt, ok := c.bound[namespaced]
	if !ok {
		// Decode purely for the error message; nothing is dispatched by
		// re-parsed strings.
		agentID, toolName, err := Split(namespaced)
		if err != nil {
			return "", err
		}
		return "", fmt.Errorf("tool %s not available on agent %s", toolName, agentID)
	}
	return bt.session.Invoke(ctx, bt.descriptor.Name, args)
}
