package connector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ensemble-ai/ensemble/config"
	"github.com/ensemble-ai/ensemble/core"
)

// Session is a live channel to one agent: the operation contract plus the
// ability to tear the channel down.
type Session interface {
	core.AgentSession
	io.Closer
}

// Transport dials an agent process and returns a live session. The default
// is stdio MCP; tests substitute fakes.
type Transport interface {
	Dial(ctx context.Context, spec config.AgentConfig) (Session, error)
}

// protocolVersion is the MCP revision spoken to agent processes.
const protocolVersion = "2024-11-05"

// StdioTransport launches the agent as a subprocess and speaks MCP over its
// stdin/stdout.
type StdioTransport struct{}

// Dial implements Transport. Every failure path after client creation closes
// the client before returning, so no subprocess outlives a failed handshake.
func (StdioTransport) Dial(ctx context.Context, spec config.AgentConfig) (Session, error) {
	mcpClient, err := client.NewStdioMCPClient(spec.Command, envSlice(spec.Env), spec.Args...)
	if err != nil {
		return nil, fmt.Errorf("create mcp client: %w", err)
	}

	if err := mcpClient.Start(ctx); err != nil {
		_ = mcpClient.Close()
		return nil, fmt.Errorf("start mcp client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{Name: "ensemble", Version: "1.0.0"}
	initReq.Params.ProtocolVersion = protocolVersion

	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		_ = mcpClient.Close()
		return nil, fmt.Errorf("initialize mcp session: %w", err)
	}

	return &mcpSession{client: mcpClient}, nil
}

// ValidateLaunchTarget checks that the agent's launch target exists before a
// connection is attempted: the command must resolve on PATH (or be a file),
// and a script passed as first argument must exist.
func ValidateLaunchTarget(spec config.AgentConfig) error {
	if spec.Command == "" {
		return errors.New("empty launch command")
	}
	if strings.ContainsRune(spec.Command, os.PathSeparator) {
		if _, err := os.Stat(spec.Command); err != nil {
			return fmt.Errorf("launch command %s: %w", spec.Command, err)
		}
	} else if _, err := exec.LookPath(spec.Command); err != nil {
		return fmt.Errorf("launch command %s: %w", spec.Command, err)
	}
	if len(spec.Args) > 0 && looksLikePath(spec.Args[0]) {
		if _, err := os.Stat(spec.Args[0]); err != nil {
			return fmt.Errorf("launch target %s: %w", spec.Args[0], err)
		}
	}
	return nil
}

func looksLikePath(arg string) bool {
	return strings.ContainsRune(arg, os.PathSeparator) || strings.Contains(arg, ".")
}

func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	return out
}

// mcpSession adapts an MCP client to the agent operation contract.
type mcpSession struct {
	client *client.Client
}

// ListOperations implements core.AgentSession.
func (s *mcpSession) ListOperations(ctx context.Context) ([]core.Operation, error) {
	resp, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	ops := make([]core.Operation, 0, len(resp.Tools))
	for _, t := range resp.Tools {
		ops = append(ops, core.Operation{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schemaToMap(t.InputSchema),
		})
	}
	return ops, nil
}

// Invoke implements core.AgentSession. Protocol failures and agent-declared
// errors both come back as errors; the caller decides how to surface them.
func (s *mcpSession) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	resp, err := s.client.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("call tool %s: %w", name, err)
	}

	text := textContent(resp)
	if resp.IsError {
		if text == "" {
			text = "unknown tool error"
		}
		return "", errors.New(text)
	}
	if text == "" {
		return "No result", nil
	}
	return text, nil
}

// Close implements io.Closer.
func (s *mcpSession) Close() error {
	return s.client.Close()
}

func textContent(resp *mcp.CallToolResult) string {
	var texts []string
	for _, content := range resp.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// schemaToMap converts the typed MCP schema into the plain JSON-Schema map
// the rest of the system passes around.
func schemaToMap(schema mcp.ToolInputSchema) map[string]any {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
