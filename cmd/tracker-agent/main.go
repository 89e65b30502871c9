// tracker-agent is a demo issue-tracking agent speaking MCP over stdio. It
// loads a markdown backlog file and exposes search, lookup and summary tools
// over it.
//
// Usage:
//
//	tracker-agent [-data path/to/backlog.md]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
)

const version = "0.1.0"

func main() {
	dataPath := flag.String("data", "examples/docs/backlog.md", "Path to the markdown backlog file")
	flag.Parse()

	if err := run(*dataPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(dataPath string) error {
	backlog, err := LoadBacklog(dataPath)
	if err != nil {
		return fmt.Errorf("loading backlog: %w", err)
	}

	s := server.NewMCPServer("tracker-agent", version)

	search := NewSearchIssuesTool(backlog)
	s.AddTool(search.Definition(), search.Handle)

	get := NewGetIssueTool(backlog)
	s.AddTool(get.Definition(), get.Handle)

	list := NewListIssuesTool(backlog)
	s.AddTool(list.Definition(), list.Handle)

	summary := NewSprintSummaryTool(backlog)
	s.AddTool(summary.Definition(), summary.Handle)

	return server.ServeStdio(s)
}
