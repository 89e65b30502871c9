// repo-agent is a demo source-repository agent speaking MCP over stdio. It
// loads a markdown commit log and exposes search and history tools over it.
//
// Usage:
//
//	repo-agent [-data path/to/commits.md]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
)

const version = "0.1.0"

func main() {
	dataPath := flag.String("data", "examples/docs/commits.md", "Path to the markdown commit log")
	flag.Parse()

	if err := run(*dataPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(dataPath string) error {
	log, err := LoadCommitLog(dataPath)
	if err != nil {
		return fmt.Errorf("loading commit log: %w", err)
	}

	s := server.NewMCPServer("repo-agent", version)

	search := NewSearchCommitsTool(log)
	s.AddTool(search.Definition(), search.Handle)

	recent := NewRecentCommitsTool(log)
	s.AddTool(recent.Definition(), recent.Handle)

	history := NewFileHistoryTool(log)
	s.AddTool(history.Definition(), history.Handle)

	summary := NewRepoSummaryTool(log)
	s.AddTool(summary.Definition(), summary.Handle)

	return server.ServeStdio(s)
}
