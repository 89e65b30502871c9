package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// SearchCommitsTool handles the search_commits tool.
type SearchCommitsTool struct {
	log *CommitLog
}

// NewSearchCommitsTool creates a SearchCommitsTool.
func NewSearchCommitsTool(log *CommitLog) *SearchCommitsTool {
	return &SearchCommitsTool{log: log}
}

// Definition returns the MCP tool definition for search_commits.
func (t *SearchCommitsTool) Definition() mcp.Tool {
	return mcp.NewTool("search_commits",
		mcp.WithDescription("Search commit messages and touched files by keyword."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query, matched case-insensitively"),
		),
	)
}

// Handle processes a search_commits call.
func (t *SearchCommitsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}

	results := t.log.Search(query)
	if len(results) == 0 {
		return mcp.NewToolResultText("No commits found matching your query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d commits:\n\n", len(results))
	for _, c := range results {
		b.WriteString(FormatCommit(c))
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// RecentCommitsTool handles the recent_commits tool.
type RecentCommitsTool struct {
	log *CommitLog
}

// NewRecentCommitsTool creates a RecentCommitsTool.
func NewRecentCommitsTool(log *CommitLog) *RecentCommitsTool {
	return &RecentCommitsTool{log: log}
}

// Definition returns the MCP tool definition for recent_commits.
func (t *RecentCommitsTool) Definition() mcp.Tool {
	return mcp.NewTool("recent_commits",
		mcp.WithDescription("List the most recent commits."),
		mcp.WithNumber("limit",
			mcp.Description("Max commits to return (default: 10)"),
		),
	)
}

// Handle processes a recent_commits call.
func (t *RecentCommitsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 10)

	var b strings.Builder
	for _, c := range t.log.Recent(limit) {
		fmt.Fprintf(&b, "%s %s %s  %s\n", c.SHA, c.Date, c.Author, firstLine(c.Message))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// FileHistoryTool handles the file_history tool.
type FileHistoryTool struct {
	log *CommitLog
}

// NewFileHistoryTool creates a FileHistoryTool.
func NewFileHistoryTool(log *CommitLog) *FileHistoryTool {
	return &FileHistoryTool{log: log}
}

// Definition returns the MCP tool definition for file_history.
func (t *FileHistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("file_history",
		mcp.WithDescription("List the commits that touched a file path."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Repository-relative file path"),
		),
	)
}

// Handle processes a file_history call.
func (t *FileHistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("'path' is required"), nil
	}

	results := t.log.FileHistory(path)
	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No commits touch %s.", path)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d commits touch %s:\n\n", len(results), path)
	for _, c := range results {
		b.WriteString(FormatCommit(c))
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// RepoSummaryTool handles the repo_summary tool.
type RepoSummaryTool struct {
	log *CommitLog
}

// NewRepoSummaryTool creates a RepoSummaryTool.
func NewRepoSummaryTool(log *CommitLog) *RepoSummaryTool {
	return &RepoSummaryTool{log: log}
}

// Definition returns the MCP tool definition for repo_summary.
func (t *RepoSummaryTool) Definition() mcp.Tool {
	return mcp.NewTool("repo_summary",
		mcp.WithDescription("Summarize the commit log: commit count, authors and most-touched files."),
	)
}

// Handle processes a repo_summary call.
func (t *RepoSummaryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	commits := t.log.Commits()

	authors := make(map[string]int)
	files := make(map[string]int)
	for _, c := range commits {
		authors[c.Author]++
		for _, f := range c.Files {
			files[f]++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Commit log: %d commits, %d authors\n", len(commits), len(authors))
	for author, n := range authors {
		fmt.Fprintf(&b, "  %s: %d commits\n", author, n)
	}
	if len(files) > 0 {
		b.WriteString("Most-touched files:\n")
		for f, n := range files {
			if n > 1 {
				fmt.Fprintf(&b, "  %s: %d commits\n", f, n)
			}
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
