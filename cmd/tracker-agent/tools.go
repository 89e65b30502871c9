package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// SearchIssuesTool handles the search_issues tool.
type SearchIssuesTool struct {
	backlog *Backlog
}

// NewSearchIssuesTool creates a SearchIssuesTool.
func NewSearchIssuesTool(backlog *Backlog) *SearchIssuesTool {
	return &SearchIssuesTool{backlog: backlog}
}

// Definition returns the MCP tool definition for search_issues.
func (t *SearchIssuesTool) Definition() mcp.Tool {
	return mcp.NewTool("search_issues",
		mcp.WithDescription("Search the issue backlog by keyword across titles, descriptions and labels."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query, matched case-insensitively"),
		),
		mcp.WithString("status",
			mcp.Description("Optional status filter: open, in_progress, done"),
		),
	)
}

// Handle processes a search_issues call.
func (t *SearchIssuesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}
	status := req.GetString("status", "")

	results := t.backlog.Search(query, status)
	if len(results) == 0 {
		return mcp.NewToolResultText("No issues found matching your query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d issues:\n\n", len(results))
	for _, issue := range results {
		b.WriteString(FormatIssue(issue))
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// GetIssueTool handles the get_issue tool.
type GetIssueTool struct {
	backlog *Backlog
}

// NewGetIssueTool creates a GetIssueTool.
func NewGetIssueTool(backlog *Backlog) *GetIssueTool {
	return &GetIssueTool{backlog: backlog}
}

// Definition returns the MCP tool definition for get_issue.
func (t *GetIssueTool) Definition() mcp.Tool {
	return mcp.NewTool("get_issue",
		mcp.WithDescription("Fetch one issue by its id, including its full description."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Issue id, for example PROJ-101"),
		),
	)
}

// Handle processes a get_issue call.
func (t *GetIssueTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	issue, ok := t.backlog.Get(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("issue %s not found", id)), nil
	}
	return mcp.NewToolResultText(FormatIssue(issue)), nil
}

// ListIssuesTool handles the list_issues tool.
type ListIssuesTool struct {
	backlog *Backlog
}

// NewListIssuesTool creates a ListIssuesTool.
func NewListIssuesTool(backlog *Backlog) *ListIssuesTool {
	return &ListIssuesTool{backlog: backlog}
}

// Definition returns the MCP tool definition for list_issues.
func (t *ListIssuesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_issues",
		mcp.WithDescription("List backlog issues, optionally filtered by status."),
		mcp.WithString("status",
			mcp.Description("Optional status filter: open, in_progress, done"),
		),
	)
}

// Handle processes a list_issues call.
func (t *ListIssuesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := req.GetString("status", "")
	issues := t.backlog.Issues(status)
	if len(issues) == 0 {
		return mcp.NewToolResultText("No issues in the backlog."), nil
	}

	var b strings.Builder
	for _, issue := range issues {
		fmt.Fprintf(&b, "%s [%s] %s\n", issue.ID, issue.Status, issue.Title)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// SprintSummaryTool handles the sprint_summary tool.
type SprintSummaryTool struct {
	backlog *Backlog
}

// NewSprintSummaryTool creates a SprintSummaryTool.
func NewSprintSummaryTool(backlog *Backlog) *SprintSummaryTool {
	return &SprintSummaryTool{backlog: backlog}
}

// Definition returns the MCP tool definition for sprint_summary.
func (t *SprintSummaryTool) Definition() mcp.Tool {
	return mcp.NewTool("sprint_summary",
		mcp.WithDescription("Summarize the backlog: issue counts per status and total story points."),
	)
}

// Handle processes a sprint_summary call.
func (t *SprintSummaryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issues := t.backlog.Issues("")

	counts := make(map[string]int)
	points := 0
	remaining := 0
	for _, issue := range issues {
		counts[issue.Status]++
		points += issue.Points
		if !strings.EqualFold(issue.Status, "done") {
			remaining += issue.Points
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Backlog: %d issues, %d story points (%d remaining)\n", len(issues), points, remaining)
	for _, status := range []string{"open", "in_progress", "done"} {
		if counts[status] > 0 {
			fmt.Fprintf(&b, "  %s: %d\n", status, counts[status])
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
