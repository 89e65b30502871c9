package main

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Issue is one backlog entry parsed from the markdown file.
type Issue struct {
	ID          string
	Title       string
	Status      string
	Assignee    string
	Points      int
	Labels      []string
	Description string
}

// Backlog holds the parsed issues in file order.
type Backlog struct {
	issues []Issue
	byID   map[string]Issue
}

var (
	headingRe = regexp.MustCompile(`^##\s+([A-Z]+-\d+):\s+(.+)$`)
	fieldRe   = regexp.MustCompile(`^-\s+(\w+):\s*(.+)$`)
)

// LoadBacklog parses the markdown backlog file. Each issue is a second-level
// heading "## PROJ-123: Title" followed by "- key: value" fields and a free
// text description.
func LoadBacklog(path string) (*Backlog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	b := &Backlog{byID: make(map[string]Issue)}
	var current *Issue

	flush := func() {
		if current == nil {
			return
		}
		current.Description = strings.TrimSpace(current.Description)
		b.issues = append(b.issues, *current)
		b.byID[current.ID] = *current
		current = nil
	}

	for _, line := range strings.Split(string(data), "\n") {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			flush()
			current = &Issue{ID: m[1], Title: strings.TrimSpace(m[2]), Status: "open"}
			continue
		}
		if current == nil {
			continue
		}
		if m := fieldRe.FindStringSubmatch(line); m != nil {
			value := strings.TrimSpace(m[2])
			switch strings.ToLower(m[1]) {
			case "status":
				current.Status = value
			case "assignee":
				current.Assignee = value
			case "points":
				if n, err := strconv.Atoi(value); err == nil {
					current.Points = n
				}
			case "labels":
				for _, l := range strings.Split(value, ",") {
					if l = strings.TrimSpace(l); l != "" {
						current.Labels = append(current.Labels, l)
					}
				}
			}
			continue
		}
		current.Description += line + "\n"
	}
	flush()

	if len(b.issues) == 0 {
		return nil, fmt.Errorf("no issues found in %s", path)
	}
	return b, nil
}

// Get returns the issue with the given id.
func (b *Backlog) Get(id string) (Issue, bool) {
	issue, ok := b.byID[strings.ToUpper(strings.TrimSpace(id))]
	return issue, ok
}

// Search returns issues whose title, description or labels contain the query
// (case-insensitive), optionally filtered by status.
func (b *Backlog) Search(query, status string) []Issue {
	q := strings.ToLower(query)
	var out []Issue
	for _, issue := range b.issues {
		if status != "" && !strings.EqualFold(issue.Status, status) {
			continue
		}
		haystack := strings.ToLower(issue.Title + " " + issue.Description + " " + strings.Join(issue.Labels, " "))
		if q == "" || strings.Contains(haystack, q) {
			out = append(out, issue)
		}
	}
	return out
}

// Issues returns all issues, optionally filtered by status.
func (b *Backlog) Issues(status string) []Issue {
	if status == "" {
		return b.issues
	}
	var out []Issue
	for _, issue := range b.issues {
		if strings.EqualFold(issue.Status, status) {
			out = append(out, issue)
		}
	}
	return out
}

// FormatIssue renders one issue as readable text.
func FormatIssue(issue Issue) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", issue.ID, issue.Title)
	fmt.Fprintf(&sb, "  status: %s", issue.Status)
	if issue.Assignee != "" {
		fmt.Fprintf(&sb, " | assignee: %s", issue.Assignee)
	}
	if issue.Points > 0 {
		fmt.Fprintf(&sb, " | points: %d", issue.Points)
	}
	if len(issue.Labels) > 0 {
		fmt.Fprintf(&sb, " | labels: %s", strings.Join(issue.Labels, ", "))
	}
	sb.WriteString("\n")
	if issue.Description != "" {
		fmt.Fprintf(&sb, "  %s\n", issue.Description)
	}
	return sb.String()
}
