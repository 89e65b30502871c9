package main

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Commit is one entry parsed from the markdown commit log, newest first.
type Commit struct {
	SHA     string
	Date    string
	Author  string
	Message string
	Files   []string
}

// CommitLog holds the parsed commits in file order.
type CommitLog struct {
	commits []Commit
}

var commitRe = regexp.MustCompile(`^##\s+([0-9a-f]{7,40})\s+(\d{4}-\d{2}-\d{2})\s+(\S+)$`)

// LoadCommitLog parses the markdown commit log. Each commit is a heading
// "## <sha> <date> <author>" followed by the message and an optional
// "files: a, b" line.
func LoadCommitLog(path string) (*CommitLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	log := &CommitLog{}
	var current *Commit

	flush := func() {
		if current == nil {
			return
		}
		current.Message = strings.TrimSpace(current.Message)
		log.commits = append(log.commits, *current)
		current = nil
	}

	for _, line := range strings.Split(string(data), "\n") {
		if m := commitRe.FindStringSubmatch(line); m != nil {
			flush()
			current = &Commit{SHA: m[1], Date: m[2], Author: m[3]}
			continue
		}
		if current == nil {
			continue
		}
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "files:"); ok {
			for _, f := range strings.Split(rest, ",") {
				if f = strings.TrimSpace(f); f != "" {
					current.Files = append(current.Files, f)
				}
			}
			continue
		}
		current.Message += line + "\n"
	}
	flush()

	if len(log.commits) == 0 {
		return nil, fmt.Errorf("no commits found in %s", path)
	}
	return log, nil
}

// Search returns commits whose message or file list contains the query,
// case-insensitively.
func (l *CommitLog) Search(query string) []Commit {
	q := strings.ToLower(query)
	var out []Commit
	for _, c := range l.commits {
		haystack := strings.ToLower(c.Message + " " + strings.Join(c.Files, " "))
		if strings.Contains(haystack, q) {
			out = append(out, c)
		}
	}
	return out
}

// Recent returns up to limit commits in log order.
func (l *CommitLog) Recent(limit int) []Commit {
	if limit <= 0 || limit > len(l.commits) {
		limit = len(l.commits)
	}
	return l.commits[:limit]
}

// FileHistory returns the commits touching a path.
func (l *CommitLog) FileHistory(path string) []Commit {
	var out []Commit
	for _, c := range l.commits {
		for _, f := range c.Files {
			if strings.EqualFold(f, path) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Commits returns every commit.
func (l *CommitLog) Commits() []Commit { return l.commits }

// FormatCommit renders one commit as readable text.
func FormatCommit(c Commit) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s\n", c.SHA, c.Date, c.Author)
	fmt.Fprintf(&sb, "  %s\n", strings.ReplaceAll(c.Message, "\n", "\n  "))
	if len(c.Files) > 0 {
		fmt.Fprintf(&sb, "  files: %s\n", strings.Join(c.Files, ", "))
	}
	return sb.String()
}
