// Package router scores free-text queries against the configured intent
// categories and decides which agents should participate in answering.
package router

import (
	"sort"
	"strings"

	"github.com/ensemble-ai/ensemble/config"
)

// Complexity labels how many agents a query touches. Downstream code uses it
// to decide whether workflow orchestration is worth setting up.
type Complexity string

const (
	// ComplexityLow means a single agent is involved.
	ComplexityLow Complexity = "low"
	// ComplexityMedium means exactly two agents are involved.
	ComplexityMedium Complexity = "medium"
	// ComplexityHigh means more than two agents are involved.
	ComplexityHigh Complexity = "high"
)

// Decision is the routing outcome for one query.
type Decision struct {
	// Agents lists the relevant agent ids ordered by descending score, with
	// the coordinator appended when more than one category matched.
	Agents []string
	// Scores holds the per-agent keyword match count for agents that
	// matched at least one keyword.
	Scores map[string]int
	// Complexity reflects the final agent count.
	Complexity Complexity
}

// Router matches queries to agents by counting case-insensitive substring
// hits against each category's trigger keywords.
type Router struct {
	routes        []config.RouteConfig
	defaults      []string
	coordinatorID string
}

// New builds a Router from the routing table. defaults is the agent set used
// when nothing matches; coordinatorID is appended to multi-agent decisions.
func New(routes []config.RouteConfig, defaults []string, coordinatorID string) *Router {
	return &Router{routes: routes, defaults: defaults, coordinatorID: coordinatorID}
}

// Route scores every category against the query. It never fails: a query
// matching nothing falls back to the configured default agents.
func (r *Router) Route(query string) Decision {
	lower := strings.ToLower(query)

	type scored struct {
		agent string
		score int
		order int // config position, breaks score ties deterministically
	}

	var matched []scored
	scores := make(map[string]int)

	for i, route := range r.routes {
		score := 0
		for _, kw := range route.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				score++
			}
		}
		if score == 0 {
			continue
		}
		// A category may share its agent with another category; keep the
		// higher score and the earlier position.
		if prev, ok := scores[route.Agent]; ok {
			if score > prev {
				scores[route.Agent] = score
				for j := range matched {
					if matched[j].agent == route.Agent {
						matched[j].score = score
					}
				}
			}
			continue
		}
		scores[route.Agent] = score
		matched = append(matched, scored{agent: route.Agent, score: score, order: i})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].score != matched[j].score {
			return matched[i].score > matched[j].score
		}
		return matched[i].order < matched[j].order
	})

	agents := make([]string, 0, len(matched)+1)
	for _, m := range matched {
		agents = append(agents, m.agent)
	}

	// Multi-category queries imply a need for coordination tooling.
	if len(agents) > 1 && r.coordinatorID != "" {
		agents = append(agents, r.coordinatorID)
	}

	if len(agents) == 0 {
		agents = append(agents, r.defaults...)
	}

	return Decision{Agents: agents, Scores: scores, Complexity: complexityFor(len(agents))}
}

func complexityFor(n int) Complexity {
	switch {
	case n > 2:
		return ComplexityHigh
	case n == 2:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}
