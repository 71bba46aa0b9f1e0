package internal

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

// RouteResult classifies a webhook payload.
type RouteResult int

const (
	// RouteIgnored is any event the bot does not act on. Maps to HTTP 200.
	RouteIgnored RouteResult = iota
	// RouteActionable is a PR event that produced a ReviewJob.
	RouteActionable
	// RouteMalformed is an event that matched the filter but lacks usable
	// identifiers. A client error, maps to HTTP 400.
	RouteMalformed
)

// Router decides whether a webhook payload is an actionable PR event and
// extracts the job identifiers from it.
type Router struct {
	filters *FilterEngine
	logger  *log.Logger
}

func NewRouter(filters *FilterEngine, logger *log.Logger) *Router {
	if logger == nil {
		logger = log.Default()
	}
	return &Router{filters: filters, logger: logger}
}

// Route evaluates the payload against the filter engine and, on a match,
// validates and extracts the repository name and PR number. Malformed
// identifiers on a matching event are a client error, distinct from Ignored.
func (r *Router) Route(payload map[string]interface{}) (ReviewJob, RouteResult, error) {
	params := Flatten(payload)
	for key := range payload {
		params["has_"+key] = true
	}

	action, _ := payload["action"].(string)
	if !r.filters.Match(params) {
		r.logger.Printf("ignoring event action=%q", action)
		return ReviewJob{}, RouteIgnored, nil
	}

	number, ok := asInt64(payload["number"])
	if !ok || number <= 0 {
		return ReviewJob{}, RouteMalformed, fmt.Errorf("missing or invalid pull request number")
	}

	repo, ok := repoFullName(payload)
	if !ok {
		return ReviewJob{}, RouteMalformed, fmt.Errorf("missing or invalid repository full_name")
	}

	return ReviewJob{Repo: repo, Number: number, Action: action}, RouteActionable, nil
}

// repoFullName extracts repository.full_name and requires the "owner/repo"
// shape: exactly one separator, both sides non-empty.
func repoFullName(payload map[string]interface{}) (string, bool) {
	repository, ok := payload["repository"].(map[string]interface{})
	if !ok {
		return "", false
	}
	fullName, ok := repository["full_name"].(string)
	if !ok {
		return "", false
	}
	if strings.Count(fullName, "/") != 1 {
		return "", false
	}
	owner, name, _ := strings.Cut(fullName, "/")
	if owner == "" || name == "" {
		return "", false
	}
	return fullName, true
}

func asInt64(value interface{}) (int64, bool) {
	switch n := value.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
