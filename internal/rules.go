package internal

import "github.com/Knetic/govaluate"

// DefaultFilter is the actionable-event predicate applied when no filters are
// configured: a pull request event whose action opens or updates the PR.
const DefaultFilter = `has_pull_request == true && (action == "opened" || action == "synchronize")`

type compiledFilter struct {
	when string
	expr *govaluate.EvaluableExpression
}

// FilterEngine evaluates filter expressions over a flattened webhook payload.
// Nested fields are addressable with bracket escaping, e.g.
// [pull_request.draft] == false. Top-level key presence is exposed through
// has_<key> parameters.
type FilterEngine struct {
	filters []compiledFilter
}

func NewFilterEngine(filters []FilterRule) (*FilterEngine, error) {
	if len(filters) == 0 {
		filters = []FilterRule{{When: DefaultFilter}}
	}

	compiled := make([]compiledFilter, 0, len(filters))
	for _, rule := range filters {
		expr, err := govaluate.NewEvaluableExpression(rule.When)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledFilter{when: rule.When, expr: expr})
	}
	return &FilterEngine{filters: compiled}, nil
}

// Match reports whether any filter matches the parameters. Evaluation errors
// (typically a referenced parameter missing from the payload) count as
// no-match, never as a failure.
func (e *FilterEngine) Match(params map[string]interface{}) bool {
	for _, rule := range e.filters {
		result, err := rule.expr.Evaluate(params)
		if err != nil {
			continue
		}
		if ok, _ := result.(bool); ok {
			return true
		}
	}
	return false
}
