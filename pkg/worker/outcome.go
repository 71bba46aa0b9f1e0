package worker

// Outcome is the terminal state of one review job. Every job ends in exactly
// one of these; there are no retries, so each outcome is final.
type Outcome int

const (
	// OutcomeCompleted means the verdict comment was posted.
	OutcomeCompleted Outcome = iota
	// OutcomeDroppedEmptyDiff means the diff was empty or whitespace-only.
	// The job stops silently: no model call, no comment.
	OutcomeDroppedEmptyDiff
	// OutcomeUpstreamFetchFailed means the diff could not be fetched.
	OutcomeUpstreamFetchFailed
	// OutcomeModelFailed means the model invocation returned an error.
	OutcomeModelFailed
	// OutcomeCommentPostFailed means a verdict was produced but posting it
	// back failed.
	OutcomeCommentPostFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeDroppedEmptyDiff:
		return "dropped_empty_diff"
	case OutcomeUpstreamFetchFailed:
		return "upstream_fetch_failed"
	case OutcomeModelFailed:
		return "model_failed"
	case OutcomeCommentPostFailed:
		return "comment_post_failed"
	default:
		return "unknown"
	}
}
