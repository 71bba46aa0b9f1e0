package worker

import (
	"context"
	"strings"

	"reviewbot/internal"
	"reviewbot/pkg/review"
)

// emptyVerdictBody is posted when the model call succeeded but produced no
// usable text. A degraded outcome, not a failure.
const emptyVerdictBody = "The review model finished but produced no output for this diff."

// ForgeClient is the subset of the forge API the pipeline needs.
type ForgeClient interface {
	FetchDiff(ctx context.Context, repo string, number int64) (string, error)
	PostComment(ctx context.Context, repo string, number int64, body string) error
}

// Reviewer produces a verdict for a diff.
type Reviewer interface {
	Review(ctx context.Context, diff string) (review.Verdict, error)
}

// Pipeline executes one review job: fetch the diff, invoke the model, post
// the comment. Steps run sequentially with no internal retry; every failure
// is terminal for the job and is reported only through the returned Outcome
// and the log.
type Pipeline struct {
	forge    ForgeClient
	reviewer Reviewer
	footer   string
	logger   Logger
}

func NewPipeline(forge ForgeClient, reviewer Reviewer, footer string, logger Logger) *Pipeline {
	if logger == nil {
		logger = stdLogger{}
	}
	return &Pipeline{forge: forge, reviewer: reviewer, footer: footer, logger: logger}
}

func (p *Pipeline) Run(ctx context.Context, job internal.ReviewJob) Outcome {
	diff, err := p.forge.FetchDiff(ctx, job.Repo, job.Number)
	if err != nil {
		p.logger.Printf("fetch diff failed repo=%s pr=%d: %v", job.Repo, job.Number, err)
		return OutcomeUpstreamFetchFailed
	}
	if strings.TrimSpace(diff) == "" {
		p.logger.Printf("empty diff repo=%s pr=%d, skipping review", job.Repo, job.Number)
		return OutcomeDroppedEmptyDiff
	}

	verdict, err := p.reviewer.Review(ctx, diff)
	if err != nil {
		p.logger.Printf("model invocation failed repo=%s pr=%d: %v", job.Repo, job.Number, err)
		return OutcomeModelFailed
	}

	body := verdict.Text
	if verdict.Empty {
		body = emptyVerdictBody
	}
	if p.footer != "" {
		body = body + p.footer
	}

	if err := p.forge.PostComment(ctx, job.Repo, job.Number, body); err != nil {
		p.logger.Printf("post comment failed repo=%s pr=%d: %v", job.Repo, job.Number, err)
		return OutcomeCommentPostFailed
	}
	p.logger.Printf("review comment posted repo=%s pr=%d", job.Repo, job.Number)
	return OutcomeCompleted
}
