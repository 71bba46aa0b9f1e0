package worker

import (
	"context"

	"reviewbot/internal"
)

// Listener provides hooks into the worker's lifecycle for logging, metrics,
// and tests that assert on job outcomes.
type Listener struct {
	// OnStart is called when the worker starts.
	OnStart func(ctx context.Context)
	// OnExit is called when the worker exits.
	OnExit func(ctx context.Context)
	// OnJobStart is called when a job has been decoded.
	OnJobStart func(ctx context.Context, job internal.ReviewJob)
	// OnJobFinish is called with the job's terminal outcome.
	OnJobFinish func(ctx context.Context, job internal.ReviewJob, outcome Outcome)
	// OnDecodeError is called when a message cannot be decoded into a job.
	OnDecodeError func(ctx context.Context, err error)
}
