// Package worker consumes review jobs from the scheduler transport and runs
// the review pipeline for each one, with bounded concurrency.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"reviewbot/internal"
)

// Runner executes one review job to its terminal outcome.
type Runner interface {
	Run(ctx context.Context, job internal.ReviewJob) Outcome
}

// Worker subscribes to the review topic, decodes jobs, and dispatches them to
// the runner. Jobs are acked unconditionally: delivery is at-most-once and no
// failure is retried, matching the scheduler's fire-and-forget contract.
type Worker struct {
	subscriber  message.Subscriber
	runner      Runner
	topic       string
	concurrency int
	logger      Logger
	listeners   []Listener
}

// New creates a new Worker with the given options.
func New(opts ...Option) *Worker {
	w := &Worker{
		concurrency: 1,
		logger:      stdLogger{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run subscribes to the review topic and processes jobs until the context is
// canceled. A semaphore bounds in-flight jobs so webhook bursts cannot spawn
// unbounded goroutines. Each job runs on the worker's context, not the
// inbound request's: a dropped webhook connection never cancels a job.
func (w *Worker) Run(ctx context.Context) error {
	if w.subscriber == nil {
		return errors.New("subscriber is required")
	}
	if w.runner == nil {
		return errors.New("runner is required")
	}
	if w.topic == "" {
		return errors.New("topic is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgs, err := w.subscriber.Subscribe(ctx, w.topic)
	if err != nil {
		return err
	}

	w.notifyStart(ctx)
	defer w.notifyExit(ctx)

	sem := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil
		case msg, ok := <-msgs:
			if !ok {
				wg.Wait()
				return nil
			}
			sem <- struct{}{}
			wg.Add(1)
			go func(msg *message.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				w.handleMessage(ctx, msg)
			}(msg)
		}
	}
}

// Close shuts down the worker's subscriber.
func (w *Worker) Close() error {
	if w.subscriber == nil {
		return nil
	}
	return w.subscriber.Close()
}

func (w *Worker) handleMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	job, err := decodeJob(msg)
	if err != nil {
		w.logger.Printf("decode job failed: %v", err)
		w.notifyDecodeError(ctx, err)
		return
	}

	w.logger.Printf("job started repo=%s pr=%d action=%s", job.Repo, job.Number, job.Action)
	w.notifyJobStart(ctx, job)

	outcome := w.runner.Run(ctx, job)
	internal.IncJobOutcome(outcome.String())
	w.logger.Printf("job finished repo=%s pr=%d outcome=%s", job.Repo, job.Number, outcome)
	w.notifyJobFinish(ctx, job, outcome)
}

func (w *Worker) notifyStart(ctx context.Context) {
	for _, listener := range w.listeners {
		if listener.OnStart != nil {
			listener.OnStart(ctx)
		}
	}
}

func (w *Worker) notifyExit(ctx context.Context) {
	for _, listener := range w.listeners {
		if listener.OnExit != nil {
			listener.OnExit(ctx)
		}
	}
}

func (w *Worker) notifyJobStart(ctx context.Context, job internal.ReviewJob) {
	for _, listener := range w.listeners {
		if listener.OnJobStart != nil {
			listener.OnJobStart(ctx, job)
		}
	}
}

func (w *Worker) notifyJobFinish(ctx context.Context, job internal.ReviewJob, outcome Outcome) {
	for _, listener := range w.listeners {
		if listener.OnJobFinish != nil {
			listener.OnJobFinish(ctx, job, outcome)
		}
	}
}

func (w *Worker) notifyDecodeError(ctx context.Context, err error) {
	for _, listener := range w.listeners {
		if listener.OnDecodeError != nil {
			listener.OnDecodeError(ctx, err)
		}
	}
}
