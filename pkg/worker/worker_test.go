package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"reviewbot/internal"
)

type recordingRunner struct {
	outcome Outcome
	jobs    chan internal.ReviewJob
}

func (r *recordingRunner) Run(ctx context.Context, job internal.ReviewJob) Outcome {
	r.jobs <- job
	return r.outcome
}

func publishJob(t *testing.T, pubsub *gochannel.GoChannel, topic string, payload []byte) {
	t.Helper()
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := pubsub.Publish(topic, msg); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

// TestWorkerProcessesJob tests that a published job reaches the runner and
// the finish listener sees the outcome.
func TestWorkerProcessesJob(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	runner := &recordingRunner{outcome: OutcomeCompleted, jobs: make(chan internal.ReviewJob, 1)}
	outcomes := make(chan Outcome, 1)

	w := New(
		WithSubscriber(pubsub),
		WithTopic("review.jobs"),
		WithRunner(runner),
		WithConcurrency(2),
		WithListener(Listener{
			OnJobFinish: func(ctx context.Context, job internal.ReviewJob, outcome Outcome) {
				outcomes <- outcome
			},
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the subscriber a moment to attach before publishing.
	time.Sleep(50 * time.Millisecond)

	want := internal.ReviewJob{Repo: "owner/repo", Number: 9, Action: "synchronize"}
	payload, _ := json.Marshal(want)
	publishJob(t, pubsub, "review.jobs", payload)

	select {
	case got := <-runner.jobs:
		if got != want {
			t.Fatalf("expected %+v, got %+v", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the runner")
	}

	select {
	case outcome := <-outcomes:
		if outcome != OutcomeCompleted {
			t.Fatalf("expected Completed, got %s", outcome)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the finish listener")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("worker run: %v", err)
	}
}

// TestWorkerSkipsUndecodableMessage tests that foreign messages on the topic
// are dropped without reaching the runner.
func TestWorkerSkipsUndecodableMessage(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	runner := &recordingRunner{outcome: OutcomeCompleted, jobs: make(chan internal.ReviewJob, 1)}
	decodeErrs := make(chan error, 1)

	w := New(
		WithSubscriber(pubsub),
		WithTopic("review.jobs"),
		WithRunner(runner),
		WithListener(Listener{
			OnDecodeError: func(ctx context.Context, err error) {
				decodeErrs <- err
			},
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)

	publishJob(t, pubsub, "review.jobs", []byte(`{"repo":"no-separator","number":3}`))

	select {
	case err := <-decodeErrs:
		if err == nil {
			t.Fatal("expected a decode error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the decode error")
	}

	select {
	case job := <-runner.jobs:
		t.Fatalf("runner must not see undecodable message, got %+v", job)
	default:
	}
}

// TestWorkerRequiresConfiguration tests option validation.
func TestWorkerRequiresConfiguration(t *testing.T) {
	if err := New().Run(context.Background()); err == nil {
		t.Fatal("expected error without subscriber")
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	if err := New(WithSubscriber(pubsub)).Run(context.Background()); err == nil {
		t.Fatal("expected error without runner")
	}
}
