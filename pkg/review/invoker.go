// Package review sends pull request diffs to an external review model and
// extracts the textual verdict from its response stream.
package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const defaultInstruction = `You are an AI code reviewer. The user message contains a Git diff.
Identify potential bugs, style problems, and maintainability issues in the
changed lines and report them as a concise bulleted list. If no significant
issues are found, say so. Be constructive and specific.`

// Config holds the settings for one invoker instance.
type Config struct {
	// BaseURL overrides the model service endpoint. Empty means the SDK default.
	BaseURL string
	// Model is the model identifier sent with each request.
	Model string
	// Agent is the author name attributed to model output events.
	Agent string
	// Instruction is the fixed review policy text prepended to the diff.
	// Empty selects the built-in default.
	Instruction string
	// Streaming selects the streaming interaction shape. The synchronous
	// shape goes through the same event reducer as a single-event stream.
	Streaming bool
	// Timeout is the explicit deadline for one model invocation.
	Timeout time.Duration
}

// Verdict is the outcome of a successful model invocation. Empty marks the
// degraded case: the call succeeded but produced no usable text. Callers must
// not treat Empty as a failure.
type Verdict struct {
	Text  string
	Empty bool
}

// Invoker runs one review per call against the configured model service.
type Invoker struct {
	client      *openai.Client
	model       string
	agent       string
	instruction string
	streaming   bool
	timeout     time.Duration
	logger      *log.Logger
}

func NewInvoker(cfg Config, apiKey string, logger *log.Logger) *Invoker {
	if logger == nil {
		logger = log.Default()
	}
	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	instruction := cfg.Instruction
	if instruction == "" {
		instruction = defaultInstruction
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Invoker{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		agent:       cfg.Agent,
		instruction: instruction,
		streaming:   cfg.Streaming,
		timeout:     timeout,
		logger:      logger,
	}
}

// Agent returns the configured author name.
func (v *Invoker) Agent() string { return v.agent }

// Review sends the diff to the model and reduces the response events into a
// verdict. Errors are returned as-is; converting them to a terminal job state
// is the caller's concern.
func (v *Invoker) Review(ctx context.Context, diff string) (Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	prompt := v.instruction + "\n\n" + diff
	started := time.Now()

	var events []Event
	var err error
	if v.streaming {
		events, err = v.streamEvents(ctx, prompt)
	} else {
		events, err = v.completeEvents(ctx, prompt)
	}
	if err != nil {
		return Verdict{}, err
	}

	text := strings.TrimSpace(Collect(events, v.agent))
	v.logger.Printf("model invocation finished in %s, events=%d, verdict_len=%d",
		time.Since(started).Round(time.Millisecond), len(events), len(text))
	if text == "" {
		return Verdict{Empty: true}, nil
	}
	return Verdict{Text: text}, nil
}

func (v *Invoker) completeEvents(ctx context.Context, prompt string) ([]Event, error) {
	resp, err := v.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: v.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, nil
	}
	return []Event{ModelEvent{Author: v.agent, Text: resp.Choices[0].Message.Content}}, nil
}

func (v *Invoker) streamEvents(ctx context.Context, prompt string) ([]Event, error) {
	stream, err := v.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: v.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Stream: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat completion stream failed: %w", err)
	}
	defer stream.Close()

	var events []Event
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return nil, fmt.Errorf("receive stream event failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			events = append(events, OtherEvent{Kind: "empty"})
			continue
		}
		choice := resp.Choices[0]
		if choice.Delta.Content == "" {
			events = append(events, OtherEvent{Kind: string(choice.FinishReason)})
			continue
		}
		events = append(events, ModelEvent{Author: v.agent, Text: choice.Delta.Content})
	}
}
