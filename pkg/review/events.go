package review

import "strings"

// Event is the sealed interface for events arriving from the model service.
// A synchronous response is treated as a degenerate single-event stream, so
// both interaction shapes flow through the same reducer.
type Event interface {
	isEvent()
}

// ModelEvent carries a text fragment attributed to an author.
type ModelEvent struct {
	Author string
	Text   string
}

// OtherEvent is any non-content event in the stream (status markers, tool
// activity). It never contributes to the verdict.
type OtherEvent struct {
	Kind string
}

func (ModelEvent) isEvent() {}
func (OtherEvent) isEvent() {}

// Collect folds an event sequence into the final verdict text: the fragments
// of ModelEvents whose Author equals agent, concatenated in arrival order.
func Collect(events []Event, agent string) string {
	var b strings.Builder
	for _, evt := range events {
		modelEvt, ok := evt.(ModelEvent)
		if !ok || modelEvt.Author != agent {
			continue
		}
		b.WriteString(modelEvt.Text)
	}
	return b.String()
}
