package review

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestInvoker(t *testing.T, serverURL string, streaming bool) *Invoker {
	t.Helper()
	return NewInvoker(Config{
		BaseURL:   serverURL + "/v1",
		Model:     "test-model",
		Agent:     "CodeReviewer",
		Streaming: streaming,
		Timeout:   5 * time.Second,
	}, "test-key", nil)
}

// TestReviewSynchronous tests the one-shot completion shape.
func TestReviewSynchronous(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "diff --git") {
			t.Error("expected the diff inside the prompt")
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"cmpl-1","object":"chat.completion","created":1,"model":"test-model",`+
			`"choices":[{"index":0,"message":{"role":"assistant","content":"Needs a nil check."},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	verdict, err := newTestInvoker(t, server.URL, false).Review(context.Background(), "diff --git a/x b/x\n+1\n")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if verdict.Empty {
		t.Fatal("expected a non-empty verdict")
	}
	if verdict.Text != "Needs a nil check." {
		t.Fatalf("unexpected verdict %q", verdict.Text)
	}
}

// TestReviewSynchronousEmpty tests that no extracted text is a degraded
// result, not an error.
func TestReviewSynchronousEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"cmpl-1","object":"chat.completion","created":1,"model":"test-model",`+
			`"choices":[{"index":0,"message":{"role":"assistant","content":"  "},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	verdict, err := newTestInvoker(t, server.URL, false).Review(context.Background(), "diff")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if !verdict.Empty {
		t.Fatalf("expected empty verdict, got %+v", verdict)
	}
}

// TestReviewStreaming tests that streamed fragments concatenate in arrival
// order into the final verdict.
func TestReviewStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`{"id":"1","object":"chat.completion.chunk","created":1,"model":"test-model","choices":[{"index":0,"delta":{"content":"Needs "}}]}`,
			`{"id":"1","object":"chat.completion.chunk","created":1,"model":"test-model","choices":[{"index":0,"delta":{"content":"a nil "}}]}`,
			`{"id":"1","object":"chat.completion.chunk","created":1,"model":"test-model","choices":[{"index":0,"delta":{"content":"check."}}]}`,
			`{"id":"1","object":"chat.completion.chunk","created":1,"model":"test-model","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		}
		for _, chunk := range chunks {
			io.WriteString(w, "data: "+chunk+"\n\n")
		}
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	verdict, err := newTestInvoker(t, server.URL, true).Review(context.Background(), "diff")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if verdict.Text != "Needs a nil check." {
		t.Fatalf("unexpected verdict %q", verdict.Text)
	}
}

// TestReviewFailure tests that an API error is returned, not swallowed.
func TestReviewFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := newTestInvoker(t, server.URL, false).Review(context.Background(), "diff"); err == nil {
		t.Fatal("expected an error from the model call")
	}
}
