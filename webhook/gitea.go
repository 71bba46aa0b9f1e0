// Package webhook holds the HTTP surface: the Gitea webhook endpoint and the
// health check.
package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"reviewbot/internal"
)

// SignatureHeader carries the hex-encoded HMAC-SHA256 of the raw body.
const SignatureHeader = "X-Gitea-Signature"

// GiteaHandler accepts Gitea pull request webhooks. The request cycle only
// verifies, routes, and enqueues; the review itself runs out of band, so the
// caller gets its response before (or while) the job executes.
type GiteaHandler struct {
	verifier  *internal.Verifier
	router    *internal.Router
	scheduler internal.Scheduler
	maxBody   int64
	logger    *log.Logger
}

func NewGiteaHandler(verifier *internal.Verifier, router *internal.Router, scheduler internal.Scheduler, maxBody int64, logger *log.Logger) *GiteaHandler {
	if logger == nil {
		logger = log.Default()
	}
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	return &GiteaHandler{
		verifier:  verifier,
		router:    router,
		scheduler: scheduler,
		maxBody:   maxBody,
		logger:    logger,
	}
}

func (h *GiteaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	internal.IncRequest("webhook")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable request body"})
		return
	}

	// The signature covers the raw bytes, never a re-serialized payload.
	if err := h.verifier.Verify(rawBody, r.Header.Get(SignatureHeader)); err != nil {
		internal.IncSignatureRejection()
		if errors.Is(err, internal.ErrMissingSignature) {
			h.logger.Printf("request without %s header rejected", SignatureHeader)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing " + SignatureHeader + " header"})
			return
		}
		h.logger.Printf("invalid webhook signature rejected")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		internal.IncParseError()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON payload"})
		return
	}

	job, result, err := h.router.Route(payload)
	switch result {
	case internal.RouteMalformed:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case internal.RouteActionable:
		if err := h.scheduler.Enqueue(r.Context(), job); err != nil {
			h.logger.Printf("enqueue failed repo=%s pr=%d: %v", job.Repo, job.Number, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to schedule review"})
			return
		}
		h.logger.Printf("review scheduled repo=%s pr=%d action=%s", job.Repo, job.Number, job.Action)
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"status":    "scheduled",
			"pr_number": job.Number,
		})
	default:
		internal.IncIgnored()
		writeJSON(w, http.StatusOK, map[string]string{"status": "event ignored"})
	}
}

// HealthHandler answers liveness probes. It stays healthy even when required
// secrets are missing, so a misconfigured deployment is debuggable instead of
// crash-looping.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
