package worker

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"

	"reviewbot/internal"
)

// decodeJob unmarshals a queued message into a review job. Identifier
// validation happened before enqueue; this guards against foreign messages
// landing on the topic.
func decodeJob(msg *message.Message) (internal.ReviewJob, error) {
	var job internal.ReviewJob
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		return job, err
	}
	if job.Repo == "" || !strings.Contains(job.Repo, "/") {
		return job, fmt.Errorf("invalid job repo: %q", job.Repo)
	}
	if job.Number <= 0 {
		return job, fmt.Errorf("invalid job number: %d", job.Number)
	}
	return job, nil
}
