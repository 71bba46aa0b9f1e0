package internal

// ReviewJob is one unit of background work: fetch the diff, invoke the model,
// post the verdict, for a single (repo, PR) pair. Jobs are created by the
// router only and are not persisted; a job lost to a crash is lost.
type ReviewJob struct {
	// Repo is the repository full name in "owner/repo" form.
	Repo string `json:"repo"`
	// Number is the pull request index.
	Number int64 `json:"number"`
	// Action is the webhook action that produced the job ("opened", "synchronize").
	Action string `json:"action"`
}
