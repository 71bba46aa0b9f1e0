package internal

import "expvar"

var (
	requestsTotal       = expvar.NewMap("reviewbot_requests_total")
	signatureRejections = expvar.NewInt("reviewbot_signature_rejections_total")
	parseErrors         = expvar.NewInt("reviewbot_parse_errors_total")
	eventsIgnored       = expvar.NewInt("reviewbot_events_ignored_total")
	jobsScheduled       = expvar.NewInt("reviewbot_jobs_scheduled_total")
	jobOutcomes         = expvar.NewMap("reviewbot_job_outcomes_total")
)

func IncRequest(path string) {
	requestsTotal.Add(path, 1)
}

func IncSignatureRejection() {
	signatureRejections.Add(1)
}

func IncParseError() {
	parseErrors.Add(1)
}

func IncIgnored() {
	eventsIgnored.Add(1)
}

func IncScheduled() {
	jobsScheduled.Add(1)
}

func IncJobOutcome(kind string) {
	jobOutcomes.Add(kind, 1)
}
