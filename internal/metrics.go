package internal

import "expvar"

var (
	requestsTotal     = expvar.NewMap("jirahook_requests_total")
	signatureFailures = expvar.NewMap("jirahook_signature_failures_total")
	parseErrors       = expvar.NewMap("jirahook_parse_errors_total")
	outcomesTotal     = expvar.NewMap("jirahook_outcomes_total")
	upstreamErrors    = expvar.NewMap("jirahook_upstream_errors_total")
	publishErrors     = expvar.NewMap("jirahook_publish_errors_total")
)

// IncRequest counts an inbound delivery by event name.
func IncRequest(event string) {
	if event == "" {
		event = "unknown"
	}
	requestsTotal.Add(event, 1)
}

// IncSignatureFailure counts a rejected signature.
func IncSignatureFailure() {
	signatureFailures.Add("github", 1)
}

// IncParseError counts a payload that could not be parsed.
func IncParseError(event string) {
	if event == "" {
		event = "unknown"
	}
	parseErrors.Add(event, 1)
}

// IncOutcome counts a terminal pipeline outcome (created, skipped, rejected, ...).
func IncOutcome(outcome string) {
	outcomesTotal.Add(outcome, 1)
}

// IncUpstreamError counts a Jira-side failure by kind (auth, transient, rejected).
func IncUpstreamError(kind string) {
	upstreamErrors.Add(kind, 1)
}

// IncPublishError counts a failed audit publish.
func IncPublishError(topic string) {
	publishErrors.Add(topic, 1)
}
