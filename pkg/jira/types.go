package jira

// CreateRequest is a destination-side issue creation request. It is
// produced by the field mapper and consumed exactly once by the client.
type CreateRequest struct {
	ProjectKey  string
	Summary     string
	Description string
	IssueType   string
	Labels      []string
}

// Status classifies the outcome of a create-issue call.
type Status int

const (
	// StatusCreated means Jira accepted the request and created an issue.
	StatusCreated Status = iota
	// StatusRejected means Jira declined the request deterministically
	// (bad project key, invalid issue type, malformed field). Never retried.
	StatusRejected
	// StatusAuthFailure means the configured credentials were refused.
	// Never retried; an operator problem, not a caller problem.
	StatusAuthFailure
	// StatusTransient means a network failure, 429, or 5xx. Retried up to
	// the configured bound.
	StatusTransient
)

// String returns the status name for logs and audit events.
func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusRejected:
		return "rejected"
	case StatusAuthFailure:
		return "auth_failure"
	case StatusTransient:
		return "transient_failure"
	default:
		return "unknown"
	}
}

// Result is the terminal outcome of CreateIssue.
type Result struct {
	Status Status
	// Key is the created issue key, set only for StatusCreated.
	Key string
	// Reason carries diagnosable detail for rejected and failed calls.
	// It never contains credential material.
	Reason string
	// RetriesExhausted is set on StatusTransient once no further attempt
	// will be made, whether the retry bound or the overall deadline ran out.
	RetriesExhausted bool
	// Attempts is the number of HTTP calls made, including the first.
	Attempts int
}

// Wire shapes for the Jira REST v2 issue endpoint.

type createPayload struct {
	Fields issueFields `json:"fields"`
}

type issueFields struct {
	Project     projectRef   `json:"project"`
	Summary     string       `json:"summary"`
	Description string       `json:"description"`
	IssueType   issueTypeRef `json:"issuetype"`
	Labels      []string     `json:"labels,omitempty"`
}

type projectRef struct {
	Key string `json:"key"`
}

type issueTypeRef struct {
	Name string `json:"name"`
}

type createResponse struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// errorResponse is Jira's standard error body:
// {"errorMessages":[...],"errors":{"field":"message"}}.
type errorResponse struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}
