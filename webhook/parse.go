package webhook

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/webhooks/v6/github"
)

// InboundEvent is the typed, event-agnostic view of one GitHub delivery.
// It is built once per request and never shared across requests.
type InboundEvent struct {
	// Event is the X-GitHub-Event header value, never inferred from the
	// body: different event types share field names with different
	// meanings.
	Event  string
	Action string

	IssueTitle string
	IssueBody  string
	IssueURL   string
	Actor      string
	Labels     []string
}

// ErrMissingEventHeader reports a request without an X-GitHub-Event header.
var ErrMissingEventHeader = errors.New("missing X-GitHub-Event header")

// ParseError reports a payload that could not be decoded for its declared
// event type, or that lacks a mandatory field.
type ParseError struct {
	Event  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s payload: %s", e.Event, e.Reason)
}

// ParseEvent decodes the raw delivery body into an InboundEvent for the
// event type declared in the X-GitHub-Event header. Unknown and extra JSON
// fields are ignored for forward compatibility; unknown event types decode
// only the action field and are left for the classifier to skip.
func ParseEvent(eventName string, raw []byte) (InboundEvent, error) {
	if eventName == "" {
		return InboundEvent{}, ErrMissingEventHeader
	}

	switch eventName {
	case "issues":
		var p github.IssuesPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return InboundEvent{}, &ParseError{Event: eventName, Reason: err.Error()}
		}
		if p.Action == "" {
			return InboundEvent{}, &ParseError{Event: eventName, Reason: "missing action"}
		}
		if p.Issue.HTMLURL == "" {
			return InboundEvent{}, &ParseError{Event: eventName, Reason: "missing issue.html_url"}
		}
		labels := make([]string, 0, len(p.Issue.Labels))
		for _, label := range p.Issue.Labels {
			labels = append(labels, label.Name)
		}
		return InboundEvent{
			Event:      eventName,
			Action:     p.Action,
			IssueTitle: p.Issue.Title,
			IssueBody:  p.Issue.Body,
			IssueURL:   p.Issue.HTMLURL,
			Actor:      p.Issue.User.Login,
			Labels:     labels,
		}, nil
	case "issue_comment":
		var p github.IssueCommentPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return InboundEvent{}, &ParseError{Event: eventName, Reason: err.Error()}
		}
		if p.Action == "" {
			return InboundEvent{}, &ParseError{Event: eventName, Reason: "missing action"}
		}
		if p.Issue.HTMLURL == "" {
			return InboundEvent{}, &ParseError{Event: eventName, Reason: "missing issue.html_url"}
		}
		// The comment permalink keeps the description pointing at what
		// actually triggered the issue.
		url := p.Comment.HTMLURL
		if url == "" {
			url = p.Issue.HTMLURL
		}
		labels := make([]string, 0, len(p.Issue.Labels))
		for _, label := range p.Issue.Labels {
			labels = append(labels, label.Name)
		}
		return InboundEvent{
			Event:      eventName,
			Action:     p.Action,
			IssueTitle: p.Issue.Title,
			IssueBody:  p.Comment.Body,
			IssueURL:   url,
			Actor:      p.Comment.User.Login,
			Labels:     labels,
		}, nil
	case "ping":
		var p github.PingPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return InboundEvent{}, &ParseError{Event: eventName, Reason: err.Error()}
		}
		return InboundEvent{Event: eventName}, nil
	default:
		var p struct {
			Action string `json:"action"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return InboundEvent{}, &ParseError{Event: eventName, Reason: err.Error()}
		}
		return InboundEvent{Event: eventName, Action: p.Action}, nil
	}
}
