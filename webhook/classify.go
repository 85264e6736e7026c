package webhook

import "fmt"

// Decision is the classifier's verdict for one delivery.
type Decision int

const (
	// DecisionProcess routes the event through mapping and issue creation.
	DecisionProcess Decision = iota
	// DecisionIgnore acknowledges the event without acting on it. Ignored
	// events still answer 200 so GitHub does not redeliver them.
	DecisionIgnore
)

// allowedActions is the fixed allow-list of (event, action) pairs the
// bridge acts on. Everything else is acknowledged and skipped.
var allowedActions = map[string]map[string]struct{}{
	"issues": {
		"opened":   {},
		"reopened": {},
	},
	"issue_comment": {
		"created": {},
	},
}

// Classify decides whether an event is acted on. For ignored events the
// returned reason is recorded in logs and the audit trail.
func Classify(evt InboundEvent) (Decision, string) {
	if evt.Event == "ping" {
		return DecisionIgnore, "ping acknowledged"
	}
	actions, ok := allowedActions[evt.Event]
	if !ok {
		return DecisionIgnore, fmt.Sprintf("event %q not handled", evt.Event)
	}
	if _, ok := actions[evt.Action]; !ok {
		return DecisionIgnore, fmt.Sprintf("action %q on event %q not handled", evt.Action, evt.Event)
	}
	return DecisionProcess, ""
}
