package webhook

import "testing"

func TestClassifyAllowList(t *testing.T) {
	cases := []struct {
		event  string
		action string
		want   Decision
	}{
		{"issues", "opened", DecisionProcess},
		{"issues", "reopened", DecisionProcess},
		{"issue_comment", "created", DecisionProcess},
		{"issues", "closed", DecisionIgnore},
		{"issues", "labeled", DecisionIgnore},
		{"issue_comment", "deleted", DecisionIgnore},
		{"pull_request", "opened", DecisionIgnore},
		{"push", "", DecisionIgnore},
		{"ping", "", DecisionIgnore},
	}

	for _, tc := range cases {
		got, reason := Classify(InboundEvent{Event: tc.event, Action: tc.action})
		if got != tc.want {
			t.Fatalf("%s/%s: expected decision %v, got %v", tc.event, tc.action, tc.want, got)
		}
		if got == DecisionIgnore && reason == "" {
			t.Fatalf("%s/%s: expected a reason for the skip", tc.event, tc.action)
		}
	}
}
