package webhook

import (
	"strings"

	"jirahook/pkg/jira"
)

// untitledPlaceholder stands in for an absent issue title so mapping never
// produces an empty summary.
const untitledPlaceholder = "(untitled)"

// MapperConfig holds the configuration-resolved parts of the mapping.
// Project key and issue type belong to the destination's namespace and are
// validated out-of-band, never derived from the event.
type MapperConfig struct {
	ProjectKey    string
	IssueType     string
	SummaryPrefix string
	// SummaryMaxLen bounds the summary in runes; non-positive disables
	// truncation.
	SummaryMaxLen int
}

// MapEvent builds the Jira create request for an inbound event. It is pure
// and total: absent fields get placeholders instead of errors, since a
// mapping problem must not block acknowledging the delivery.
func MapEvent(evt InboundEvent, cfg MapperConfig) jira.CreateRequest {
	title := evt.IssueTitle
	if title == "" {
		title = untitledPlaceholder
	}
	summary := title
	if cfg.SummaryPrefix != "" {
		summary = cfg.SummaryPrefix + " " + title
	}
	summary = truncate(summary, cfg.SummaryMaxLen)

	var parts []string
	if evt.IssueURL != "" {
		parts = append(parts, evt.IssueURL)
	}
	if evt.IssueBody != "" {
		parts = append(parts, evt.IssueBody)
	}

	return jira.CreateRequest{
		ProjectKey:  cfg.ProjectKey,
		Summary:     summary,
		Description: strings.Join(parts, "\n\n"),
		IssueType:   cfg.IssueType,
		Labels:      dedupe(evt.Labels),
	}
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func dedupe(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}
