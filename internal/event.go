package internal

// DeliveryEvent is the audit record emitted for each completed webhook
// delivery. RequestID is the GitHub delivery GUID when present, so an
// external consumer can deduplicate redelivered webhooks; the core itself
// does not.
type DeliveryEvent struct {
	Provider  string   `json:"provider"`
	Event     string   `json:"event"`
	Action    string   `json:"action,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
	Outcome   string   `json:"outcome"`
	IssueKey  string   `json:"issue_key,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Labels    []string `json:"labels,omitempty"`
}
