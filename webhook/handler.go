package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"jirahook/internal"
	"jirahook/pkg/jira"

	"github.com/ThreeDotsLabs/watermill"
)

// IssueCreator performs the outbound create-issue call. Satisfied by
// *jira.Client; substituted in tests.
type IssueCreator interface {
	CreateIssue(ctx context.Context, req jira.CreateRequest) jira.Result
}

// Config wires a Handler.
type Config struct {
	// Secret enables inbound signature verification when non-empty.
	Secret string
	// MaxBodyBytes caps the request body; non-positive means no cap.
	MaxBodyBytes int64
	Mapper       MapperConfig
	Creator      IssueCreator
	// Publisher receives one audit event per completed delivery; nil
	// disables auditing.
	Publisher  internal.Publisher
	AuditTopic string
	Logger     *log.Logger
}

// Handler translates GitHub webhook deliveries into Jira issues. Each
// request runs the pipeline verify → parse → classify → map → create and
// stops at the first terminal outcome. Handlers hold only immutable
// configuration, so concurrent requests share nothing mutable.
type Handler struct {
	secret     string
	maxBody    int64
	mapper     MapperConfig
	creator    IssueCreator
	publisher  internal.Publisher
	auditTopic string
	logger     *log.Logger
}

// NewHandler creates a webhook handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		secret:     cfg.Secret,
		maxBody:    cfg.MaxBodyBytes,
		mapper:     cfg.Mapper,
		creator:    cfg.Creator,
		publisher:  cfg.Publisher,
		auditTopic: cfg.AuditTopic,
		logger:     logger,
	}
}

type response struct {
	Status string `json:"status"`
	Key    string `json:"key,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ServeHTTP handles one webhook delivery.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	// GitHub's delivery GUID correlates logs and audit events across
	// redeliveries of the same webhook.
	reqID := r.Header.Get("X-GitHub-Delivery")
	if reqID == "" {
		reqID = watermill.NewUUID()
	}
	w.Header().Set("X-Request-Id", reqID)
	logger := internal.WithRequestID(h.logger, reqID)

	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Status: "bad_request", Reason: "unreadable body"})
		return
	}

	eventName := r.Header.Get("X-GitHub-Event")
	internal.IncRequest(eventName)

	if !VerifySignature(rawBody, r.Header.Get("X-Hub-Signature-256"), h.secret) {
		internal.IncSignatureFailure()
		internal.IncOutcome("unauthorized")
		logger.Printf("signature verification failed event=%s", eventName)
		h.audit(internal.DeliveryEvent{
			Provider: "github", Event: eventName, RequestID: reqID,
			Outcome: "unauthorized",
		}, logger)
		writeJSON(w, http.StatusUnauthorized, response{Status: "unauthorized"})
		return
	}

	evt, err := ParseEvent(eventName, rawBody)
	if err != nil {
		internal.IncParseError(eventName)
		internal.IncOutcome("bad_request")
		logger.Printf("parse failed event=%s: %v", eventName, err)
		h.audit(internal.DeliveryEvent{
			Provider: "github", Event: eventName, RequestID: reqID,
			Outcome: "bad_request", Reason: err.Error(),
		}, logger)
		writeJSON(w, http.StatusBadRequest, response{Status: "bad_request", Reason: err.Error()})
		return
	}

	if decision, reason := Classify(evt); decision == DecisionIgnore {
		internal.IncOutcome("skipped")
		logger.Printf("skipped event=%s action=%s: %s", evt.Event, evt.Action, reason)
		h.audit(internal.DeliveryEvent{
			Provider: "github", Event: evt.Event, Action: evt.Action, RequestID: reqID,
			Outcome: "skipped", Reason: reason,
		}, logger)
		writeJSON(w, http.StatusOK, response{Status: "skipped", Reason: reason})
		return
	}

	req := MapEvent(evt, h.mapper)

	// The outbound call finishes even if GitHub drops the connection
	// mid-flight: the created issue is not rolled back, and a duplicate on
	// redelivery is an accepted risk rather than a silent suppression.
	ctx := context.WithoutCancel(r.Context())
	result := h.creator.CreateIssue(ctx, req)

	audit := internal.DeliveryEvent{
		Provider: "github", Event: evt.Event, Action: evt.Action, RequestID: reqID,
		Labels: req.Labels,
	}

	switch result.Status {
	case jira.StatusCreated:
		internal.IncOutcome("created")
		logger.Printf("issue created key=%s event=%s action=%s attempts=%d", result.Key, evt.Event, evt.Action, result.Attempts)
		audit.Outcome = "created"
		audit.IssueKey = result.Key
		h.audit(audit, logger)
		writeJSON(w, http.StatusCreated, response{Status: "created", Key: result.Key})
	case jira.StatusRejected:
		internal.IncOutcome("rejected")
		internal.IncUpstreamError("rejected")
		logger.Printf("jira rejected the mapped fields: %s", result.Reason)
		audit.Outcome = "rejected"
		audit.Reason = result.Reason
		h.audit(audit, logger)
		writeJSON(w, http.StatusBadRequest, response{Status: "rejected", Reason: result.Reason})
	case jira.StatusAuthFailure:
		// An operator problem, not a GitHub problem: the inbound request
		// was valid, so this must not surface as 401 to the source.
		internal.IncOutcome("upstream_auth_error")
		internal.IncUpstreamError("auth")
		logger.Printf("jira refused the configured credentials; check jira.email and jira.api_token")
		audit.Outcome = "upstream_auth_error"
		h.audit(audit, logger)
		writeJSON(w, http.StatusInternalServerError, response{Status: "error"})
	default:
		// 500 so GitHub's redelivery mechanism attempts the event again.
		internal.IncOutcome("upstream_error")
		internal.IncUpstreamError("transient")
		logger.Printf("jira call failed after %d attempts: %s", result.Attempts, result.Reason)
		audit.Outcome = "upstream_error"
		audit.Reason = result.Reason
		h.audit(audit, logger)
		writeJSON(w, http.StatusInternalServerError, response{Status: "error"})
	}
}

func (h *Handler) audit(event internal.DeliveryEvent, logger *log.Logger) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(context.Background(), h.auditTopic, event); err != nil {
		internal.IncPublishError(h.auditTopic)
		logger.Printf("audit publish failed: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
