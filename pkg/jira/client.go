// Package jira holds the outbound create-issue client for a Jira Cloud
// site, speaking the REST v2 issue endpoint with basic auth.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const issuePath = "/rest/api/2/issue"

// maxErrorBody caps how much of a Jira error response is read for the
// rejection reason.
const maxErrorBody = 64 << 10

// Credentials identifies the destination Jira site. APIToken is presented
// together with Email as basic auth and is never written to logs.
type Credentials struct {
	BaseURL  string
	Email    string
	APIToken string
}

// Options tunes the client's retry and timeout behavior. Zero values fall
// back to the defaults below.
type Options struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int
	// InitialBackoff is the delay before the first retry; it doubles per
	// retry up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// AttemptTimeout bounds a single HTTP call.
	AttemptTimeout time.Duration
	// OverallTimeout bounds the whole CreateIssue call across retries.
	OverallTimeout time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Client performs create-issue calls against one Jira site.
// The client itself is stateless and safe for concurrent use.
//
// The client does not deduplicate redelivered webhooks: a redelivered
// source event leads to a second issue. Callers that need dedup must key
// on the source delivery ID upstream.
type Client struct {
	endpoint   string
	email      string
	apiToken   string
	maxRetries int
	initial    time.Duration
	maxBackoff time.Duration
	perAttempt time.Duration
	overall    time.Duration
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient validates the credentials shape and returns a ready client.
func NewClient(creds Credentials, opts Options) (*Client, error) {
	if creds.BaseURL == "" {
		return nil, fmt.Errorf("jira base url is required")
	}
	parsed, err := url.Parse(creds.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("jira base url %q is not an absolute URL", creds.BaseURL)
	}
	if creds.Email == "" || creds.APIToken == "" {
		return nil, fmt.Errorf("jira email and api token are required")
	}

	c := &Client{
		endpoint:   strings.TrimRight(creds.BaseURL, "/") + issuePath,
		email:      creds.Email,
		apiToken:   creds.APIToken,
		maxRetries: opts.MaxRetries,
		initial:    opts.InitialBackoff,
		maxBackoff: opts.MaxBackoff,
		perAttempt: opts.AttemptTimeout,
		overall:    opts.OverallTimeout,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
	if c.initial <= 0 {
		c.initial = 500 * time.Millisecond
	}
	if c.maxBackoff <= 0 {
		c.maxBackoff = 8 * time.Second
	}
	if c.perAttempt <= 0 {
		c.perAttempt = 10 * time.Second
	}
	if c.overall <= 0 {
		c.overall = 30 * time.Second
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c, nil
}

// CreateIssue performs the create-issue call, retrying transient failures
// with exponential backoff. Rejections and auth failures return
// immediately; they are deterministic and retrying them only burns rate
// limit budget.
func (c *Client) CreateIssue(ctx context.Context, req CreateRequest) Result {
	payload, err := json.Marshal(createPayload{
		Fields: issueFields{
			Project:     projectRef{Key: req.ProjectKey},
			Summary:     req.Summary,
			Description: req.Description,
			IssueType:   issueTypeRef{Name: req.IssueType},
			Labels:      req.Labels,
		},
	})
	if err != nil {
		return Result{Status: StatusRejected, Reason: fmt.Sprintf("encode request: %v", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.overall)
	defer cancel()

	backoff := c.initial
	var result Result
	for attempt := 0; ; attempt++ {
		result = c.attempt(ctx, payload)
		result.Attempts = attempt + 1

		if result.Status != StatusTransient {
			return result
		}
		if attempt >= c.maxRetries {
			result.RetriesExhausted = true
			c.logger.Printf("jira create: transient failure, retries exhausted after %d attempts: %s", result.Attempts, result.Reason)
			return result
		}

		c.logger.Printf("jira create: transient failure on attempt %d, retrying in %s: %s", result.Attempts, backoff, result.Reason)
		select {
		case <-ctx.Done():
			result.RetriesExhausted = true
			result.Reason = fmt.Sprintf("%s (deadline: %v)", result.Reason, ctx.Err())
			return result
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > c.maxBackoff {
			backoff = c.maxBackoff
		}
	}
}

func (c *Client) attempt(ctx context.Context, payload []byte) Result {
	ctx, cancel := context.WithTimeout(ctx, c.perAttempt)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{Status: StatusTransient, Reason: err.Error()}
	}
	httpReq.SetBasicAuth(c.email, c.apiToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Result{Status: StatusTransient, Reason: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return Result{Status: StatusTransient, Reason: fmt.Sprintf("read response: %v", err)}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var created createResponse
		if err := json.Unmarshal(body, &created); err != nil {
			// Jira answered 2xx; the issue exists even if the body is odd.
			return Result{Status: StatusCreated}
		}
		return Result{Status: StatusCreated, Key: created.Key}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Result{Status: StatusAuthFailure, Reason: fmt.Sprintf("jira refused credentials (status %d)", resp.StatusCode)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return Result{Status: StatusTransient, Reason: "jira rate limited the request (status 429)"}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return Result{Status: StatusRejected, Reason: rejectionReason(resp.StatusCode, body)}
	default:
		return Result{Status: StatusTransient, Reason: fmt.Sprintf("jira returned status %d", resp.StatusCode)}
	}
}

// rejectionReason extracts Jira's errorMessages/errors into a single
// diagnosable line.
func rejectionReason(status int, body []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		parts := append([]string(nil), parsed.ErrorMessages...)
		fields := make([]string, 0, len(parsed.Errors))
		for field, msg := range parsed.Errors {
			fields = append(fields, field+": "+msg)
		}
		sort.Strings(fields)
		parts = append(parts, fields...)
		if len(parts) > 0 {
			return fmt.Sprintf("status %d: %s", status, strings.Join(parts, "; "))
		}
	}
	return fmt.Sprintf("status %d", status)
}
