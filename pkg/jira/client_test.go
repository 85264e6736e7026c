package jira

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var testRequest = CreateRequest{
	ProjectKey:  "PROJ",
	Summary:     "[GitHub] Fix crash",
	Description: "https://github.com/o/r/issues/1\n\nIt crashes on startup.",
	IssueType:   "Task",
	Labels:      []string{"bug"},
}

func newTestClient(t *testing.T, baseURL string, maxRetries int) *Client {
	t.Helper()
	client, err := NewClient(
		Credentials{BaseURL: baseURL, Email: "bot@example.com", APIToken: "api-token"},
		Options{
			MaxRetries:     maxRetries,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
			AttemptTimeout: time.Second,
			OverallTimeout: 5 * time.Second,
		},
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

// TestCreateIssue tests the happy path: wire shape, basic auth, and key
// extraction.
func TestCreateIssue(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rest/api/2/issue" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"10001","key":"PROJ-42"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 2)
	result := client.CreateIssue(context.Background(), testRequest)

	if result.Status != StatusCreated {
		t.Fatalf("expected created, got %v (%s)", result.Status, result.Reason)
	}
	if result.Key != "PROJ-42" {
		t.Fatalf("expected key PROJ-42, got %q", result.Key)
	}
	if result.Attempts != 1 {
		t.Fatalf("expected one attempt, got %d", result.Attempts)
	}

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("bot@example.com:api-token"))
	if gotAuth != wantAuth {
		t.Fatalf("unexpected authorization header")
	}

	fields, ok := gotBody["fields"].(map[string]any)
	if !ok {
		t.Fatalf("expected fields object, got %v", gotBody)
	}
	if project, _ := fields["project"].(map[string]any); project["key"] != "PROJ" {
		t.Fatalf("unexpected project: %v", fields["project"])
	}
	if issuetype, _ := fields["issuetype"].(map[string]any); issuetype["name"] != "Task" {
		t.Fatalf("unexpected issuetype: %v", fields["issuetype"])
	}
	if fields["summary"] != "[GitHub] Fix crash" {
		t.Fatalf("unexpected summary: %v", fields["summary"])
	}
}

// TestCreateIssueRejected tests that a validation failure is terminal and
// carries Jira's error detail.
func TestCreateIssueRejected(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorMessages":[],"errors":{"issuetype":"issue type is required"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 2)
	result := client.CreateIssue(context.Background(), testRequest)

	if result.Status != StatusRejected {
		t.Fatalf("expected rejected, got %v", result.Status)
	}
	if calls != 1 {
		t.Fatalf("expected no retries on rejection, got %d calls", calls)
	}
	if !strings.Contains(result.Reason, "issuetype: issue type is required") {
		t.Fatalf("expected field error in reason, got %q", result.Reason)
	}
}

// TestCreateIssueAuthFailure tests that 403 is terminal with zero retries.
func TestCreateIssueAuthFailure(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 2)
	result := client.CreateIssue(context.Background(), testRequest)

	if result.Status != StatusAuthFailure {
		t.Fatalf("expected auth failure, got %v", result.Status)
	}
	if calls != 1 {
		t.Fatalf("expected no retries on auth failure, got %d calls", calls)
	}
	if strings.Contains(result.Reason, "api-token") {
		t.Fatalf("reason leaked the credential: %q", result.Reason)
	}
}

// TestCreateIssueRetriesTransient tests the retry bound: with max retries
// 2 and a persistently failing server, exactly 3 attempts are made.
func TestCreateIssueRetriesTransient(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 2)
	result := client.CreateIssue(context.Background(), testRequest)

	if result.Status != StatusTransient {
		t.Fatalf("expected transient failure, got %v", result.Status)
	}
	if !result.RetriesExhausted {
		t.Fatalf("expected retries exhausted to be set")
	}
	if calls != 3 {
		t.Fatalf("expected exactly 3 attempts (initial + 2 retries), got %d", calls)
	}
	if result.Attempts != 3 {
		t.Fatalf("expected attempts 3, got %d", result.Attempts)
	}
}

// TestCreateIssueRecoversAfterTransient tests that a retry can succeed.
func TestCreateIssueRecoversAfterTransient(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"10001","key":"PROJ-7"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 2)
	result := client.CreateIssue(context.Background(), testRequest)

	if result.Status != StatusCreated || result.Key != "PROJ-7" {
		t.Fatalf("expected recovery to created PROJ-7, got %+v", result)
	}
	if result.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", result.Attempts)
	}
}

// TestCreateIssueRateLimited tests that 429 is treated as transient.
func TestCreateIssueRateLimited(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"key":"PROJ-8"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 2)
	result := client.CreateIssue(context.Background(), testRequest)

	if result.Status != StatusCreated {
		t.Fatalf("expected created after rate limit retry, got %v", result.Status)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

// TestCreateIssueNetworkError tests that a connection failure is transient.
func TestCreateIssueNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(t, server.URL, 1)
	result := client.CreateIssue(context.Background(), testRequest)

	if result.Status != StatusTransient {
		t.Fatalf("expected transient failure, got %v", result.Status)
	}
	if !result.RetriesExhausted {
		t.Fatalf("expected retries exhausted to be set")
	}
	if result.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", result.Attempts)
	}
}

// TestCreateIssueZeroRetries tests that max retries 0 means one attempt.
func TestCreateIssueZeroRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)
	result := client.CreateIssue(context.Background(), testRequest)

	if result.Status != StatusTransient || !result.RetriesExhausted {
		t.Fatalf("expected exhausted transient failure, got %+v", result)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	if _, err := NewClient(Credentials{BaseURL: "", Email: "a", APIToken: "b"}, Options{}); err == nil {
		t.Fatalf("expected error for empty base url")
	}
	if _, err := NewClient(Credentials{BaseURL: "not-a-url", Email: "a", APIToken: "b"}, Options{}); err == nil {
		t.Fatalf("expected error for relative base url")
	}
}
