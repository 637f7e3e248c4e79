package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agentwatch/internal/config"
	"agentwatch/internal/types"
)

func TestClientSessionEndpoints(t *testing.T) {
	seen := map[string]bool{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/sessions":
			var req CreateSessionRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("decode create req: %v", err)
			}
			if req.AgentType != "research" || req.Title != "demo" {
				t.Fatalf("unexpected create payload: %+v", req)
			}
			if r.Header.Get(headerRequestID) != "req-1" {
				t.Fatalf("expected request id header, got %q", r.Header.Get(headerRequestID))
			}
			seen["create"] = true
			_, _ = w.Write([]byte(`{"id":"s1","agent_type":"research","title":"demo"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/v1/sessions/s1":
			if r.Header.Get(headerRequestID) != "" {
				t.Fatalf("expected no request id on reads")
			}
			seen["get"] = true
			_, _ = w.Write([]byte(`{"id":"s1","agent_type":"research","messages":[{"id":"m1","role":"user","content":"hi"},{"id":"m2","role":"assistant","content":"hello"}],"workflow":{"id":"wf1","status":"running"},"sources":[{"id":"src1","url":"https://example.com"}],"logs":[{"message":"started"}]}`))
		case r.Method == http.MethodGet && r.URL.Path == "/v1/sessions/s1/workflow":
			seen["workflow"] = true
			_, _ = w.Write([]byte(`{"id":"wf1","session_id":"s1","status":" Completed "}`))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/sessions/s1/messages":
			var req SendMessageRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("decode send req: %v", err)
			}
			if req.Content != "hello" || req.Role != "researcher" {
				t.Fatalf("unexpected send payload: %+v", req)
			}
			seen["send"] = true
			_, _ = w.Write([]byte(`{"ok":true,"task_id":"t1"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewWithBaseURL(server.URL+"/", "token")
	c.newID = func() string { return "req-1" }
	ctx := context.Background()

	created, err := c.CreateSession(ctx, CreateSessionRequest{AgentType: "research", Title: "demo"})
	if err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}
	if created == nil || created.ID != "s1" {
		t.Fatalf("unexpected created session: %#v", created)
	}

	session, err := c.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession error: %v", err)
	}
	if len(session.Messages) != 2 || session.Messages[0].ID != "m1" || session.Messages[1].ID != "m2" {
		t.Fatalf("expected messages in fetch order, got %#v", session.Messages)
	}
	if session.Workflow == nil || session.Workflow.Status != types.WorkflowStatusRunning {
		t.Fatalf("unexpected embedded workflow: %#v", session.Workflow)
	}
	if len(session.Sources) != 1 || len(session.Logs) != 1 {
		t.Fatalf("unexpected sources/logs: %#v %#v", session.Sources, session.Logs)
	}

	workflow, err := c.GetWorkflow(ctx, "s1")
	if err != nil {
		t.Fatalf("GetWorkflow error: %v", err)
	}
	if workflow == nil || workflow.Status != types.WorkflowStatusCompleted {
		t.Fatalf("expected normalized completed workflow, got %#v", workflow)
	}

	sent, err := c.SendMessage(ctx, "s1", SendMessageRequest{Content: "hello", Role: "researcher"})
	if err != nil {
		t.Fatalf("SendMessage error: %v", err)
	}
	if !sent.OK || sent.TaskID != "t1" {
		t.Fatalf("unexpected send response: %#v", sent)
	}

	for _, key := range []string{"create", "get", "workflow", "send"} {
		if !seen[key] {
			t.Fatalf("expected %s endpoint to be called", key)
		}
	}
}

func TestClientGetWorkflowNotFoundIsAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"no workflow"}`))
	}))
	defer server.Close()

	c := NewWithBaseURL(server.URL, "")
	workflow, err := c.GetWorkflow(context.Background(), "s1")
	if err != nil {
		t.Fatalf("expected no error for missing workflow, got %v", err)
	}
	if workflow != nil {
		t.Fatalf("expected nil workflow, got %#v", workflow)
	}
}

func TestClientDecodesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"backend unavailable"}`))
	}))
	defer server.Close()

	c := NewWithBaseURL(server.URL, "")
	_, err := c.GetSession(context.Background(), "s1")
	if err == nil {
		t.Fatalf("expected error")
	}
	apiErr := AsAPIError(err)
	if apiErr == nil {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Message != "backend unavailable" {
		t.Fatalf("unexpected api error: %#v", apiErr)
	}
}

func TestClientValidatesArguments(t *testing.T) {
	c := NewWithBaseURL("http://127.0.0.1:1", "")
	ctx := context.Background()
	if _, err := c.GetSession(ctx, " "); err == nil {
		t.Fatalf("expected error for empty session id")
	}
	if _, err := c.CreateSession(ctx, CreateSessionRequest{}); err == nil {
		t.Fatalf("expected error for empty agent type")
	}
	if _, err := c.SendMessage(ctx, "s1", SendMessageRequest{Content: "  "}); err == nil {
		t.Fatalf("expected error for empty content")
	}
}

func TestClientHonorsContextCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := NewWithBaseURL(server.URL, "")
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.GetWorkflow(ctx, "s1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewUsesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.BaseURL = "127.0.0.1:9000/"
	cfg.Backend.Token = " tok "
	cfg.Backend.RequestTimeoutMS = 1500

	c := New(cfg)
	if c.BaseURL() != "http://127.0.0.1:9000" {
		t.Fatalf("unexpected base url: %q", c.BaseURL())
	}
	if c.token != "tok" {
		t.Fatalf("unexpected token: %q", c.token)
	}
	if c.http.Timeout != 1500*time.Millisecond {
		t.Fatalf("unexpected timeout: %v", c.http.Timeout)
	}
}
