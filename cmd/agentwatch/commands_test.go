package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"agentwatch/internal/app"
	"agentwatch/internal/client"
	"agentwatch/internal/config"
	"agentwatch/internal/logging"
	"agentwatch/internal/types"
	"agentwatch/internal/workflowsync"
)

type fakeCommandClient struct {
	healthResp     *client.HealthResponse
	createResp     *types.Session
	createErr      error
	createRequests []client.CreateSessionRequest
	session        *types.Session
	workflow       *types.Workflow
	watchResult    app.WatchResult
	watchErr       error
	watchOpts      []app.WatchOptions
	uiOpts         []app.Options
}

func (f *fakeCommandClient) Health(context.Context) (*client.HealthResponse, error) {
	if f.healthResp == nil {
		return nil, errors.New("unreachable")
	}
	return f.healthResp, nil
}

func (f *fakeCommandClient) CreateSession(_ context.Context, req client.CreateSessionRequest) (*types.Session, error) {
	f.createRequests = append(f.createRequests, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResp, nil
}

func (f *fakeCommandClient) GetSession(_ context.Context, id string) (*types.Session, error) {
	if f.session == nil || f.session.ID != id {
		return nil, &client.APIError{StatusCode: 404, Message: "session not found"}
	}
	return f.session, nil
}

func (f *fakeCommandClient) GetWorkflow(context.Context, string) (*types.Workflow, error) {
	return f.workflow, nil
}

func (f *fakeCommandClient) Watch(_ context.Context, opts app.WatchOptions) (app.WatchResult, error) {
	f.watchOpts = append(f.watchOpts, opts)
	if opts.Out != nil {
		io.WriteString(opts.Out, "completed\n")
	}
	return f.watchResult, f.watchErr
}

func (f *fakeCommandClient) RunUI(opts app.Options) error {
	f.uiOpts = append(f.uiOpts, opts)
	return nil
}

func testWiring(fake *fakeCommandClient, cfg config.Config) (commandWiring, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	return commandWiring{
		stdout:     stdout,
		stderr:     stderr,
		loadConfig: func() (config.Config, error) { return cfg, nil },
		newClient: func(config.Config, logging.Logger) (commandClient, error) {
			return fake, nil
		},
		configureUILogging: func(config.Config) (logging.Logger, io.Closer) {
			return logging.Nop(), nil
		},
		signalContext: func() (context.Context, context.CancelFunc) {
			return context.WithCancel(context.Background())
		},
		version: "test",
	}, stdout, stderr
}

func TestBuildCommandsRegistersEveryCommand(t *testing.T) {
	wiring, _, _ := testWiring(&fakeCommandClient{}, config.Default())
	commands := buildCommands(wiring)
	for _, name := range []string{"create", "send", "status", "health", "ui", "config", "devserver"} {
		if _, ok := commands[name]; !ok {
			t.Fatalf("expected command %q to be registered", name)
		}
	}
}

func TestCreateCommandWritesSessionID(t *testing.T) {
	fake := &fakeCommandClient{createResp: &types.Session{ID: "session-123"}}
	wiring, stdout, _ := testWiring(fake, config.Default())

	if err := NewCreateCommand(wiring).Run([]string{"--agent", " research ", "--title", "pricing"}); err != nil {
		t.Fatalf("expected create to succeed, got err=%v", err)
	}
	if strings.TrimSpace(stdout.String()) != "session-123" {
		t.Fatalf("unexpected output %q", stdout.String())
	}
	if len(fake.createRequests) != 1 {
		t.Fatalf("expected one create request, got %d", len(fake.createRequests))
	}
	req := fake.createRequests[0]
	if req.AgentType != "research" || req.Title != "pricing" {
		t.Fatalf("unexpected create request: %#v", req)
	}
}

func TestCreateCommandRequiresAgent(t *testing.T) {
	fake := &fakeCommandClient{}
	wiring, _, _ := testWiring(fake, config.Default())
	if err := NewCreateCommand(wiring).Run(nil); err == nil {
		t.Fatalf("expected missing agent to fail")
	}
	if len(fake.createRequests) != 0 {
		t.Fatalf("expected no backend call")
	}
}

func TestSendCommandWatchesUntilCompletion(t *testing.T) {
	fake := &fakeCommandClient{watchResult: app.WatchResult{
		SessionID: "s1",
		Reason:    workflowsync.StopReasonTerminal,
		Workflow:  &types.Workflow{Status: types.WorkflowStatusCompleted},
		Reply:     "done",
	}}
	wiring, stdout, _ := testWiring(fake, config.Default())

	if err := NewSendCommand(wiring).Run([]string{"--session", "s1", "summarise", "filings"}); err != nil {
		t.Fatalf("expected send to succeed, got err=%v", err)
	}
	if len(fake.watchOpts) != 1 {
		t.Fatalf("expected one watch, got %d", len(fake.watchOpts))
	}
	opts := fake.watchOpts[0]
	if opts.SessionID != "s1" || opts.Content != "summarise filings" {
		t.Fatalf("unexpected watch options: %#v", opts)
	}
	if !strings.Contains(stdout.String(), "completed") {
		t.Fatalf("expected progress output, got %q", stdout.String())
	}
}

func TestSendCommandQuietPrintsOnlyReply(t *testing.T) {
	fake := &fakeCommandClient{watchResult: app.WatchResult{
		Reason:   workflowsync.StopReasonTerminal,
		Workflow: &types.Workflow{Status: types.WorkflowStatusCompleted},
		Reply:    "  the answer \n",
	}}
	wiring, stdout, _ := testWiring(fake, config.Default())

	if err := NewSendCommand(wiring).Run([]string{"--session", "s1", "--quiet", "question"}); err != nil {
		t.Fatalf("expected send to succeed, got err=%v", err)
	}
	if stdout.String() != "the answer\n" {
		t.Fatalf("unexpected quiet output %q", stdout.String())
	}
}

func TestSendCommandFailsOnWorkflowError(t *testing.T) {
	fake := &fakeCommandClient{watchResult: app.WatchResult{
		Reason:   workflowsync.StopReasonTerminal,
		Workflow: &types.Workflow{Status: types.WorkflowStatusError, Error: "tool crashed"},
	}}
	wiring, _, _ := testWiring(fake, config.Default())

	err := NewSendCommand(wiring).Run([]string{"--session", "s1", "question"})
	if err == nil || !strings.Contains(err.Error(), "tool crashed") {
		t.Fatalf("expected workflow error, got %v", err)
	}
}

func TestSendCommandFailsOnTimeout(t *testing.T) {
	fake := &fakeCommandClient{watchResult: app.WatchResult{
		Reason:   workflowsync.StopReasonTimeout,
		Workflow: &types.Workflow{Status: types.WorkflowStatusRunning},
	}}
	wiring, _, _ := testWiring(fake, config.Default())

	err := NewSendCommand(wiring).Run([]string{"--session", "s1", "question"})
	if err == nil || !strings.Contains(err.Error(), string(workflowsync.StopReasonTimeout)) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestSendCommandValidatesArguments(t *testing.T) {
	fake := &fakeCommandClient{}
	wiring, _, _ := testWiring(fake, config.Default())

	if err := NewSendCommand(wiring).Run([]string{"question"}); err == nil {
		t.Fatalf("expected missing session to fail")
	}
	if err := NewSendCommand(wiring).Run([]string{"--session", "s1", "  "}); err == nil {
		t.Fatalf("expected blank content to fail")
	}
	if len(fake.watchOpts) != 0 {
		t.Fatalf("expected no watch for invalid arguments")
	}
}

func TestStatusCommandPrintsPolledWorkflow(t *testing.T) {
	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := &fakeCommandClient{
		session: &types.Session{
			ID:        "s1",
			AgentType: "research",
			Title:     "pricing",
			Workflow:  &types.Workflow{ID: "t1", Status: types.WorkflowStatusRunning},
			Messages: []types.Message{
				{Role: types.MessageRoleUser, Content: "question"},
				{Role: types.MessageRoleAssistant, Content: "answer"},
			},
		},
		workflow: &types.Workflow{ID: "t1", Status: types.WorkflowStatusCompleted, Step: "done", UpdatedAt: updated},
	}
	wiring, stdout, _ := testWiring(fake, config.Default())

	if err := NewStatusCommand(wiring).Run([]string{"s1"}); err != nil {
		t.Fatalf("expected status to succeed, got err=%v", err)
	}
	out := stdout.String()
	lines := strings.Split(out, "\n")
	if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[0], "STATUS") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], "completed") || !strings.Contains(lines[1], "research") {
		t.Fatalf("expected polled workflow in row, got %q", lines[1])
	}
	if !strings.Contains(out, "answer") {
		t.Fatalf("expected latest reply in output, got %q", out)
	}
}

func TestStatusCommandFallsBackToEmbeddedWorkflow(t *testing.T) {
	fake := &fakeCommandClient{session: &types.Session{
		ID:       "s1",
		Workflow: &types.Workflow{ID: "t1", Status: types.WorkflowStatusError, Error: "boom"},
	}}
	wiring, stdout, _ := testWiring(fake, config.Default())

	if err := NewStatusCommand(wiring).Run([]string{"--session", "s1"}); err != nil {
		t.Fatalf("expected status to succeed, got err=%v", err)
	}
	if !strings.Contains(stdout.String(), "error: boom") {
		t.Fatalf("expected embedded workflow error, got %q", stdout.String())
	}
}

func TestStatusCommandReportsMissingSession(t *testing.T) {
	wiring, _, _ := testWiring(&fakeCommandClient{}, config.Default())
	err := NewStatusCommand(wiring).Run([]string{"missing"})
	if apiErr := client.AsAPIError(err); apiErr == nil || apiErr.StatusCode != 404 {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestHealthCommand(t *testing.T) {
	fake := &fakeCommandClient{healthResp: &client.HealthResponse{OK: true, Version: "v1"}}
	wiring, stdout, _ := testWiring(fake, config.Default())

	if err := NewHealthCommand(wiring).Run(nil); err != nil {
		t.Fatalf("expected health to succeed, got err=%v", err)
	}
	if !strings.HasPrefix(stdout.String(), "ok http://127.0.0.1:8787 v1") {
		t.Fatalf("unexpected health output %q", stdout.String())
	}

	fake.healthResp = &client.HealthResponse{OK: false}
	if err := NewHealthCommand(wiring).Run(nil); err == nil {
		t.Fatalf("expected unhealthy backend to fail")
	}
}

func TestUICommandPassesOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Agents.Roles = map[string]string{"research": "researcher", "analyst": "executor"}
	fake := &fakeCommandClient{}
	wiring, _, _ := testWiring(fake, cfg)
	var logged bool
	wiring.configureUILogging = func(config.Config) (logging.Logger, io.Closer) {
		logged = true
		return logging.Nop(), nil
	}

	if err := NewUICommand(wiring).Run([]string{"--session", "s9"}); err != nil {
		t.Fatalf("expected ui to succeed, got err=%v", err)
	}
	if !logged {
		t.Fatalf("expected ui logging to be configured")
	}
	if len(fake.uiOpts) != 1 {
		t.Fatalf("expected one ui run, got %d", len(fake.uiOpts))
	}
	opts := fake.uiOpts[0]
	if opts.SessionID != "s9" || opts.DefaultAgentType != "analyst" || !opts.Markdown {
		t.Fatalf("unexpected ui options: %#v", opts)
	}
	if opts.Timeout != cfg.PollTimeout() {
		t.Fatalf("expected poll timeout, got %v", opts.Timeout)
	}
}

func TestConfigCommandDefaultsJSON(t *testing.T) {
	stdout := &bytes.Buffer{}
	loadCalled := false
	cmd := NewConfigCommand(stdout, &bytes.Buffer{}, func() (config.Config, error) {
		loadCalled = true
		return config.Config{}, nil
	})

	if err := cmd.Run([]string{"--default", "--format", "json"}); err != nil {
		t.Fatalf("expected config to succeed, got err=%v", err)
	}
	if loadCalled {
		t.Fatalf("expected defaults not to load the config file")
	}
	var payload map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["effective_base_url"] != "http://127.0.0.1:8787" {
		t.Fatalf("unexpected base url: %#v", payload["effective_base_url"])
	}
	polling, ok := payload["polling"].(map[string]any)
	if !ok || polling["session_interval_ms"] != float64(2000) || polling["workflow_interval_ms"] != float64(1000) {
		t.Fatalf("unexpected polling defaults: %#v", payload["polling"])
	}
}

func TestConfigCommandRedactsToken(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.Token = "secret-token"
	stdout := &bytes.Buffer{}
	cmd := NewConfigCommand(stdout, &bytes.Buffer{}, func() (config.Config, error) { return cfg, nil })

	if err := cmd.Run(nil); err != nil {
		t.Fatalf("expected config to succeed, got err=%v", err)
	}
	if strings.Contains(stdout.String(), "secret-token") {
		t.Fatalf("expected token to be redacted, got %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), "base_url") {
		t.Fatalf("expected toml output, got %q", stdout.String())
	}
}

func TestConfigCommandRejectsUnknownFormat(t *testing.T) {
	cmd := NewConfigCommand(&bytes.Buffer{}, &bytes.Buffer{}, func() (config.Config, error) { return config.Default(), nil })
	if err := cmd.Run([]string{"--format", "yaml"}); err == nil {
		t.Fatalf("expected invalid format to fail")
	}
}

func TestDevserverCommandStopsOnCancel(t *testing.T) {
	wiring, _, _ := testWiring(&fakeCommandClient{}, config.Default())
	wiring.signalContext = func() (context.Context, context.CancelFunc) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx, cancel
	}
	if err := NewDevserverCommand(wiring).Run([]string{"--addr", "127.0.0.1:0", "--steps", "2"}); err != nil {
		t.Fatalf("expected devserver to stop cleanly, got err=%v", err)
	}
}

func TestPrintTablePadsByDisplayWidth(t *testing.T) {
	out := &bytes.Buffer{}
	printTable(out, []string{"ID", "TITLE"}, [][]string{{"会话", "x"}, {"s1", "y"}})
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", out.String())
	}
	if lines[0] != "ID    TITLE" || lines[1] != "会话  x" || lines[2] != "s1    y" {
		t.Fatalf("unexpected table:\n%s", out.String())
	}
}
