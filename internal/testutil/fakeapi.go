package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"agentwatch/internal/client"
	"agentwatch/internal/types"
)

type Op string

const (
	OpGetSession    Op = "get_session"
	OpGetWorkflow   Op = "get_workflow"
	OpCreateSession Op = "create_session"
	OpSendMessage   Op = "send_message"
)

// Call is one recorded backend request. At is measured on the clock passed
// to NewFakeAPI.
type Call struct {
	Op      Op
	ID      string
	At      time.Duration
	Content string
	Role    string
}

// FakeAPI is an in-memory backend that records every call.
type FakeAPI struct {
	mu    sync.Mutex
	clock *FakeClock
	calls []Call
	next  int

	Sessions map[string]*types.Session
	// WorkflowFn answers GetWorkflow; elapsed is virtual time since start.
	WorkflowFn func(sessionID string, elapsed time.Duration) *types.Workflow

	SessionErr  error
	WorkflowErr error
	CreateErr   error
	SendErr     error
	SendResp    *client.SendMessageResponse
}

func NewFakeAPI(clock *FakeClock) *FakeAPI {
	return &FakeAPI{clock: clock, Sessions: map[string]*types.Session{}}
}

func (f *FakeAPI) record(call Call) {
	if f.clock != nil {
		call.At = f.clock.Elapsed()
	}
	f.calls = append(f.calls, call)
}

func (f *FakeAPI) GetSession(ctx context.Context, id string) (*types.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.record(Call{Op: OpGetSession, ID: id})
	if f.SessionErr != nil {
		return nil, f.SessionErr
	}
	session, ok := f.Sessions[id]
	if !ok {
		return nil, &client.APIError{StatusCode: 404, Message: "session not found"}
	}
	return session.Clone(), nil
}

func (f *FakeAPI) GetWorkflow(ctx context.Context, sessionID string) (*types.Workflow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.record(Call{Op: OpGetWorkflow, ID: sessionID})
	if f.WorkflowErr != nil {
		return nil, f.WorkflowErr
	}
	if f.WorkflowFn == nil {
		return nil, nil
	}
	var elapsed time.Duration
	if f.clock != nil {
		elapsed = f.clock.Elapsed()
	}
	return f.WorkflowFn(sessionID, elapsed).Clone(), nil
}

func (f *FakeAPI) CreateSession(ctx context.Context, req client.CreateSessionRequest) (*types.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.record(Call{Op: OpCreateSession, Content: req.Title, Role: req.AgentType})
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	f.next++
	session := &types.Session{
		ID:        fmt.Sprintf("s%d", f.next),
		AgentType: req.AgentType,
		Title:     req.Title,
	}
	f.Sessions[session.ID] = session
	return session.Clone(), nil
}

func (f *FakeAPI) SendMessage(ctx context.Context, sessionID string, req client.SendMessageRequest) (*client.SendMessageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.record(Call{Op: OpSendMessage, ID: sessionID, Content: req.Content, Role: req.Role})
	if f.SendErr != nil {
		return nil, f.SendErr
	}
	if f.SendResp != nil {
		resp := *f.SendResp
		return &resp, nil
	}
	return &client.SendMessageResponse{OK: true, TaskID: fmt.Sprintf("task-%d", len(f.calls))}, nil
}

// Calls returns recorded calls, optionally filtered to the given ops.
func (f *FakeAPI) Calls(ops ...Op) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, 0, len(f.calls))
	for _, call := range f.calls {
		if len(ops) == 0 || containsOp(ops, call.Op) {
			out = append(out, call)
		}
	}
	return out
}

// CallTimes returns the virtual time of each recorded call of op for id.
func (f *FakeAPI) CallTimes(op Op, id string) []time.Duration {
	var out []time.Duration
	for _, call := range f.Calls(op) {
		if call.ID == id {
			out = append(out, call.At)
		}
	}
	return out
}

func (f *FakeAPI) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func containsOp(ops []Op, op Op) bool {
	for _, candidate := range ops {
		if candidate == op {
			return true
		}
	}
	return false
}
