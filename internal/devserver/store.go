package devserver

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"agentwatch/internal/types"
)

const (
	DefaultStepsToComplete = 3
	DefaultFailMarker      = "[fail]"
)

type task struct {
	id      string
	content string
	role    string
	reads   int
	done    bool
}

// Store is the in-memory session backend. Each workflow read advances the
// active task one step: pending, then running, then completed or error.
type Store struct {
	mu         sync.Mutex
	sessions   map[string]*types.Session
	tasks      map[string]*task
	steps      int
	failMarker string
	now        func() time.Time
	newID      func() string
}

type StoreOptions struct {
	// StepsToComplete is the number of workflow reads after submission
	// before the task reaches a terminal status.
	StepsToComplete int
	// FailMarker makes a task end in error when its content contains it.
	FailMarker string
	Now        func() time.Time
	NewID      func() string
}

func NewStore(opts StoreOptions) *Store {
	if opts.StepsToComplete <= 0 {
		opts.StepsToComplete = DefaultStepsToComplete
	}
	if strings.TrimSpace(opts.FailMarker) == "" {
		opts.FailMarker = DefaultFailMarker
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	return &Store{
		sessions:   map[string]*types.Session{},
		tasks:      map[string]*task{},
		steps:      opts.StepsToComplete,
		failMarker: strings.ToLower(opts.FailMarker),
		now:        opts.Now,
		newID:      opts.NewID,
	}
}

func (s *Store) CreateSession(agentType, title string) (*types.Session, error) {
	agentType = strings.TrimSpace(agentType)
	if agentType == "" {
		return nil, invalidError("agent_type is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	session := &types.Session{
		ID:        s.newID(),
		AgentType: agentType,
		Title:     strings.TrimSpace(title),
		CreatedAt: now,
	}
	session.Logs = append(session.Logs, types.LogEntry{Time: now, Level: "info", Message: "session created"})
	s.sessions[session.ID] = session
	return session.Clone(), nil
}

func (s *Store) Session(id string) (*types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[strings.TrimSpace(id)]
	if !ok {
		return nil, notFoundError("session not found")
	}
	return session.Clone(), nil
}

// Workflow returns the session's workflow after advancing its task.
func (s *Store) Workflow(sessionID string) (*types.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessionID = strings.TrimSpace(sessionID)
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, notFoundError("session not found")
	}
	if session.Workflow == nil {
		return nil, notFoundError("workflow not found")
	}
	if current := s.tasks[sessionID]; current != nil && !current.done {
		s.advance(session, current)
	}
	return session.Workflow.Clone(), nil
}

// Submit queues content as the session's task, replacing any unfinished one.
func (s *Store) Submit(sessionID, content, role string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", invalidError("content is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sessionID = strings.TrimSpace(sessionID)
	session, ok := s.sessions[sessionID]
	if !ok {
		return "", notFoundError("session not found")
	}
	now := s.now().UTC()
	current := &task{id: s.newID(), content: content, role: strings.TrimSpace(role)}
	s.tasks[sessionID] = current
	session.Messages = append(session.Messages, types.Message{
		ID:        s.newID(),
		SessionID: sessionID,
		Role:      types.MessageRoleUser,
		Content:   content,
		CreatedAt: now,
	})
	session.Workflow = &types.Workflow{
		ID:        current.id,
		SessionID: sessionID,
		Status:    types.WorkflowStatusPending,
		Step:      "queued",
		UpdatedAt: now,
	}
	s.appendLog(session, now, "info", fmt.Sprintf("task %s queued for role %s", current.id, roleLabel(current.role)))
	return current.id, nil
}

func (s *Store) advance(session *types.Session, current *task) {
	now := s.now().UTC()
	current.reads++
	workflow := session.Workflow
	workflow.UpdatedAt = now
	session.UpdatedAt = &now
	if current.reads < s.steps {
		workflow.Status = types.WorkflowStatusRunning
		workflow.Step = fmt.Sprintf("step %d of %d", current.reads, s.steps)
		s.appendLog(session, now, "debug", workflow.Step)
		return
	}
	current.done = true
	if strings.Contains(strings.ToLower(current.content), s.failMarker) {
		workflow.Status = types.WorkflowStatusError
		workflow.Step = ""
		workflow.Error = "task failed"
		s.appendLog(session, now, "error", fmt.Sprintf("task %s failed", current.id))
		return
	}
	workflow.Status = types.WorkflowStatusCompleted
	workflow.Step = ""
	session.Messages = append(session.Messages, types.Message{
		ID:        s.newID(),
		SessionID: session.ID,
		Role:      types.MessageRoleAssistant,
		Content:   fmt.Sprintf("**Done.** Processed `%s` as %s.", current.content, roleLabel(current.role)),
		CreatedAt: now,
	})
	session.Sources = append(session.Sources, types.Source{
		ID:      s.newID(),
		Title:   "task " + current.id,
		URL:     "https://devserver.invalid/tasks/" + current.id,
		Snippet: current.content,
	})
	s.appendLog(session, now, "info", fmt.Sprintf("task %s completed", current.id))
}

func (s *Store) appendLog(session *types.Session, at time.Time, level, message string) {
	session.Logs = append(session.Logs, types.LogEntry{Time: at, Level: level, Message: message})
}

func roleLabel(role string) string {
	if role == "" {
		return "default"
	}
	return role
}
