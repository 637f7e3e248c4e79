package workflowsync

import (
	"agentwatch/internal/client"
	"agentwatch/internal/resource"
	"agentwatch/internal/types"
)

type stream int

const (
	streamSession stream = iota
	streamWorkflow
)

func (s stream) String() string {
	if s == streamWorkflow {
		return "workflow"
	}
	return "session"
}

type cadenceTickMsg struct {
	stream  stream
	episode uint64
}

type sessionFetchedMsg struct {
	sessionID string
	gen       resource.Generation
	episode   uint64
	session   *types.Session
	err       error
}

type workflowFetchedMsg struct {
	sessionID string
	gen       resource.Generation
	episode   uint64
	workflow  *types.Workflow
	err       error
}

// SessionCreatedMsg reports the outcome of CreateSession. Session is nil when
// the submission failed; the failure itself is only logged.
type SessionCreatedMsg struct {
	AgentType string
	Title     string
	Session   *types.Session
	err       error
}

// MessageSentMsg reports the outcome of SendMessage.
type MessageSentMsg struct {
	SessionID string
	Content   string
	OK        bool
	TaskID    string
	err       error
}

// Err returns why the submission failed, if it did.
func (m SessionCreatedMsg) Err() error { return m.err }

// Err returns why the submission failed, if it did.
func (m MessageSentMsg) Err() error { return m.err }

func newMessageSentMsg(sessionID, content string, resp *client.SendMessageResponse, err error) MessageSentMsg {
	msg := MessageSentMsg{SessionID: sessionID, Content: content, err: err}
	if err == nil && resp != nil {
		msg.OK = resp.OK
		msg.TaskID = resp.TaskID
	}
	return msg
}

type StopReason string

const (
	StopReasonNone     StopReason = ""
	StopReasonTerminal StopReason = "terminal"
	StopReasonTimeout  StopReason = "timeout"
	StopReasonSwitched StopReason = "switched"
)

// PollingStartedMsg is emitted when an episode begins.
type PollingStartedMsg struct {
	SessionID string
	Episode   uint64
}

// PollingStoppedMsg is emitted once when an episode ends.
type PollingStoppedMsg struct {
	SessionID string
	Episode   uint64
	Reason    StopReason
	Workflow  *types.Workflow
}
