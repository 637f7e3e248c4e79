package types

import (
	"strings"
	"time"
)

type WorkflowStatus string

const (
	WorkflowStatusPending   WorkflowStatus = "pending"
	WorkflowStatusRunning   WorkflowStatus = "running"
	WorkflowStatusCompleted WorkflowStatus = "completed"
	WorkflowStatusError     WorkflowStatus = "error"
)

type Workflow struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Status    WorkflowStatus `json:"status"`
	Step      string         `json:"step,omitempty"`
	Error     string         `json:"error,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NormalizeWorkflowStatus folds case and whitespace; unknown values are kept
// as-is since the backend owns the full status set.
func NormalizeWorkflowStatus(raw string) WorkflowStatus {
	return WorkflowStatus(strings.ToLower(strings.TrimSpace(raw)))
}

func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}
	out := *w
	return &out
}
