package workflowsync

import (
	"agentwatch/internal/resource"
	"agentwatch/internal/types"
)

// View is the read-only projection consumers render from. All slices and
// pointers are copies.
type View struct {
	SessionID         string
	CurrentSession    *types.Session
	Messages          []types.Message
	Workflow          *types.Workflow
	Sources           []types.Source
	Logs              []types.LogEntry
	IsLoading         bool
	IsCreatingSession bool
	IsSendingMessage  bool
	// IsFinalizing is set from the end of an episode until its final
	// session refresh lands.
	IsFinalizing bool
	// IsStale is set while the session or workflow has not loaded yet or
	// predates the latest invalidation, e.g. from the start of an episode
	// until its first fetches land.
	IsStale        bool
	State          State
	Classification Classification
	LastStop       StopReason
}

// MergeWorkflow picks the independently polled workflow over the one
// embedded in the session snapshot.
func MergeWorkflow(polled, embedded *types.Workflow) *types.Workflow {
	if polled != nil {
		return polled
	}
	return embedded
}

// View recomputes the projection from the cache. It performs no I/O.
func (c *Controller) View() View {
	v := View{
		SessionID:         c.sessionID,
		IsLoading:         c.loading,
		IsCreatingSession: c.creating > 0,
		IsSendingMessage:  c.sending > 0,
		IsFinalizing:      c.finalizing != 0,
		State:             c.state,
		LastStop:          c.lastStop,
	}
	if c.sessionID == "" {
		return v
	}
	session, _ := resource.Get[*types.Session](c.cache, resource.SessionKey(c.sessionID))
	polled, _ := resource.Get[*types.Workflow](c.cache, resource.WorkflowKey(c.sessionID))

	session = session.Clone()
	var embedded *types.Workflow
	if session != nil {
		v.CurrentSession = session
		v.Messages = session.Messages
		v.Sources = session.Sources
		v.Logs = session.Logs
		embedded = session.Workflow
	}
	v.Workflow = MergeWorkflow(polled.Clone(), embedded)
	workflowStale := c.cache.Stale(resource.WorkflowKey(c.sessionID))
	v.IsStale = workflowStale || c.cache.Stale(resource.SessionKey(c.sessionID))
	v.Classification = Classify(v.Workflow)
	if c.state == StateActive && workflowStale {
		// The snapshot belongs to an earlier task.
		v.Classification = NonTerminal
	}
	return v
}
