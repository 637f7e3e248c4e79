package workflowsync

import "agentwatch/internal/types"

type Classification int

const (
	NonTerminal Classification = iota
	Terminal
)

func (c Classification) String() string {
	if c == Terminal {
		return "terminal"
	}
	return "non_terminal"
}

// Classify reports whether a workflow snapshot will receive no further
// progress. A missing workflow is never terminal.
func Classify(workflow *types.Workflow) Classification {
	if workflow == nil {
		return NonTerminal
	}
	switch types.NormalizeWorkflowStatus(string(workflow.Status)) {
	case types.WorkflowStatusCompleted, types.WorkflowStatusError:
		return Terminal
	default:
		return NonTerminal
	}
}
