package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"agentwatch/internal/types"
	"agentwatch/internal/workflowsync"
)

type WatchOptions struct {
	SessionID string
	Content   string
	Out       io.Writer
	// Timeout is only used to describe a timed-out episode.
	Timeout time.Duration
	Now     func() time.Time
}

// WatchResult is how a headless watch ended.
type WatchResult struct {
	SessionID string
	TaskID    string
	Reason    workflowsync.StopReason
	Workflow  *types.Workflow
	Reply     string
}

// Failed reports whether the workflow ended in error or never finished.
func (r WatchResult) Failed() bool {
	if r.Reason != workflowsync.StopReasonTerminal {
		return true
	}
	return r.Workflow != nil && r.Workflow.Status == types.WorkflowStatusError
}

// Watcher submits one task and prints workflow transitions until polling
// stops and the final refresh has landed. It runs without a renderer.
type Watcher struct {
	ctrl *workflowsync.Controller
	opts WatchOptions

	sent      bool
	submitted bool
	stopped   *workflowsync.PollingStoppedMsg
	lastKey   string
	result    WatchResult
	err       error
}

func NewWatcher(ctrl *workflowsync.Controller, opts WatchOptions) *Watcher {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Watcher{ctrl: ctrl, opts: opts, result: WatchResult{SessionID: opts.SessionID}}
}

// Watch runs a Watcher to completion.
func Watch(ctx context.Context, ctrl *workflowsync.Controller, opts WatchOptions) (WatchResult, error) {
	defer ctrl.Close()
	watcher := NewWatcher(ctrl, opts)
	program := tea.NewProgram(watcher,
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)
	if _, err := program.Run(); err != nil {
		return watcher.result, err
	}
	return watcher.Result()
}

type watchStartMsg struct{}

func (w *Watcher) Init() tea.Cmd {
	return tea.Batch(
		w.ctrl.Select(w.opts.SessionID),
		func() tea.Msg { return watchStartMsg{} },
	)
}

func (w *Watcher) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	_, cmd := w.ctrl.Update(msg)
	switch msg := msg.(type) {
	case workflowsync.MessageSentMsg:
		if !msg.OK {
			err := msg.Err()
			if err == nil {
				err = errors.New("backend rejected the task")
			}
			w.err = fmt.Errorf("send message: %w", err)
			return w, tea.Quit
		}
		w.submitted = true
		w.result.TaskID = msg.TaskID
		w.printf("submitted task %s to session %s", taskLabel(msg.TaskID), msg.SessionID)
	case workflowsync.PollingStoppedMsg:
		w.stopped = &msg
	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			w.err = errors.New("interrupted")
			return w, tea.Quit
		}
	}

	view := w.ctrl.View()
	if !w.sent && !view.IsLoading {
		w.sent = true
		w.lastKey = workflowKey(view.Workflow)
		cmd = tea.Batch(cmd, w.ctrl.SendMessage(w.opts.SessionID, w.opts.Content))
	}
	if w.submitted {
		w.reportWorkflow(view.Workflow)
	}
	if w.stopped != nil && !view.IsFinalizing {
		w.finish(view)
		return w, tea.Quit
	}
	return w, cmd
}

func (w *Watcher) View() tea.View {
	return tea.NewView("")
}

func (w *Watcher) Result() (WatchResult, error) {
	return w.result, w.err
}

func (w *Watcher) reportWorkflow(workflow *types.Workflow) {
	key := workflowKey(workflow)
	if workflow == nil || key == w.lastKey {
		return
	}
	w.lastKey = key
	line := string(workflow.Status)
	if workflow.Step != "" {
		line += " " + workflow.Step
	}
	w.printf("%s", line)
}

func (w *Watcher) finish(view workflowsync.View) {
	w.result.Reason = w.stopped.Reason
	w.result.Workflow = view.Workflow
	for i := len(view.Messages) - 1; i >= 0; i-- {
		if view.Messages[i].Role == types.MessageRoleAssistant {
			w.result.Reply = view.Messages[i].Content
			break
		}
	}
	w.printf("%s", stopSummary(*w.stopped, w.opts.Timeout.String()))
	if w.result.Reply != "" {
		fmt.Fprintln(w.opts.Out, strings.TrimSpace(w.result.Reply))
	}
}

func (w *Watcher) printf(format string, args ...any) {
	stamp := w.opts.Now().Format(timestampLayout)
	fmt.Fprintf(w.opts.Out, "[%s] %s\n", stamp, fmt.Sprintf(format, args...))
}

func workflowKey(workflow *types.Workflow) string {
	if workflow == nil {
		return ""
	}
	return workflow.ID + "|" + string(workflow.Status) + "|" + workflow.Step
}

func taskLabel(taskID string) string {
	if taskID == "" {
		return "(no id)"
	}
	return taskID
}
