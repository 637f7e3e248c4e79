package app

import (
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"agentwatch/internal/resource"
	"agentwatch/internal/testutil"
	"agentwatch/internal/workflowsync"
)

var testStart = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func newTestController(t *testing.T) (*workflowsync.Controller, *testutil.FakeAPI, *testutil.FakeClock) {
	t.Helper()
	clock := testutil.NewFakeClock(testStart)
	api := testutil.NewFakeAPI(clock)
	ctrl := workflowsync.New(api, resource.New(0, time.Minute), workflowsync.Options{Clock: clock})
	t.Cleanup(ctrl.Close)
	return ctrl, api, clock
}

// drive runs cmd and everything it leads to against model. Commands must not
// block; controller timers are virtual and only fire through advance.
func drive(model tea.Model, cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		switch msg := msg.(type) {
		case nil, tea.QuitMsg:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		}
		_, follow := model.Update(msg)
		queue = append(queue, follow)
	}
}

func advance(model tea.Model, clock *testutil.FakeClock, d time.Duration) {
	deadline := clock.Now().Add(d)
	for {
		msg, ok := clock.Next(deadline)
		if !ok {
			return
		}
		drive(model, func() tea.Msg { return msg })
	}
}

func enterKey() tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: tea.KeyEnter}
}

func ctrlKey(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Mod: tea.ModCtrl}
}
