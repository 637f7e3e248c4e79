package workflowsync

import (
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/require"

	"agentwatch/internal/config"
	"agentwatch/internal/resource"
	"agentwatch/internal/testutil"
	"agentwatch/internal/types"
)

var harnessStart = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// harness drives a Controller synchronously on a virtual clock. Commands run
// inline and their messages are fed straight back into Update.
type harness struct {
	t     *testing.T
	clock *testutil.FakeClock
	api   *testutil.FakeAPI
	cache *resource.Cache
	ctrl  *Controller

	started []PollingStartedMsg
	stopped []PollingStoppedMsg
	created []SessionCreatedMsg
	sent    []MessageSentMsg
}

func newHarness(t *testing.T, configure ...func(*Options)) *harness {
	t.Helper()
	return newHarnessWithCache(t, resource.New(0, time.Minute), configure...)
}

func newHarnessWithCache(t *testing.T, cache *resource.Cache, configure ...func(*Options)) *harness {
	t.Helper()
	clock := testutil.NewFakeClock(harnessStart)
	api := testutil.NewFakeAPI(clock)
	opts := OptionsFromConfig(config.Default())
	opts.Clock = clock
	for _, fn := range configure {
		fn(&opts)
	}
	h := &harness{
		t:     t,
		clock: clock,
		api:   api,
		cache: cache,
		ctrl:  New(api, cache, opts),
	}
	t.Cleanup(h.ctrl.Close)
	return h
}

func (h *harness) addSession(id, agentType string) {
	h.api.Sessions[id] = &types.Session{ID: id, AgentType: agentType, Title: "session " + id}
}

func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		if follow := h.deliver(msg); follow != nil {
			queue = append(queue, follow)
		}
	}
}

func (h *harness) deliver(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case nil:
		return nil
	case PollingStartedMsg:
		h.started = append(h.started, msg)
		return nil
	case PollingStoppedMsg:
		h.stopped = append(h.stopped, msg)
		return nil
	case SessionCreatedMsg:
		h.created = append(h.created, msg)
	case MessageSentMsg:
		h.sent = append(h.sent, msg)
	}
	handled, cmd := h.ctrl.Update(msg)
	require.True(h.t, handled, "unexpected message %T", msg)
	return cmd
}

// advance fires every timer due within d of the current virtual time.
func (h *harness) advance(d time.Duration) {
	h.t.Helper()
	deadline := h.clock.Now().Add(d)
	for {
		msg, ok := h.clock.Next(deadline)
		if !ok {
			return
		}
		h.run(func() tea.Msg { return msg })
	}
}

func (h *harness) selectSession(id string) {
	h.t.Helper()
	h.run(h.ctrl.Select(id))
	h.api.ResetCalls()
}

func ms(values ...int) []time.Duration {
	out := make([]time.Duration, 0, len(values))
	for _, v := range values {
		out = append(out, time.Duration(v)*time.Millisecond)
	}
	return out
}

func everyMS(from, to, step int) []time.Duration {
	var out []time.Duration
	for v := from; v <= to; v += step {
		out = append(out, time.Duration(v)*time.Millisecond)
	}
	return out
}

func workflowAt(status types.WorkflowStatus) *types.Workflow {
	return &types.Workflow{ID: "wf", SessionID: "s1", Status: status}
}
