package workflowsync

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"
)

type timeoutMsg struct {
	episode uint64
}

// TimeoutGuard forces an Active episode to end after a fixed ceiling. It is
// armed at most once per episode and fires at most once.
type TimeoutGuard struct {
	clock   Clock
	delay   time.Duration
	episode uint64
	armed   bool
	cancel  context.CancelFunc
}

func NewTimeoutGuard(clock Clock, delay time.Duration) *TimeoutGuard {
	if clock == nil {
		clock = SystemClock()
	}
	return &TimeoutGuard{clock: clock, delay: delay}
}

// Arm starts the guard for episode under parent and returns the command
// that delivers the timeout. A previously armed guard is disarmed first.
func (g *TimeoutGuard) Arm(parent context.Context, episode uint64) tea.Cmd {
	g.Disarm()
	ctx, cancel := context.WithCancel(parent)
	g.episode = episode
	g.armed = true
	g.cancel = cancel
	return g.clock.After(ctx, g.delay, timeoutMsg{episode: episode})
}

// Disarm cancels a pending timeout. It reports whether one was pending.
func (g *TimeoutGuard) Disarm() bool {
	if !g.armed {
		return false
	}
	g.armed = false
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	return true
}

// Fire consumes a delivered timeout. Only a timeout for the currently armed
// episode counts; anything else is stale.
func (g *TimeoutGuard) Fire(msg timeoutMsg) bool {
	if !g.armed || msg.episode != g.episode {
		return false
	}
	g.armed = false
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	return true
}

func (g *TimeoutGuard) Armed() bool {
	return g.armed
}

func (g *TimeoutGuard) Delay() time.Duration {
	return g.delay
}
