package workflowsync

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"
)

// Clock schedules deferred messages. Every deferred action is bound to a
// context so it can be cancelled before it fires.
type Clock interface {
	Now() time.Time
	After(ctx context.Context, d time.Duration, msg tea.Msg) tea.Cmd
}

type systemClock struct{}

func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) After(ctx context.Context, d time.Duration, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}
