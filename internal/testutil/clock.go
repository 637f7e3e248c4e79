package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"
)

type fakeTimer struct {
	at  time.Time
	seq uint64
	ctx context.Context
	msg tea.Msg
}

// FakeClock is a virtual clock. After only records a timer; Next releases
// due timers in (deadline, registration) order and advances Now to each.
type FakeClock struct {
	mu     sync.Mutex
	start  time.Time
	now    time.Time
	seq    uint64
	timers []fakeTimer
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{start: start, now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Elapsed returns virtual time since the clock was created.
func (c *FakeClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.Sub(c.start)
}

func (c *FakeClock) After(ctx context.Context, d time.Duration, msg tea.Msg) tea.Cmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.timers = append(c.timers, fakeTimer{at: c.now.Add(d), seq: c.seq, ctx: ctx, msg: msg})
	return nil
}

// Next pops the earliest live timer due at or before deadline, moving Now to
// its deadline. Cancelled timers are discarded. When nothing is due, Now
// moves to deadline and ok is false.
func (c *FakeClock) Next(deadline time.Time) (tea.Msg, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		c.prune()
		if len(c.timers) == 0 || c.timers[0].at.After(deadline) {
			if deadline.After(c.now) {
				c.now = deadline
			}
			return nil, false
		}
		timer := c.timers[0]
		c.timers = c.timers[1:]
		if timer.at.After(c.now) {
			c.now = timer.at
		}
		return timer.msg, true
	}
}

// Set moves Now without firing anything.
func (c *FakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Pending counts timers that are scheduled and not cancelled.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prune()
	return len(c.timers)
}

func (c *FakeClock) prune() {
	live := c.timers[:0]
	for _, timer := range c.timers {
		if timer.ctx != nil && timer.ctx.Err() != nil {
			continue
		}
		live = append(live, timer)
	}
	c.timers = live
	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].at.Equal(c.timers[j].at) {
			return c.timers[i].seq < c.timers[j].seq
		}
		return c.timers[i].at.Before(c.timers[j].at)
	})
}
