// Package timing holds small rate-shaping helpers for event-loop code.
package timing

import (
	"time"

	tea "charm.land/bubbletea/v2"
)

// DebounceMsg settles a pending Debouncer value. It is delivered by the
// command returned from Debouncer.Set.
type DebounceMsg struct {
	ID  string
	Seq uint64
}

// Debouncer exposes a value that only changes after its input has been
// stable for the configured delay. It is not safe for concurrent use; call it
// from the event loop that also delivers DebounceMsg.
type Debouncer[T comparable] struct {
	id      string
	delay   time.Duration
	value   T
	pending T
	seq     uint64
	waiting bool
}

func NewDebouncer[T comparable](id string, initial T, delay time.Duration) *Debouncer[T] {
	return &Debouncer[T]{id: id, delay: delay, value: initial, pending: initial}
}

// Set records a new input and returns the command that settles it once the
// delay passes without another Set.
func (d *Debouncer[T]) Set(input T) tea.Cmd {
	d.pending = input
	d.seq++
	if d.delay <= 0 {
		d.value = input
		d.waiting = false
		return nil
	}
	d.waiting = true
	id, seq := d.id, d.seq
	return tea.Tick(d.delay, func(time.Time) tea.Msg {
		return DebounceMsg{ID: id, Seq: seq}
	})
}

// Update applies msg if it settles the latest input. It reports whether the
// visible value changed.
func (d *Debouncer[T]) Update(msg tea.Msg) bool {
	settle, ok := msg.(DebounceMsg)
	if !ok || settle.ID != d.id || !d.waiting || settle.Seq != d.seq {
		return false
	}
	d.waiting = false
	if d.value == d.pending {
		return false
	}
	d.value = d.pending
	return true
}

func (d *Debouncer[T]) Value() T {
	return d.value
}

func (d *Debouncer[T]) Pending() bool {
	return d.waiting
}
