package timing

import (
	"sync"
	"time"
)

// Throttle runs fn at most once per window. Calls inside the window return
// the result of the last run without calling fn.
type Throttle[T any] struct {
	mu     sync.Mutex
	window time.Duration
	fn     func() T
	now    func() time.Time
	last   time.Time
	result T
	ran    bool
}

func NewThrottle[T any](window time.Duration, fn func() T) *Throttle[T] {
	return &Throttle[T]{window: window, fn: fn, now: time.Now}
}

// Call reports whether fn actually ran.
func (t *Throttle[T]) Call() (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if t.ran && now.Sub(t.last) < t.window {
		return t.result, false
	}
	t.result = t.fn()
	t.last = now
	t.ran = true
	return t.result, true
}

func (t *Throttle[T]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ran = false
	t.last = time.Time{}
}
