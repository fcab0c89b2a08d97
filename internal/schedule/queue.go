// Package schedule runs deferred callbacks and interval timers from the host
// frame loop. Nothing runs on its own goroutine: callbacks fire inside Tick.
package schedule

import (
	"slices"
	"time"
)

// Queue holds work for upcoming frame ticks. It is not safe for concurrent
// use; all calls come from the UI thread.
type Queue struct {
	now      time.Time
	deferred []func()
	timers   []*Timer
}

func NewQueue() *Queue {
	return &Queue{}
}

// Now returns the time passed to the latest Tick.
func (q *Queue) Now() time.Time { return q.now }

// Defer runs fn at the next Tick. Callbacks deferred while a tick is running
// wait for the following one.
func (q *Queue) Defer(fn func()) {
	q.deferred = append(q.deferred, fn)
}

// Every runs fn each time at least interval has passed since it last fired.
func (q *Queue) Every(interval time.Duration, fn func()) *Timer {
	t := &Timer{queue: q, interval: interval, fn: fn, next: q.now.Add(interval)}
	q.timers = append(q.timers, t)
	return t
}

// Pending reports how many deferred callbacks and live timers are queued.
func (q *Queue) Pending() (deferred, timers int) {
	return len(q.deferred), len(q.timers)
}

// Tick advances the clock to now, then runs deferred callbacks and due
// timers. A timer fires at most once per tick.
func (q *Queue) Tick(now time.Time) {
	if now.After(q.now) {
		q.now = now
	}

	batch := q.deferred
	q.deferred = nil
	for _, fn := range batch {
		fn()
	}

	for _, t := range slices.Clone(q.timers) {
		if t.stopped || q.now.Before(t.next) {
			continue
		}
		t.next = q.now.Add(t.interval)
		t.fn()
	}
}

// Timer is a repeating callback created by Every.
type Timer struct {
	queue    *Queue
	interval time.Duration
	next     time.Time
	fn       func()
	stopped  bool
}

// Stop cancels the timer. It is safe to call more than once.
func (t *Timer) Stop() {
	if t.stopped {
		return
	}
	t.stopped = true
	t.queue.timers = slices.DeleteFunc(t.queue.timers, func(o *Timer) bool { return o == t })
}

func (t *Timer) Stopped() bool { return t.stopped }
