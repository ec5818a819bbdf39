// Package idle runs work opportunistically: when the host has spare time, or
// right away when someone needs the result.
//
// A [Scheduler] is the host's "run this when idle" primitive. [Queue] is a
// cooperative scheduler that the host drains from its own loop. [Timer] is the
// fallback for hosts without an idle facility. [Value] builds on either to
// compute a value at most once, either in idle time or on demand.
package idle

import (
	"slices"
	"sync"
	"time"
)

// Deadline describes how much idle time a callback has.
type Deadline interface {
	// DidTimeout reports whether the callback runs because its timeout hint expired
	// rather than because the host was idle.
	DidTimeout() bool

	// TimeRemaining is an estimate of the idle time left.
	TimeRemaining() time.Duration
}

// Handle cancels a scheduled callback. Dispose is idempotent and has no effect
// once the callback has started.
type Handle interface {
	Dispose()
}

// Scheduler schedules a callback to run once, later, when the host is idle.
//
// timeout is a hint: if positive, the host should run the callback no later than
// that, idle or not. Callbacks that are not disposed must eventually run.
type Scheduler interface {
	Schedule(fn func(Deadline), timeout time.Duration) Handle
}

// SchedulerFunc adapts a function to the [Scheduler] interface.
type SchedulerFunc func(fn func(Deadline), timeout time.Duration) Handle

// Schedule calls f.
func (f SchedulerFunc) Schedule(fn func(Deadline), timeout time.Duration) Handle {
	return f(fn, timeout)
}

// DefaultTimeRemaining is reported by deadlines that have no real idle budget.
const DefaultTimeRemaining = 15 * time.Millisecond

type deadline struct {
	didTimeout bool
	remaining  time.Duration
}

func (d deadline) DidTimeout() bool             { return d.didTimeout }
func (d deadline) TimeRemaining() time.Duration { return d.remaining }

// Timer is a [Scheduler] for hosts with no idle facility.
// Callbacks fire as soon as possible on their own goroutine and always report a timeout.
type Timer struct{}

// Schedule implements [Scheduler].
func (Timer) Schedule(fn func(Deadline), _ time.Duration) Handle {
	t := time.AfterFunc(0, func() {
		fn(deadline{didTimeout: true, remaining: DefaultTimeRemaining})
	})
	return &timerHandle{t: t}
}

type timerHandle struct {
	once sync.Once
	t    *time.Timer
}

func (h *timerHandle) Dispose() {
	h.once.Do(func() {
		h.t.Stop()
	})
}

// Queue is a cooperative [Scheduler].
//
// Scheduled callbacks wait until the host calls [Queue.RunPending], typically
// between units of work on the goroutine that owns the services. Nothing runs
// on a background goroutine.
type Queue struct {
	mu      sync.Mutex
	pending []*queued
	now     func() time.Time
}

// NewQueue creates an empty [Queue].
func NewQueue() *Queue {
	return &Queue{now: time.Now}
}

type queued struct {
	q        *Queue
	fn       func(Deadline)
	deadline time.Time
	done     bool
}

// Dispose drops the callback from the queue, so nothing it references is kept alive.
func (e *queued) Dispose() {
	e.q.mu.Lock()
	defer e.q.mu.Unlock()

	if e.done {
		return
	}
	e.done = true

	if i := slices.Index(e.q.pending, e); i >= 0 {
		e.q.pending = slices.Delete(e.q.pending, i, i+1)
	}
}

// Schedule implements [Scheduler].
func (q *Queue) Schedule(fn func(Deadline), timeout time.Duration) Handle {
	q.mu.Lock()
	defer q.mu.Unlock()

	e := &queued{q: q, fn: fn}
	if timeout > 0 {
		e.deadline = q.clock().Add(timeout)
	}
	q.pending = append(q.pending, e)
	return e
}

// Len returns the number of callbacks waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// RunPending runs every callback scheduled so far, in scheduling order, and
// returns how many ran. Callbacks scheduled while draining wait for the next call.
//
// budget is the idle time the host has available; zero means unbounded. When the
// budget runs out, callbacks whose timeout hint has expired still run and the
// rest stay queued.
func (q *Queue) RunPending(budget time.Duration) int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	start := q.clock()
	ran := 0
	for i, e := range batch {
		now := q.clock()
		remaining := DefaultTimeRemaining
		if budget > 0 {
			remaining = budget - now.Sub(start)
			if remaining <= 0 {
				return ran + q.requeue(batch[i:], now)
			}
		}

		if !q.claim(e) {
			continue
		}
		e.fn(deadline{
			didTimeout: e.expired(now),
			remaining:  remaining,
		})
		ran++
	}
	return ran
}

func (q *Queue) claim(e *queued) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if e.done {
		return false
	}
	e.done = true
	return true
}

func (q *Queue) requeue(rest []*queued, now time.Time) int {
	var keep []*queued
	var expired []*queued

	q.mu.Lock()
	for _, e := range rest {
		switch {
		case e.done:
		case e.expired(now):
			expired = append(expired, e)
		default:
			keep = append(keep, e)
		}
	}
	q.pending = append(keep, q.pending...)
	q.mu.Unlock()

	ran := 0
	for _, e := range expired {
		if q.claim(e) {
			e.fn(deadline{didTimeout: true})
			ran++
		}
	}
	return ran
}

func (e *queued) expired(now time.Time) bool {
	return !e.deadline.IsZero() && !now.Before(e.deadline)
}

func (q *Queue) clock() time.Time {
	if q.now == nil {
		return time.Now()
	}
	return q.now()
}
