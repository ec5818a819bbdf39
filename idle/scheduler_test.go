package idle_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sectrean/ioc-kit/idle"
)

func Test_Queue(t *testing.T) {
	t.Run("runs in order", func(t *testing.T) {
		q := idle.NewQueue()
		var got []int

		for i := range 3 {
			q.Schedule(func(d idle.Deadline) {
				assert.False(t, d.DidTimeout())
				assert.Equal(t, idle.DefaultTimeRemaining, d.TimeRemaining())
				got = append(got, i)
			}, 0)
		}

		assert.Equal(t, 3, q.Len())
		assert.Equal(t, 3, q.RunPending(0))
		assert.Equal(t, []int{0, 1, 2}, got)
		assert.Equal(t, 0, q.RunPending(0))
	})

	t.Run("dispose", func(t *testing.T) {
		q := idle.NewQueue()
		called := false

		h := q.Schedule(func(idle.Deadline) { called = true }, 0)
		h.Dispose()
		h.Dispose()

		assert.Equal(t, 0, q.Len())
		assert.Equal(t, 0, q.RunPending(0))
		assert.False(t, called)
	})

	t.Run("disposed callbacks leave the queue", func(t *testing.T) {
		q := idle.NewQueue()
		var got []int

		handles := make([]idle.Handle, 3)
		for i := range handles {
			handles[i] = q.Schedule(func(idle.Deadline) { got = append(got, i) }, 0)
		}
		handles[1].Dispose()
		assert.Equal(t, 2, q.Len())

		for range 10000 {
			q.Schedule(func(idle.Deadline) { got = append(got, -1) }, 0).Dispose()
		}
		assert.Equal(t, 2, q.Len())

		assert.Equal(t, 2, q.RunPending(0))
		assert.Equal(t, []int{0, 2}, got)

		// Disposing after the run is a no-op.
		handles[0].Dispose()
		assert.Equal(t, 0, q.Len())
	})

	t.Run("scheduled while draining waits", func(t *testing.T) {
		q := idle.NewQueue()
		inner := false

		q.Schedule(func(idle.Deadline) {
			q.Schedule(func(idle.Deadline) { inner = true }, 0)
		}, 0)

		assert.Equal(t, 1, q.RunPending(0))
		assert.False(t, inner)
		assert.Equal(t, 1, q.RunPending(0))
		assert.True(t, inner)
	})

	t.Run("zero value", func(t *testing.T) {
		var q idle.Queue
		called := false
		q.Schedule(func(idle.Deadline) { called = true }, time.Hour)

		assert.Equal(t, 1, q.RunPending(0))
		assert.True(t, called)
	})

	t.Run("expired timeout hint", func(t *testing.T) {
		q := idle.NewQueue()
		var timedOut bool

		q.Schedule(func(d idle.Deadline) { timedOut = d.DidTimeout() }, time.Nanosecond)
		time.Sleep(time.Millisecond)

		assert.Equal(t, 1, q.RunPending(0))
		assert.True(t, timedOut)
	})
}

func Test_Timer(t *testing.T) {
	t.Run("fires", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)

		idle.Timer{}.Schedule(func(d idle.Deadline) {
			defer wg.Done()
			assert.True(t, d.DidTimeout())
		}, 0)

		wg.Wait()
	})

	t.Run("dispose", func(t *testing.T) {
		fired := make(chan struct{}, 1)

		var s idle.Scheduler = idle.SchedulerFunc(func(fn func(idle.Deadline), timeout time.Duration) idle.Handle {
			return idle.Timer{}.Schedule(fn, timeout)
		})
		h := s.Schedule(func(idle.Deadline) { fired <- struct{}{} }, 0)
		h.Dispose()
		h.Dispose()

		// The timer may already have fired; either way Dispose must not panic.
		select {
		case <-fired:
		case <-time.After(10 * time.Millisecond):
		}
	})
}
