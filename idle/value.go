package idle

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// ErrRecursiveGet is returned by [Value.Get] when a computation asks for its own value.
var ErrRecursiveGet = errors.New("idle value: computation depends on its own value")

// Value is computed at most once: in idle time, or on the first call to [Value.Get]
// if that comes first. This is the "idle until urgent" strategy.
//
// The computation runs exactly once whichever path wins; the other observes the
// memoized result. A failed computation is memoized too and returned by every Get.
type Value[T any] struct {
	mu      sync.Mutex
	fn      func() (T, error)
	handle  Handle
	didRun  bool
	running chan struct{}
	runner  uint64
	val     T
	err     error
}

// NewValue stores fn and schedules it on s. fn does not run yet.
func NewValue[T any](s Scheduler, fn func() (T, error)) *Value[T] {
	v := &Value[T]{fn: fn}
	v.handle = s.Schedule(func(Deadline) {
		_, _ = v.run(false)
	}, 0)
	return v
}

// Get returns the value, computing it now if it has not been computed yet.
// A pending idle run is canceled first. If the computation is running on another
// goroutine, Get waits for it.
func (v *Value[T]) Get() (T, error) {
	return v.run(true)
}

// MustGet is like [Value.Get] but panics if the computation failed.
// It is meant for wrapper types whose methods cannot return the error.
func (v *Value[T]) MustGet() T {
	val, err := v.Get()
	if err != nil {
		panic(err)
	}
	return val
}

// DidRun reports whether the computation has run.
func (v *Value[T]) DidRun() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.didRun
}

// Dispose cancels the pending idle run, if it has not fired. It can be called
// more than once and does not affect a computation that already started.
func (v *Value[T]) Dispose() {
	v.handle.Dispose()
}

// run computes the value unless that happened already. An idle run that finds the
// computation in progress returns at once; a forced one waits for the result.
func (v *Value[T]) run(forced bool) (T, error) {
	var zero T

	v.mu.Lock()
	if v.didRun {
		defer v.mu.Unlock()
		return v.val, v.err
	}

	if done := v.running; done != nil {
		recursive := v.runner == goroutineID()
		v.mu.Unlock()

		if recursive {
			return zero, ErrRecursiveGet
		}
		if !forced {
			return zero, nil
		}

		<-done
		v.mu.Lock()
		defer v.mu.Unlock()
		return v.val, v.err
	}

	done := make(chan struct{})
	v.running = done
	v.runner = goroutineID()
	fn := v.fn
	v.mu.Unlock()

	if forced {
		v.handle.Dispose()
	}

	val, err := compute(fn)

	v.mu.Lock()
	v.val, v.err = val, err
	v.didRun = true
	v.fn = nil
	v.mu.Unlock()
	close(done)

	return val, err
}

func compute[T any](fn func() (T, error)) (val T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("idle value: panic: %v", r)
		}
	}()

	return fn()
}

// goroutineID returns the id of the calling goroutine, read from its stack header
// ("goroutine 18 [running]:").
func goroutineID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}

	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}
