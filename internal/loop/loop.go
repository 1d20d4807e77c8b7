// Package loop provides the single goroutine that owns all controller state.
// Hotkeys, timers, IPC and the panel never touch that state directly; they
// post closures here.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"dd2-manager/pkg/core"
)

// ErrStopped is returned when work is posted after the loop has stopped.
var ErrStopped = errors.New("event loop stopped")

// Task is a handle to scheduled work.
type Task interface {
	// Cancel prevents the work from running. It reports whether the call
	// stopped it; false means it already ran or was cancelled before.
	Cancel() bool
}

// Scheduler runs fn after d on the loop goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Task
}

// Poster accepts work for the loop goroutine.
type Poster interface {
	Post(fn func()) bool
}

type Loop struct {
	queue    chan func()
	done     chan struct{}
	stopOnce sync.Once
	log      core.Logger
}

func New(log core.Logger, size int) *Loop {
	if size <= 0 {
		size = 64
	}
	return &Loop{
		queue: make(chan func(), size),
		done:  make(chan struct{}),
		log:   log,
	}
}

// Post queues fn. It returns false once the loop is stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Run executes posted work until ctx is done or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Debug("Event loop started")
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.done:
			l.log.Debug("Event loop stopped")
			return nil
		case fn := <-l.queue:
			l.run(fn)
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("Recovered panic in event loop", fmt.Errorf("%v", r))
		}
	}()
	fn()
}

// Stop ends Run. Pending work is dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

// Done is closed when the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Do posts fn and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

type timerTask struct {
	timer     *time.Timer
	cancelled atomic.Bool
	fired     atomic.Bool
}

func (t *timerTask) Cancel() bool {
	if t.fired.Load() || !t.cancelled.CompareAndSwap(false, true) {
		return false
	}
	t.timer.Stop()
	return true
}

// AfterFunc schedules fn on the loop goroutine after d. The cancelled flag
// is checked on the loop itself, so a Cancel issued from loop code wins
// even when the timer has already fired and the closure is queued.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Task {
	t := &timerTask{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.cancelled.Load() {
				return
			}
			t.fired.Store(true)
			fn()
		})
	})
	return t
}
