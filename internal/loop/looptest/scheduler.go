// Package looptest provides a manual clock for code that schedules work on
// the event loop.
package looptest

import (
	"sort"
	"time"

	"dd2-manager/internal/loop"
)

type task struct {
	due       time.Duration
	seq       int
	fn        func()
	cancelled bool
	ran       bool
}

func (t *task) Cancel() bool {
	if t.cancelled || t.ran {
		return false
	}
	t.cancelled = true
	return true
}

// Scheduler runs tasks only when Advance moves its clock past their due time.
// It is not safe for concurrent use; tests drive it from one goroutine.
type Scheduler struct {
	now   time.Duration
	seq   int
	tasks []*task
}

var _ loop.Scheduler = (*Scheduler)(nil)

func New() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) AfterFunc(d time.Duration, fn func()) loop.Task {
	if d < 0 {
		d = 0
	}
	s.seq++
	t := &task{due: s.now + d, seq: s.seq, fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

// Now returns the elapsed virtual time.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// Pending returns the number of tasks that are neither run nor cancelled.
func (s *Scheduler) Pending() int {
	n := 0
	for _, t := range s.tasks {
		if !t.cancelled && !t.ran {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, running every task that becomes due
// in order, including tasks scheduled by tasks that ran.
func (s *Scheduler) Advance(d time.Duration) {
	end := s.now + d
	for {
		next := s.next(end)
		if next == nil {
			break
		}
		s.now = next.due
		next.ran = true
		next.fn()
	}
	s.now = end
	s.compact()
}

// RunAll keeps advancing until nothing is pending or limit is reached.
func (s *Scheduler) RunAll(limit time.Duration) {
	deadline := s.now + limit
	for s.Pending() > 0 && s.now < deadline {
		next := s.next(deadline)
		if next == nil {
			break
		}
		s.Advance(next.due - s.now)
	}
}

func (s *Scheduler) next(end time.Duration) *task {
	var due []*task
	for _, t := range s.tasks {
		if !t.cancelled && !t.ran && t.due <= end {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].seq < due[j].seq
	})
	return due[0]
}

func (s *Scheduler) compact() {
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.cancelled && !t.ran {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
}
