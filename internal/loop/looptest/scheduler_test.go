package looptest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAdvanceRunsDueTasksInOrder(t *testing.T) {
	s := New()
	var got []string
	s.AfterFunc(200*time.Millisecond, func() { got = append(got, "b") })
	s.AfterFunc(100*time.Millisecond, func() { got = append(got, "a") })
	s.AfterFunc(time.Second, func() { got = append(got, "c") })

	s.Advance(500 * time.Millisecond)

	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 1, s.Pending())
	assert.Equal(t, 500*time.Millisecond, s.Now())
}

func TestChainedTasksWithinWindow(t *testing.T) {
	s := New()
	count := 0
	var tick func()
	tick = func() {
		count++
		s.AfterFunc(100*time.Millisecond, tick)
	}
	s.AfterFunc(100*time.Millisecond, tick)

	s.Advance(350 * time.Millisecond)
	assert.Equal(t, 3, count)
}

func TestCancelledTaskSkipped(t *testing.T) {
	s := New()
	ran := false
	task := s.AfterFunc(10*time.Millisecond, func() { ran = true })
	assert.True(t, task.Cancel())

	s.Advance(time.Second)
	assert.False(t, ran)
	assert.Zero(t, s.Pending())
}
