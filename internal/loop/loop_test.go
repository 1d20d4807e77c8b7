package loop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dd2-manager/pkg/logger"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := New(logger.Nop(), 8)
	go l.Run(context.Background())
	t.Cleanup(l.Stop)
	return l
}

func TestDoRunsOnLoopInOrder(t *testing.T) {
	l := startLoop(t)

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		require.True(t, l.Post(func() { order = append(order, i) }))
	}
	require.NoError(t, l.Do(context.Background(), func() {}))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestPostAfterStop(t *testing.T) {
	l := startLoop(t)
	l.Stop()

	assert.False(t, l.Post(func() {}))
	assert.ErrorIs(t, l.Do(context.Background(), func() {}), ErrStopped)
}

func TestPanicDoesNotKillLoop(t *testing.T) {
	l := startLoop(t)

	l.Post(func() { panic("boom") })
	ran := false
	require.NoError(t, l.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestAfterFuncRunsOnLoop(t *testing.T) {
	l := startLoop(t)

	fired := make(chan struct{})
	l.AfterFunc(5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("scheduled task did not run")
	}
}

func TestCancelFromLoopWinsOverQueuedFire(t *testing.T) {
	l := startLoop(t)

	var ran atomic.Bool
	cancelled := false

	// The timer fires while the loop is busy, so its closure is already
	// queued when Cancel runs.
	require.NoError(t, l.Do(context.Background(), func() {
		task := l.AfterFunc(time.Millisecond, func() { ran.Store(true) })
		time.Sleep(20 * time.Millisecond)
		cancelled = task.Cancel()
	}))
	require.NoError(t, l.Do(context.Background(), func() {}))

	assert.True(t, cancelled)
	assert.False(t, ran.Load())
}

func TestCancelTwice(t *testing.T) {
	l := startLoop(t)

	task := l.AfterFunc(time.Hour, func() {})
	assert.True(t, task.Cancel())
	assert.False(t, task.Cancel())
}
