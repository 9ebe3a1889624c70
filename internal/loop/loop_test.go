package loop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := New(8)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(cancel)
	return l
}

func TestLoop_RunsInOrder(t *testing.T) {
	l := startLoop(t)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		require.True(t, l.Post(func() { got = append(got, i) }))
	}
	require.NoError(t, l.Call(context.Background(), func() {}))

	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoop_CallAfterStop(t *testing.T) {
	l := startLoop(t)
	l.Stop()
	l.Stop()

	<-l.Done()
	assert.False(t, l.Post(func() {}))
	assert.ErrorIs(t, l.Call(context.Background(), func() {}), ErrStopped)
}

func TestLoop_StopBeforeRun(t *testing.T) {
	l := New(1)
	l.Stop()
	done := make(chan struct{})
	go func() {
		l.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestLoop_AfterRunsOnLoop(t *testing.T) {
	l := startLoop(t)

	fired := make(chan struct{})
	l.After(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("After callback never ran")
	}
}

func TestLoop_AfterCancel(t *testing.T) {
	l := startLoop(t)

	var n atomic.Int32
	cancel := l.After(20*time.Millisecond, func() { n.Add(1) })
	cancel()
	cancel()

	time.Sleep(60 * time.Millisecond)
	require.NoError(t, l.Call(context.Background(), func() {}))
	assert.Equal(t, int32(0), n.Load())
}

func TestFake_AdvanceFiresInOrder(t *testing.T) {
	f := NewFake()
	var got []string
	f.After(200*time.Millisecond, func() { got = append(got, "b") })
	f.After(100*time.Millisecond, func() {
		got = append(got, "a")
		f.After(50*time.Millisecond, func() { got = append(got, "a2") })
	})
	cancel := f.After(150*time.Millisecond, func() { got = append(got, "never") })
	cancel()

	f.Advance(99 * time.Millisecond)
	assert.Empty(t, got)

	f.Advance(time.Second)
	assert.Equal(t, []string{"a", "a2", "b"}, got)
	assert.Equal(t, 0, f.Pending())
	assert.Equal(t, 1099*time.Millisecond, f.Elapsed())
}
