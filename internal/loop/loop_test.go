package loop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func start(t *testing.T) *Loop {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	l := New(0)
	go l.Run(ctx)
	t.Cleanup(cancel)
	return l
}

func TestPostRunsInOrder(t *testing.T) {
	l := start(t)
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	var snapshot []int
	require.NoError(t, l.Call(context.Background(), func() { snapshot = append(snapshot, got...) }))
	require.Equal(t, []int{0, 1, 2, 3, 4}, snapshot)
}

func TestAfterFuncRunsOnLoop(t *testing.T) {
	l := start(t)
	fired := make(chan struct{})
	l.AfterFunc(5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestStoppedTimerDoesNotFire(t *testing.T) {
	l := start(t)
	fired := make(chan struct{}, 1)
	tm := l.AfterFunc(20*time.Millisecond, func() { fired <- struct{}{} })
	require.NoError(t, l.Call(context.Background(), func() { tm.Stop() }))

	select {
	case <-fired:
		t.Fatal("stopped timer fired")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestCallAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := New(1)
	stopped := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	l.Post(func() {})
	err := l.Call(context.Background(), func() {})
	require.Error(t, err)
}
