// Package loop provides the single goroutine on which all view state is
// mutated. Handlers are posted as closures and run one at a time, so no two
// handlers ever run concurrently and state needs no locks.
package loop

import (
	"context"
	"sync"
	"time"

	"github.com/jask/kgview/internal/persist"
)

// Loop runs posted functions sequentially.
type Loop struct {
	queue chan func()
	done  chan struct{}
	once  sync.Once
}

// New returns a loop with a queue of the given capacity.
func New(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 256
	}
	return &Loop{queue: make(chan func(), buffer), done: make(chan struct{})}
}

// Run executes posted functions until ctx ends.
func (l *Loop) Run(ctx context.Context) {
	defer l.once.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.queue:
			fn()
		}
	}
}

// Post enqueues fn. It blocks only while the queue is full and returns
// without running fn once the loop has stopped.
func (l *Loop) Post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}
	select {
	case l.queue <- wrapped:
	case <-l.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AfterFunc schedules fn to run on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) persist.Timer {
	t := &timer{}
	t.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.cancelled() {
				return
			}
			fn()
		})
	})
	return t
}

// timer suppresses a callback that was already queued when Stop was called.
type timer struct {
	mu      sync.Mutex
	t       *time.Timer
	stopped bool
}

func (t *timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	return t.t.Stop()
}

func (t *timer) cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
