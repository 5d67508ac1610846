// Package bustask implements the cooperative "bluetooth task": a single
// goroutine that serializes every GATT callback and every public API call
// onto one ordering domain.
package bustask

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Submit once the task has been stopped.
var ErrClosed = errors.New("bustask: task is closed")

// ErrTimeout is returned by Submit when ctx is done before the queued
// closure runs.
var ErrTimeout = errors.New("bustask: submit timed out waiting for worker")

// Task runs queued closures one at a time on a single internal goroutine,
// giving every caller (GATT callbacks, public API methods) a single total
// order without each of them needing its own locking scheme.
type Task struct {
	queue chan func()

	readyOnce sync.Once
	ready     chan struct{}

	closeOnce sync.Once
	done      chan struct{}
}

// New builds a Task with the given work-queue depth and starts its worker
// goroutine. queueDepth <= 0 defaults to 64.
func New(queueDepth int) *Task {
	if queueDepth <= 0 {
		queueDepth = 64
	}
	t := &Task{
		queue: make(chan func(), queueDepth),
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *Task) run() {
	t.readyOnce.Do(func() { close(t.ready) })
	for fn := range t.queue {
		fn()
	}
	close(t.done)
}

// Ready returns a channel closed once the worker goroutine has started.
func (t *Task) Ready() <-chan struct{} { return t.ready }

// Submit enqueues fn and blocks until it has run, ctx is done, or the task
// is closed. It's the building block Run/Call use to turn an arbitrary
// closure into a synchronous call from the caller's point of view.
func (t *Task) Submit(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		fn()
		close(done)
	}
	// Once the worker has exited the queue is closed; check first so the
	// send below is never attempted on a closed channel.
	select {
	case <-t.done:
		return ErrClosed
	default:
	}
	select {
	case t.queue <- wrapped:
	case <-t.done:
		return ErrClosed
	case <-ctx.Done():
		return ErrTimeout
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ErrTimeout
	case <-t.done:
		return ErrClosed
	}
}

// Run submits fn and waits for it to finish, returning whatever error fn
// itself returned (or a bustask error if it never ran).
func Run(ctx context.Context, t *Task, fn func() error) error {
	var callErr error
	err := t.Submit(ctx, func() { callErr = fn() })
	if err != nil {
		return err
	}
	return callErr
}

// Call is the generic form of Run for closures producing a value.
func Call[T any](ctx context.Context, t *Task, fn func() (T, error)) (T, error) {
	var (
		result  T
		callErr error
	)
	err := t.Submit(ctx, func() { result, callErr = fn() })
	if err != nil {
		return result, err
	}
	return result, callErr
}

// Post enqueues fn without waiting for it to run. Used for callback-side
// notifications (platform.Callbacks) where the caller (the BLE backend) must
// not block on the engine's internal processing.
func (t *Task) Post(fn func()) bool {
	select {
	case t.queue <- fn:
		return true
	case <-t.done:
		return false
	default:
		// Queue full: drop rather than block the backend's own callback
		// goroutine.
		return false
	}
}

// Close stops accepting new work and waits for the worker to drain and exit.
// Safe to call more than once.
func (t *Task) Close() {
	t.closeOnce.Do(func() {
		close(t.queue)
	})
	<-t.done
}
