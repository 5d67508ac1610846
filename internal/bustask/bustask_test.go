package bustask

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_OrdersCalls(t *testing.T) {
	task := New(4)
	defer task.Close()

	<-task.Ready()

	var order []int
	var mu = make(chan struct{}, 1)
	mu <- struct{}{}

	for i := 0; i < 5; i++ {
		i := i
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err := Run(ctx, task, func() error {
			<-mu
			order = append(order, i)
			mu <- struct{}{}
			return nil
		})
		cancel()
		require.NoError(t, err)
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestRun_PropagatesError(t *testing.T) {
	task := New(4)
	defer task.Close()

	wantErr := errors.New("boom")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := Run(ctx, task, func() error { return wantErr })
	assert.ErrorIs(t, err, wantErr)
}

func TestCall_ReturnsValue(t *testing.T) {
	task := New(4)
	defer task.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := Call(ctx, task, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestSubmit_TimeoutWhenQueueFull(t *testing.T) {
	task := New(1)
	defer task.Close()
	<-task.Ready()

	block := make(chan struct{})
	// Occupy the worker so the queue backs up behind it.
	task.Post(func() { <-block })
	// Fill the one-deep queue.
	task.Post(func() {})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := task.Submit(ctx, func() {})
	assert.ErrorIs(t, err, ErrTimeout)

	close(block)
}

func TestSubmit_ErrClosedAfterClose(t *testing.T) {
	task := New(4)
	task.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := task.Submit(ctx, func() {})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPost_RunsAsynchronously(t *testing.T) {
	task := New(4)
	defer task.Close()
	<-task.Ready()

	done := make(chan struct{})
	ok := task.Post(func() { close(done) })
	require.True(t, ok)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("posted closure never ran")
	}
}
