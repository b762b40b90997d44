package async

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed 表示队列已关闭。
var ErrQueueClosed = errors.New("async: queue closed / 队列已关闭")

// SerialQueue runs submitted functions one at a time, in submission order.
type SerialQueue struct {
	tasks  chan func()
	done   chan struct{}
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

// NewSerialQueue starts the worker goroutine. backlog bounds queued tasks.
func NewSerialQueue(backlog int) *SerialQueue {
	if backlog <= 0 {
		backlog = 64
	}
	q := &SerialQueue{
		tasks: make(chan func(), backlog),
		done:  make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *SerialQueue) run() {
	defer close(q.done)
	for task := range q.tasks {
		task()
	}
}

// Submit enqueues fn without waiting for it to run.
func (q *SerialQueue) Submit(fn func()) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.tasks <- fn
	return nil
}

// Do enqueues fn and waits for it to finish.
func (q *SerialQueue) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := q.Submit(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks and waits for queued ones to run.
func (q *SerialQueue) Close() {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.tasks)
		q.mu.Unlock()
	})
	<-q.done
}
