// Package session implements the classroom session core: one dispatch
// queue per session serializes every mutation of shared state, whether
// it originates from a transport notification or a local command.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

const queueDepth = 64

type task struct {
	name string
	fn   func() error
	res  chan error
}

// Queue is a single-consumer dispatch queue. Tasks run one at a time
// in submission order; a task runs to completion (including its own
// remote round-trips) before the next one starts. A failing task is
// logged and does not stop the worker.
type Queue struct {
	tasks chan task

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func NewQueue() *Queue {
	q := &Queue{
		tasks: make(chan task, queueDepth),
		done:  make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for t := range q.tasks {
		err := runSafe(t.fn)
		if t.res != nil {
			t.res <- err
			continue
		}
		if err != nil {
			log.Error().Err(err).Str("module", "session.queue").Str("task", t.name).Msg("task failed")
		}
	}
}

func runSafe(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panic: %v", r)
		}
	}()
	return fn()
}

// Dispatch enqueues a fire-and-forget task. Notification handlers use
// this path; a task error is logged, never propagated. Dispatch after
// Close is a no-op.
func (q *Queue) Dispatch(name string, fn func() error) {
	if !q.send(task{name: name, fn: fn}) {
		log.Debug().Str("module", "session.queue").Str("task", name).Msg("dispatch after close dropped")
	}
}

// Invoke enqueues a task and waits for its result. Commands use this
// path so their errors reach the caller while still running on the
// same worker as notification handlers.
func (q *Queue) Invoke(ctx context.Context, name string, fn func() error) error {
	res := make(chan error, 1)
	if !q.send(task{name: name, fn: fn, res: res}) {
		return ErrSessionClosed
	}
	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) send(t task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.tasks <- t
	return true
}

// Close drains already-queued tasks and stops the worker.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()
	<-q.done
}
