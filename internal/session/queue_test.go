package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestQueueRunsTasksInSubmissionOrder(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	var got []int
	for i := 0; i < 50; i++ {
		i := i
		q.Dispatch("append", func() error {
			got = append(got, i)
			return nil
		})
	}
	if err := q.Invoke(context.Background(), "flush", func() error { return nil }); err != nil {
		t.Fatalf("invoke: %v", err)
	}

	if len(got) != 50 {
		t.Fatalf("expected 50 tasks run, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran out of order (got %d)", i, v)
		}
	}
}

func TestQueueContinuesAfterFailure(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	q.Dispatch("fail", func() error { return errors.New("boom") })
	q.Dispatch("panic", func() error { panic("boom") })

	ran := false
	if err := q.Invoke(context.Background(), "after", func() error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("invoke after failure: %v", err)
	}
	if !ran {
		t.Fatal("expected queue to keep running after a failed task")
	}
}

func TestQueueNoInterleaving(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	// A lost update would show up if two task bodies ever overlapped:
	// each task reads the counter, yields, then writes it back.
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				q.Dispatch("bump", func() error {
					v := counter
					time.Sleep(time.Microsecond)
					counter = v + 1
					return nil
				})
			}
		}()
	}
	wg.Wait()

	if err := q.Invoke(context.Background(), "flush", func() error { return nil }); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if counter != 200 {
		t.Fatalf("expected 200 serialized increments, got %d", counter)
	}
}

func TestQueueInvokePropagatesTaskError(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	want := errors.New("remote call failed")
	err := q.Invoke(context.Background(), "cmd", func() error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("expected task error, got %v", err)
	}
}

func TestQueueClosedBehavior(t *testing.T) {
	q := NewQueue()
	q.Close()
	q.Close() // second close is a no-op

	if err := q.Invoke(context.Background(), "cmd", func() error { return nil }); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	// Dispatch after close must not panic.
	q.Dispatch("late", func() error { return nil })
}
