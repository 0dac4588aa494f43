package session

import (
	"sync"
	"time"
)

// TimerName is the repeating timer recomputing elapsed class time.
const TimerName = "timer"

// Ticker is what the synchronizer needs from the clock; the concrete
// Clock satisfies it, tests substitute a recorder.
type Ticker interface {
	Start(name string, interval time.Duration, fn func())
	Stop(name string)
}

// Clock owns the session's named repeating timers. Starting an already
// running timer replaces it; stopping an absent one is a no-op.
type Clock struct {
	mu     sync.Mutex
	timers map[string]chan struct{}
}

func NewClock() *Clock {
	return &Clock{timers: make(map[string]chan struct{})}
}

func (c *Clock) Start(name string, interval time.Duration, fn func()) {
	c.mu.Lock()
	if stop, ok := c.timers[name]; ok {
		close(stop)
	}
	stop := make(chan struct{})
	c.timers[name] = stop
	c.mu.Unlock()

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				fn()
			}
		}
	}()
}

func (c *Clock) Stop(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if stop, ok := c.timers[name]; ok {
		close(stop)
		delete(c.timers, name)
	}
}

// StopAll tears down every timer; called unconditionally on leave.
func (c *Clock) StopAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, stop := range c.timers {
		close(stop)
		delete(c.timers, name)
	}
}

// Running reports whether a named timer is active.
func (c *Clock) Running(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.timers[name]
	return ok
}
