package session

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestClockStartAndStop(t *testing.T) {
	c := NewClock()
	defer c.StopAll()

	var ticks atomic.Int64
	c.Start("t", time.Millisecond, func() { ticks.Add(1) })
	if !c.Running("t") {
		t.Fatal("expected timer running after start")
	}

	deadline := time.Now().Add(time.Second)
	for ticks.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if ticks.Load() == 0 {
		t.Fatal("timer never ticked")
	}

	c.Stop("t")
	if c.Running("t") {
		t.Fatal("expected timer stopped")
	}
}

func TestClockRestartReplaces(t *testing.T) {
	c := NewClock()
	defer c.StopAll()

	var first, second atomic.Int64
	c.Start("t", time.Millisecond, func() { first.Add(1) })
	c.Start("t", time.Millisecond, func() { second.Add(1) })

	deadline := time.Now().Add(time.Second)
	for second.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if second.Load() == 0 {
		t.Fatal("replacement timer never ticked")
	}

	// The first timer must be gone: its count settles.
	settled := first.Load()
	time.Sleep(20 * time.Millisecond)
	if first.Load() != settled {
		t.Fatalf("replaced timer still ticking (was %d, now %d)", settled, first.Load())
	}
}

func TestClockStopIdempotent(t *testing.T) {
	c := NewClock()
	c.Stop("absent")
	c.Stop("absent")

	c.Start("t", time.Millisecond, func() {})
	c.Stop("t")
	c.Stop("t")
	c.StopAll()
}
