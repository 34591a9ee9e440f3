package transport

import (
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestSchedulerTicks(t *testing.T) {
	var s Scheduler
	var ticks, active, overlap atomic.Int32

	s.Start(time.Millisecond, func() time.Duration {
		if active.Add(1) > 1 {
			overlap.Add(1)
		}
		ticks.Add(1)
		active.Add(-1)
		return time.Millisecond
	})
	if !s.Running() {
		t.Fatal("scheduler not running after Start")
	}

	waitFor(t, 2*time.Second, func() bool { return ticks.Load() >= 5 })
	s.Stop()

	if s.Running() {
		t.Error("scheduler still running after Stop")
	}
	after := ticks.Load()
	time.Sleep(10 * time.Millisecond)
	if ticks.Load() != after {
		t.Error("ticks continued after Stop")
	}
	if overlap.Load() != 0 {
		t.Error("tick function ran reentrantly")
	}
}

func TestSchedulerRestart(t *testing.T) {
	var s Scheduler
	var first, second atomic.Int32

	s.Start(time.Millisecond, func() time.Duration { first.Add(1); return time.Millisecond })
	waitFor(t, 2*time.Second, func() bool { return first.Load() > 0 })

	s.Start(time.Millisecond, func() time.Duration { second.Add(1); return time.Millisecond })
	stopped := first.Load()
	waitFor(t, 2*time.Second, func() bool { return second.Load() > 2 })
	s.Stop()

	if first.Load() != stopped {
		t.Error("first loop kept running after restart")
	}
}

func TestSchedulerStopIdle(t *testing.T) {
	var s Scheduler
	s.Stop()
	s.Stop()
	if s.Running() {
		t.Error("idle scheduler reports running")
	}
}
