package transport

import (
	"context"
	"sync"
	"time"
)

// TickFunc runs one scheduler step and returns the delay until the next one.
type TickFunc func() time.Duration

// Scheduler calls a TickFunc from a single goroutine, never reentrantly.
// Timing is best effort: a late tick is not compensated.
type Scheduler struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Start stops any running loop, waits initial and then keeps calling fn.
func (s *Scheduler) Start(initial time.Duration, fn TickFunc) {
	s.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.cancel, s.done = cancel, done
	s.mu.Unlock()

	go func() {
		defer close(done)
		timer := time.NewTimer(initial)
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				timer.Reset(fn())
			}
		}
	}()
}

// Stop ends the loop and waits for the current tick to finish. It must not
// be called from inside the TickFunc.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}
