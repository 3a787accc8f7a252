package app

import (
	"sync"
	"time"
)

// countdown is the owned timer handle for one InProgress episode. Closing
// stop ends the ticking goroutine; halt is safe to call more than once.
type countdown struct {
	stop chan struct{}
	once sync.Once
}

func (c *countdown) halt() {
	c.once.Do(func() { close(c.stop) })
}

// startTimerLocked launches the per-episode countdown goroutine. The
// goroutine carries the generation it was started for, so a tick that
// outlives its episode (restart, new selection) is rejected instead of
// mutating a superseded session. Must hold s.mu.
func (s *Session) startTimerLocked() {
	s.stopTimerLocked()

	c := &countdown{stop: make(chan struct{})}
	s.timer = c
	gen := s.generation
	interval := s.interval

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				if !s.tick(gen) {
					return
				}
			}
		}
	}()
}

// stopTimerLocked cancels the pending countdown, if any. Must hold s.mu.
func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.halt()
		s.timer = nil
	}
}
