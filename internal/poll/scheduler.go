// Package poll runs a step on a fixed interval. Each cycle schedules the
// next one when it finishes, whatever the outcome, so cycles never overlap
// and a slow or failing step simply delays the loop.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/ordinaryYT/jacweb1/pkg/logging"
)

// Step is one poll cycle. It reports its outcome through its own side
// effects; the scheduler does not inspect it.
type Step func(ctx context.Context)

// Config configures a Scheduler.
type Config struct {
	Name     string
	Interval time.Duration
	Clock    clock.Clock
	Logger   logging.Logger
}

// Scheduler owns at most one pending timer. Start supersedes whatever loop
// was running.
type Scheduler struct {
	name     string
	interval time.Duration
	clock    clock.Clock
	logger   logging.Logger
	step     Step

	mu    sync.Mutex
	timer *clock.Timer
	gen   uint64

	// held for the duration of a cycle
	cycleMu sync.Mutex
}

// New creates a stopped scheduler.
func New(cfg Config, step Step) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewLogger()
	}
	return &Scheduler{
		name:     cfg.Name,
		interval: cfg.Interval,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		step:     step,
	}
}

// Start cancels any pending timer and runs a cycle now, on the caller's
// goroutine. Later cycles run on timer goroutines until ctx is done or Stop
// is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.stopTimerLocked()
	s.mu.Unlock()

	s.runCycle(ctx, gen)
}

// Stop cancels the pending timer. A cycle already running finishes but does
// not reschedule.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.stopTimerLocked()
}

// Pending reports whether a next cycle is scheduled.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Interval returns the delay between cycles.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

func (s *Scheduler) runCycle(ctx context.Context, gen uint64) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	defer s.reschedule(ctx, gen)
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(logging.Fields{
				"poller": s.name,
				"panic":  r,
			}).Error("Poll step panicked")
		}
	}()

	if ctx.Err() != nil || !s.current(gen) {
		return
	}
	s.step(ctx)
}

func (s *Scheduler) reschedule(ctx context.Context, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || ctx.Err() != nil {
		return
	}
	s.stopTimerLocked()
	s.timer = s.clock.AfterFunc(s.interval, func() {
		s.fire(ctx, gen)
	})
}

func (s *Scheduler) fire(ctx context.Context, gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	s.runCycle(ctx, gen)
}

func (s *Scheduler) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.gen
}

func (s *Scheduler) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
