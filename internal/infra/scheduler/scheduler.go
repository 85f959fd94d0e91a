package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Job is one scheduled unit of work. A returned error is logged and the
// schedule keeps going.
type Job func(ctx context.Context) error

// Scheduler runs a Job once on Start and then every interval until stopped.
// Stop prevents future runs; a run already in progress finishes on its own.
type Scheduler struct {
	name     string
	interval time.Duration
	job      Job
	log      *zerolog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	nextRun time.Time
}

// New constructs a scheduler. If interval <= 0 it defaults to 1 minute.
func New(name string, interval time.Duration, job Job, logger *zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	l := logger.With().Str("component", "scheduler").Str("job", name).Logger()
	return &Scheduler{name: name, interval: interval, job: job, log: &l}
}

// Start begins the loop in a background goroutine. Calling Start on a
// running scheduler has no effect and returns false.
func (s *Scheduler) Start(parent context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeLocked() {
		return false
	}
	if s.cancel != nil {
		s.cancel() // loop already exited with its parent
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.nextRun = time.Now()
	go s.loop(ctx, s.done)
	return true
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.run(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	s.mu.Lock()
	s.nextRun = time.Now().Add(s.interval)
	s.mu.Unlock()

	start := time.Now()
	if err := s.job(context.WithoutCancel(ctx)); err != nil {
		s.log.Error().Err(err).Dur("took", time.Since(start)).Msg("scheduled run failed")
		return
	}
	s.log.Debug().Dur("took", time.Since(start)).Msg("scheduled run finished")
}

// Stop cancels future runs. It is idempotent and reports whether a running
// schedule was stopped. It does not wait for an in-flight run.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel()
	s.cancel = nil
	s.nextRun = time.Time{}
	return true
}

// activeLocked is false once Stop was called or the loop exited because
// the parent context ended.
func (s *Scheduler) activeLocked() bool {
	if s.cancel == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Running reports whether the schedule is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked()
}

// NextRun returns when the next run is due, or false when stopped.
func (s *Scheduler) NextRun() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked() {
		return time.Time{}, false
	}
	return s.nextRun, true
}

func (s *Scheduler) Interval() time.Duration { return s.interval }

// Done is closed once the loop of the latest Start has exited.
func (s *Scheduler) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.done
}
