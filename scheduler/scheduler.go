package scheduler

import (
	"context"
	"sync"
	"time"

	"food-ordering-backend/logger"

	"github.com/rs/zerolog"
)

const (
	HeartbeatInterval   = 30 * time.Second
	TokenSweepInterval  = 6 * time.Hour
	WatchdogInterval    = 60 * time.Second
	OpeningTimeInterval = 60 * time.Second
)

// Job is one periodic maintenance task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error

	running sync.Mutex
}

// Scheduler drives the background jobs: the heartbeat sweep, the expired
// token sweep, the auto-cancel watchdog and the opening-time watcher.
type Scheduler struct {
	jobs []*Job
	log  zerolog.Logger
}

func New() *Scheduler {
	return &Scheduler{log: logger.With("scheduler")}
}

// Add registers a periodic job.
func (s *Scheduler) Add(name string, interval time.Duration, run func(ctx context.Context) error) {
	s.jobs = append(s.jobs, &Job{Name: name, Interval: interval, Run: run})
}

// Start launches one ticker goroutine per job and returns. Jobs stop when
// the context is cancelled. A tick that fires while the previous run is
// still in flight is skipped, so jobs never overlap themselves.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		go s.loop(ctx, job)
	}
	s.log.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")
}

func (s *Scheduler) loop(ctx context.Context, job *Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, job)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, job *Job) {
	if !job.running.TryLock() {
		s.log.Warn().Str("job", job.Name).Msg("previous run still in flight, skipping tick")
		return
	}
	defer job.running.Unlock()

	if err := job.Run(ctx); err != nil {
		s.log.Error().Err(err).Str("job", job.Name).Msg("job failed")
	}
}
