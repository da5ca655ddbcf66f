// Package scheduler runs periodic maintenance jobs such as pruning idle rate
// limiter buckets.
package scheduler

import (
	"fmt"
	"time"

	"command-bot/backend/pkg/logger"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps a gocron scheduler with named interval jobs
type Scheduler struct {
	scheduler gocron.Scheduler
	jobs      map[string]gocron.Job
	started   bool
	log       *logger.Logger
}

// New creates a stopped scheduler
func New(log *logger.Logger) (*Scheduler, error) {
	if log == nil {
		log = logger.NewNop()
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{
		scheduler: s,
		jobs:      make(map[string]gocron.Job),
		log:       log.WithComponent("scheduler"),
	}, nil
}

// Every registers task to run each interval. A run that is still going when
// the next one is due is skipped.
func (s *Scheduler) Every(name string, interval time.Duration, task func()) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			start := time.Now()
			task()
			s.log.Debug("Job finished", "job", name, "duration", time.Since(start))
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = job
	s.log.Info("Job scheduled", "job", name, "interval", interval)
	return nil
}

// Jobs returns the names of the registered jobs
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

// Start begins running jobs
func (s *Scheduler) Start() {
	s.scheduler.Start()
	s.started = true
	s.log.Info("Scheduler started", "jobs", len(s.jobs))
}

// Stop waits for running jobs and stops the scheduler. Stopping a scheduler
// that never started is a no-op.
func (s *Scheduler) Stop() error {
	if !s.started {
		return nil
	}
	s.started = false
	s.log.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}
