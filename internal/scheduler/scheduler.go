// Package scheduler runs background jobs on a fixed interval until the
// context is cancelled.
package scheduler

import (
	"context"
	"log"
	"time"
)

// Job is a unit of periodic work. Errors are logged, not fatal; the
// next tick retries.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a plain function to the Job interface.
type JobFunc func(ctx context.Context) error

// Run calls f.
func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }

// Scheduler ticks one job on a fixed interval.
type Scheduler struct {
	name     string
	job      Job
	interval time.Duration
}

// New returns a scheduler that runs job every interval. The name is
// used only for log output.
func New(name string, job Job, interval time.Duration) *Scheduler {
	return &Scheduler{name: name, job: job, interval: interval}
}

// Start blocks, running the job on each tick until ctx is cancelled.
// Callers run it in its own goroutine. The first run happens after one
// full interval, not immediately.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("scheduler: %s started (interval %s)", s.name, s.interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("scheduler: %s stopped", s.name)
			return
		case <-ticker.C:
			if err := s.job.Run(ctx); err != nil {
				log.Printf("scheduler: %s run failed: %v", s.name, err)
			}
		}
	}
}
