package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/HorseArcher567/watchtower/pkg/logger"
)

// Scheduler owns the background jobs of one node and their lifecycle.
type Scheduler struct {
	log    *slog.Logger
	jobs   []*Job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(log *slog.Logger) *Scheduler {
	return &Scheduler{
		log:  logger.Component(log, "scheduler"),
		jobs: make([]*Job, 0),
	}
}

func (s *Scheduler) AddJob(job *Job) {
	s.jobs = append(s.jobs, job)
}

// Start validates every registered job, then launches each one in a
// background goroutine and returns. An invalid job fails the whole start:
// a node missing its evictor must not come up silently.
func (s *Scheduler) Start() error {
	for _, job := range s.jobs {
		if err := job.Validate(); err != nil {
			return fmt.Errorf("job %q: %w", job.Name, err)
		}
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.log.Info("starting job scheduler", "jobCount", len(s.jobs))

	for _, job := range s.jobs {
		job := job
		s.wg.Go(func() {
			if err := job.Run(s.ctx, s.log); err != nil {
				s.log.Error("job run failed", "name", job.Name, "error", err)
			}
		})
	}

	return nil
}

// Stop cancels the scheduler context and waits for every job to finish,
// bounded by ctx. On a clean stop it logs one summary line per job with its
// tick/fault counts.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.log.Info("shutting down job scheduler gracefully")

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		for _, job := range s.jobs {
			s.log.Info("job finished",
				"name", job.Name, "ticks", job.Ticks(), "faults", job.Faults())
		}
		return nil
	case <-ctx.Done():
		s.log.Warn("job scheduler shutdown timeout, some jobs may still be running")
		return ctx.Err()
	}
}
