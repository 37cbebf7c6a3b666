// Package job runs the background tasks of a watchtower node.
//
// Jobs carry their own tick/fault counters, the same accounting style the
// dispatcher uses for dropped replication messages, so the scheduler can
// report on shutdown how often each task ran and how often it misbehaved.
package job

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
)

// Func is the body of a job. For interval jobs it is invoked once per tick.
type Func func(ctx context.Context, log *slog.Logger) error

// Job is a named background task owned by a Scheduler.
type Job struct {
	// Name identifies the job in logs and in the shutdown summary.
	Name string
	// Func is the job body. For a plain job it runs once; interval jobs
	// built with NewIntervalJob wrap it in a ticker loop.
	Func Func

	// ticks and faults are maintained by the interval runner.
	ticks  atomic.Uint64
	faults atomic.Uint64
}

func (j *Job) Validate() error {
	if j.Name == "" {
		return errors.New("job name is required")
	}

	if j.Func == nil {
		return errors.New("job function is required")
	}

	return nil
}

// Run executes the job body. It blocks until the body returns; interval job
// bodies only return once the scheduler context is cancelled.
func (j *Job) Run(ctx context.Context, log *slog.Logger) error {
	log.Info("running job", "name", j.Name)
	return j.Func(ctx, log)
}

// Ticks reports how many times an interval job's body has been invoked.
func (j *Job) Ticks() uint64 { return j.ticks.Load() }

// Faults reports how many ticks ended in an error or a panic.
func (j *Job) Faults() uint64 { return j.faults.Load() }
