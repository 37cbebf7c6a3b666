package job

import (
	"context"
	"log/slog"
	"time"
)

// NewIntervalJob wraps fn in a ticker loop firing every interval until the
// scheduler context is cancelled. A panic or error inside one tick counts as
// a fault and must not terminate the loop; the body simply runs again at the
// next tick.
func NewIntervalJob(name string, interval time.Duration, fn Func) *Job {
	j := &Job{Name: name}
	j.Func = func(ctx context.Context, log *slog.Logger) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				j.tick(ctx, log, fn)
			}
		}
	}
	return j
}

// tick runs one iteration of an interval job, recording the outcome.
func (j *Job) tick(ctx context.Context, log *slog.Logger, fn Func) {
	j.ticks.Add(1)

	defer func() {
		if r := recover(); r != nil {
			j.faults.Add(1)
			log.Error("job tick panicked", "name", j.Name, "panic", r)
		}
	}()

	if err := fn(ctx, log); err != nil {
		j.faults.Add(1)
		log.Error("job tick failed", "name", j.Name, "error", err)
	}
}
