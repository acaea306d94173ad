package job

import (
	"context"
	"errors"
	"time"
)

// ErrBlocked is returned by work that gave up the CPU to wait for something.
// The host evicts the task and admits it again once it wakes.
var ErrBlocked = errors.New("task blocked")

// SleepWork returns a runnable that just sleeps for the given duration.
func SleepWork(ms int64) func(context.Context) error {
	return BlockingWork(ms, 0)
}

// BlockingWork returns a runnable that needs ms of service in total and
// blocks after every `every` ms of it. every <= 0 never blocks.
func BlockingWork(ms, every int64) func(context.Context) error {
	remaining := time.Duration(ms) * time.Millisecond
	burst := time.Duration(every) * time.Millisecond
	return func(ctx context.Context) error {
		step := remaining
		if burst > 0 && burst < step {
			step = burst
		}

		start := time.Now()
		timer := time.NewTimer(step)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			remaining -= time.Since(start)
			if remaining < 0 {
				remaining = 0
			}
			return ctx.Err()
		case <-timer.C:
			remaining -= step
			if remaining <= 0 {
				// If the time is up, we just return nil.
				return nil
			}
			return ErrBlocked
		}
	}
}
