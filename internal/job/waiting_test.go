package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSleepWork_Finishes(t *testing.T) {
	work := SleepWork(1)
	assert.NoError(t, work(context.Background()))
}

func TestSleepWork_ResumesAfterPreempt(t *testing.T) {
	work := SleepWork(30)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	err := work(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	// the rest of the work still needs to run
	start := time.Now()
	assert.NoError(t, work(context.Background()))
	assert.Less(t, time.Since(start), 30*time.Millisecond+50*time.Millisecond)
}

func TestBlockingWork_BlocksBetweenBursts(t *testing.T) {
	work := BlockingWork(5, 2)

	assert.ErrorIs(t, work(context.Background()), ErrBlocked)
	assert.ErrorIs(t, work(context.Background()), ErrBlocked)
	assert.NoError(t, work(context.Background()))
}
