package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickClock_CountsAndStops(t *testing.T) {
	c := NewTickClock(1)
	c.Start(time.Millisecond)

	<-c.Ch
	<-c.Ch
	c.Stop()
	c.Stop()

	// drain until the clock closes the channel
	for range c.Ch {
	}
	assert.GreaterOrEqual(t, c.Count(), int64(2))
}
