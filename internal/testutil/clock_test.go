package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock_AdvanceFiresInOrder(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewManualClock(start)

	var fired []string
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	c.AfterFunc(time.Second, func() { fired = append(fired, "a") })
	c.AfterFunc(5*time.Second, func() { fired = append(fired, "c") })

	c.Advance(3 * time.Second)
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, start.Add(3*time.Second), c.Now())
	assert.Equal(t, 1, c.Pending())

	d, ok := c.NextDeadline()
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, d)
}

func TestManualClock_Stop(t *testing.T) {
	c := NewManualClock(time.Unix(0, 0))
	called := false
	timer := c.AfterFunc(time.Second, func() { called = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	c.Advance(2 * time.Second)
	assert.False(t, called)
	assert.Equal(t, 0, c.Pending())
}

func TestManualClock_TimerRegisteredDuringAdvance(t *testing.T) {
	c := NewManualClock(time.Unix(0, 0))
	var at []time.Time
	c.AfterFunc(time.Second, func() {
		at = append(at, c.Now())
		c.AfterFunc(time.Second, func() { at = append(at, c.Now()) })
	})

	c.Advance(5 * time.Second)
	assert.Equal(t, []time.Time{time.Unix(1, 0), time.Unix(2, 0)}, at)
}

func TestManualClock_BlockUntil(t *testing.T) {
	c := NewManualClock(time.Unix(0, 0))
	assert.False(t, c.BlockUntil(1, 5*time.Millisecond))

	go c.AfterFunc(time.Second, func() {})
	assert.True(t, c.BlockUntil(1, time.Second))
}
