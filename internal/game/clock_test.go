package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClockAdvance(t *testing.T) {
	c := NewClock(1000)

	assert.Equal(t, int64(250), c.Advance(1250))
	assert.Equal(t, int64(250), c.Elapsed)
	assert.Equal(t, int64(1250), c.LastAdvance)

	// a wall clock that went backwards adds nothing and keeps the anchor
	assert.Equal(t, int64(0), c.Advance(1200))
	assert.Equal(t, int64(250), c.Elapsed)
	assert.Equal(t, int64(1250), c.LastAdvance)
	assert.Equal(t, int64(1200), c.WallNow)

	assert.Equal(t, int64(50), c.Advance(1300))
	assert.Equal(t, int64(300), c.Elapsed)
}

func TestClockPauseLeaksNoTime(t *testing.T) {
	c := NewClock(0)
	c.Advance(1000)

	c.SetPaused(true, 1000)
	assert.Equal(t, int64(0), c.Advance(6000))
	assert.Equal(t, int64(1000), c.Elapsed)

	c.SetPaused(false, 6000)
	c.Advance(6100)
	assert.Equal(t, int64(1100), c.Elapsed)
}

func TestClockPauseWithoutTick(t *testing.T) {
	c := NewClock(0)

	// pausing moves the anchor too, so time before the pause is not counted later
	c.SetPaused(true, 400)
	c.SetPaused(false, 900)
	c.Advance(1000)
	assert.Equal(t, int64(100), c.Elapsed)
}

func TestClockSetPausedIdempotent(t *testing.T) {
	c := NewClock(0)
	c.SetPaused(false, 500)
	assert.Equal(t, int64(0), c.LastAdvance)

	c.SetPaused(true, 500)
	c.SetPaused(true, 900)
	assert.Equal(t, int64(500), c.LastAdvance)
}

func TestClockDone(t *testing.T) {
	c := NewClock(0)
	c.Advance(999)
	assert.False(t, c.Done(1000))
	c.Advance(1000)
	assert.True(t, c.Done(1000))
}
