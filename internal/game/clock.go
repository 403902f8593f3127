package game

// Clock tracks game time against wall time. All values are milliseconds.
//
// Elapsed only grows while the clock is running. Every pause transition
// moves LastAdvance to the transition instant, so time spent paused is
// never counted once the clock resumes.
type Clock struct {
	WallStart   int64 `json:"wall_start"`
	WallNow     int64 `json:"wall_now"`
	Elapsed     int64 `json:"elapsed"`
	LastAdvance int64 `json:"last_advance"`
	Paused      bool  `json:"paused"`
}

// NewClock starts a running clock at wall time now
func NewClock(now int64) Clock {
	return Clock{WallStart: now, WallNow: now, LastAdvance: now}
}

// Advance moves the clock to wall time now and returns the game time added.
// A wall clock that went backwards adds nothing.
func (c *Clock) Advance(now int64) int64 {
	c.WallNow = now
	if c.Paused {
		return 0
	}
	delta := now - c.LastAdvance
	if delta <= 0 {
		return 0
	}
	c.Elapsed += delta
	c.LastAdvance = now
	return delta
}

// SetPaused freezes or resumes the clock at wall time now
func (c *Clock) SetPaused(paused bool, now int64) {
	if c.Paused == paused {
		return
	}
	c.Paused = paused
	c.WallNow = now
	if !paused || now > c.LastAdvance {
		c.LastAdvance = now
	}
}

// Done reports whether the game budget has been used up
func (c *Clock) Done(duration int64) bool {
	return c.Elapsed >= duration
}
