package app

// countdown is the session timer in whole seconds.
// Reaching zero marks it expired; acting on that is the caller's policy.
type countdown struct {
	remaining int
	unlimited bool
	expired   bool
}

func newCountdown(seconds int, unlimited bool) countdown {
	c := countdown{remaining: seconds, unlimited: unlimited}
	if !unlimited && seconds <= 0 {
		c.remaining = 0
		c.expired = true
	}
	return c
}

// tick decrements once and reports whether this tick expired the timer.
func (c *countdown) tick() bool {
	if c.unlimited || c.expired {
		return false
	}
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.expired = true
		return true
	}
	return false
}
