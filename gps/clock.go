package gps

// Clock is the simulated UTC time of day. It is independent of the
// wall clock and owned exclusively by the tick loop.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// NewClock returns the clock at its fixed initial time of day.
func NewClock() *Clock {
	return &Clock{Hour: 12, Minute: 35, Second: 19}
}

// Advance moves the clock forward by one second with carry
// propagation and a 24-hour wrap. Called exactly once per tick,
// before any sentence is encoded.
func (c *Clock) Advance() {
	c.Second++
	if c.Second >= 60 {
		c.Second = 0
		c.Minute++
		if c.Minute >= 60 {
			c.Minute = 0
			c.Hour++
			if c.Hour >= 24 {
				c.Hour = 0
			}
		}
	}
}
