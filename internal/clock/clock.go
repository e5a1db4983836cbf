package clock

import (
	"errors"
	"sync"
	"time"

	lndclock "github.com/lightningnetwork/lnd/clock"
)

// DefaultEpoch is where virtual time starts unless configured otherwise.
var DefaultEpoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

var ErrNegativeDuration = errors.New("negative duration")

// Clock is a virtual clock that only moves when Advance is called.
type Clock struct {
	mu sync.Mutex
	tc *lndclock.TestClock
}

func New(start time.Time) *Clock {
	return &Clock{
		tc: lndclock.NewTestClock(start.Truncate(time.Second)),
	}
}

func (c *Clock) Now() time.Time {
	return c.tc.Now()
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d time.Duration) (time.Time, error) {
	if d < 0 {
		return time.Time{}, ErrNegativeDuration
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.tc.Now().Add(d)
	c.tc.SetTime(now)

	return now, nil
}

