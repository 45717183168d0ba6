// Package clock provides the restartable elapsed-time counters used for
// dwell times and event timestamps.
package clock

import (
	"fmt"
	"sync"
	"time"

	"github.com/decktrace/decktrace/internal/util/logger"
)

// Clock counts elapsed wall-clock time in hours, minutes and seconds,
// advanced by exactly one second per tick. The zero value is a stopped
// clock at 00:00:00.
type Clock struct {
	mu      sync.Mutex
	hours   int
	minutes int
	seconds int
	stop    chan struct{}

	// manual clocks advance only through Tick; Start does not spawn
	// a ticker. Used by tests and the session simulator.
	manual   bool
	interval time.Duration
}

// New returns a stopped clock at 00:00:00.
func New() *Clock {
	return &Clock{interval: time.Second}
}

// NewManual returns a clock that only advances through explicit Tick
// calls.
func NewManual() *Clock {
	return &Clock{manual: true, interval: time.Second}
}

// Start begins ticking. Starting a running clock is a no-op.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.manual {
		return
	}
	if c.stop != nil {
		logger.Debugf("clock: already running")
		return
	}
	stop := make(chan struct{})
	c.stop = stop

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Tick()
			case <-stop:
				return
			}
		}
	}()
}

// Reset zeroes the clock and restarts it.
func (c *Clock) Reset() {
	c.Clear()
	c.Start()
}

// Clear stops the clock and zeroes it.
func (c *Clock) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.hours, c.minutes, c.seconds = 0, 0, 0
}

// Tick advances the clock by one second. Exported so tests and the
// session simulator can drive time manually.
func (c *Clock) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seconds++
	if c.seconds >= 60 {
		c.seconds = 0
		c.minutes++
		if c.minutes >= 60 {
			c.minutes = 0
			c.hours++
		}
	}
}

// Elapsed returns the counted time as a duration.
func (c *Clock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Duration(c.hours)*time.Hour +
		time.Duration(c.minutes)*time.Minute +
		time.Duration(c.seconds)*time.Second
}

// String renders the counter as zero-padded HH:MM:SS.
func (c *Clock) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("%02d:%02d:%02d", c.hours, c.minutes, c.seconds)
}
