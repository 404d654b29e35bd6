package testutil

import (
	"sync"
	"time"

	"github.com/emmett/voxkeep/internal/session"
)

// ManualClock is a session.Clock whose tickers only fire on Advance
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*ManualTicker
}

// NewManualClock creates a clock frozen at an arbitrary instant
func NewManualClock() *ManualClock {
	return &ManualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// NewTicker implements session.Clock
func (c *ManualClock) NewTicker(d time.Duration) session.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &ManualTicker{
		Period:  d,
		c:       make(chan time.Time),
		stopped: make(chan struct{}),
	}
	c.tickers = append(c.tickers, t)
	return t
}

// Tickers returns how many tickers were created
func (c *ManualClock) Tickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

// Last returns the most recently created ticker, or nil
func (c *ManualClock) Last() *ManualTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickers) == 0 {
		return nil
	}
	return c.tickers[len(c.tickers)-1]
}

// Advance fires the latest ticker n times. Each send blocks until the
// receiver takes it or the ticker is stopped, so tick k has been fully
// handled once tick k+1 is accepted. It returns the number of ticks
// actually delivered.
func (c *ManualClock) Advance(n int) int {
	t := c.Last()
	if t == nil {
		return 0
	}

	delivered := 0
	for i := 0; i < n; i++ {
		c.mu.Lock()
		c.now = c.now.Add(t.Period)
		now := c.now
		c.mu.Unlock()

		select {
		case t.c <- now:
			delivered++
		case <-t.stopped:
			return delivered
		}
	}
	return delivered
}

// ManualTicker is the session.Ticker handed out by ManualClock
type ManualTicker struct {
	Period time.Duration

	c        chan time.Time
	stopOnce sync.Once
	stopped  chan struct{}
}

// C implements session.Ticker
func (t *ManualTicker) C() <-chan time.Time { return t.c }

// Stop implements session.Ticker
func (t *ManualTicker) Stop() {
	t.stopOnce.Do(func() { close(t.stopped) })
}

// Stopped reports whether Stop has been called
func (t *ManualTicker) Stopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}
