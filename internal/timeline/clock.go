package timeline

import (
	"log/slog"
	"time"
)

// Clock supplies the current time and periodic tickers.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is a stoppable periodic tick source.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// SystemClock returns a Clock backed by the time package.
func SystemClock() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct{ t *time.Ticker }

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }

// Driver owns at most one live ticker. It is used from a single goroutine
// (the session loop) and needs no locking.
type Driver struct {
	clock    Clock
	interval time.Duration
	logger   *slog.Logger
	ticker   Ticker
}

// NewDriver creates a stopped driver.
func NewDriver(clock Clock, interval time.Duration, logger *slog.Logger) *Driver {
	if clock == nil {
		clock = SystemClock()
	}
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{clock: clock, interval: interval, logger: logger}
}

// Start begins ticking. It reports false if the driver was already running.
func (d *Driver) Start() bool {
	if d.ticker != nil {
		return false
	}
	d.ticker = d.clock.NewTicker(d.interval)
	d.logger.Debug("live clock started", "interval", d.interval)
	return true
}

// Stop cancels the ticker. It reports false if the driver was not running.
func (d *Driver) Stop() bool {
	if d.ticker == nil {
		return false
	}
	d.ticker.Stop()
	d.ticker = nil
	d.logger.Debug("live clock stopped")
	return true
}

// Running reports whether a ticker is active.
func (d *Driver) Running() bool {
	return d.ticker != nil
}

// C returns the tick channel, or nil when stopped so that a select on it
// blocks forever.
func (d *Driver) C() <-chan time.Time {
	if d.ticker == nil {
		return nil
	}
	return d.ticker.C()
}
