package tray

import "time"

// interval is a ticker that may be disabled. A disabled interval has a nil
// channel, which blocks forever in a select.
type interval struct {
	ticker *time.Ticker
	period time.Duration
}

func newInterval(d time.Duration) *interval {
	i := &interval{}
	i.Reset(d)
	return i
}

// C returns the tick channel, or nil when disabled.
func (i *interval) C() <-chan time.Time {
	if i.ticker == nil {
		return nil
	}
	return i.ticker.C
}

// Reset changes the period. Zero disables the interval.
func (i *interval) Reset(d time.Duration) {
	if d == i.period && (d == 0) == (i.ticker == nil) {
		return
	}
	i.period = d
	if d <= 0 {
		i.Stop()
		return
	}
	if i.ticker == nil {
		i.ticker = time.NewTicker(d)
		return
	}
	i.ticker.Reset(d)
}

// Stop releases the ticker.
func (i *interval) Stop() {
	if i.ticker != nil {
		i.ticker.Stop()
		i.ticker = nil
	}
}

func (i *interval) Enabled() bool {
	return i.ticker != nil
}
