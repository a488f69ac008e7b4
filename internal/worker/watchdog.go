package worker

import "time"

// Watchdog bounds the time between an ABORT being delivered and the
// subprocess actually exiting. It is dormant until Start is called (on
// ABORT receipt) and never fires before that.
type Watchdog struct {
	timeout time.Duration
	deadline time.Time
	armed    bool
}

// NewWatchdog creates a dormant Watchdog with the given grace period.
func NewWatchdog(timeout time.Duration) *Watchdog {
	return &Watchdog{timeout: timeout}
}

// Start arms the watchdog, beginning the forced-shutdown grace period.
func (w *Watchdog) Start(now time.Time) {
	w.armed = true
	w.deadline = now.Add(w.timeout)
}

// Expired reports whether the watchdog is armed and its deadline has
// passed. Always false while dormant.
func (w *Watchdog) Expired(now time.Time) bool {
	return w.armed && !now.Before(w.deadline)
}
