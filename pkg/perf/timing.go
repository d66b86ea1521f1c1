package perf

import (
	"os"
	"sync"
	"time"

	"pkt.systems/pslog"
)

var (
	// Set CONSOLE_PERF=1 to enable timing logs
	enabled = os.Getenv("CONSOLE_PERF") == "1"

	sinkMu sync.RWMutex
	sink   pslog.Logger
)

// SlowThreshold marks a timed operation as slow in the log.
const SlowThreshold = 16 * time.Millisecond

// SetLogger routes timing lines to log. Passing nil disables output.
func SetLogger(log pslog.Logger) {
	sinkMu.Lock()
	sink = log
	sinkMu.Unlock()
}

// Timer tracks elapsed time for a named operation
type Timer struct {
	name  string
	start time.Time
}

// Start begins timing an operation
func Start(name string) *Timer {
	return &Timer{
		name:  name,
		start: time.Now(),
	}
}

// Stop ends timing and logs the result
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	if !enabled {
		return elapsed
	}
	sinkMu.RLock()
	log := sink
	sinkMu.RUnlock()
	if log == nil {
		return elapsed
	}
	if elapsed >= SlowThreshold {
		log.Warn("perf slow", "op", t.name, "elapsed", elapsed.String())
	} else {
		log.Debug("perf", "op", t.name, "elapsed", elapsed.String())
	}
	return elapsed
}

// Track is a convenience function that times a function call
func Track(name string, fn func()) time.Duration {
	t := Start(name)
	fn()
	return t.Stop()
}

// IsEnabled returns whether performance logging is enabled
func IsEnabled() bool {
	return enabled
}
