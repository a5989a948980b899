// Package diagnostics provides optional, informational hooks a caller
// may attach to a connection's outbound send path. Nothing here throttles
// or delays a request.
package diagnostics

import (
	"sync"
	"time"
)

// Burst represents repeated execution of the same normalized CQL text
// within a detection window.
type Burst struct {
	Statement string
	Count     int
}

// BurstDetector flags repeated identical normalized CQL text observed
// within a sliding window. It has no notion of rows, replicas, or
// consistency — it only ever sees the statement text a caller feeds it,
// typically the result of query.Normalize applied to an outbound QUERY's
// CQL text. Safe for concurrent use.
type BurstDetector struct {
	mu        sync.Mutex
	threshold int
	window    time.Duration
	cooldown  time.Duration
	seen      map[string][]time.Time
	lastAlert map[string]time.Time
}

// NewBurstDetector builds a detector that reports a Burst once a
// normalized statement recurs threshold times within window, then
// waits at least cooldown before reporting that same statement again.
func NewBurstDetector(threshold int, window, cooldown time.Duration) *BurstDetector {
	return &BurstDetector{
		threshold: threshold,
		window:    window,
		cooldown:  cooldown,
		seen:      make(map[string][]time.Time),
		lastAlert: make(map[string]time.Time),
	}
}

// Observe records one occurrence of the normalized statement at t and
// returns the Burst if the threshold was just crossed (respecting
// cooldown), or nil otherwise.
func (d *BurstDetector) Observe(statement string, t time.Time) *Burst {
	if statement == "" {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := t.Add(-d.window)

	times := d.seen[statement]
	start := 0
	for start < len(times) && times[start].Before(cutoff) {
		start++
	}
	times = append(times[start:], t)
	d.seen[statement] = times

	if len(times) < d.threshold {
		return nil
	}

	last, alerted := d.lastAlert[statement]
	if alerted && t.Sub(last) < d.cooldown {
		return nil
	}
	d.lastAlert[statement] = t
	return &Burst{Statement: statement, Count: len(times)}
}
