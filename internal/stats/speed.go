package stats

import (
	"sync"
	"time"
)

// Speed is a finished throughput measurement.
type Speed struct {
	Bytes              int64
	Elapsed            time.Duration
	BytesPerSecond     float64
	MegaBytesPerMinute float64
}

// AverageSpeed accumulates bytes moved and the time spent moving them.
// Concurrent copies each add their own time, so the result is the average
// speed of one copy stream.
type AverageSpeed struct {
	mu      sync.Mutex
	bytes   int64
	elapsed time.Duration
}

// Add records one finished transfer.
func (a *AverageSpeed) Add(bytes int64, elapsed time.Duration) {
	if bytes <= 0 || elapsed <= 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.bytes += bytes
	a.elapsed += elapsed
}

// Speed returns the current average.
func (a *AverageSpeed) Speed() Speed {
	a.mu.Lock()
	defer a.mu.Unlock()

	speed := Speed{Bytes: a.bytes, Elapsed: a.elapsed}

	if a.elapsed > 0 {
		speed.BytesPerSecond = float64(a.bytes) / a.elapsed.Seconds()
		speed.MegaBytesPerMinute = speed.BytesPerSecond * 60 / (1 << 20) //nolint:mnd // Seconds per minute, bytes per MB
	}

	return speed
}
