package sync

import (
	"sync"
	"time"

	"github.com/inhies/go-bytesize"
)

type bwSample struct {
	at    time.Time
	bytes int64
}

// BandwidthMonitor is a sliding window of (timestamp, bytes) samples,
// grounded in original_source/bandwidth.py's BandwidthMonitor. Register
// appends a sample and evicts anything older than the window;
// Bandwidth reports bytes/sec over what remains.
type BandwidthMonitor struct {
	mu     sync.Mutex
	window time.Duration
	sample []bwSample
	total  int64
}

// NewBandwidthMonitor builds a monitor with the given window (spec.md
// §4.8 default is 60s).
func NewBandwidthMonitor(window time.Duration) *BandwidthMonitor {
	if window <= 0 {
		window = 60 * time.Second
	}
	return &BandwidthMonitor{window: window}
}

// Register records a sample of n bytes transferred now.
func (b *BandwidthMonitor) Register(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.sample = append(b.sample, bwSample{at: now, bytes: int64(n)})
	b.total += int64(n)

	cutoff := now.Add(-b.window)
	i := 0
	for i < len(b.sample) && b.sample[i].at.Before(cutoff) {
		b.total -= b.sample[i].bytes
		i++
	}
	b.sample = b.sample[i:]
}

// Bandwidth returns bytes/sec = sum(bytes) / (latest - earliest), or
// sum(bytes) / 1 when fewer than two samples remain (spec.md §4.8).
func (b *BandwidthMonitor) Bandwidth() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.sample) < 2 {
		return float64(b.total)
	}
	elapsed := b.sample[len(b.sample)-1].at.Sub(b.sample[0].at).Seconds()
	if elapsed <= 0 {
		return float64(b.total)
	}
	return float64(b.total) / elapsed
}

// String renders the current bandwidth using bytesize's human-readable
// byte units with a "/s" suffix (e.g. "1.00MB/s"), in the role of
// original_source/bandwidth.py's BandwidthFormatter but via the
// ecosystem formatter rather than a hand-rolled one; it reports bytes,
// not bits.
func (b *BandwidthMonitor) String() string {
	return bytesize.New(b.Bandwidth()).String() + "/s"
}
