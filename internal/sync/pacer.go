package sync

import (
	"time"

	"golang.org/x/time/rate"
)

// Pacer paces an iterative loop to a target rate. It is built on
// golang.org/x/time/rate instead of a hand-rolled "sleep the
// remainder" timer (the straightforward rendering of spec.md §4.5's
// frame-rate limiter) because rate.Limiter already gives burst-free,
// monotonic pacing and is the library the retrieved pack reaches for
// whenever a component needs rate limiting (nishisan-dev-n-backup
// uses it for its own throughput caps).
type Pacer struct {
	limiter *rate.Limiter
	fps     int
}

// NewPacer builds a Pacer targeting fps iterations per second. A
// zero-sized burst would deadlock the limiter, so burst is fixed at 1:
// the pipeline runs one iteration at a time (spec.md §4.5 — "the whole
// pipeline runs on one task").
func NewPacer(fps int) *Pacer {
	if fps <= 0 {
		fps = 1
	}
	return &Pacer{
		limiter: rate.NewLimiter(rate.Limit(fps), 1),
		fps:     fps,
	}
}

// Tick blocks until the next iteration is due, or returns immediately
// if the previous iteration already overran the period (spec.md §4.5:
// "If an iteration overran, no sleep occurs").
func (p *Pacer) Tick() {
	r := p.limiter.Reserve()
	if !r.OK() {
		return
	}
	d := r.Delay()
	if d <= 0 {
		return
	}
	time.Sleep(d)
}

// FPS returns the configured target rate.
func (p *Pacer) FPS() int {
	return p.fps
}
