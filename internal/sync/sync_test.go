package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCellGetSet(t *testing.T) {
	c := NewCell(1)
	assert.Equal(t, 1, c.Get())
	c.Set(2)
	assert.Equal(t, 2, c.Get())
}

func TestCellWith(t *testing.T) {
	c := NewCell(10)
	c.With(func(cur int) int { return cur + 5 })
	assert.Equal(t, 15, c.Get())
}

func TestPacerFPSDefaultsToOneOnNonPositive(t *testing.T) {
	p := NewPacer(0)
	assert.Equal(t, 1, p.FPS())
}

func TestPacerTickDoesNotBlockFirstCall(t *testing.T) {
	p := NewPacer(30)
	start := time.Now()
	p.Tick()
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestBandwidthMonitorAccumulates(t *testing.T) {
	b := NewBandwidthMonitor(time.Minute)
	b.Register(100)
	b.Register(200)
	// Two samples: sum(bytes) / (latest - earliest); the raw total only
	// when both samples happen to share one timestamp.
	want := float64(300)
	if elapsed := b.sample[1].at.Sub(b.sample[0].at).Seconds(); elapsed > 0 {
		want = 300 / elapsed
	}
	assert.Equal(t, want, b.Bandwidth(), "300 bytes over the span between the two samples")
}

func TestBandwidthMonitorEvictsOutsideWindow(t *testing.T) {
	b := NewBandwidthMonitor(10 * time.Millisecond)
	b.Register(100)
	time.Sleep(20 * time.Millisecond)
	b.Register(50)
	// The first sample should have aged out of the window by now.
	assert.LessOrEqual(t, b.Bandwidth(), float64(150))
}

func TestFPSCalculatorNoTicksIsZero(t *testing.T) {
	f := NewFPSCalculator(time.Second)
	assert.Equal(t, float64(0), f.FPS())
}

func TestFPSCalculatorTwoTicksProducesRate(t *testing.T) {
	f := NewFPSCalculator(time.Second)
	f.Tick()
	time.Sleep(10 * time.Millisecond)
	f.Tick()
	assert.Greater(t, f.FPS(), float64(0))
}
