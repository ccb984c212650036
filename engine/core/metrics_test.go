package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsFPS(t *testing.T) {
	m := NewMetrics()
	sampled := false
	// 100 frames of 11ms cross the one second mark on frame 91.
	for i := 0; i < 100; i++ {
		if m.Update(0.011) {
			sampled = true
		}
	}
	assert.True(t, sampled)
	assert.Equal(t, float64(91), m.FPS)
	assert.InDelta(t, 11.0, m.FrameTime(), 1e-9)
	assert.InDelta(t, 11.0, m.MeanFrameTime(), 1e-9)
	assert.Equal(t, uint64(100), m.TotalFrames)
}

func TestMetricsMeanWithoutFrames(t *testing.T) {
	m := NewMetrics()
	assert.Zero(t, m.MeanFrameTime())
	assert.Zero(t, m.Percentile(99))
}

func TestMetricsPercentile(t *testing.T) {
	m := NewMetrics()
	for i := 1; i <= 100; i++ {
		m.Update(float64(i) / 1000)
	}
	assert.InDelta(t, 50.0, m.Percentile(50), 1e-9)
	assert.InDelta(t, 99.0, m.Percentile(99), 1e-9)
	assert.InDelta(t, 100.0, m.Percentile(100), 1e-9)
	assert.InDelta(t, 1.0, m.Percentile(0), 1e-9)
}

func TestClock(t *testing.T) {
	now := time.Unix(100, 0)
	c := &Clock{now: func() time.Time { return now }}

	c.Update()
	assert.Zero(t, c.Elapsed())

	c.Start()
	now = now.Add(1500 * time.Millisecond)
	c.Update()
	assert.InDelta(t, 1.5, c.Elapsed(), 1e-9)

	c.Stop()
	now = now.Add(time.Second)
	c.Update()
	assert.InDelta(t, 1.5, c.Elapsed(), 1e-9)
}
