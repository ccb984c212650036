package core

import (
	"math"
	"sort"

	"github.com/spaghettifunk/quadbench/engine/containers"
)

const AVG_COUNT uint8 = 30

// HISTORY_COUNT is the number of recent frame times kept for percentiles.
const HISTORY_COUNT = 1024

// Metrics keeps a rolling frame-time average and a frames-per-second counter.
type Metrics struct {
	FrameAVGCounter    uint8
	MStimes            [AVG_COUNT]float64
	MSavg              float64
	Frames             int32
	AccumulatedFrameMS float64
	FPS                float64
	TotalFrames        uint64
	TotalMS            float64

	history *containers.RingQueue[float64]
}

func NewMetrics() *Metrics {
	return &Metrics{
		MStimes: [AVG_COUNT]float64{0},
		history: containers.NewRingQueue[float64](HISTORY_COUNT),
	}
}

// Update records one frame. frameElapsedTime is in seconds. Returns true when
// a new FPS sample was produced, which happens roughly once per second.
func (m *Metrics) Update(frameElapsedTime float64) bool {
	// Calculate frame ms average
	frameMS := frameElapsedTime * 1000.0
	m.MStimes[m.FrameAVGCounter] = frameMS
	if m.FrameAVGCounter == AVG_COUNT-1 {
		m.MSavg = 0
		for i := uint8(0); i < AVG_COUNT; i++ {
			m.MSavg += m.MStimes[i]
		}
		m.MSavg /= float64(AVG_COUNT)
	}
	m.FrameAVGCounter++
	m.FrameAVGCounter %= AVG_COUNT

	m.TotalFrames++
	m.TotalMS += frameMS
	m.history.Push(frameMS)

	// Count all Frames.
	m.Frames++

	// Calculate Frames per second.
	m.AccumulatedFrameMS += frameMS
	if m.AccumulatedFrameMS > 1000 {
		m.FPS = float64(m.Frames)
		m.AccumulatedFrameMS -= 1000
		m.Frames = 0
		return true
	}
	return false
}

func (m *Metrics) FrameTime() float64 {
	return m.MSavg
}

// MeanFrameTime is the average frame time in milliseconds over every recorded frame.
func (m *Metrics) MeanFrameTime() float64 {
	if m.TotalFrames == 0 {
		return 0
	}
	return m.TotalMS / float64(m.TotalFrames)
}

func (m *Metrics) Frame() (float64, float64) {
	return m.FPS, m.MSavg
}

// Percentile returns the p-th percentile (0-100) of the recent frame times in
// milliseconds, using nearest rank.
func (m *Metrics) Percentile(p float64) float64 {
	samples := m.history.Items()
	if len(samples) == 0 {
		return 0
	}
	sort.Float64s(samples)
	rank := int(math.Ceil(p*float64(len(samples))/100)) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(samples) {
		rank = len(samples) - 1
	}
	return samples[rank]
}
