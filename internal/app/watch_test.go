package app

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/accel_computer/internal/accel"
	"github.com/relabs-tech/accel_computer/internal/adxl345"
)

func TestWatchStateAverages(t *testing.T) {
	var w WatchState
	now := time.Now()

	w.Update(accel.Sample{X: 10, Y: -20, Scale: 4}, true, now)
	assert.True(t, w.Valid)
	assert.InDelta(t, 5.0, w.AvgX, 1e-9)
	assert.InDelta(t, -10.0, w.AvgY, 1e-9)
	assert.Equal(t, "X=40 mg, Y=-80 mg, Z=0 mg", w.Text)

	w.Update(accel.Sample{X: 10, Y: -20, Scale: 4}, true, now)
	assert.InDelta(t, 7.5, w.AvgX, 1e-9)
	assert.InDelta(t, -15.0, w.AvgY, 1e-9)

	// Stale reads do not move the average.
	w.Update(accel.Sample{X: 100, Y: 100, Scale: 4}, false, now)
	assert.InDelta(t, 7.5, w.AvgX, 1e-9)
}

func TestWatchStateBanners(t *testing.T) {
	var w WatchState
	t0 := time.Now()

	assert.Empty(t, w.Banners(t0))

	w.Update(accel.Sample{Flags: adxl345.SingleTap}, false, t0)
	assert.Equal(t, []string{"Single Tap!"}, w.Banners(t0.Add(time.Second)))

	w.Update(accel.Sample{Flags: adxl345.SingleTap | adxl345.DoubleTap}, false, t0.Add(time.Second))
	assert.Equal(t, []string{"Single Tap!", "Double Tap!"}, w.Banners(t0.Add(1500*time.Millisecond)))
	assert.Equal(t, []string{"Single Tap!", "Double Tap!"}, w.Banners(t0.Add(2500*time.Millisecond)))
	assert.Empty(t, w.Banners(t0.Add(3*time.Second)))
}

func TestWatchStateDot(t *testing.T) {
	var w WatchState
	_, ok := w.Dot(100, 50)
	assert.False(t, ok)

	w.Update(accel.Sample{}, true, time.Now())
	p, ok := w.Dot(100, 50)
	assert.True(t, ok)
	assert.Equal(t, image.Pt(50, 25), p)

	w.AvgX, w.AvgY = 10, -5
	p, _ = w.Dot(100, 50)
	assert.Equal(t, image.Pt(60, 20), p)

	w.AvgX, w.AvgY = 500, -500
	p, _ = w.Dot(100, 50)
	assert.Equal(t, image.Pt(96, 3), p)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 3, clamp(0, 3, 10))
	assert.Equal(t, 10, clamp(11, 3, 10))
	assert.Equal(t, 5, clamp(5, 3, 10))
	assert.Equal(t, 3, clamp(5, 3, 1))
}
