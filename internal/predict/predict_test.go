package predict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for name, want := range map[string]Kind{
		"Kalman Filter":               KindKalman,
		"Shall0e's Prediction":        KindDelta,
		"wisethef0x's EMA Prediction": KindEMA,
		"ema":                         KindEMA,
	} {
		got, err := ParseKind(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got)
		if name != "ema" {
			assert.Equal(t, name, got.String())
		}
	}

	_, err := ParseKind("magic")
	assert.Error(t, err)
}

func TestKalmanTracksConstantVelocity(t *testing.T) {
	k := NewKalman(100 * time.Millisecond)
	start := time.Unix(0, 0)

	var got Point
	for i := 0; i <= 60; i++ {
		at := start.Add(time.Duration(i) * 10 * time.Millisecond)
		// 200 px/s to the right
		got = k.Update(Point{X: 100 + 2*float64(i), Y: 300}, at)
	}

	vx, vy := k.Velocity()
	assert.InDelta(t, 200, vx, 20)
	assert.InDelta(t, 0, vy, 5)
	// last measurement was x=220; prediction leads by ~20 px
	assert.InDelta(t, 240, got.X, 5)
	assert.InDelta(t, 300, got.Y, 2)
}

func TestKalmanFirstUpdatePassesThrough(t *testing.T) {
	k := NewKalman(time.Second)
	p := k.Update(Point{X: 5, Y: 7}, time.Now())
	assert.Equal(t, Point{X: 5, Y: 7}, p)
}

func TestEMA(t *testing.T) {
	e := NewEMA(0.5)
	now := time.Now()
	assert.Equal(t, Point{X: 100, Y: 100}, e.Update(Point{X: 100, Y: 100}, now))
	assert.Equal(t, Point{X: 150, Y: 110}, e.Update(Point{X: 200, Y: 120}, now))
	assert.Equal(t, Point{X: 175, Y: 115}, e.Update(Point{X: 200, Y: 120}, now))

	e.Reset()
	assert.Equal(t, Point{X: 1, Y: 2}, e.Update(Point{X: 1, Y: 2}, now))
}

func TestDeltaWindowKeepsFiveDeltas(t *testing.T) {
	w := NewDeltaWindow(5)
	now := time.Now()

	w.Update(Point{X: 0, Y: 0}, now)
	for i := 1; i <= 8; i++ {
		w.Update(Point{X: float64(10 * i), Y: float64(-i)}, now)
	}
	assert.Equal(t, 5, w.Len())

	// steady motion: the prediction is one more step ahead on both axes
	p := w.Update(Point{X: 90, Y: -9}, now)
	assert.InDelta(t, 100, p.X, 1e-9)
	assert.InDelta(t, -10, p.Y, 1e-9)
}

func TestDeltaWindowWeightsNewest(t *testing.T) {
	w := NewDeltaWindow(5)
	now := time.Now()
	w.Update(Point{}, now)
	w.Update(Point{X: 0}, now)
	p := w.Update(Point{X: 30}, now)
	// deltas 0 (weight 1) and 30 (weight 2)
	assert.InDelta(t, 50, p.X, 1e-9)
}

func TestDispatcherSwitchStartsFresh(t *testing.T) {
	d := NewDispatcher(KindEMA, DefaultOptions())
	now := time.Now()
	d.Filter(KindEMA, Point{X: 0, Y: 0}, now)
	assert.Equal(t, Point{X: 50, Y: 0}, d.Filter(KindEMA, Point{X: 100, Y: 0}, now))

	got := d.Filter(KindDelta, Point{X: 400, Y: 400}, now)
	assert.Equal(t, KindDelta, d.Kind())
	assert.Equal(t, Point{X: 400, Y: 400}, got)
}

func TestDispatcherUpdatesAlphaInPlace(t *testing.T) {
	d := NewDispatcher(KindEMA, DefaultOptions())
	now := time.Now()
	d.Filter(KindEMA, Point{X: 0}, now)
	d.SetEMAAlpha(0.25)
	assert.Equal(t, Point{X: 25}, d.Filter(KindEMA, Point{X: 100}, now))
}
