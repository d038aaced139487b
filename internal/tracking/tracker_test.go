package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jordanella.com/aim-loop-go/internal/detect"
)

const size = 640

// at builds a detection centred on (x, y) in a region anchored at the screen origin
func at(x, y float32) detect.Detection {
	return detect.Detection{
		Box:        detect.Box{X: x - 10, Y: y - 10, Width: 20, Height: 20},
		Confidence: 0.9,
		CenterX:    x / size,
		CenterY:    y / size,
		ScreenX:    x,
		ScreenY:    y,
	}
}

func sticky(threshold float32) Options {
	return Options{Sticky: true, Threshold: threshold, InputSize: size}
}

func TestBaselinePicksCentreMost(t *testing.T) {
	c := []detect.Detection{at(100, 100), at(330, 310), at(500, 500)}
	got, ok := Closest(c, size)
	require.True(t, ok)
	assert.Equal(t, float32(330), got.ScreenX)
}

func TestBaselineTieGoesToFirst(t *testing.T) {
	c := []detect.Detection{at(300, 320), at(340, 320)}
	got, ok := Closest(c, size)
	require.True(t, ok)
	assert.Equal(t, float32(300), got.ScreenX)
}

func TestNonStickySelectionIsIdempotent(t *testing.T) {
	c := []detect.Detection{at(100, 100), at(330, 310)}
	opts := Options{InputSize: size}

	first, ok := New().Select(c, opts)
	require.True(t, ok)
	second, ok := New().Select(c, opts)
	require.True(t, ok)
	assert.Equal(t, first, second)

	tr := New()
	tr.Select(c, opts)
	again, _ := tr.Select(c, opts)
	assert.Equal(t, first, again)
	cur, ok := tr.Current()
	require.True(t, ok)
	assert.Equal(t, first, cur)
}

func TestStickyCoastsThroughGaps(t *testing.T) {
	tr := New()
	prior, ok := tr.Select([]detect.Detection{at(320, 320)}, sticky(50))
	require.True(t, ok)

	for i := 1; i <= MaxFramesWithoutTarget; i++ {
		got, ok := tr.Select(nil, sticky(50))
		require.True(t, ok, "frame %d", i)
		assert.Equal(t, prior, got)
		assert.Equal(t, PhaseCoasting, tr.Phase())
		assert.Equal(t, i, tr.FramesLost())
	}

	_, ok = tr.Select(nil, sticky(50))
	assert.False(t, ok)
	assert.Equal(t, PhaseEmpty, tr.Phase())
	_, ok = tr.Current()
	assert.False(t, ok)
}

func TestStickyFollowsPriorTarget(t *testing.T) {
	tr := New()
	tr.Select([]detect.Detection{at(400, 320)}, sticky(50))

	// the centre-most candidate is farther from the prior target
	got, ok := tr.Select([]detect.Detection{at(320, 320), at(420, 330)}, sticky(50))
	require.True(t, ok)
	assert.Equal(t, float32(420), got.ScreenX)
	assert.Equal(t, PhaseAcquired, tr.Phase())
}

func TestStickyThresholdIsInclusive(t *testing.T) {
	tr := New()
	tr.Select([]detect.Detection{at(400, 320)}, sticky(30))

	// 3-4-5 triangle scaled to exactly 30 pixels away
	got, ok := tr.Select([]detect.Detection{at(320, 320), at(418, 344)}, sticky(30))
	require.True(t, ok)
	assert.Equal(t, float32(418), got.ScreenX)

	tr = New()
	tr.Select([]detect.Detection{at(400, 320)}, sticky(30))
	got, ok = tr.Select([]detect.Detection{at(320, 320), at(431, 320)}, sticky(30))
	require.True(t, ok)
	assert.Equal(t, float32(320), got.ScreenX, "31 pixels away falls back to the baseline")
}

func TestCandidatesResetLostCounter(t *testing.T) {
	tr := New()
	tr.Select([]detect.Detection{at(320, 320)}, sticky(50))
	tr.Select(nil, sticky(50))
	tr.Select(nil, sticky(50))
	require.Equal(t, 2, tr.FramesLost())

	tr.Select([]detect.Detection{at(325, 320)}, sticky(50))
	assert.Equal(t, 0, tr.FramesLost())
}

func TestNoPriorAndNoCandidates(t *testing.T) {
	_, ok := New().Select(nil, sticky(50))
	assert.False(t, ok)
}
