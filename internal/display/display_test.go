package display

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jordanella.com/aim-loop-go/internal/capture"
)

func TestRefreshNotifiesOnBoundsChange(t *testing.T) {
	layout := []capture.Rect{
		{X: 0, Y: 0, Width: 1920, Height: 1080},
		{X: 1920, Y: 0, Width: 2560, Height: 1440},
	}
	m, err := NewManager(func() []capture.Rect { return layout }, 1, nil)
	require.NoError(t, err)
	m.logger.SetOutput(&bytes.Buffer{})

	var got []capture.Rect
	m.OnChange(func(r capture.Rect) { got = append(got, r) })

	assert.False(t, m.Refresh(), "unchanged layout must not notify")

	layout = []capture.Rect{
		{X: 0, Y: 0, Width: 1920, Height: 1080},
		{X: 1920, Y: 0, Width: 1920, Height: 1080},
	}
	assert.True(t, m.Refresh())
	require.Len(t, got, 1)
	assert.Equal(t, 1920, got[0].Width)
}

func TestSelectAndPointTest(t *testing.T) {
	layout := []capture.Rect{
		{X: 0, Y: 0, Width: 1920, Height: 1080},
		{X: -1280, Y: 0, Width: 1280, Height: 1024},
	}
	m, err := NewManager(func() []capture.Rect { return layout }, 7, nil)
	require.NoError(t, err)
	m.logger.SetOutput(&bytes.Buffer{})

	assert.Equal(t, 0, m.SelectedIndex(), "out-of-range selection falls back to primary")
	assert.True(t, m.IsPointInCurrentDisplay(100, 100))

	require.NoError(t, m.Select(1))
	assert.False(t, m.IsPointInCurrentDisplay(100, 100))
	assert.True(t, m.IsPointInCurrentDisplay(-10, 500))
	assert.Error(t, m.Select(2))
}

func TestNoDisplays(t *testing.T) {
	_, err := NewManager(func() []capture.Rect { return nil }, 0, nil)
	assert.Error(t, err)
}
