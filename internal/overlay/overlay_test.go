package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jordanella.com/aim-loop-go/internal/capture"
	"jordanella.com/aim-loop-go/internal/config"
	"jordanella.com/aim-loop-go/internal/detect"
	"jordanella.com/aim-loop-go/internal/events"
)

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Subscribe(events.EventType, events.EventHandler) events.SubscriptionID {
	return 0
}
func (b *recordingBus) Unsubscribe(events.SubscriptionID) {}
func (b *recordingBus) Publish(e events.Event) bool {
	b.published = append(b.published, e)
	return true
}
func (b *recordingBus) Stop() {}

var display = capture.Rect{Width: 1920, Height: 1080}

func target() detect.Detection {
	return detect.Detection{
		Box:        detect.Box{X: 300, Y: 280, Width: 40, Height: 80},
		Confidence: 0.8765,
		ClassName:  "enemy",
		Region:     capture.Rect{X: 640, Y: 220, Width: 640, Height: 640},
	}
}

func TestFormatLabel(t *testing.T) {
	assert.Equal(t, "enemy: 87.65%", FormatLabel("enemy", 0.8765))
	assert.Equal(t, "ct: 90%", FormatLabel("ct", 0.9))
}

func TestNewStateIsInScreenSpace(t *testing.T) {
	st := NewState(target(), Options{ShowConfidence: true, ShowTracers: true, Display: display})

	assert.Equal(t, detect.Box{X: 940, Y: 500, Width: 40, Height: 80}, st.Box)
	assert.Equal(t, "enemy: 87.65%", st.Label)
	require.NotNil(t, st.Tracer)
	assert.Equal(t, Point{X: 960, Y: 580}, *st.Tracer)
}

func TestNewStateHonoursToggles(t *testing.T) {
	st := NewState(target(), Options{Display: display})
	assert.Empty(t, st.Label)
	assert.Nil(t, st.Tracer)
}

func TestTracerEnd(t *testing.T) {
	left := detect.Box{X: 100, Y: 100, Width: 40, Height: 80}
	right := detect.Box{X: 1500, Y: 100, Width: 40, Height: 80}

	assert.Equal(t, Point{X: 120, Y: 100}, TracerEnd(left, config.TracerTop, display))
	assert.Equal(t, Point{X: 120, Y: 180}, TracerEnd(left, config.TracerBottom, display))
	assert.Equal(t, Point{X: 140, Y: 140}, TracerEnd(left, config.TracerMiddle, display))
	assert.Equal(t, Point{X: 1500, Y: 140}, TracerEnd(right, config.TracerMiddle, display))
}

func TestBusSinkPublishesHideOnlyAfterShow(t *testing.T) {
	bus := &recordingBus{}
	sink := NewBusSink(bus)

	sink.Hide()
	assert.Empty(t, bus.published)

	sink.Show(NewState(target(), Options{ShowTracers: true, Display: display}))
	sink.Hide()
	sink.Hide()

	require.Len(t, bus.published, 2)
	assert.Equal(t, events.EventTypeTargetFound, bus.published[0].Type)
	assert.Equal(t, float32(960), bus.published[0].Data["tracer_x"])
	assert.Equal(t, events.EventTypeTargetLost, bus.published[1].Type)

	_, visible := sink.Current()
	assert.False(t, visible)
}
