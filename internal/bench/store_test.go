package bench

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAccumulates(t *testing.T) {
	s := NewStore()
	s.Record(StageCapture, 2*time.Millisecond)
	s.Record(StageCapture, 6*time.Millisecond)
	s.Record(StageInference, 10*time.Millisecond)

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, StageCapture, snap[0].Name)
	assert.Equal(t, int64(2), snap[0].Count)
	assert.Equal(t, 2*time.Millisecond, snap[0].Min)
	assert.Equal(t, 6*time.Millisecond, snap[0].Max)
	assert.Equal(t, 4*time.Millisecond, snap[0].Average())
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewStore()
	s.Record(StageDecode, time.Millisecond)
	snap := s.Snapshot()
	s.Record(StageDecode, time.Millisecond)
	assert.Equal(t, int64(1), snap[0].Count)
}

func TestFPSAndReport(t *testing.T) {
	s := NewStore()
	assert.Equal(t, 0.0, s.FPS())

	for i := 0; i < 4; i++ {
		s.RecordIteration(10 * time.Millisecond)
	}
	assert.InDelta(t, 100, s.FPS(), 1e-6)

	s.Record(StageSelect, 1500*time.Microsecond)
	report := s.Report()
	assert.True(t, strings.Contains(report, "Select: Avg=1.50ms, Min=1.50ms, Max=1.50ms, Count=1"), report)
	assert.True(t, strings.HasSuffix(report, "Overall FPS: 100.00"), report)
}

func TestConcurrentRecording(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Record(StageCapture, time.Microsecond)
				_ = s.Snapshot()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(800), s.Snapshot()[0].Count)
}

func TestCollectorExportsStages(t *testing.T) {
	s := NewStore()
	s.Record(StageCapture, time.Millisecond)
	s.Record(StageInference, time.Millisecond)

	// four series per stage plus fps
	assert.Equal(t, 9, testutil.CollectAndCount(NewCollector(s)))
}
