package bench

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Stage names recorded by the detection loop
const (
	StageModelLoad   = "ModelLoad"
	StageIteration   = "Iteration"
	StageCapture     = "Capture"
	StageConvert     = "Convert"
	StageInference   = "Inference"
	StageDecode      = "Decode"
	StageSelect      = "Select"
	StageAutoTrigger = "AutoTrigger"
	StageAim         = "Aim"
)

// Sample accumulates timings for one named stage
type Sample struct {
	Name  string
	Count int64
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
}

// Average returns the mean duration
func (s Sample) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Store collects stage samples. The loop writes; any goroutine may read.
type Store struct {
	mu         sync.Mutex
	samples    map[string]*Sample
	iterations int64
	iterTotal  time.Duration
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{samples: make(map[string]*Sample)}
}

// Record adds one duration to the named stage
func (s *Store) Record(name string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sample, ok := s.samples[name]
	if !ok {
		sample = &Sample{Name: name, Min: d, Max: d}
		s.samples[name] = sample
	}
	sample.Count++
	sample.Total += d
	if d < sample.Min {
		sample.Min = d
	}
	if d > sample.Max {
		sample.Max = d
	}
}

// Time starts a timer for name; call the returned func to record it.
//
//	defer store.Time(bench.StageCapture)()
func (s *Store) Time(name string) func() {
	start := time.Now()
	return func() { s.Record(name, time.Since(start)) }
}

// RecordIteration counts one completed detection cycle for the FPS figure
func (s *Store) RecordIteration(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.iterations++
	s.iterTotal += d
}

// FPS returns the average completed-cycle rate
func (s *Store) FPS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fpsLocked()
}

func (s *Store) fpsLocked() float64 {
	if s.iterations == 0 || s.iterTotal <= 0 {
		return 0
	}
	avg := s.iterTotal.Seconds() / float64(s.iterations)
	return 1 / avg
}

// Snapshot returns a copy of every sample sorted by name
func (s *Store) Snapshot() []Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Sample, 0, len(s.samples))
	for _, sample := range s.samples {
		out = append(out, *sample)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Report renders the samples as a human-readable table
func (s *Store) Report() string {
	samples := s.Snapshot()
	fps := s.FPS()

	var b strings.Builder
	b.WriteString("=== Detection Loop Benchmarks ===\n")
	for _, sample := range samples {
		fmt.Fprintf(&b, "%s: Avg=%.2fms, Min=%.2fms, Max=%.2fms, Count=%d\n",
			sample.Name, ms(sample.Average()), ms(sample.Min), ms(sample.Max), sample.Count)
	}
	fmt.Fprintf(&b, "Overall FPS: %.2f", fps)
	return b.String()
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
