package gui

import (
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"jordanella.com/aim-loop-go/internal/bench"
)

var benchColumns = []string{"Stage", "Average", "Min", "Max", "Count"}

// BenchTab shows per-stage timings and the loop rate
type BenchTab struct {
	store *bench.Store

	mu      sync.RWMutex
	samples []bench.Sample

	table    *widget.Table
	fpsLabel *widget.Label
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewBenchTab creates a tab reading from store
func NewBenchTab(store *bench.Store) *BenchTab {
	return &BenchTab{
		store:  store,
		stopCh: make(chan struct{}),
	}
}

// Build constructs the benchmark UI
func (b *BenchTab) Build() fyne.CanvasObject {
	header := widget.NewLabelWithStyle("Benchmarks", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	b.fpsLabel = widget.NewLabel("FPS: -")

	b.table = widget.NewTable(
		func() (int, int) {
			b.mu.RLock()
			defer b.mu.RUnlock()
			return len(b.samples) + 1, len(benchColumns)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("RecoverFromBackground")
		},
		func(id widget.TableCellID, cell fyne.CanvasObject) {
			label := cell.(*widget.Label)
			if id.Row == 0 {
				label.TextStyle = fyne.TextStyle{Bold: true}
				label.SetText(benchColumns[id.Col])
				return
			}
			label.TextStyle = fyne.TextStyle{}

			b.mu.RLock()
			defer b.mu.RUnlock()
			if id.Row-1 >= len(b.samples) {
				label.SetText("")
				return
			}
			label.SetText(benchCell(b.samples[id.Row-1], id.Col))
		},
	)

	go b.autoRefresh()

	return container.NewBorder(
		container.NewVBox(header, b.fpsLabel),
		nil,
		nil,
		nil,
		b.table,
	)
}

func (b *BenchTab) autoRefresh() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.refresh()
		case <-b.stopCh:
			return
		}
	}
}

func (b *BenchTab) refresh() {
	samples := b.store.Snapshot()
	fps := b.store.FPS()

	b.mu.Lock()
	b.samples = samples
	b.mu.Unlock()

	fyne.Do(func() {
		b.fpsLabel.SetText(fmt.Sprintf("FPS: %.1f", fps))
		b.table.Refresh()
	})
}

// Stop ends the refresh goroutine
func (b *BenchTab) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
}

func benchCell(s bench.Sample, col int) string {
	switch col {
	case 0:
		return s.Name
	case 1:
		return formatMillis(s.Average())
	case 2:
		return formatMillis(s.Min)
	case 3:
		return formatMillis(s.Max)
	default:
		return fmt.Sprintf("%d", s.Count)
	}
}

func formatMillis(d time.Duration) string {
	return fmt.Sprintf("%.2f ms", float64(d)/float64(time.Millisecond))
}
