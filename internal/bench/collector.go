package bench

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exports a Store to Prometheus
type Collector struct {
	store *Store

	count *prometheus.Desc
	total *prometheus.Desc
	min   *prometheus.Desc
	max   *prometheus.Desc
	fps   *prometheus.Desc
}

// NewCollector creates a collector reading from store
func NewCollector(store *Store) *Collector {
	labels := []string{"stage"}
	return &Collector{
		store: store,
		count: prometheus.NewDesc("aimloop_stage_calls_total", "Number of timed calls per stage", labels, nil),
		total: prometheus.NewDesc("aimloop_stage_seconds_total", "Total time spent per stage", labels, nil),
		min:   prometheus.NewDesc("aimloop_stage_min_seconds", "Fastest call per stage", labels, nil),
		max:   prometheus.NewDesc("aimloop_stage_max_seconds", "Slowest call per stage", labels, nil),
		fps:   prometheus.NewDesc("aimloop_fps", "Average completed detection cycles per second", nil, nil),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.count
	ch <- c.total
	ch <- c.min
	ch <- c.max
	ch <- c.fps
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.store.Snapshot() {
		ch <- prometheus.MustNewConstMetric(c.count, prometheus.CounterValue, float64(s.Count), s.Name)
		ch <- prometheus.MustNewConstMetric(c.total, prometheus.CounterValue, s.Total.Seconds(), s.Name)
		ch <- prometheus.MustNewConstMetric(c.min, prometheus.GaugeValue, s.Min.Seconds(), s.Name)
		ch <- prometheus.MustNewConstMetric(c.max, prometheus.GaugeValue, s.Max.Seconds(), s.Name)
	}
	ch <- prometheus.MustNewConstMetric(c.fps, prometheus.GaugeValue, c.store.FPS())
}

// NewRegistry returns a registry with the store's collector and Go runtime metrics
func NewRegistry(store *Store) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(NewCollector(store))
	registry.MustRegister(collectors.NewGoCollector())
	return registry
}

// Handler serves the registry in the Prometheus text format
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
