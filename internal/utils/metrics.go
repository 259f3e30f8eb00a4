// internal/utils/metrics.go
package utils

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector collects application counters and duration histograms
type MetricsCollector struct {
	counters   map[string]*int64
	histograms map[string]*Histogram
	mu         sync.RWMutex
}

// Histogram tracks count, sum, min and max of observed values
type Histogram struct {
	count int64
	sum   int64
	min   int64
	max   int64
	mu    sync.Mutex
}

// HistogramSnapshot is a point-in-time copy of a Histogram.
type HistogramSnapshot struct {
	Count int64   `json:"count"`
	Sum   int64   `json:"sum"`
	Min   int64   `json:"min"`
	Max   int64   `json:"max"`
	Avg   float64 `json:"avg"`
}

var (
	globalMetrics *MetricsCollector
	metricsOnce   sync.Once
)

// NewMetricsCollector creates an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:   make(map[string]*int64),
		histograms: make(map[string]*Histogram),
	}
}

// GetMetricsCollector returns the global metrics collector
func GetMetricsCollector() *MetricsCollector {
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsCollector()
	})
	return globalMetrics
}

func (m *MetricsCollector) counter(name string) *int64 {
	m.mu.RLock()
	c, ok := m.counters[name]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok = m.counters[name]; !ok {
		c = new(int64)
		m.counters[name] = c
	}
	return c
}

// IncrementCounter increments a counter metric
func (m *MetricsCollector) IncrementCounter(name string) {
	atomic.AddInt64(m.counter(name), 1)
}

// AddCounter adds a value to a counter metric
func (m *MetricsCollector) AddCounter(name string, value int64) {
	atomic.AddInt64(m.counter(name), value)
}

// GetCounterValue returns the current value of a counter
func (m *MetricsCollector) GetCounterValue(name string) int64 {
	m.mu.RLock()
	c, ok := m.counters[name]
	m.mu.RUnlock()
	if !ok {
		return 0
	}
	return atomic.LoadInt64(c)
}

// RecordHistogram records a value in a histogram
func (m *MetricsCollector) RecordHistogram(name string, value int64) {
	m.mu.RLock()
	h, ok := m.histograms[name]
	m.mu.RUnlock()
	if !ok {
		m.mu.Lock()
		if h, ok = m.histograms[name]; !ok {
			h = &Histogram{}
			m.histograms[name] = h
		}
		m.mu.Unlock()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count == 0 || value < h.min {
		h.min = value
	}
	if h.count == 0 || value > h.max {
		h.max = value
	}
	h.count++
	h.sum += value
}

// GetMetrics returns a snapshot of every counter and histogram
func (m *MetricsCollector) GetMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counters := make(map[string]int64, len(m.counters))
	for name, c := range m.counters {
		counters[name] = atomic.LoadInt64(c)
	}

	histograms := make(map[string]HistogramSnapshot, len(m.histograms))
	for name, h := range m.histograms {
		h.mu.Lock()
		snap := HistogramSnapshot{Count: h.count, Sum: h.sum, Min: h.min, Max: h.max}
		h.mu.Unlock()
		if snap.Count > 0 {
			snap.Avg = float64(snap.Sum) / float64(snap.Count)
		}
		histograms[name] = snap
	}

	return map[string]interface{}{
		"counters":   counters,
		"histograms": histograms,
	}
}

// CounterNames lists counters in sorted order.
func (m *MetricsCollector) CounterNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.counters))
	for name := range m.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EditorMetrics records editor specific events on a collector
type EditorMetrics struct {
	collector *MetricsCollector
}

// NewEditorMetrics wraps collector, or the global one when nil.
func NewEditorMetrics(collector *MetricsCollector) *EditorMetrics {
	if collector == nil {
		collector = GetMetricsCollector()
	}
	return &EditorMetrics{collector: collector}
}

// Collector exposes the underlying collector.
func (em *EditorMetrics) Collector() *MetricsCollector {
	return em.collector
}

// RecordAPIRequest records one HTTP request
func (em *EditorMetrics) RecordAPIRequest(route, method string, statusCode int, duration time.Duration) {
	em.collector.IncrementCounter("api_requests_total")
	em.collector.IncrementCounter(fmt.Sprintf("api_requests_%s_%s", method, route))
	if statusCode >= 400 {
		em.collector.IncrementCounter(fmt.Sprintf("api_errors_%d", statusCode))
	}
	em.collector.RecordHistogram("api_request_duration_ms", duration.Milliseconds())
}

// RecordExport records one finished export
func (em *EditorMetrics) RecordExport(format string, paragraphs int, size int64, duration time.Duration) {
	em.collector.IncrementCounter("exports_" + format)
	em.collector.AddCounter("exported_paragraphs", int64(paragraphs))
	em.collector.RecordHistogram("export_size_bytes", size)
	em.collector.RecordHistogram("export_duration_ms", duration.Milliseconds())
}

// RecordAssist records one finished language-model call
func (em *EditorMetrics) RecordAssist(mode, status string, duration time.Duration) {
	em.collector.IncrementCounter(fmt.Sprintf("assist_%s_%s", mode, status))
	em.collector.RecordHistogram("assist_duration_ms", duration.Milliseconds())
}

// RecordDocument records a document store operation
func (em *EditorMetrics) RecordDocument(op string) {
	em.collector.IncrementCounter("document_" + op)
}
