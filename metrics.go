package polldough

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the completion-latency histogram buckets in
// nanoseconds, covering 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks submission/completion statistics for a Completion.
type Metrics struct {
	Submitted         atomic.Uint64
	CompletedSync     atomic.Uint64 // completed during Submit (SubmissionStatus.Complete)
	CompletedAsync    atomic.Uint64 // completed during Wait
	SubmitErrors      atomic.Uint64
	OpErrors          atomic.Uint64
	WaitCalls         atomic.Uint64
	Notifications     atomic.Uint64

	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
}

// NewMetrics creates a new, running metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordSubmit records a Submit call's outcome.
func (m *Metrics) RecordSubmit(status SubmissionStatus, err error) {
	m.Submitted.Add(1)
	if err != nil {
		m.SubmitErrors.Add(1)
		return
	}
	if status.Complete {
		m.CompletedSync.Add(1)
		m.recordCompletion(status.Err, 0)
	}
}

// RecordCompletion records an Event drained from Wait, with the latency
// between submission and completion if known (0 if not tracked).
func (m *Metrics) RecordCompletion(ev Event, latencyNs uint64) {
	m.CompletedAsync.Add(1)
	m.recordCompletion(ev.Err, latencyNs)
}

func (m *Metrics) recordCompletion(err error, latencyNs uint64) {
	if err != nil {
		m.OpErrors.Add(1)
	}
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// RecordWait records a Wait call.
func (m *Metrics) RecordWait() { m.WaitCalls.Add(1) }

// RecordNotify records a Notify call.
func (m *Metrics) RecordNotify() { m.Notifications.Add(1) }

// MetricsSnapshot is a point-in-time copy of Metrics, with derived rates.
type MetricsSnapshot struct {
	Submitted      uint64
	CompletedSync  uint64
	CompletedAsync uint64
	SubmitErrors   uint64
	OpErrors       uint64
	WaitCalls      uint64
	Notifications  uint64

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyP50Ns uint64
	LatencyP99Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	SubmitRate float64 // submissions per second
	ErrorRate  float64 // percentage of ops that errored
}

// Snapshot creates a point-in-time snapshot of metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Submitted:      m.Submitted.Load(),
		CompletedSync:  m.CompletedSync.Load(),
		CompletedAsync: m.CompletedAsync.Load(),
		SubmitErrors:   m.SubmitErrors.Load(),
		OpErrors:       m.OpErrors.Load(),
		WaitCalls:      m.WaitCalls.Load(),
		Notifications:  m.Notifications.Load(),
	}

	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = m.TotalLatencyNs.Load() / opCount
	}

	snap.UptimeNs = uint64(time.Now().UnixNano() - m.StartTime.Load())
	if snap.UptimeNs > 0 {
		snap.SubmitRate = float64(snap.Submitted) / (float64(snap.UptimeNs) / 1e9)
	}

	completed := snap.CompletedSync + snap.CompletedAsync
	if completed > 0 {
		snap.ErrorRate = float64(snap.OpErrors) / float64(completed) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}
	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile
// (0.0-1.0) using linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}
	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}
	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset zeroes all counters and restarts the uptime clock.
func (m *Metrics) Reset() {
	m.Submitted.Store(0)
	m.CompletedSync.Store(0)
	m.CompletedAsync.Store(0)
	m.SubmitErrors.Store(0)
	m.OpErrors.Store(0)
	m.WaitCalls.Store(0)
	m.Notifications.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
}

// Observer allows pluggable metrics collection for a Completion. Methods
// must be safe to call concurrently; Submit and Wait call them from
// whichever goroutine invoked them, never from a dedicated background
// goroutine.
type Observer interface {
	ObserveSubmit(status SubmissionStatus, err error)
	ObserveCompletion(ev Event, latencyNs uint64)
	ObserveWait()
	ObserveNotify()
}

// NoOpObserver discards everything.
type NoOpObserver struct{}

func (NoOpObserver) ObserveSubmit(SubmissionStatus, error) {}
func (NoOpObserver) ObserveCompletion(Event, uint64)       {}
func (NoOpObserver) ObserveWait()                          {}
func (NoOpObserver) ObserveNotify()                         {}

// MetricsObserver implements Observer on top of Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveSubmit(status SubmissionStatus, err error) {
	o.metrics.RecordSubmit(status, err)
}

func (o *MetricsObserver) ObserveCompletion(ev Event, latencyNs uint64) {
	o.metrics.RecordCompletion(ev, latencyNs)
}

func (o *MetricsObserver) ObserveWait() { o.metrics.RecordWait() }

func (o *MetricsObserver) ObserveNotify() { o.metrics.RecordNotify() }

var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
