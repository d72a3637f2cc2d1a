package polldough

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsInitialState(t *testing.T) {
	m := NewMetrics()
	snap := m.Snapshot()
	assert.Zero(t, snap.Submitted)
}

func TestMetricsRecordSubmit(t *testing.T) {
	m := NewMetrics()

	m.RecordSubmit(Submitted(), nil)
	m.RecordSubmit(AlreadyComplete(128, nil), nil)
	m.RecordSubmit(SubmissionStatus{}, NewError(StageSubmit, "submit", CodeResourceExhausted, "ring full"))

	snap := m.Snapshot()
	assert.EqualValues(t, 3, snap.Submitted)
	assert.EqualValues(t, 1, snap.CompletedSync)
	assert.EqualValues(t, 1, snap.SubmitErrors)
}

func TestMetricsRecordCompletion(t *testing.T) {
	m := NewMetrics()

	m.RecordCompletion(Event{Key: 1, Result: 64}, 1_500_000)
	m.RecordCompletion(Event{Key: 2, Err: NewError(StageOp, "read", CodeIO, "boom")}, 500_000)

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.CompletedAsync)
	assert.EqualValues(t, 1, snap.OpErrors)
	assert.NotZero(t, snap.AvgLatencyNs)
}

func TestMetricsWaitAndNotifyCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordWait()
	m.RecordWait()
	m.RecordNotify()

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.WaitCalls)
	assert.EqualValues(t, 1, snap.Notifications)
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.RecordSubmit(AlreadyComplete(1, nil), nil)
	m.Reset()

	snap := m.Snapshot()
	assert.Zero(t, snap.Submitted)
	assert.Zero(t, snap.CompletedSync)
}

func TestMetricsObserver(t *testing.T) {
	m := NewMetrics()
	obs := NewMetricsObserver(m)

	obs.ObserveSubmit(Submitted(), nil)
	obs.ObserveCompletion(Event{Key: 1, Result: 10}, 1000)
	obs.ObserveWait()
	obs.ObserveNotify()

	snap := m.Snapshot()
	assert.EqualValues(t, 1, snap.Submitted)
	assert.EqualValues(t, 1, snap.CompletedAsync)
	assert.EqualValues(t, 1, snap.WaitCalls)
	assert.EqualValues(t, 1, snap.Notifications)
}

func TestNoOpObserverDoesNotPanic(t *testing.T) {
	var obs Observer = NoOpObserver{}
	assert.NotPanics(t, func() {
		obs.ObserveSubmit(Submitted(), nil)
		obs.ObserveCompletion(Event{}, 0)
		obs.ObserveWait()
		obs.ObserveNotify()
	})
}

func TestCalculatePercentile(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < 100; i++ {
		m.RecordCompletion(Event{Key: uint64(i)}, 50_000) // 50us, lands in the 100us bucket
	}
	snap := m.Snapshot()
	assert.NotZero(t, snap.LatencyP50Ns, "expected non-zero p50 latency with 100 samples")
}
