package service

import (
	"sync/atomic"
	"time"
)

// Metrics tracks register operation counts
type Metrics struct {
	DocumentsCreated  int64 `json:"documentsCreated"`
	RevisionsAppended int64 `json:"revisionsAppended"`
	RemarksPosted     int64 `json:"remarksPosted"`
	FieldUpdates      int64 `json:"fieldUpdates"`
	Summaries         int64 `json:"summaries"`
	SummaryLatencyNs  int64 `json:"summaryLatencyNs"`
	DegradedDocuments int64 `json:"degradedDocuments"`
	Conflicts         int64 `json:"conflicts"`
	StorageFailures   int64 `json:"storageFailures"`
}

var globalMetrics = &Metrics{}

// GetMetrics returns the current metrics snapshot
func GetMetrics() Metrics {
	return Metrics{
		DocumentsCreated:  atomic.LoadInt64(&globalMetrics.DocumentsCreated),
		RevisionsAppended: atomic.LoadInt64(&globalMetrics.RevisionsAppended),
		RemarksPosted:     atomic.LoadInt64(&globalMetrics.RemarksPosted),
		FieldUpdates:      atomic.LoadInt64(&globalMetrics.FieldUpdates),
		Summaries:         atomic.LoadInt64(&globalMetrics.Summaries),
		SummaryLatencyNs:  atomic.LoadInt64(&globalMetrics.SummaryLatencyNs),
		DegradedDocuments: atomic.LoadInt64(&globalMetrics.DegradedDocuments),
		Conflicts:         atomic.LoadInt64(&globalMetrics.Conflicts),
		StorageFailures:   atomic.LoadInt64(&globalMetrics.StorageFailures),
	}
}

// ResetMetrics resets all metrics (useful for testing)
func ResetMetrics() {
	atomic.StoreInt64(&globalMetrics.DocumentsCreated, 0)
	atomic.StoreInt64(&globalMetrics.RevisionsAppended, 0)
	atomic.StoreInt64(&globalMetrics.RemarksPosted, 0)
	atomic.StoreInt64(&globalMetrics.FieldUpdates, 0)
	atomic.StoreInt64(&globalMetrics.Summaries, 0)
	atomic.StoreInt64(&globalMetrics.SummaryLatencyNs, 0)
	atomic.StoreInt64(&globalMetrics.DegradedDocuments, 0)
	atomic.StoreInt64(&globalMetrics.Conflicts, 0)
	atomic.StoreInt64(&globalMetrics.StorageFailures, 0)
}

func recordSummary(duration time.Duration, degraded int) {
	atomic.AddInt64(&globalMetrics.Summaries, 1)
	atomic.AddInt64(&globalMetrics.SummaryLatencyNs, duration.Nanoseconds())
	atomic.AddInt64(&globalMetrics.DegradedDocuments, int64(degraded))
}

func recordCounter(counter *int64) {
	atomic.AddInt64(counter, 1)
}

// AverageSummaryLatency returns the average aggregation latency in milliseconds
func (m Metrics) AverageSummaryLatency() float64 {
	if m.Summaries == 0 {
		return 0
	}
	avgNs := float64(m.SummaryLatencyNs) / float64(m.Summaries)
	return avgNs / 1e6
}
