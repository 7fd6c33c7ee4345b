package goAuthClient

import "github.com/MrEthical07/goAuthClient/internal/metrics"

// MetricID identifies one counter or histogram in a [MetricsSnapshot].
type MetricID = metrics.MetricID

// MetricsSnapshot is a point-in-time copy of the Manager's counters.
type MetricsSnapshot = metrics.Snapshot

const (
	MetricLoginSuccess       = metrics.MetricLoginSuccess
	MetricLoginFailure       = metrics.MetricLoginFailure
	MetricRegisterSuccess    = metrics.MetricRegisterSuccess
	MetricRegisterFailure    = metrics.MetricRegisterFailure
	MetricLogout             = metrics.MetricLogout
	MetricSessionRestored    = metrics.MetricSessionRestored
	MetricRestoreMiss        = metrics.MetricRestoreMiss
	MetricRestoreCorrupt     = metrics.MetricRestoreCorrupt
	MetricSessionInvalidated = metrics.MetricSessionInvalidated
	MetricStorageWarning     = metrics.MetricStorageWarning
	MetricTransportFailure   = metrics.MetricTransportFailure
	// MetricRequestLatency is histogram-backed and only appears in
	// MetricsSnapshot.Histograms.
	MetricRequestLatency = metrics.MetricRequestLatency
	MetricIDCount        = metrics.MetricIDCount
)

// HistBucketCount is the number of latency buckets, the last one unbounded.
const HistBucketCount = metrics.HistBucketCount
