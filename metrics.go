package memdb

import "github.com/prometheus/client_golang/prometheus"

var BulkWriteRows = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "memdb",
	Subsystem: "collection",
	Name:      "bulk_write_rows",
}, []string{"collection", "result"})

var QueryCount = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "memdb",
	Subsystem: "collection",
	Name:      "queries",
}, []string{"collection", "index"})

var QueryScannedEntries = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "memdb",
	Subsystem: "collection",
	Name:      "query_scanned_entries",
	Buckets:   []float64{0, 1, 10, 100, 1000, 10000, 100000},
}, []string{"collection"})

var CleanupPurged = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "memdb",
	Subsystem: "collection",
	Name:      "cleanup_purged",
}, []string{"collection"})

var ChangeBatches = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "memdb",
	Subsystem: "collection",
	Name:      "change_batches",
}, []string{"collection"})

var OpenHandles = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "memdb",
	Subsystem: "storage",
	Name:      "open_handles",
})

var IndexCorruptions = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "memdb",
	Subsystem: "collection",
	Name:      "index_corruptions",
}, []string{"collection"})

// Collectors returns every metric of this package for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		BulkWriteRows,
		QueryCount,
		QueryScannedEntries,
		CleanupPurged,
		ChangeBatches,
		OpenHandles,
		IndexCorruptions,
	}
}
