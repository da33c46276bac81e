package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SessionsStarted counts transaction sessions opened against the store.
	SessionsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dumpling_sessions_started_total",
			Help: "Total number of sessions opened against the store",
		},
	)

	// SessionsFinished counts sessions by how they ended.
	SessionsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dumpling_sessions_finished_total",
			Help: "Total number of sessions finished, by outcome (committed, aborted)",
		},
		[]string{"outcome"},
	)

	// ObjectsLoaded counts persistent objects materialized from disk.
	ObjectsLoaded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dumpling_objects_loaded_total",
			Help: "Total number of persistent objects loaded from documents",
		},
	)

	// ObjectsSaved counts persistent objects written during a commit.
	ObjectsSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dumpling_objects_saved_total",
			Help: "Total number of persistent objects written during commits",
		},
	)

	// DocumentBytesWritten sums document bytes written to the staged
	// filesystem.
	DocumentBytesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dumpling_document_bytes_written_total",
			Help: "Total bytes of serialized documents written",
		},
	)

	// BlobBytesWritten sums blob payload bytes added to the blob store.
	BlobBytesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dumpling_blob_bytes_written_total",
			Help: "Total bytes written to the content-addressed blob store",
		},
	)

	// SaveDuration times a session's full save traversal.
	SaveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dumpling_save_duration_seconds",
			Help:    "Time taken to traverse and save a session's dirty objects",
			Buckets: prometheus.DefBuckets,
		},
	)

	// CommitDuration times the full two-phase commit of a transaction,
	// across every registered participant.
	CommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dumpling_commit_duration_seconds",
			Help:    "Time taken to run vote+finish across all transaction participants",
			Buckets: prometheus.DefBuckets,
		},
	)

	// FolderEntriesCached is incremented each time a folder-contents cache
	// records a name it has not held before. It is never decremented, so it
	// does not drop when sessions close.
	FolderEntriesCached = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dumpling_folder_entries_cached",
			Help: "Number of folder entries added to folder-contents caches; not decremented when sessions close",
		},
	)
)

func init() {
	prometheus.MustRegister(SessionsStarted)
	prometheus.MustRegister(SessionsFinished)
	prometheus.MustRegister(ObjectsLoaded)
	prometheus.MustRegister(ObjectsSaved)
	prometheus.MustRegister(DocumentBytesWritten)
	prometheus.MustRegister(BlobBytesWritten)
	prometheus.MustRegister(SaveDuration)
	prometheus.MustRegister(CommitDuration)
	prometheus.MustRegister(FolderEntriesCached)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
