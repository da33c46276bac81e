/*
Package metrics exposes Prometheus instrumentation and HTTP health endpoints
for a process embedding the store.

# Metrics

Counters track session lifecycle (SessionsStarted, SessionsFinished by
outcome), load/save volume (ObjectsLoaded, ObjectsSaved,
DocumentBytesWritten, BlobBytesWritten), and histograms time the two
traversal-heavy operations: a session's save walk (SaveDuration) and a
transaction's two-phase commit across all participants (CommitDuration).
A Timer helper wraps time.Now/Since for recording either.

	timer := metrics.NewTimer()
	// ... run the save traversal ...
	timer.ObserveDuration(metrics.SaveDuration)

# Health

HealthHandler, ReadyHandler, and LivenessHandler serve /health, /ready, and
/live respectively, backed by a small in-memory component registry
(RegisterComponent, UpdateComponent). Readiness additionally requires the
"store" component to be registered and healthy before reporting ready,
since nothing useful can happen before the root object is reachable.
*/
package metrics
