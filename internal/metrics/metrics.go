package metrics

import (
	"os"
	"sync"
	"time"
)

// Package metrics provides a minimal instrumentation interface with a no-op
// default and optional Prometheus-backed implementation enabled via env.

// Recorder defines the metrics surface used across the codebase.
type Recorder interface {
	IncLookupTotal(op string, success bool)
	ObserveLookupSeconds(op string, success bool, seconds float64)
	IncResolveTotal(fallback bool)
	ObserveResolveSeconds(fallback bool, seconds float64)
}

// noopRecorder implements Recorder with no-ops.
type noopRecorder struct{}

func (n *noopRecorder) IncLookupTotal(string, bool)                {}
func (n *noopRecorder) ObserveLookupSeconds(string, bool, float64) {}
func (n *noopRecorder) IncResolveTotal(bool)                       {}
func (n *noopRecorder) ObserveResolveSeconds(bool, float64)        {}

var (
	recMu    sync.RWMutex
	recorder Recorder = &noopRecorder{}
)

// Default returns the current recorder.
func Default() Recorder {
	recMu.RLock()
	defer recMu.RUnlock()
	return recorder
}

// SetRecorder swaps the global recorder implementation.
func SetRecorder(r Recorder) {
	recMu.Lock()
	defer recMu.Unlock()
	recorder = r
}

// TimeOp times one backend lookup (terminology_lookup, graph_paths,
// vector_search, embed, names_for).
func TimeOp(op string) func(success bool) {
	start := time.Now()
	return func(success bool) {
		dur := time.Since(start).Seconds()
		Default().IncLookupTotal(op, success)
		Default().ObserveLookupSeconds(op, success, dur)
	}
}

// TimeResolve times one entity resolution.
func TimeResolve() func(fallback bool) {
	start := time.Now()
	return func(fallback bool) {
		dur := time.Since(start).Seconds()
		Default().IncResolveTotal(fallback)
		Default().ObserveResolveSeconds(fallback, dur)
	}
}

// InitFromEnv enables the Prometheus exporter if METRICS_PROMETHEUS is set.
// It also starts a small HTTP server on METRICS_ADDR (default :9090)
// with endpoints: /metrics (prom) and /healthz (200 ok).
func InitFromEnv() {
	if os.Getenv("METRICS_PROMETHEUS") == "" {
		return
	}
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		addr = ":9090"
	}
	// Try to install prometheus recorder; if it fails, keep noop.
	_ = enablePrometheus(addr)
}

// enablePrometheus is provided by build-tagged files.
