//go:build !noprom

package metrics

import (
	"fmt"
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

type promRecorder struct {
	lookupTotal    *prom.CounterVec
	lookupSeconds  *prom.HistogramVec
	resolveTotal   *prom.CounterVec
	resolveSeconds *prom.HistogramVec
}

func (p *promRecorder) IncLookupTotal(op string, success bool) {
	p.lookupTotal.WithLabelValues(op, fmt.Sprintf("%t", success)).Inc()
}

func (p *promRecorder) ObserveLookupSeconds(op string, success bool, seconds float64) {
	p.lookupSeconds.WithLabelValues(op, fmt.Sprintf("%t", success)).Observe(seconds)
}

func (p *promRecorder) IncResolveTotal(fallback bool) {
	p.resolveTotal.WithLabelValues(fmt.Sprintf("%t", fallback)).Inc()
}

func (p *promRecorder) ObserveResolveSeconds(fallback bool, seconds float64) {
	p.resolveSeconds.WithLabelValues(fmt.Sprintf("%t", fallback)).Observe(seconds)
}

func enablePrometheus(addr string) error {
	registry := prom.NewRegistry()
	p := &promRecorder{
		lookupTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "lookup_ops_total",
			Help: "Total number of backend lookup operations",
		}, []string{"op", "success"}),
		lookupSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "lookup_op_seconds",
			Help:    "Backend lookup duration in seconds",
			Buckets: prom.DefBuckets,
		}, []string{"op", "success"}),
		resolveTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "entity_resolutions_total",
			Help: "Total number of entity resolutions",
		}, []string{"fallback"}),
		resolveSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "entity_resolution_seconds",
			Help:    "Entity resolution duration in seconds",
			Buckets: prom.DefBuckets,
		}, []string{"fallback"}),
	}

	registry.MustRegister(p.lookupTotal, p.lookupSeconds, p.resolveTotal, p.resolveSeconds)
	SetRecorder(p)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	go func() { _ = http.ListenAndServe(addr, mux) }()
	return nil
}
