package http

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

// metrics holds plain request counters, rendered as text on /metrics.
type metrics struct {
	requestsTotal  atomic.Int64
	responses4xx   atomic.Int64
	responses5xx   atomic.Int64
	cacheHits      atomic.Int64
	cacheMisses    atomic.Int64
	entriesCreated atomic.Int64
}

func newMetrics() *metrics {
	return &metrics{}
}

func (m *metrics) record(statusCode int) {
	m.requestsTotal.Add(1)
	switch {
	case statusCode >= 500:
		m.responses5xx.Add(1)
	case statusCode >= 400:
		m.responses4xx.Add(1)
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	m := s.metrics
	fmt.Fprintf(w, "http_requests_total %d\n", m.requestsTotal.Load())
	fmt.Fprintf(w, "http_responses_4xx_total %d\n", m.responses4xx.Load())
	fmt.Fprintf(w, "http_responses_5xx_total %d\n", m.responses5xx.Load())
	fmt.Fprintf(w, "dashboard_cache_hits_total %d\n", m.cacheHits.Load())
	fmt.Fprintf(w, "dashboard_cache_misses_total %d\n", m.cacheMisses.Load())
	fmt.Fprintf(w, "entries_created_total %d\n", m.entriesCreated.Load())
}
