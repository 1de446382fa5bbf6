package api

import (
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"

	"github.com/okian/patabol/pkg/metrics"
)

// MetricsMiddleware records the status and latency of every request,
// labelled by the matched route pattern.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		metrics.RecordHTTPRequest(endpointOf(r), r.Method, strconv.Itoa(m.Code),
			float64(m.Duration.Microseconds())/1000)
	})
}

// endpointOf keeps the label set bounded: session codes in paths are
// replaced by the route pattern and unmatched paths share one label.
func endpointOf(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
