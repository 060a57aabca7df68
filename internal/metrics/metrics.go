package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NodesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chain_nodes_created_total",
		Help: "Nodes persisted, by operation (root for chain starts)",
	}, []string{"operation"})

	NodeRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chain_node_rejections_total",
		Help: "Create requests refused before anything was stored, by reason",
	}, []string{"reason"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chain_http_requests_total",
		Help: "HTTP requests served",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chain_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// StatusRecorder captures the status code written by the wrapped handler.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

// NewStatusRecorder wraps w with a default status of 200.
func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
}

// WriteHeader records code before passing it on.
func (r *StatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware counts requests per mux route template, so /post/reply is one
// series regardless of body or query.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := NewStatusRecorder(w)

		next.ServeHTTP(rec, r)

		route := RouteName(r)
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.Status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RouteName returns the matched route template or "unmatched".
func RouteName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}
