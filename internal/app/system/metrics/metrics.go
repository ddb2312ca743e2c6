// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts served requests.
	// Labels:
	//   - method: HTTP method
	//   - route: chi route pattern ("/club/{id}"), never the raw path
	//   - code: response status code
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventportal",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served",
		},
		[]string{"method", "route", "code"},
	)

	// HTTPDuration measures handler latency.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "eventportal",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// SecurityEvents counts events written by the security logger.
	SecurityEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventportal",
			Name:      "security_events_total",
			Help:      "Total number of security events by type and severity",
		},
		[]string{"type", "severity"},
	)

	// RateLimitRejections counts 429 responses per limiter purpose.
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventportal",
			Name:      "ratelimit_rejections_total",
			Help:      "Total number of requests rejected by a rate limiter",
		},
		[]string{"purpose"},
	)

	// UploadRejections counts uploads stopped by the upload pipeline.
	// Labels:
	//   - stage: "rate_limit", "allow_list", "signature", "malware_scan"
	UploadRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventportal",
			Name:      "upload_rejections_total",
			Help:      "Total number of rejected file uploads by pipeline stage",
		},
		[]string{"stage"},
	)

	// ImageDeletes counts best-effort image host deletions.
	// Labels:
	//   - outcome: "deleted", "failed", "skipped"
	ImageDeletes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventportal",
			Name:      "image_deletes_total",
			Help:      "Total number of image host deletion attempts by outcome",
		},
		[]string{"outcome"},
	)

	// MailSends counts outbound mail attempts.
	MailSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventportal",
			Name:      "mail_sends_total",
			Help:      "Total number of outbound emails by template and outcome",
		},
		[]string{"template", "outcome"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records HTTPRequests and HTTPDuration for every request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
