// internal/metrics/metrics.go
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mywinecellar/cellar-api/internal/apierr"
)

const namespace = "cellar"

// Outcome labels.
const (
	OutcomeOK         = "ok"
	OutcomeBadRequest = "bad_request"
	OutcomeNotFound   = "not_found"
	OutcomeError      = "error"
)

var (
	WineWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wine_writes_total",
		Help:      "Wine write operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	ImageBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "wine_image_bytes",
		Help:      "Size of accepted wine images.",
		Buckets:   prometheus.ExponentialBuckets(16*1024, 4, 7),
	})

	HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Outcome classifies err for the outcome label.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		return OutcomeError
	}
	switch apiErr.Status {
	case http.StatusBadRequest:
		return OutcomeBadRequest
	case http.StatusNotFound:
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}

func ObserveWrite(operation string, err error) {
	WineWrites.WithLabelValues(operation, Outcome(err)).Inc()
}

func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func Handler() http.Handler {
	return promhttp.Handler()
}
