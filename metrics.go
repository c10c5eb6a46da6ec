package sessionmiddleware

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/epiclo/go-session-middleware/core"
)

// DefaultMetricsNamespace prefixes every collector name.
const DefaultMetricsNamespace = "session"

// PrometheusMetrics implements core.Metrics using Prometheus.
type PrometheusMetrics struct {
	resolutions      *prometheus.CounterVec
	rotations        *prometheus.CounterVec
	rotationDuration *prometheus.HistogramVec
}

var _ core.Metrics = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates the collectors and registers them on reg.
// Pass prometheus.DefaultRegisterer to expose them through promhttp.Handler.
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) (*PrometheusMetrics, error) {
	if reg == nil {
		return nil, errors.New("registerer cannot be nil")
	}
	if namespace == "" {
		namespace = DefaultMetricsNamespace
	}

	m := &PrometheusMetrics{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Requests resolved by the session middleware, by status.",
		}, []string{"status", "rotated"}),
		rotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rotations_total",
			Help:      "Refresh token rotations, by outcome.",
		}, []string{"outcome"}),
		rotationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rotation_duration_seconds",
			Help:      "Time spent rotating refresh tokens.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{m.resolutions, m.rotations, m.rotationDuration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register session metrics: %w", err)
		}
	}

	return m, nil
}

// ObserveResolution counts a resolved request.
func (m *PrometheusMetrics) ObserveResolution(status core.Status, rotated bool) {
	m.resolutions.WithLabelValues(status.String(), strconv.FormatBool(rotated)).Inc()
}

// ObserveRotation counts a rotation and records its latency.
func (m *PrometheusMetrics) ObserveRotation(outcome string, elapsed time.Duration) {
	m.rotations.WithLabelValues(outcome).Inc()
	m.rotationDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
