package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "grafana_hook"

// Metrics holds the relay's Prometheus collectors.
type Metrics struct {
	webhooks         *prometheus.CounterVec
	rejectedAlerts   prometheus.Counter
	dispatches       *prometheus.CounterVec
	dispatchDuration prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_total",
			Help:      "Webhook requests handled, by response code.",
		}, []string{"code"}),
		rejectedAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_alerts_total",
			Help:      "Alert entries rejected as malformed.",
		}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Blocklist calls, by outcome.",
		}, []string{"status"}),
		dispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Latency of blocklist calls.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.webhooks, m.rejectedAlerts, m.dispatches, m.dispatchDuration)
	return m
}

func (m *Metrics) ObserveWebhook(code int) {
	m.webhooks.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (m *Metrics) ObserveRejections(n int) {
	m.rejectedAlerts.Add(float64(n))
}

func (m *Metrics) ObserveDispatch(status string, elapsed time.Duration) {
	m.dispatches.WithLabelValues(status).Inc()
	m.dispatchDuration.Observe(elapsed.Seconds())
}
