package signup

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels for the submissions counter.
const (
	resultSuccess   = "success"
	resultDuplicate = "duplicate"
	resultFailed    = "failed"
	resultTimeout   = "timeout"
	resultInvalid   = "invalid"
	resultInFlight  = "in_flight"
	resultStale     = "stale"
)

// Metrics records submissions. A nil *Metrics records nothing.
type Metrics struct {
	submissions  *prometheus.CounterVec
	providerTime prometheus.Histogram
	inFlight     prometheus.Gauge
}

// NewMetrics registers the signup collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "register",
			Subsystem: "signup",
			Name:      "submissions_total",
			Help:      "Registration submissions by result.",
		}, []string{"result"}),
		providerTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "register",
			Subsystem: "signup",
			Name:      "provider_duration_seconds",
			Help:      "Time spent waiting for the account provider.",
			Buckets:   prometheus.DefBuckets,
		}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "register",
			Subsystem: "signup",
			Name:      "in_flight",
			Help:      "Provider calls currently in flight.",
		}),
	}
}

func (m *Metrics) observe(result string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(result).Inc()
}

func (m *Metrics) callStarted() func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	m.inFlight.Inc()
	return func() {
		m.inFlight.Dec()
		m.providerTime.Observe(time.Since(start).Seconds())
	}
}
