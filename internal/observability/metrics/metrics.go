package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingFlowMetrics exposes counters/histograms for the chat booking flow.
type BookingFlowMetrics struct {
	inboundTotal   *prometheus.CounterVec
	commitTotal    *prometheus.CounterVec
	resolveLatency prometheus.Histogram
}

func NewBookingFlowMetrics(reg prometheus.Registerer) *BookingFlowMetrics {
	m := &BookingFlowMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonbot",
			Subsystem: "conversation",
			Name:      "inbound_messages_total",
			Help:      "Inbound chat messages by session step and outcome",
		}, []string{"step", "outcome"}),
		commitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonbot",
			Subsystem: "booking",
			Name:      "commit_total",
			Help:      "Booking commit attempts by outcome",
		}, []string{"outcome"}),
		resolveLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "salonbot",
			Subsystem: "schedule",
			Name:      "resolve_latency_seconds",
			Help:      "Latency of availability resolution",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.commitTotal, m.resolveLatency)
	return m
}

func (m *BookingFlowMetrics) ObserveInbound(step, outcome string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(step, outcome).Inc()
}

func (m *BookingFlowMetrics) ObserveCommit(outcome string) {
	if m == nil {
		return
	}
	m.commitTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingFlowMetrics) ObserveResolveLatency(seconds float64) {
	if m == nil {
		return
	}
	m.resolveLatency.Observe(seconds)
}
