package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics methods are safe on a nil receiver.
type Metrics struct {
	recomputes          *prometheus.CounterVec
	calculationFailures prometheus.Counter
	exports             *prometheus.CounterVec
	ocrRequests         *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grainops",
			Name:      "operation_recomputes_total",
			Help:      "Operation total recomputations by result.",
		}, []string{"result"}),
		calculationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "grainops",
			Name:      "settlement_calculation_failures_total",
			Help:      "Settlement calculations that failed and returned no totals.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grainops",
			Name:      "exports_total",
			Help:      "Generated exports and documents by format.",
		}, []string{"format"}),
		ocrRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grainops",
			Name:      "ocr_requests_total",
			Help:      "Ticket OCR requests by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.recomputes, m.calculationFailures, m.exports, m.ocrRequests)
	return m
}

func (m *Metrics) ObserveRecompute(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.recomputes.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveCalculationFailure() {
	if m == nil {
		return
	}
	m.calculationFailures.Inc()
}

func (m *Metrics) ObserveExport(format string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format).Inc()
}

func (m *Metrics) ObserveOCR(result string) {
	if m == nil {
		return
	}
	m.ocrRequests.WithLabelValues(result).Inc()
}
