package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics tracks tip and highlight activity processed by the node.
type LedgerMetrics struct {
	tipsAccepted      prometheus.Counter
	tipsRejected      *prometheus.CounterVec
	highlightsApplied *prometheus.CounterVec
	highlightFailures *prometheus.CounterVec
}

var (
	ledgerOnce     sync.Once
	ledgerRegistry *LedgerMetrics
)

// Ledger returns the process-wide ledger metrics, registering them on first
// use.
func Ledger() *LedgerMetrics {
	ledgerOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			tipsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "tipper_tips_accepted_total",
				Help: "Count of tips validated, paid out and persisted.",
			}),
			tipsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "tipper_tips_rejected_total",
				Help: "Count of rejected tip submissions by reason.",
			}, []string{"reason"}),
			highlightsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "highlights_applied_total",
				Help: "Count of registry highlights applied by kind.",
			}, []string{"kind"}),
			highlightFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "highlights_failures_total",
				Help: "Count of registry rejections surfaced to callers by reason.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(
			ledgerRegistry.tipsAccepted,
			ledgerRegistry.tipsRejected,
			ledgerRegistry.highlightsApplied,
			ledgerRegistry.highlightFailures,
		)
	})
	return ledgerRegistry
}

// TipAccepted records a settled tip.
func (m *LedgerMetrics) TipAccepted() {
	if m == nil {
		return
	}
	m.tipsAccepted.Inc()
}

// TipRejected records a rejected tip submission.
func (m *LedgerMetrics) TipRejected(reason string) {
	if m == nil {
		return
	}
	m.tipsRejected.WithLabelValues(reason).Inc()
}

// HighlightApplied records a successful registry mutation.
func (m *LedgerMetrics) HighlightApplied(kind string) {
	if m == nil {
		return
	}
	m.highlightsApplied.WithLabelValues(kind).Inc()
}

// HighlightFailed records a registry rejection surfaced to a caller.
func (m *LedgerMetrics) HighlightFailed(reason string) {
	if m == nil {
		return
	}
	m.highlightFailures.WithLabelValues(reason).Inc()
}
