package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SessionsCreatedTotal counts ledger sessions opened by direction.
	SessionsCreatedTotal *prometheus.CounterVec
	// LedgerMutationsTotal counts line item mutations by operation and result.
	LedgerMutationsTotal *prometheus.CounterVec
	// StockRejectionsTotal counts adds/edits rejected by the stock ceiling.
	StockRejectionsTotal prometheus.Counter
	// SubmissionsTotal counts form submissions to the backend by result.
	SubmissionsTotal *prometheus.CounterVec
	// CatalogLookupsTotal counts catalog availability lookups by result.
	CatalogLookupsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		SessionsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Count of ledger sessions created by direction.",
		}, []string{"direction"})
		LedgerMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_mutations_total",
			Help:      "Count of line item mutations by operation and result.",
		}, []string{"op", "result"})
		StockRejectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_rejections_total",
			Help:      "Number of mutations rejected by the local stock ceiling.",
		})
		SubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Count of form submissions forwarded to the backend by result.",
		}, []string{"direction", "result"})
		CatalogLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_lookups_total",
			Help:      "Count of catalog availability lookups by result.",
		}, []string{"result"})

		registerCollector(reg, SessionsCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SessionsCreatedTotal = v
			}
		})
		registerCollector(reg, LedgerMutationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				LedgerMutationsTotal = v
			}
		})
		registerCollector(reg, StockRejectionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				StockRejectionsTotal = v
			}
		})
		registerCollector(reg, SubmissionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SubmissionsTotal = v
			}
		})
		registerCollector(reg, CatalogLookupsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CatalogLookupsTotal = v
			}
		})
	})
}
