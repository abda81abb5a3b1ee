package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// BasketOperationsTotal counts basket operations by outcome.
	BasketOperationsTotal *prometheus.CounterVec
	// BasketTotal records quoted basket totals.
	BasketTotal prometheus.Histogram
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		BasketOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "basket_operations_total",
			Help:      "Count of basket operations by operation and result.",
		}, []string{"operation", "result"})
		BasketTotal = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "basket_quote_total",
			Help:      "Distribution of quoted basket totals in currency units.",
			Buckets:   []float64{5, 10, 25, 50, 90, 150, 250, 500, 1000},
		})

		mustRegisterCollector(reg, BasketOperationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BasketOperationsTotal = v
			}
		})
		mustRegisterCollector(reg, BasketTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				BasketTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
