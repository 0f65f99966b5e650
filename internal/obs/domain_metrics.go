package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SalesCompletedTotal counts finalized sales by tender type.
	SalesCompletedTotal *prometheus.CounterVec
	// SalesCancelledTotal counts cancelled sales.
	SalesCancelledTotal prometheus.Counter
	// SaleAmountCents observes finalized sale totals in cents.
	SaleAmountCents prometheus.Histogram
	// CashRoundingCents observes the signed cash rounding adjustment per sale.
	CashRoundingCents *prometheus.CounterVec
	// LoyaltyPointsRedeemedTotal counts loyalty points spent at checkout.
	LoyaltyPointsRedeemedTotal prometheus.Counter
	// LoyaltyPointsEarnedTotal counts loyalty points accrued by the worker.
	LoyaltyPointsEarnedTotal prometheus.Counter
	// PromoApplicationsTotal counts promo code application outcomes.
	PromoApplicationsTotal *prometheus.CounterVec
	// ScanEventsTotal counts barcode scan relay outcomes.
	ScanEventsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		SalesCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_completed_total",
			Help:      "Count of finalized sales by tender type.",
		}, []string{"tender"})
		SalesCancelledTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_cancelled_total",
			Help:      "Count of cancelled sales.",
		})
		SaleAmountCents = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sale_amount_cents",
			Help:      "Distribution of finalized sale totals in cents.",
			Buckets:   []float64{100, 500, 1000, 2500, 5000, 10000, 25000, 50000, 100000},
		})
		CashRoundingCents = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cash_rounding_cents_total",
			Help:      "Accumulated absolute cash rounding adjustment in cents, by direction.",
		}, []string{"direction"})
		LoyaltyPointsRedeemedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loyalty_points_redeemed_total",
			Help:      "Total loyalty points redeemed at checkout.",
		})
		LoyaltyPointsEarnedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loyalty_points_earned_total",
			Help:      "Total loyalty points accrued from completed sales.",
		})
		PromoApplicationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_applications_total",
			Help:      "Count of promo code application outcomes.",
		}, []string{"result"})
		ScanEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_events_total",
			Help:      "Count of barcode scan relay outcomes.",
		}, []string{"result"})

		mustRegisterCollector(reg, SalesCompletedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SalesCompletedTotal = v
			}
		})
		mustRegisterCollector(reg, SalesCancelledTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				SalesCancelledTotal = v
			}
		})
		mustRegisterCollector(reg, SaleAmountCents, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				SaleAmountCents = v
			}
		})
		mustRegisterCollector(reg, CashRoundingCents, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CashRoundingCents = v
			}
		})
		mustRegisterCollector(reg, LoyaltyPointsRedeemedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				LoyaltyPointsRedeemedTotal = v
			}
		})
		mustRegisterCollector(reg, LoyaltyPointsEarnedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				LoyaltyPointsEarnedTotal = v
			}
		})
		mustRegisterCollector(reg, PromoApplicationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PromoApplicationsTotal = v
			}
		})
		mustRegisterCollector(reg, ScanEventsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ScanEventsTotal = v
			}
		})
	})
}

// ObserveCashRounding records a signed rounding delta in the direction-labelled counter.
func ObserveCashRounding(delta int64) {
	if CashRoundingCents == nil {
		return
	}
	switch {
	case delta > 0:
		CashRoundingCents.WithLabelValues("up").Add(float64(delta))
	case delta < 0:
		CashRoundingCents.WithLabelValues("down").Add(float64(-delta))
	}
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
