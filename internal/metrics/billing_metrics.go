package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/1code1day/platform-service/pkg/logger"
)

// BillingMetrics интерфейс для метрик биллинга
type BillingMetrics interface {
	IncWebhookEvent(eventType, outcome string)
	IncReconciliation(entryPoint string)
	IncCheckoutSession(plan string)
	ObserveReconcileDuration(seconds float64)
}

type billingMetrics struct {
	log               *logger.Logger
	webhookEvents     *prometheus.CounterVec
	reconciliations   *prometheus.CounterVec
	checkoutSessions  *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
}

// NewBillingMetrics создает новые метрики биллинга
func NewBillingMetrics(registry *prometheus.Registry, log *logger.Logger) BillingMetrics {
	webhookEvents := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_webhook_events_total",
			Help: "The total number of processed Stripe webhook events",
		},
		[]string{"event_type", "outcome"},
	)

	reconciliations := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_reconciliations_total",
			Help: "The total number of subscription reconciliations by entry point",
		},
		[]string{"entry_point"},
	)

	checkoutSessions := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_checkout_sessions_total",
			Help: "The total number of created checkout sessions",
		},
		[]string{"plan"},
	)

	reconcileDuration := promauto.With(registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "billing_reconcile_duration_seconds",
			Help:    "Subscription reconciliation duration",
			Buckets: prometheus.DefBuckets,
		},
	)

	return &billingMetrics{
		log:               log,
		webhookEvents:     webhookEvents,
		reconciliations:   reconciliations,
		checkoutSessions:  checkoutSessions,
		reconcileDuration: reconcileDuration,
	}
}

// IncWebhookEvent увеличивает счетчик обработанных вебхук-событий
func (m *billingMetrics) IncWebhookEvent(eventType, outcome string) {
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// IncReconciliation увеличивает счетчик сверок подписки
func (m *billingMetrics) IncReconciliation(entryPoint string) {
	m.reconciliations.WithLabelValues(entryPoint).Inc()
}

// IncCheckoutSession увеличивает счетчик созданных checkout-сессий
func (m *billingMetrics) IncCheckoutSession(plan string) {
	m.checkoutSessions.WithLabelValues(plan).Inc()
}

// ObserveReconcileDuration записывает длительность сверки
func (m *billingMetrics) ObserveReconcileDuration(seconds float64) {
	m.reconcileDuration.Observe(seconds)
}
