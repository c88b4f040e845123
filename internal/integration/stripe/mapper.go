package stripe

import (
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v78"

	"github.com/1code1day/platform-service/internal/domain"
)

// UserIDOf извлекает userID из метаданных подписки Stripe.
// Возвращает uuid.Nil, если метаданные отсутствуют или не парсятся.
func UserIDOf(sub *stripe.Subscription) uuid.UUID {
	if sub == nil || sub.Metadata == nil {
		return uuid.Nil
	}
	id, err := uuid.Parse(sub.Metadata[metadataUserIDKey])
	if err != nil {
		return uuid.Nil
	}
	return id
}

// ToRecord нормализует подписку Stripe в запись для сверки.
// userID передается отдельно: вебхук может взять его из метаданных,
// а проверка checkout-сессии из client_reference_id.
func ToRecord(userID uuid.UUID, sub *stripe.Subscription) domain.SubscriptionRecord {
	rec := domain.SubscriptionRecord{
		UserID: userID,
		PlanID: domain.PlanPremium,
	}
	if sub == nil {
		rec.Normalize()
		return rec
	}

	rec.StripeSubscriptionID = sub.ID
	if sub.Customer != nil {
		rec.StripeCustomerID = sub.Customer.ID
	}
	rec.Status = mapStatus(sub.Status, sub.CancelAtPeriodEnd)
	rec.BillingCycle = mapBillingCycle(sub)
	rec.CurrentPeriodStart = time.Unix(sub.CurrentPeriodStart, 0).UTC()
	rec.CurrentPeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	rec.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	if sub.CanceledAt > 0 {
		t := time.Unix(sub.CanceledAt, 0).UTC()
		rec.CanceledAt = &t
	}
	if rec.Status == domain.SubscriptionStatusCanceled {
		rec.PlanID = domain.PlanFree
	}

	rec.Normalize()
	return rec
}

// mapStatus переводит статус Stripe в локальный. Активная подписка,
// помеченная к отмене в конце периода, считается canceling.
func mapStatus(s stripe.SubscriptionStatus, cancelAtPeriodEnd bool) domain.SubscriptionStatus {
	if cancelAtPeriodEnd && (s == stripe.SubscriptionStatusActive || s == stripe.SubscriptionStatusTrialing) {
		return domain.SubscriptionStatusCanceling
	}

	switch s {
	case stripe.SubscriptionStatusActive:
		return domain.SubscriptionStatusActive
	case stripe.SubscriptionStatusTrialing:
		return domain.SubscriptionStatusTrialing
	case stripe.SubscriptionStatusCanceled:
		return domain.SubscriptionStatusCanceled
	case stripe.SubscriptionStatusPastDue:
		return domain.SubscriptionStatusPastDue
	case stripe.SubscriptionStatusUnpaid:
		return domain.SubscriptionStatusUnpaid
	case stripe.SubscriptionStatusIncomplete, stripe.SubscriptionStatusIncompleteExpired:
		return domain.SubscriptionStatusIncomplete
	default:
		return domain.SubscriptionStatusActive
	}
}

// mapBillingCycle определяет цикл оплаты по интервалу цены подписки
func mapBillingCycle(sub *stripe.Subscription) domain.BillingCycle {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return domain.BillingCycleMonthly
	}
	price := sub.Items.Data[0].Price
	if price == nil || price.Recurring == nil {
		return domain.BillingCycleMonthly
	}
	if price.Recurring.Interval == stripe.PriceRecurringIntervalYear {
		return domain.BillingCycleAnnual
	}
	return domain.BillingCycleMonthly
}
