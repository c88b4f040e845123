package stripe

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v78"

	"github.com/1code1day/platform-service/internal/domain"
)

func stripeSub(status stripe.SubscriptionStatus, cancelAtPeriodEnd bool, interval stripe.PriceRecurringInterval) *stripe.Subscription {
	return &stripe.Subscription{
		ID:                 "sub_123",
		Customer:           &stripe.Customer{ID: "cus_123"},
		Status:             status,
		CancelAtPeriodEnd:  cancelAtPeriodEnd,
		CurrentPeriodStart: time.Now().Unix(),
		CurrentPeriodEnd:   time.Now().Add(30 * 24 * time.Hour).Unix(),
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{
				{Price: &stripe.Price{Recurring: &stripe.PriceRecurring{Interval: interval}}},
			},
		},
		Metadata: map[string]string{},
	}
}

func TestToRecord_ActiveMonthly(t *testing.T) {
	userID := uuid.New()
	rec := ToRecord(userID, stripeSub(stripe.SubscriptionStatusActive, false, stripe.PriceRecurringIntervalMonth))

	assert.Equal(t, userID, rec.UserID)
	assert.Equal(t, "sub_123", rec.StripeSubscriptionID)
	assert.Equal(t, "cus_123", rec.StripeCustomerID)
	assert.Equal(t, domain.PlanPremium, rec.PlanID)
	assert.Equal(t, domain.SubscriptionStatusActive, rec.Status)
	assert.Equal(t, domain.BillingCycleMonthly, rec.BillingCycle)
}

func TestToRecord_AnnualInterval(t *testing.T) {
	rec := ToRecord(uuid.New(), stripeSub(stripe.SubscriptionStatusActive, false, stripe.PriceRecurringIntervalYear))
	assert.Equal(t, domain.BillingCycleAnnual, rec.BillingCycle)
}

func TestToRecord_CancelAtPeriodEndMeansCanceling(t *testing.T) {
	rec := ToRecord(uuid.New(), stripeSub(stripe.SubscriptionStatusActive, true, stripe.PriceRecurringIntervalMonth))

	assert.Equal(t, domain.SubscriptionStatusCanceling, rec.Status)
	assert.True(t, rec.CancelAtPeriodEnd)
	// до конца периода подписка остается платной
	assert.Equal(t, domain.PlanPremium, rec.PlanID)
}

func TestToRecord_CanceledDowngradesToFree(t *testing.T) {
	sub := stripeSub(stripe.SubscriptionStatusCanceled, false, stripe.PriceRecurringIntervalMonth)
	sub.CanceledAt = time.Now().Unix()

	rec := ToRecord(uuid.New(), sub)
	assert.Equal(t, domain.SubscriptionStatusCanceled, rec.Status)
	assert.Equal(t, domain.PlanFree, rec.PlanID)
	assert.NotNil(t, rec.CanceledAt)
}

func TestToRecord_NilSubscriptionDefaults(t *testing.T) {
	userID := uuid.New()
	rec := ToRecord(userID, nil)

	assert.Equal(t, userID, rec.UserID)
	assert.Equal(t, domain.PlanPremium, rec.PlanID)
	assert.Equal(t, domain.SubscriptionStatusActive, rec.Status)
	assert.Equal(t, domain.BillingCycleMonthly, rec.BillingCycle)
}

func TestUserIDOf(t *testing.T) {
	userID := uuid.New()
	sub := stripeSub(stripe.SubscriptionStatusActive, false, stripe.PriceRecurringIntervalMonth)
	sub.Metadata[metadataUserIDKey] = userID.String()

	assert.Equal(t, userID, UserIDOf(sub))
	assert.Equal(t, uuid.Nil, UserIDOf(nil))

	sub.Metadata[metadataUserIDKey] = "not-a-uuid"
	assert.Equal(t, uuid.Nil, UserIDOf(sub))
}
