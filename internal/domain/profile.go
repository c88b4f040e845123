package domain

import (
	"time"

	"github.com/google/uuid"
)

// Profile зеркало выбранных полей подписки на профиле пользователя.
// Используется для быстрых проверок доступа; источником истины всегда
// остается запись Subscription, зеркало может кратковременно отставать.
type Profile struct {
	UserID               uuid.UUID          `db:"user_id" json:"user_id"`
	Email                string             `db:"email" json:"email"`
	IsPro                bool               `db:"is_pro" json:"is_pro"`
	PlanID               string             `db:"plan_id" json:"plan_id"`
	BillingCycle         BillingCycle       `db:"billing_cycle" json:"billing_cycle"`
	SubscriptionStatus   SubscriptionStatus `db:"subscription_status" json:"subscription_status"`
	StripeCustomerID     string             `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID string             `db:"stripe_subscription_id" json:"stripe_subscription_id,omitempty"`
	IsAdmin              bool               `db:"is_admin" json:"is_admin"`
	UpdatedAt            time.Time          `db:"updated_at" json:"updated_at"`
}

// ProfileMirror значения, мирроримые на профиль после сверки подписки
type ProfileMirror struct {
	IsPro                bool
	PlanID               string
	BillingCycle         BillingCycle
	SubscriptionStatus   SubscriptionStatus
	StripeCustomerID     string
	StripeSubscriptionID string
}

// MirrorOf строит зеркало профиля из записи подписки
func MirrorOf(sub *Subscription) ProfileMirror {
	return ProfileMirror{
		IsPro:                sub.IsPro(),
		PlanID:               sub.PlanID,
		BillingCycle:         sub.BillingCycle,
		SubscriptionStatus:   sub.Status,
		StripeCustomerID:     sub.StripeCustomerID,
		StripeSubscriptionID: sub.StripeSubscriptionID,
	}
}
