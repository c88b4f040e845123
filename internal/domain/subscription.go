package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus статус подписки, зеркалируемый из Stripe
type SubscriptionStatus string

const (
	SubscriptionStatusTrialing   SubscriptionStatus = "trialing"
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusCanceling  SubscriptionStatus = "canceling"
	SubscriptionStatusCanceled   SubscriptionStatus = "canceled"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
	SubscriptionStatusUnpaid     SubscriptionStatus = "unpaid"
)

// BillingCycle цикл оплаты подписки
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleAnnual  BillingCycle = "annual"
)

// Идентификаторы планов
const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// Subscription представляет собой локальную запись о подписке пользователя.
// На одного пользователя существует не более одной строки (user_id уникален);
// запись никогда не удаляется физически, при удалении подписки на стороне
// Stripe она переводится в status=canceled, plan=free.
type Subscription struct {
	ID                   uuid.UUID          `db:"id" json:"id"`
	UserID               uuid.UUID          `db:"user_id" json:"user_id"`
	StripeCustomerID     string             `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID string             `db:"stripe_subscription_id" json:"stripe_subscription_id,omitempty"`
	PlanID               string             `db:"plan_id" json:"plan_id"`
	Status               SubscriptionStatus `db:"status" json:"status"`
	BillingCycle         BillingCycle       `db:"billing_cycle" json:"billing_cycle"`
	CurrentPeriodStart   time.Time          `db:"current_period_start" json:"current_period_start"`
	CurrentPeriodEnd     time.Time          `db:"current_period_end" json:"current_period_end"`
	CancelAtPeriodEnd    bool               `db:"cancel_at_period_end" json:"cancel_at_period_end"`
	CanceledAt           *time.Time         `db:"canceled_at" json:"canceled_at,omitempty"`
	CreatedAt            time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time          `db:"updated_at" json:"updated_at"`
}

// SubscriptionRecord нормализованные данные подписки для сверки.
// Единый вход для всех путей (вебхук, ручная синхронизация, проверка
// сессии), независимо от того, из какого источника они собраны.
type SubscriptionRecord struct {
	UserID               uuid.UUID
	StripeCustomerID     string
	StripeSubscriptionID string
	PlanID               string
	Status               SubscriptionStatus
	BillingCycle         BillingCycle
	CurrentPeriodStart   time.Time
	CurrentPeriodEnd     time.Time
	CancelAtPeriodEnd    bool
	CanceledAt           *time.Time
}

// Normalize подставляет значения по умолчанию для незаполненных полей
func (r *SubscriptionRecord) Normalize() {
	if r.PlanID == "" {
		r.PlanID = PlanPremium
	}
	if r.BillingCycle == "" {
		r.BillingCycle = BillingCycleMonthly
	}
	if r.Status == "" {
		r.Status = SubscriptionStatusActive
	}
}

// IsPro сообщает, дает ли подписка платный доступ
func (s *Subscription) IsPro() bool {
	if s.PlanID == PlanFree {
		return false
	}
	switch s.Status {
	case SubscriptionStatusActive, SubscriptionStatusTrialing, SubscriptionStatusCanceling:
		return true
	default:
		return false
	}
}

// CancelRequest запрос на отмену подписки
type CancelRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

// SyncRequest запрос на ручную синхронизацию подписки
type SyncRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

// CheckoutRequest запрос на создание checkout-сессии
type CheckoutRequest struct {
	UserID       string `json:"userId" validate:"required,uuid"`
	Email        string `json:"email" validate:"required,email"`
	Plan         string `json:"plan" validate:"required"`
	BillingCycle string `json:"billingCycle" validate:"required,oneof=monthly annual"`
}
