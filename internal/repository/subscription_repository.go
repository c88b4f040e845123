package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/pkg/logger"
)

const upsertSubscriptionQuery = `
INSERT INTO subscriptions (
	user_id, stripe_customer_id, stripe_subscription_id, plan_id, status,
	billing_cycle, current_period_start, current_period_end,
	cancel_at_period_end, canceled_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (user_id) DO UPDATE SET
	stripe_customer_id = CASE WHEN EXCLUDED.stripe_customer_id <> '' THEN EXCLUDED.stripe_customer_id ELSE subscriptions.stripe_customer_id END,
	stripe_subscription_id = CASE WHEN EXCLUDED.stripe_subscription_id <> '' THEN EXCLUDED.stripe_subscription_id ELSE subscriptions.stripe_subscription_id END,
	plan_id = EXCLUDED.plan_id,
	status = EXCLUDED.status,
	billing_cycle = EXCLUDED.billing_cycle,
	current_period_start = EXCLUDED.current_period_start,
	current_period_end = EXCLUDED.current_period_end,
	cancel_at_period_end = EXCLUDED.cancel_at_period_end,
	canceled_at = EXCLUDED.canceled_at,
	updated_at = NOW()
RETURNING id, user_id, stripe_customer_id, stripe_subscription_id, plan_id, status,
	billing_cycle, current_period_start, current_period_end,
	cancel_at_period_end, canceled_at, created_at, updated_at`

const selectSubscriptionColumns = `
SELECT id, user_id, stripe_customer_id, stripe_subscription_id, plan_id, status,
	billing_cycle, current_period_start, current_period_end,
	cancel_at_period_end, canceled_at, created_at, updated_at
FROM subscriptions`

// SubscriptionRepository хранилище записей о подписках в PostgreSQL.
// Каждая операция записи выполняется одним запросом, поэтому сверка
// одновременно с нескольких входов (вебхук, ручная синхронизация)
// не требует внешних блокировок.
type SubscriptionRepository struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewSubscriptionRepository создает новый репозиторий подписок
func NewSubscriptionRepository(db *sqlx.DB, log *logger.Logger) *SubscriptionRepository {
	return &SubscriptionRepository{db: db, log: log}
}

// Upsert атомарно записывает нормализованные данные подписки.
// Если строка для user_id уже существует, она перезаписывается целиком:
// последняя запись выигрывает. Stripe-идентификаторы при этом не
// затираются пустыми значениями.
func (r *SubscriptionRepository) Upsert(ctx context.Context, rec domain.SubscriptionRecord) (domain.Subscription, error) {
	if rec.UserID == uuid.Nil {
		return domain.Subscription{}, ErrInvalidData
	}

	var sub domain.Subscription
	err := r.db.QueryRowxContext(ctx, upsertSubscriptionQuery,
		rec.UserID, rec.StripeCustomerID, rec.StripeSubscriptionID,
		rec.PlanID, rec.Status, rec.BillingCycle,
		rec.CurrentPeriodStart, rec.CurrentPeriodEnd,
		rec.CancelAtPeriodEnd, rec.CanceledAt,
	).StructScan(&sub)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("upsert subscription: %w", err)
	}

	return sub, nil
}

// GetByUserID возвращает подписку пользователя
func (r *SubscriptionRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (domain.Subscription, error) {
	var sub domain.Subscription
	err := r.db.GetContext(ctx, &sub, selectSubscriptionColumns+` WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Subscription{}, ErrNotFound
	}
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("get subscription by user: %w", err)
	}
	return sub, nil
}

// GetByStripeSubscriptionID возвращает подписку по идентификатору Stripe
func (r *SubscriptionRepository) GetByStripeSubscriptionID(ctx context.Context, stripeSubID string) (domain.Subscription, error) {
	if stripeSubID == "" {
		return domain.Subscription{}, ErrInvalidData
	}

	var sub domain.Subscription
	err := r.db.GetContext(ctx, &sub, selectSubscriptionColumns+` WHERE stripe_subscription_id = $1`, stripeSubID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Subscription{}, ErrNotFound
	}
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("get subscription by stripe id: %w", err)
	}
	return sub, nil
}

const markCanceledQuery = `
UPDATE subscriptions SET
	plan_id = $2,
	status = $3,
	cancel_at_period_end = TRUE,
	canceled_at = $4,
	updated_at = NOW()
WHERE stripe_subscription_id = $1
RETURNING id, user_id, stripe_customer_id, stripe_subscription_id, plan_id, status,
	billing_cycle, current_period_start, current_period_end,
	cancel_at_period_end, canceled_at, created_at, updated_at`

// MarkCanceledByStripeID переводит подписку в окончательно отмененное
// состояние после customer.subscription.deleted. Строка не удаляется.
func (r *SubscriptionRepository) MarkCanceledByStripeID(ctx context.Context, stripeSubID string, canceledAt time.Time) (domain.Subscription, error) {
	if stripeSubID == "" {
		return domain.Subscription{}, ErrInvalidData
	}

	var sub domain.Subscription
	err := r.db.QueryRowxContext(ctx, markCanceledQuery,
		stripeSubID, domain.PlanFree, domain.SubscriptionStatusCanceled, canceledAt,
	).StructScan(&sub)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Subscription{}, ErrNotFound
	}
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("mark subscription canceled: %w", err)
	}
	return sub, nil
}

const setCancelFlagQuery = `
UPDATE subscriptions SET
	status = $2,
	cancel_at_period_end = $3,
	updated_at = NOW()
WHERE user_id = $1
RETURNING id, user_id, stripe_customer_id, stripe_subscription_id, plan_id, status,
	billing_cycle, current_period_start, current_period_end,
	cancel_at_period_end, canceled_at, created_at, updated_at`

// SetCancelAtPeriodEnd отмечает подписку как отменяемую в конце периода
// (или снимает отметку при возобновлении)
func (r *SubscriptionRepository) SetCancelAtPeriodEnd(ctx context.Context, userID uuid.UUID, cancel bool) (domain.Subscription, error) {
	status := domain.SubscriptionStatusActive
	if cancel {
		status = domain.SubscriptionStatusCanceling
	}

	var sub domain.Subscription
	err := r.db.QueryRowxContext(ctx, setCancelFlagQuery, userID, status, cancel).StructScan(&sub)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Subscription{}, ErrNotFound
	}
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("set cancel flag: %w", err)
	}
	return sub, nil
}
