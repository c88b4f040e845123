package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/pkg/logger"
)

const upsertProfileMirrorQuery = `
INSERT INTO profiles (
	user_id, is_pro, plan_id, billing_cycle, subscription_status,
	stripe_customer_id, stripe_subscription_id
) VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id) DO UPDATE SET
	is_pro = EXCLUDED.is_pro,
	plan_id = EXCLUDED.plan_id,
	billing_cycle = EXCLUDED.billing_cycle,
	subscription_status = EXCLUDED.subscription_status,
	stripe_customer_id = CASE WHEN EXCLUDED.stripe_customer_id <> '' THEN EXCLUDED.stripe_customer_id ELSE profiles.stripe_customer_id END,
	stripe_subscription_id = EXCLUDED.stripe_subscription_id,
	updated_at = NOW()`

// ProfileRepository хранилище профилей пользователей.
// Поля подписки на профиле это кэш для быстрых проверок доступа,
// источником истины остается таблица subscriptions.
type ProfileRepository struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewProfileRepository создает новый репозиторий профилей
func NewProfileRepository(db *sqlx.DB, log *logger.Logger) *ProfileRepository {
	return &ProfileRepository{db: db, log: log}
}

// UpdateMirror записывает зеркало подписки на профиль пользователя
func (r *ProfileRepository) UpdateMirror(ctx context.Context, userID uuid.UUID, m domain.ProfileMirror) error {
	if userID == uuid.Nil {
		return ErrInvalidData
	}

	_, err := r.db.ExecContext(ctx, upsertProfileMirrorQuery,
		userID, m.IsPro, m.PlanID, m.BillingCycle, m.SubscriptionStatus,
		m.StripeCustomerID, m.StripeSubscriptionID,
	)
	if err != nil {
		return fmt.Errorf("update profile mirror: %w", err)
	}
	return nil
}

// GetByUserID возвращает профиль пользователя
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (domain.Profile, error) {
	var p domain.Profile
	err := r.db.GetContext(ctx, &p, `
		SELECT user_id, email, is_pro, plan_id, billing_cycle, subscription_status,
			stripe_customer_id, stripe_subscription_id, is_admin, updated_at
		FROM profiles WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, ErrNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}
