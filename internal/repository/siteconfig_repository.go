package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/pkg/logger"
)

// SiteConfigRepository хранилище конфигурации сайта (единственная строка id=1)
type SiteConfigRepository struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewSiteConfigRepository создает новый репозиторий конфигурации
func NewSiteConfigRepository(db *sqlx.DB, log *logger.Logger) *SiteConfigRepository {
	return &SiteConfigRepository{db: db, log: log}
}

// Get возвращает текущую конфигурацию сайта.
// Если строка отсутствует, возвращается конфигурация по умолчанию.
func (r *SiteConfigRepository) Get(ctx context.Context) (domain.SiteConfig, error) {
	var cfg domain.SiteConfig
	err := r.db.GetContext(ctx, &cfg, `
		SELECT id, site_title, registration_enabled, maintenance_mode,
			maintenance_message, challenge_languages, updated_at
		FROM site_config WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultSiteConfig(), nil
	}
	if err != nil {
		return domain.SiteConfig{}, fmt.Errorf("get site config: %w", err)
	}
	return cfg, nil
}

const upsertSiteConfigQuery = `
INSERT INTO site_config (
	id, site_title, registration_enabled, maintenance_mode,
	maintenance_message, challenge_languages, updated_at
) VALUES (1, $1, $2, $3, $4, $5, NOW())
ON CONFLICT (id) DO UPDATE SET
	site_title = EXCLUDED.site_title,
	registration_enabled = EXCLUDED.registration_enabled,
	maintenance_mode = EXCLUDED.maintenance_mode,
	maintenance_message = EXCLUDED.maintenance_message,
	challenge_languages = EXCLUDED.challenge_languages,
	updated_at = NOW()
RETURNING id, site_title, registration_enabled, maintenance_mode,
	maintenance_message, challenge_languages, updated_at`

// Save записывает конфигурацию целиком
func (r *SiteConfigRepository) Save(ctx context.Context, cfg domain.SiteConfig) (domain.SiteConfig, error) {
	var saved domain.SiteConfig
	err := r.db.QueryRowxContext(ctx, upsertSiteConfigQuery,
		cfg.SiteTitle, cfg.RegistrationEnabled, cfg.MaintenanceMode,
		cfg.MaintenanceMessage, cfg.ChallengeLanguages,
	).StructScan(&saved)
	if err != nil {
		return domain.SiteConfig{}, fmt.Errorf("save site config: %w", err)
	}
	return saved, nil
}
