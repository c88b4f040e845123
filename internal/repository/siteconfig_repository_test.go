package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/pkg/logger"
)

var siteConfigColumns = []string{
	"id", "site_title", "registration_enabled", "maintenance_mode",
	"maintenance_message", "challenge_languages", "updated_at",
}

func newTestSiteConfigRepo(t *testing.T) (*SiteConfigRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "sqlmock")
	return NewSiteConfigRepository(db, logger.New(logger.ERROR)), mock
}

func TestSiteConfigRepository_Get(t *testing.T) {
	repo, mock := newTestSiteConfigRepo(t)

	mock.ExpectQuery("FROM site_config").
		WillReturnRows(sqlmock.NewRows(siteConfigColumns).
			AddRow(1, "1code1day", true, false, "", "go,python", time.Now()))

	cfg, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1code1day", cfg.SiteTitle)
	assert.True(t, cfg.RegistrationEnabled)
}

func TestSiteConfigRepository_Get_MissingRowFallsBackToDefault(t *testing.T) {
	repo, mock := newTestSiteConfigRepo(t)

	mock.ExpectQuery("FROM site_config").
		WillReturnRows(sqlmock.NewRows(siteConfigColumns))

	cfg, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSiteConfig().SiteTitle, cfg.SiteTitle)
	assert.True(t, cfg.RegistrationEnabled)
	assert.False(t, cfg.MaintenanceMode)
}

func TestSiteConfigRepository_Save(t *testing.T) {
	repo, mock := newTestSiteConfigRepo(t)

	cfg := domain.DefaultSiteConfig()
	cfg.MaintenanceMode = true
	cfg.MaintenanceMessage = "back soon"

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO site_config")).
		WithArgs(cfg.SiteTitle, cfg.RegistrationEnabled, true, "back soon", cfg.ChallengeLanguages).
		WillReturnRows(sqlmock.NewRows(siteConfigColumns).
			AddRow(1, cfg.SiteTitle, cfg.RegistrationEnabled, true, "back soon", cfg.ChallengeLanguages, time.Now()))

	saved, err := repo.Save(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, saved.MaintenanceMode)
	assert.Equal(t, "back soon", saved.MaintenanceMessage)
	assert.NoError(t, mock.ExpectationsWereMet())
}
