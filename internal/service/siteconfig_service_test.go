package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/pkg/logger"
)

type fakeSiteConfigStore struct {
	cfg domain.SiteConfig
}

func (f *fakeSiteConfigStore) Get(_ context.Context) (domain.SiteConfig, error) {
	return f.cfg, nil
}

func (f *fakeSiteConfigStore) Save(_ context.Context, cfg domain.SiteConfig) (domain.SiteConfig, error) {
	f.cfg = cfg
	return cfg, nil
}

func TestSiteConfigPatch_OnlyProvidedFieldsChange(t *testing.T) {
	store := &fakeSiteConfigStore{cfg: domain.DefaultSiteConfig()}
	sec := &recordingSecurity{}
	svc := NewSiteConfigService(store, sec, logger.New(logger.ERROR))

	on := true
	msg := "scheduled maintenance"
	saved, err := svc.Patch(context.Background(), domain.SiteConfigPatch{
		MaintenanceMode:    &on,
		MaintenanceMessage: &msg,
	})
	require.NoError(t, err)

	assert.True(t, saved.MaintenanceMode)
	assert.Equal(t, msg, saved.MaintenanceMessage)
	// нетронутые поля сохранили значения по умолчанию
	assert.Equal(t, "1code1day", saved.SiteTitle)
	assert.True(t, saved.RegistrationEnabled)

	require.Len(t, sec.events, 1)
	assert.Equal(t, domain.SecurityEventConfigChanged, sec.events[0].EventType)
}
