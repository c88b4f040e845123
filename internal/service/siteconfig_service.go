package service

import (
	"context"
	"fmt"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/pkg/logger"
)

// SiteConfigStore хранилище конфигурации сайта
type SiteConfigStore interface {
	Get(ctx context.Context) (domain.SiteConfig, error)
	Save(ctx context.Context, cfg domain.SiteConfig) (domain.SiteConfig, error)
}

// SiteConfigService чтение и частичное обновление конфигурации сайта
type SiteConfigService interface {
	Get(ctx context.Context) (domain.SiteConfig, error)
	Patch(ctx context.Context, patch domain.SiteConfigPatch) (domain.SiteConfig, error)
}

type siteConfigService struct {
	store    SiteConfigStore
	security SecurityService
	log      *logger.Logger
}

// NewSiteConfigService создает сервис конфигурации. security может быть nil.
func NewSiteConfigService(store SiteConfigStore, security SecurityService, log *logger.Logger) SiteConfigService {
	return &siteConfigService{store: store, security: security, log: log}
}

// Get возвращает текущую конфигурацию
func (s *siteConfigService) Get(ctx context.Context) (domain.SiteConfig, error) {
	return s.store.Get(ctx)
}

// Patch накладывает частичное обновление на текущую конфигурацию.
// Поля, отсутствующие в патче, не меняются.
func (s *siteConfigService) Patch(ctx context.Context, patch domain.SiteConfigPatch) (domain.SiteConfig, error) {
	cfg, err := s.store.Get(ctx)
	if err != nil {
		return domain.SiteConfig{}, err
	}

	patch.Apply(&cfg)
	saved, err := s.store.Save(ctx, cfg)
	if err != nil {
		return domain.SiteConfig{}, fmt.Errorf("patch site config: %w", err)
	}

	if s.security != nil {
		s.security.Record(ctx, domain.SecurityLog{
			EventType: domain.SecurityEventConfigChanged,
			Detail:    fmt.Sprintf("maintenance=%t registration=%t", saved.MaintenanceMode, saved.RegistrationEnabled),
		})
	}

	s.log.Infow("Site config updated", "maintenanceMode", saved.MaintenanceMode, "registrationEnabled", saved.RegistrationEnabled)
	return saved, nil
}
