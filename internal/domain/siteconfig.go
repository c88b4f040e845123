package domain

import "time"

// SiteConfig конфигурация сайта, хранящаяся одной строкой (id=1).
// При отсутствии строки или таблицы используется DefaultSiteConfig.
type SiteConfig struct {
	ID                  int       `db:"id" json:"-"`
	SiteTitle           string    `db:"site_title" json:"site_title"`
	RegistrationEnabled bool      `db:"registration_enabled" json:"registration_enabled"`
	MaintenanceMode     bool      `db:"maintenance_mode" json:"maintenance_mode"`
	MaintenanceMessage  string    `db:"maintenance_message" json:"maintenance_message"`
	ChallengeLanguages  string    `db:"challenge_languages" json:"challenge_languages"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultSiteConfig возвращает конфигурацию по умолчанию
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		ID:                  1,
		SiteTitle:           "1code1day",
		RegistrationEnabled: true,
		MaintenanceMode:     false,
		MaintenanceMessage:  "",
		ChallengeLanguages:  "go,python,typescript",
	}
}

// SiteConfigPatch частичное обновление конфигурации; nil-поля не трогаются
type SiteConfigPatch struct {
	SiteTitle           *string `json:"site_title"`
	RegistrationEnabled *bool   `json:"registration_enabled"`
	MaintenanceMode     *bool   `json:"maintenance_mode"`
	MaintenanceMessage  *string `json:"maintenance_message"`
	ChallengeLanguages  *string `json:"challenge_languages"`
}

// Apply накладывает патч на конфигурацию
func (p *SiteConfigPatch) Apply(cfg *SiteConfig) {
	if p.SiteTitle != nil {
		cfg.SiteTitle = *p.SiteTitle
	}
	if p.RegistrationEnabled != nil {
		cfg.RegistrationEnabled = *p.RegistrationEnabled
	}
	if p.MaintenanceMode != nil {
		cfg.MaintenanceMode = *p.MaintenanceMode
	}
	if p.MaintenanceMessage != nil {
		cfg.MaintenanceMessage = *p.MaintenanceMessage
	}
	if p.ChallengeLanguages != nil {
		cfg.ChallengeLanguages = *p.ChallengeLanguages
	}
}
