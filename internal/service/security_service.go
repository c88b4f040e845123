package service

import (
	"context"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/pkg/logger"
)

// SecurityStore хранилище журнала безопасности и блокировок IP
type SecurityStore interface {
	AppendLog(ctx context.Context, entry domain.SecurityLog) error
	ListLogs(ctx context.Context, filter domain.SecurityLogFilter) ([]domain.SecurityLog, error)
	BlockIP(ctx context.Context, ip, reason string) error
	UnblockIP(ctx context.Context, ip string) error
	ListBlockedIPs(ctx context.Context) ([]domain.BlockedIP, error)
	IsBlocked(ctx context.Context, ip string) (bool, error)
}

// SecurityService журнал безопасности и блокировки IP
type SecurityService interface {
	// Record добавляет запись в журнал; сбой записи только логируется
	Record(ctx context.Context, entry domain.SecurityLog)

	// ListLogs возвращает страницу журнала
	ListLogs(ctx context.Context, filter domain.SecurityLogFilter) ([]domain.SecurityLog, error)

	// BlockIP блокирует IP и фиксирует событие в журнале
	BlockIP(ctx context.Context, req domain.BlockIPRequest) error

	// UnblockIP снимает блокировку
	UnblockIP(ctx context.Context, ip string) error

	// ListBlockedIPs возвращает все заблокированные IP
	ListBlockedIPs(ctx context.Context) ([]domain.BlockedIP, error)

	// IsBlocked проверяет блокировку IP. Ошибка хранилища трактуется
	// как отсутствие блокировки, чтобы сбой БД не закрывал сервис.
	IsBlocked(ctx context.Context, ip string) bool
}

type securityService struct {
	store SecurityStore
	log   *logger.Logger
}

// NewSecurityService создает сервис безопасности
func NewSecurityService(store SecurityStore, log *logger.Logger) SecurityService {
	return &securityService{store: store, log: log}
}

// Record пишет событие в журнал безопасности (best-effort)
func (s *securityService) Record(ctx context.Context, entry domain.SecurityLog) {
	if err := s.store.AppendLog(ctx, entry); err != nil {
		s.log.Errorw("Failed to append security log", "eventType", entry.EventType, "error", err)
	}
}

// ListLogs возвращает страницу журнала безопасности
func (s *securityService) ListLogs(ctx context.Context, filter domain.SecurityLogFilter) ([]domain.SecurityLog, error) {
	return s.store.ListLogs(ctx, filter)
}

// BlockIP блокирует IP адрес
func (s *securityService) BlockIP(ctx context.Context, req domain.BlockIPRequest) error {
	if err := s.store.BlockIP(ctx, req.IP, req.Reason); err != nil {
		return err
	}
	s.Record(ctx, domain.SecurityLog{
		EventType: domain.SecurityEventIPBlocked,
		IP:        req.IP,
		Detail:    req.Reason,
	})
	return nil
}

// UnblockIP снимает блокировку IP адреса
func (s *securityService) UnblockIP(ctx context.Context, ip string) error {
	if err := s.store.UnblockIP(ctx, ip); err != nil {
		return err
	}
	s.Record(ctx, domain.SecurityLog{
		EventType: domain.SecurityEventIPUnblocked,
		IP:        ip,
	})
	return nil
}

// ListBlockedIPs возвращает заблокированные IP
func (s *securityService) ListBlockedIPs(ctx context.Context) ([]domain.BlockedIP, error) {
	return s.store.ListBlockedIPs(ctx)
}

// IsBlocked проверяет блокировку IP
func (s *securityService) IsBlocked(ctx context.Context, ip string) bool {
	blocked, err := s.store.IsBlocked(ctx, ip)
	if err != nil {
		s.log.Warnw("Failed to check blocked ip, allowing request", "ip", ip, "error", err)
		return false
	}
	return blocked
}
