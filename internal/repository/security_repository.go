package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/pkg/logger"
)

// SecurityRepository хранилище журнала безопасности и списка
// заблокированных IP адресов
type SecurityRepository struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewSecurityRepository создает новый репозиторий безопасности
func NewSecurityRepository(db *sqlx.DB, log *logger.Logger) *SecurityRepository {
	return &SecurityRepository{db: db, log: log}
}

// AppendLog добавляет запись в журнал безопасности
func (r *SecurityRepository) AppendLog(ctx context.Context, entry domain.SecurityLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO security_logs (event_type, ip, user_id, detail)
		VALUES ($1, $2, $3, $4)`,
		entry.EventType, entry.IP, entry.UserID, entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("append security log: %w", err)
	}
	return nil
}

// ListLogs возвращает страницу журнала безопасности, свежие записи первыми
func (r *SecurityRepository) ListLogs(ctx context.Context, filter domain.SecurityLogFilter) ([]domain.SecurityLog, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	query := `
		SELECT id, event_type, ip, user_id, detail, created_at
		FROM security_logs`
	args := []any{limit, offset}
	if filter.EventType != "" {
		query += ` WHERE event_type = $3`
		args = append(args, filter.EventType)
	}
	query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	logs := []domain.SecurityLog{}
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("list security logs: %w", err)
	}
	return logs, nil
}

// BlockIP добавляет IP в список заблокированных.
// Повторная блокировка того же адреса обновляет причину.
func (r *SecurityRepository) BlockIP(ctx context.Context, ip, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO blocked_ips (ip, reason) VALUES ($1, $2)
		ON CONFLICT (ip) DO UPDATE SET reason = EXCLUDED.reason`,
		ip, reason,
	)
	if err != nil {
		return fmt.Errorf("block ip: %w", err)
	}
	return nil
}

// UnblockIP убирает IP из списка заблокированных
func (r *SecurityRepository) UnblockIP(ctx context.Context, ip string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blocked_ips WHERE ip = $1`, ip)
	if err != nil {
		return fmt.Errorf("unblock ip: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBlockedIPs возвращает все заблокированные IP
func (r *SecurityRepository) ListBlockedIPs(ctx context.Context) ([]domain.BlockedIP, error) {
	ips := []domain.BlockedIP{}
	err := r.db.SelectContext(ctx, &ips, `
		SELECT ip, reason, created_at FROM blocked_ips ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list blocked ips: %w", err)
	}
	return ips, nil
}

// IsBlocked проверяет, заблокирован ли IP
func (r *SecurityRepository) IsBlocked(ctx context.Context, ip string) (bool, error) {
	var blocked bool
	err := r.db.GetContext(ctx, &blocked, `
		SELECT EXISTS (SELECT 1 FROM blocked_ips WHERE ip = $1)`, ip)
	if err != nil {
		return false, fmt.Errorf("check blocked ip: %w", err)
	}
	return blocked, nil
}
