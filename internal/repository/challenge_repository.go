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

const selectChallengeColumns = `
SELECT id, title, description, difficulty, language, starter_code,
	challenge_date, fallback, created_at
FROM challenges`

// ChallengeRepository хранилище ежедневных задач
type ChallengeRepository struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewChallengeRepository создает новый репозиторий задач
func NewChallengeRepository(db *sqlx.DB, log *logger.Logger) *ChallengeRepository {
	return &ChallengeRepository{db: db, log: log}
}

// Create сохраняет новую задачу. На одну дату существует не более одной
// задачи; конфликт по дате возвращает ErrDuplicate.
func (r *ChallengeRepository) Create(ctx context.Context, ch domain.Challenge) (domain.Challenge, error) {
	var saved domain.Challenge
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO challenges (title, description, difficulty, language, starter_code, challenge_date, fallback)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (challenge_date) DO NOTHING
		RETURNING id, title, description, difficulty, language, starter_code,
			challenge_date, fallback, created_at`,
		ch.Title, ch.Description, ch.Difficulty, ch.Language,
		ch.StarterCode, ch.ChallengeDate, ch.Fallback,
	).StructScan(&saved)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Challenge{}, ErrDuplicate
	}
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("create challenge: %w", err)
	}
	return saved, nil
}

// GetByDate возвращает задачу на указанную дату
func (r *ChallengeRepository) GetByDate(ctx context.Context, date time.Time) (domain.Challenge, error) {
	var ch domain.Challenge
	err := r.db.GetContext(ctx, &ch, selectChallengeColumns+` WHERE challenge_date = $1`, date.Format("2006-01-02"))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Challenge{}, ErrNotFound
	}
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("get challenge by date: %w", err)
	}
	return ch, nil
}

// GetByID возвращает задачу по идентификатору
func (r *ChallengeRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Challenge, error) {
	var ch domain.Challenge
	err := r.db.GetContext(ctx, &ch, selectChallengeColumns+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Challenge{}, ErrNotFound
	}
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("get challenge by id: %w", err)
	}
	return ch, nil
}

// List возвращает последние задачи, свежие первыми
func (r *ChallengeRepository) List(ctx context.Context, limit int) ([]domain.Challenge, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	challenges := []domain.Challenge{}
	err := r.db.SelectContext(ctx, &challenges, selectChallengeColumns+` ORDER BY challenge_date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	return challenges, nil
}
