package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/pkg/logger"
)

// ChallengeStore хранилище ежедневных задач
type ChallengeStore interface {
	Create(ctx context.Context, ch domain.Challenge) (domain.Challenge, error)
	GetByDate(ctx context.Context, date time.Time) (domain.Challenge, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Challenge, error)
	List(ctx context.Context, limit int) ([]domain.Challenge, error)
}

// ChallengeGenerator генерирует контент задачи
type ChallengeGenerator interface {
	Generate(ctx context.Context, req domain.GenerateChallengeRequest) domain.Challenge
}

// ChallengeService операции над ежедневными задачами
type ChallengeService interface {
	// GenerateAndSave генерирует задачу и сохраняет ее на дату.
	// Нулевая date означает сегодня (UTC).
	GenerateAndSave(ctx context.Context, req domain.GenerateChallengeRequest, date time.Time) (domain.Challenge, error)

	// GetToday возвращает задачу на сегодня
	GetToday(ctx context.Context) (domain.Challenge, error)

	// List возвращает последние задачи
	List(ctx context.Context, limit int) ([]domain.Challenge, error)
}

type challengeService struct {
	store     ChallengeStore
	generator ChallengeGenerator
	security  SecurityService
	log       *logger.Logger
}

// NewChallengeService создает сервис задач. security может быть nil.
func NewChallengeService(store ChallengeStore, generator ChallengeGenerator, security SecurityService, log *logger.Logger) ChallengeService {
	return &challengeService{store: store, generator: generator, security: security, log: log}
}

// GenerateAndSave генерирует контент задачи и сохраняет его.
// Сбой провайдера не ошибка: сохраняется детерминированная заглушка.
func (s *challengeService) GenerateAndSave(ctx context.Context, req domain.GenerateChallengeRequest, date time.Time) (domain.Challenge, error) {
	if date.IsZero() {
		date = time.Now().UTC()
	}
	date = date.Truncate(24 * time.Hour)

	ch := s.generator.Generate(ctx, req)
	ch.ChallengeDate = date

	saved, err := s.store.Create(ctx, ch)
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("save challenge: %w", err)
	}

	if s.security != nil {
		s.security.Record(ctx, domain.SecurityLog{
			EventType: domain.SecurityEventChallengeCreated,
			Detail:    fmt.Sprintf("challenge %s for %s (fallback=%t)", saved.ID, date.Format("2006-01-02"), saved.Fallback),
		})
	}

	s.log.Infow("Challenge created", "challengeID", saved.ID, "date", date.Format("2006-01-02"), "fallback", saved.Fallback)
	return saved, nil
}

// GetToday возвращает задачу на сегодняшнюю дату (UTC)
func (s *challengeService) GetToday(ctx context.Context) (domain.Challenge, error) {
	return s.store.GetByDate(ctx, time.Now().UTC())
}

// List возвращает последние задачи
func (s *challengeService) List(ctx context.Context, limit int) ([]domain.Challenge, error) {
	return s.store.List(ctx, limit)
}
