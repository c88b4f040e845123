package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/pkg/logger"
)

const profileCacheTTL = 5 * time.Minute

// ProfileCache кэш зеркал подписки в Redis. Нужен для быстрых проверок
// доступа без обращения к PostgreSQL; промах кэша не является ошибкой.
type ProfileCache struct {
	client *redis.Client
	log    *logger.Logger
}

// NewProfileCache создает новый кэш профилей
func NewProfileCache(client *redis.Client, log *logger.Logger) *ProfileCache {
	return &ProfileCache{client: client, log: log}
}

func profileKey(userID uuid.UUID) string {
	return "profile:mirror:" + userID.String()
}

// Set записывает зеркало профиля в кэш
func (c *ProfileCache) Set(ctx context.Context, userID uuid.UUID, m domain.ProfileMirror) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal profile mirror: %w", err)
	}
	if err := c.client.Set(ctx, profileKey(userID), data, profileCacheTTL).Err(); err != nil {
		return fmt.Errorf("cache profile mirror: %w", err)
	}
	return nil
}

// Get возвращает зеркало профиля из кэша, при промахе возвращает ErrNotFound
func (c *ProfileCache) Get(ctx context.Context, userID uuid.UUID) (domain.ProfileMirror, error) {
	data, err := c.client.Get(ctx, profileKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ProfileMirror{}, ErrNotFound
	}
	if err != nil {
		return domain.ProfileMirror{}, fmt.Errorf("get cached profile mirror: %w", err)
	}

	var m domain.ProfileMirror
	if err := json.Unmarshal(data, &m); err != nil {
		return domain.ProfileMirror{}, fmt.Errorf("unmarshal profile mirror: %w", err)
	}
	return m, nil
}

// Invalidate удаляет зеркало профиля из кэша
func (c *ProfileCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, profileKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate profile mirror: %w", err)
	}
	return nil
}
