// Package repository persists the per-chat dialogue state in Redis so the
// conversation cursor survives process restarts. Keys are the decimal chat
// id, values the state label.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/DenisKhanov/FishShopBot/internal/shop_bot/models"
)

// SessionRepository stores one DialogueState per chat identity.
type SessionRepository struct {
	rdb *redis.Client
}

// NewSessionRepository creates a SessionRepository over a Redis connection.
// Arguments:
//   - host: Redis host.
//   - port: Redis port.
//   - password: Redis password, empty if none.
//
// Returns a pointer to a SessionRepository.
func NewSessionRepository(host string, port int, password string) *SessionRepository {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
	})
	return &SessionRepository{rdb: rdb}
}

// Ping verifies the Redis connection at startup.
func (r *SessionRepository) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// GetState returns the last committed state for a chat, or StateStart when
// none is recorded.
// Arguments:
//   - ctx: request context.
//   - chatID: Telegram chat id.
func (r *SessionRepository) GetState(ctx context.Context, chatID int64) (models.DialogueState, error) {
	value, err := r.rdb.Get(ctx, sessionKey(chatID)).Result()
	if errors.Is(err, redis.Nil) {
		return models.StateStart, nil
	}
	if err != nil {
		logrus.WithError(err).Errorf("Failed to load state for chat %d", chatID)
		return models.StateStart, fmt.Errorf("get state: %w", err)
	}
	return models.DialogueState(value), nil
}

// SetState durably overwrites the state for a chat. It must stay callable
// after a failed transition handler so the engine can force recovery to
// StateStart.
// Arguments:
//   - ctx: request context.
//   - chatID: Telegram chat id.
//   - state: the state to commit.
func (r *SessionRepository) SetState(ctx context.Context, chatID int64, state models.DialogueState) error {
	if err := r.rdb.Set(ctx, sessionKey(chatID), string(state), 0).Err(); err != nil {
		logrus.WithError(err).Errorf("Failed to store state for chat %d", chatID)
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}

// sessionKey keeps the key layout of the original deployment: the bare
// decimal chat id.
func sessionKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
