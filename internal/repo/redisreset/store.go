package redisreset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/service"
)

const keyPrefix = "pwreset:"

// Store keeps password reset records in Redis. Each key expires together
// with its record, so there is nothing left for DeleteExpired to sweep.
type Store struct {
	client redis.UniversalClient
	now    func() time.Time
}

var _ service.PasswordResetStore = (*Store)(nil)

func New(client redis.UniversalClient) *Store {
	return &Store{client: client, now: time.Now}
}

// NewClient connects to Redis and pings it with a short timeout.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func key(token uuid.UUID) string { return keyPrefix + token.String() }

func (s *Store) Create(ctx context.Context, rec *models.PasswordReset) error {
	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal password reset: %w", err)
	}
	if err := s.client.Set(ctx, key(rec.Token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("persist password reset: %w", err)
	}
	return nil
}

func (s *Store) FindByToken(ctx context.Context, token uuid.UUID) (*models.PasswordReset, error) {
	raw, err := s.client.Get(ctx, key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load password reset: %w", err)
	}

	var rec models.PasswordReset
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode password reset: %w", err)
	}
	return &rec, nil
}

// Consume relies on DEL reporting how many keys it removed, so concurrent
// callers see exactly one success.
func (s *Store) Consume(ctx context.Context, token uuid.UUID) error {
	n, err := s.client.Del(ctx, key(token)).Result()
	if err != nil {
		return fmt.Errorf("delete password reset: %w", err)
	}
	if n != 1 {
		return service.ErrInvalidToken
	}
	return nil
}

func (s *Store) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
