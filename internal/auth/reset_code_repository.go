package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResetCodeRepository stores password reset codes.
type ResetCodeRepository interface {
	Store(ctx context.Context, phone, code string, ttl time.Duration) error
	Verify(ctx context.Context, phone, code string) error
	Delete(ctx context.Context, phone string) error
}

// RedisResetCodeRepository keeps 6-digit reset codes in Redis, keyed by the
// phone number they were sent to. The TTL is the code's expiry; a code is
// deleted on first successful verification.
type RedisResetCodeRepository struct {
	client *redis.Client
}

func NewRedisResetCodeRepository(client *redis.Client) *RedisResetCodeRepository {
	return &RedisResetCodeRepository{client: client}
}

func resetCodeKey(phone string) string {
	return fmt.Sprintf("reset_code:%s", phone)
}

// Store saves the code under the phone number, replacing any previous one.
func (r *RedisResetCodeRepository) Store(ctx context.Context, phone, code string, ttl time.Duration) error {
	if err := r.client.Set(ctx, resetCodeKey(phone), code, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}
	return nil
}

// Verify compares the supplied code against the stored one.
func (r *RedisResetCodeRepository) Verify(ctx context.Context, phone, code string) error {
	stored, err := r.client.Get(ctx, resetCodeKey(phone)).Result()
	if err == redis.Nil {
		return ErrResetCodeNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get reset code: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return ErrResetCodeMismatch
	}
	return nil
}

// Delete consumes the code.
func (r *RedisResetCodeRepository) Delete(ctx context.Context, phone string) error {
	if err := r.client.Del(ctx, resetCodeKey(phone)).Err(); err != nil {
		return fmt.Errorf("failed to delete reset code: %w", err)
	}
	return nil
}
