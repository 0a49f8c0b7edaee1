package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RefreshTokenRepository stores opaque refresh tokens.
type RefreshTokenRepository interface {
	Store(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	Get(ctx context.Context, token string) (*RefreshToken, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

// RedisRefreshTokenRepository keeps refresh tokens in Redis, keyed by token
// hash with a TTL matching the token lifetime. Revocation deletes the key, so
// a revoked or expired token is simply absent.
type RedisRefreshTokenRepository struct {
	client *redis.Client
}

func NewRedisRefreshTokenRepository(client *redis.Client) *RedisRefreshTokenRepository {
	return &RedisRefreshTokenRepository{client: client}
}

func refreshTokenKey(tokenHash string) string {
	return fmt.Sprintf("refresh_token:%s", tokenHash)
}

func userTokensKey(userID uuid.UUID) string {
	return fmt.Sprintf("user_tokens:%s", userID.String())
}

// Store persists the token hash with the user id and expiry, and tracks it in
// the user's token set so RevokeAllForUser can find it.
func (r *RedisRefreshTokenRepository) Store(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("token expiration time is in the past")
	}

	tokenHash := hashToken(token)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, refreshTokenKey(tokenHash), map[string]interface{}{
		"user_id":    userID.String(),
		"expires_at": expiresAt.Unix(),
		"created_at": time.Now().Unix(),
	})
	pipe.Expire(ctx, refreshTokenKey(tokenHash), ttl)
	pipe.SAdd(ctx, userTokensKey(userID), tokenHash)
	pipe.Expire(ctx, userTokensKey(userID), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// Get looks up a refresh token. A missing key means the token never existed,
// expired, or was revoked; all three read as not found.
func (r *RedisRefreshTokenRepository) Get(ctx context.Context, token string) (*RefreshToken, error) {
	tokenHash := hashToken(token)

	data, err := r.client.HGetAll(ctx, refreshTokenKey(tokenHash)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrRefreshTokenNotFound
	}

	userID, err := uuid.Parse(data["user_id"])
	if err != nil {
		return nil, ErrInvalidToken
	}

	expiresAtUnix, err := strconv.ParseInt(data["expires_at"], 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	expiresAt := time.Unix(expiresAtUnix, 0)
	if time.Now().After(expiresAt) {
		return nil, ErrRefreshTokenExpired
	}

	createdAtUnix, _ := strconv.ParseInt(data["created_at"], 10, 64)

	return &RefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Unix(createdAtUnix, 0),
	}, nil
}

// Revoke deletes the token.
func (r *RedisRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	tokenHash := hashToken(token)

	deleted, err := r.client.Del(ctx, refreshTokenKey(tokenHash)).Result()
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if deleted == 0 {
		return ErrRefreshTokenNotFound
	}
	return nil
}

// RevokeAllForUser deletes every refresh token the user holds.
func (r *RedisRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	tokenHashes, err := r.client.SMembers(ctx, userTokensKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to get user tokens: %w", err)
	}
	if len(tokenHashes) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for _, tokenHash := range tokenHashes {
		pipe.Del(ctx, refreshTokenKey(tokenHash))
	}
	pipe.Del(ctx, userTokensKey(userID))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke all user tokens: %w", err)
	}
	return nil
}
