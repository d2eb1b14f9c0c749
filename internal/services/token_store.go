package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/example/bozor/internal/models"
)

// RefreshTokenStore tracks refresh tokens that are still allowed to mint
// access tokens. A token absent from the store is rejected even if its
// signature is valid.
type RefreshTokenStore interface {
	Save(ctx context.Context, token string, userID uint, ttl time.Duration) error
	Exists(ctx context.Context, token string) (bool, error)
	Revoke(ctx context.Context, token string) error
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// GormTokenStore keeps token digests in the refresh_tokens table.
type GormTokenStore struct {
	db *gorm.DB
}

func NewGormTokenStore(db *gorm.DB) *GormTokenStore {
	return &GormTokenStore{db: db}
}

func (s *GormTokenStore) Save(ctx context.Context, token string, userID uint, ttl time.Duration) error {
	record := models.RefreshToken{
		TokenHash: hashToken(token),
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return internal("save refresh token", err)
	}
	return nil
}

func (s *GormTokenStore) Exists(ctx context.Context, token string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ? AND expires_at > ?", hashToken(token), time.Now()).
		Count(&count).Error
	if err != nil {
		return false, internal("lookup refresh token", err)
	}
	return count > 0, nil
}

func (s *GormTokenStore) Revoke(ctx context.Context, token string) error {
	err := s.db.WithContext(ctx).Where("token_hash = ?", hashToken(token)).Delete(&models.RefreshToken{}).Error
	if err != nil {
		return internal("revoke refresh token", err)
	}
	return nil
}

// PurgeExpired removes rows whose expiry has passed and returns how many were deleted.
func (s *GormTokenStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", time.Now()).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return 0, internal("purge refresh tokens", res.Error)
	}
	return res.RowsAffected, nil
}

// RedisTokenStore keeps token digests as expiring Redis keys.
type RedisTokenStore struct {
	client *redis.Client
	prefix string
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client, prefix: "refresh:"}
}

func (s *RedisTokenStore) key(token string) string {
	return s.prefix + hashToken(token)
}

func (s *RedisTokenStore) Save(ctx context.Context, token string, userID uint, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(token), strconv.FormatUint(uint64(userID), 10), ttl).Err(); err != nil {
		return fmt.Errorf("redis save refresh token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Exists(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("redis lookup refresh token: %w", err)
	}
	return n > 0, nil
}

func (s *RedisTokenStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("redis revoke refresh token: %w", err)
	}
	return nil
}
