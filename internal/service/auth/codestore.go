package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCodeNotFound 验证码不存在或已过期
var ErrCodeNotFound = errors.New("auth code not found or expired")

// CodeStore 一次性验证码存储
// 存储的是验证码哈希，取出即删除，保证单次使用
type CodeStore interface {
	Set(ctx context.Context, email, codeHash string, ttl time.Duration) error
	Take(ctx context.Context, email string) (string, error)
}

const codeKeyPrefix = "authcode:"

// redisCodeStore 基于 Redis 的验证码存储，TTL 由 Redis 负责
type redisCodeStore struct {
	client *redis.Client
}

// NewRedisCodeStore 创建 Redis 验证码存储
func NewRedisCodeStore(client *redis.Client) CodeStore {
	return &redisCodeStore{client: client}
}

// Set 写入验证码哈希
func (s *redisCodeStore) Set(ctx context.Context, email, codeHash string, ttl time.Duration) error {
	return s.client.Set(ctx, codeKeyPrefix+email, codeHash, ttl).Err()
}

// Take 取出并删除验证码哈希
func (s *redisCodeStore) Take(ctx context.Context, email string) (string, error) {
	key := codeKeyPrefix + email

	hash, err := s.client.GetDel(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrCodeNotFound
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}
