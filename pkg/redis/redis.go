package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// SetClient 设置 Redis 客户端（由 internal/initial 调用）
func SetClient(c *redis.Client) {
	client = c
}

// Close 关闭 Redis 连接
func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}

// IsConnected 检查 Redis 是否已连接
func IsConnected() bool {
	return client != nil
}

func checkClient() error {
	if client == nil {
		return fmt.Errorf("Redis 未连接")
	}
	return nil
}

// ==================== Set 操作 ====================

// SAdd 向集合添加元素
func SAdd(ctx context.Context, key string, members ...interface{}) (int64, error) {
	if err := checkClient(); err != nil {
		return 0, err
	}
	return client.SAdd(ctx, key, members...).Result()
}

// SMembers 获取集合所有元素
func SMembers(ctx context.Context, key string) ([]string, error) {
	if err := checkClient(); err != nil {
		return nil, err
	}
	return client.SMembers(ctx, key).Result()
}

// SIsMember 检查元素是否在集合中
func SIsMember(ctx context.Context, key string, member interface{}) (bool, error) {
	if err := checkClient(); err != nil {
		return false, err
	}
	return client.SIsMember(ctx, key, member).Result()
}

// Exists 检查 key 是否存在
func Exists(ctx context.Context, keys ...string) (int64, error) {
	if err := checkClient(); err != nil {
		return 0, err
	}
	return client.Exists(ctx, keys...).Result()
}

// Expire 设置过期时间
func Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	if err := checkClient(); err != nil {
		return false, err
	}
	return client.Expire(ctx, key, expiration).Result()
}

// Del 删除 key
func Del(ctx context.Context, keys ...string) (int64, error) {
	if err := checkClient(); err != nil {
		return 0, err
	}
	return client.Del(ctx, keys...).Result()
}
