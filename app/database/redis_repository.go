package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ SeenRepository = (*RedisRepository)(nil)

// RedisRepository keeps each seen-set in a Redis set.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository accepts either a redis:// URL or a bare host:port address.
func NewRedisRepository(ctx context.Context, redisURL, prefix string) (*RedisRepository, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisRepository{client: client, prefix: prefix}, nil
}

func (r *RedisRepository) Load(ctx context.Context, key string) (SeenSet, error) {
	hashes, err := r.client.SMembers(ctx, r.setKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load seen set: %w", err)
	}

	return NewSeenSet(hashes...), nil
}

func (r *RedisRepository) Append(ctx context.Context, key string, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}

	members := make([]interface{}, len(hashes))
	for i, hash := range hashes {
		members[i] = hash
	}

	if err := r.client.SAdd(ctx, r.setKey(key), members...).Err(); err != nil {
		return fmt.Errorf("failed to append to seen set: %w", err)
	}

	return nil
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func (r *RedisRepository) setKey(key string) string {
	return SeenSetKey(r.prefix, key)
}

func SeenSetKey(prefix, key string) string {
	if prefix == "" {
		return "seen:" + key
	}
	return prefix + ":seen:" + key
}
