package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"bookora/internal/domain/models"
)

const defaultBookTTL = time.Hour

func bookKey(id string) string {
	return "bookora:book:" + id
}

var _ BookCache = (*RedisBookCache)(nil)

type RedisBookCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBookCache connects using a redis:// URL
func NewRedisBookCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisBookCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if ttl <= 0 {
		ttl = defaultBookTTL
	}
	return &RedisBookCache{client: client, ttl: ttl}, nil
}

func (r *RedisBookCache) GetBook(ctx context.Context, id string) (*models.Book, error) {
	res := r.client.Get(ctx, bookKey(id))
	if res.Err() != nil {
		if errors.Is(res.Err(), redis.Nil) {
			return nil, nil
		}
		return nil, res.Err()
	}

	buf, err := res.Bytes()
	if err != nil {
		return nil, err
	}

	book := &models.Book{}
	if err := json.Unmarshal(buf, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (r *RedisBookCache) SetBook(ctx context.Context, book *models.Book) error {
	marshal, err := json.Marshal(book)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, bookKey(book.ID), marshal, r.ttl).Err()
}

func (r *RedisBookCache) DeleteBook(ctx context.Context, id string) error {
	return r.client.Del(ctx, bookKey(id)).Err()
}

func (r *RedisBookCache) Close() error {
	return r.client.Close()
}
