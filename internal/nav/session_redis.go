package nav

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "moviedb:nav:"

// RedisSessionStore keeps state as JSON in Redis, refreshed on every save.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore builds a Redis-backed session store.
func NewRedisSessionStore(addr, password string, ttl time.Duration) *RedisSessionStore {
	return NewRedisSessionStoreWithClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	}), ttl)
}

// NewRedisSessionStoreWithClient shares an existing client.
func NewRedisSessionStoreWithClient(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) Load(ctx context.Context, token string) (State, error) {
	if _, err := uuid.Parse(token); err != nil {
		return New(), nil
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	raw, err := s.client.Get(ctx, redisKeyPrefix+token).Bytes()
	if err == redis.Nil {
		return New(), nil
	}
	if err != nil {
		return New(), fmt.Errorf("load session: %w", err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return New(), nil
	}
	return st.Normalize(), nil
}

func (s *RedisSessionStore) Save(ctx context.Context, token string, st State) (string, error) {
	token = sessionID(token)
	raw, err := json.Marshal(st.Normalize())
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.client.Set(ctx, redisKeyPrefix+token, raw, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return token, nil
}

// Close releases the Redis client.
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
