package creds

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/config"
)

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func newRedisStore(cfg config.CredsConfig, ttl time.Duration) (*redisStore, error) {
	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &redisStore{client: client, ttl: ttl}, nil
}

func buildRedisOptions(cfg config.CredsConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host := cfg.RedisHost
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.RedisPort
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

func getJSON[T any](ctx context.Context, client *redis.Client, key string) (T, error) {
	var out T
	payload, err := client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return out, ErrNotFound
	}
	if err != nil {
		return out, fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, fmt.Errorf("decode credentials: %w", err)
	}
	return out, nil
}

func (s *redisStore) setJSON(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *redisStore) GetMoySklad(ctx context.Context, sessionID string) (MoySkladCreds, error) {
	return getJSON[MoySkladCreds](ctx, s.client, moySkladKey(sessionID))
}

func (s *redisStore) SetMoySklad(ctx context.Context, sessionID string, c MoySkladCreds) error {
	return s.setJSON(ctx, moySkladKey(sessionID), c)
}

func (s *redisStore) DeleteMoySklad(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, moySkladKey(sessionID)).Err()
}

func (s *redisStore) GetSmartUp(ctx context.Context, sessionID string) (SmartUpCreds, error) {
	return getJSON[SmartUpCreds](ctx, s.client, smartUpKey(sessionID))
}

func (s *redisStore) SetSmartUp(ctx context.Context, sessionID string, c SmartUpCreds) error {
	return s.setJSON(ctx, smartUpKey(sessionID), c)
}

func (s *redisStore) DeleteSmartUp(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, smartUpKey(sessionID)).Err()
}
