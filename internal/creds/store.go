// Package creds stores per-session upstream credentials with a TTL. The
// original deployment kept these in HTTP-only cookies; here they live
// server side behind an opaque session id, in redis when configured and in
// process memory otherwise.
package creds

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/config"
)

// ErrNotFound means the session has no stored credential (never set,
// expired or deleted).
var ErrNotFound = errors.New("credentials not found")

const defaultTTL = 7 * 24 * time.Hour

// MoySkladCreds is the stored MoySklad access token.
type MoySkladCreds struct {
	Token string `json:"token"`
}

// SmartUpCreds is the stored SmartUp login plus its deployment location.
type SmartUpCreds struct {
	Login     string `json:"login"`
	Password  string `json:"password"`
	ServerURL string `json:"serverUrl"`
	APIPath   string `json:"apiPath"`
}

// Store keeps credentials per session id. Implementations return
// ErrNotFound for missing or expired entries.
type Store interface {
	GetMoySklad(ctx context.Context, sessionID string) (MoySkladCreds, error)
	SetMoySklad(ctx context.Context, sessionID string, c MoySkladCreds) error
	DeleteMoySklad(ctx context.Context, sessionID string) error

	GetSmartUp(ctx context.Context, sessionID string) (SmartUpCreds, error)
	SetSmartUp(ctx context.Context, sessionID string, c SmartUpCreds) error
	DeleteSmartUp(ctx context.Context, sessionID string) error
}

// NewStore builds the configured store: redis when enabled and reachable,
// otherwise the in-memory fallback so the server runs with zero infra.
func NewStore(cfg config.CredsConfig) Store {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	if cfg.UseRedis {
		store, err := newRedisStore(cfg, ttl)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, falling back to in-memory credential store")
			return NewMemoryStore(ttl)
		}
		log.Info().Msg("using redis credential store")
		return store
	}
	return NewMemoryStore(ttl)
}
