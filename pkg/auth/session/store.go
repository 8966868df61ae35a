package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/mercaterra/storefront-backend/pkg/config"
	redisclient "github.com/mercaterra/storefront-backend/pkg/redis"
)

// ErrNotFound signals a session id with no server-side state (expired,
// destroyed, or never issued).
var ErrNotFound = errors.New("session not found")

type sessionBackend interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(sessionID string) string
}

// Store persists typed session state in Redis, keyed by session id. The
// session id itself travels inside the access token; state never leaves the
// server.
type Store struct {
	backend sessionBackend
	keyer   sessionKeyer
	ttl     time.Duration
}

// NewStore constructs a session store backed by Redis.
func NewStore(client *redisclient.Client, cfg config.SessionConfig) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.TTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Store{
		backend: client,
		keyer:   client,
		ttl:     ttl,
	}, nil
}

// NewSessionID produces the identifier used as the JWT jti and Redis key.
func NewSessionID() string {
	return uuid.NewString()
}

// Create persists fresh state under a new session id and returns the id.
func (s *Store) Create(ctx context.Context, state *State) (string, error) {
	if state == nil {
		return "", fmt.Errorf("state is required")
	}
	sessionID := NewSessionID()
	if err := s.Save(ctx, sessionID, state); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Load retrieves the state for the given session id.
func (s *Store) Load(ctx context.Context, sessionID string) (*State, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrNotFound
	}
	raw, err := s.backend.Get(ctx, s.keyer.SessionKey(sessionID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decoding session state: %w", err)
	}
	return &state, nil
}

// Save writes the state back, refreshing the TTL.
func (s *Store) Save(ctx context.Context, sessionID string, state *State) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if state == nil {
		return fmt.Errorf("state is required")
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding session state: %w", err)
	}
	return s.backend.Set(ctx, s.keyer.SessionKey(sessionID), string(raw), s.ttl)
}

// Destroy removes the state for the given session id.
func (s *Store) Destroy(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	return s.backend.Del(ctx, s.keyer.SessionKey(sessionID))
}
