package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hmon-seguros/quote-api/internal/utils"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned for a missing or expired wizard session
var ErrSessionNotFound = errors.New("sessão não encontrada")

// Cache is the subset of the Redis client the session store needs
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store persists wizard sessions as JSON in Redis with a sliding TTL
type Store struct {
	cache Cache
	ttl   time.Duration
}

// NewStore creates a session store
func NewStore(cache Cache, ttl time.Duration) *Store {
	return &Store{cache: cache, ttl: ttl}
}

func sessionKey(id string) string {
	return "wizard:session:" + id
}

// Save writes a session, refreshing its TTL
func (s *Store) Save(ctx context.Context, session *Session) error {
	ctx, _, done := utils.TraceCacheOperation(ctx, "session_save", sessionKey(session.ID))
	defer done()

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.cache.Set(ctx, sessionKey(session.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Load reads a session by id
func (s *Store) Load(ctx context.Context, id string) (*Session, error) {
	ctx, _, done := utils.TraceCacheOperation(ctx, "session_load", sessionKey(id))
	defer done()

	data, err := s.cache.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if session.Touched == nil {
		session.Touched = make(map[string]bool)
	}
	if session.Attachments == nil {
		session.Attachments = make(map[string]Attachment)
	}
	if session.Lookups == nil {
		session.Lookups = make(map[string]uint64)
	}
	return &session, nil
}

// Delete removes a session
func (s *Store) Delete(ctx context.Context, id string) error {
	ctx, _, done := utils.TraceCacheOperation(ctx, "session_delete", sessionKey(id))
	defer done()

	if err := s.cache.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
