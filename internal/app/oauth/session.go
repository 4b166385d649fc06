package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Session is the short-lived server-side copy of nonce and verifier,
// written at flow start. It anchors the anti-CSRF nonce check and is the
// fallback decode path when the state blob comes back mangled.
type Session struct {
	Nonce    string `json:"nonce"`
	Verifier string `json:"verifier"`
}

// SessionStore persists sessions for at most StateTTL.
type SessionStore interface {
	Save(ctx context.Context, key string, s Session) error
	Get(ctx context.Context, key string) (*Session, error)
	Delete(ctx context.Context, key string) error
}

// RedisSessionStore keeps sessions in Redis with a TTL, so expired
// authorization attempts disappear on their own.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore wraps an existing Redis client.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) redisKey(key string) string {
	return "voicepipe:oauth:session:" + key
}

// Save stores the session for StateTTL.
func (s *RedisSessionStore) Save(ctx context.Context, key string, sess Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal oauth session: %w", err)
	}
	if err := s.client.Set(ctx, s.redisKey(key), b, StateTTL).Err(); err != nil {
		return fmt.Errorf("save oauth session: %w", err)
	}
	return nil
}

// Get returns the stored session, or nil when absent or expired.
func (s *RedisSessionStore) Get(ctx context.Context, key string) (*Session, error) {
	b, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get oauth session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal oauth session: %w", err)
	}
	return &sess, nil
}

// Delete removes the session once the flow finishes.
func (s *RedisSessionStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.redisKey(key)).Err()
}

// MemorySessionStore is the in-process fallback for single-binary
// deployments and tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
}

type memorySession struct {
	session   Session
	expiresAt time.Time
}

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]memorySession)}
}

// Save stores the session for StateTTL.
func (s *MemorySessionStore) Save(_ context.Context, key string, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = memorySession{session: sess, expiresAt: time.Now().Add(StateTTL)}
	return nil
}

// Get returns the stored session, or nil when absent or expired.
func (s *MemorySessionStore) Get(_ context.Context, key string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[key]
	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.sessions, key)
		return nil, nil
	}
	sess := entry.session
	return &sess, nil
}

// Delete removes the session.
func (s *MemorySessionStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}
