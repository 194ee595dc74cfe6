package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNotFound = errors.New("idempotency key not found")
	ErrInFlight = errors.New("idempotency key is being processed")
)

// StoredResponse is a completed response kept for replay. A claimed key
// that has not completed yet is stored with InFlight set.
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	InFlight    bool   `json:"in_flight,omitempty"`
}

// IdempotencyStore keeps successful responses keyed by tenant-scoped
// Idempotency-Key values. A request first claims its key, then either
// completes it with the response or releases it.
type IdempotencyStore interface {
	// Get returns ErrNotFound for unknown keys and ErrInFlight for claimed
	// keys that have not completed.
	Get(ctx context.Context, key string) (*StoredResponse, error)
	// Claim marks key in flight for ttl. It reports false when the key is
	// already claimed or completed.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Complete(ctx context.Context, key string, resp *StoredResponse, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// NewIdempotencyStore picks the Redis store when a client is available.
func NewIdempotencyStore(client *redis.Client) IdempotencyStore {
	if client == nil {
		return NewMemoryStore()
	}
	return &redisStore{client: client}
}

type redisStore struct {
	client *redis.Client
}

func redisKey(key string) string {
	return "idempotency:" + key
}

var inFlightMarker, _ = json.Marshal(StoredResponse{InFlight: true})

func (s *redisStore) Get(ctx context.Context, key string) (*StoredResponse, error) {
	data, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	var resp StoredResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode stored response: %w", err)
	}
	if resp.InFlight {
		return nil, ErrInFlight
	}
	return &resp, nil
}

func (s *redisStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, redisKey(key), inFlightMarker, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	return ok, nil
}

func (s *redisStore) Complete(ctx context.Context, key string, resp *StoredResponse, ttl time.Duration) error {
	stored := *resp
	stored.InFlight = false
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency key: %w", err)
	}
	return nil
}

func (s *redisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

type memoryEntry struct {
	resp      StoredResponse
	expiresAt time.Time
}

// MemoryStore is the single-process fallback.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// live returns the unexpired entry of key. Callers hold mu.
func (s *MemoryStore) live(key string) (memoryEntry, bool) {
	entry, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return entry, true
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*StoredResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(key)
	if !ok {
		return nil, ErrNotFound
	}
	if entry.resp.InFlight {
		return nil, ErrInFlight
	}
	resp := entry.resp
	return &resp, nil
}

func (s *MemoryStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(key); ok {
		return false, nil
	}
	now := s.now()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.entries[key] = memoryEntry{resp: StoredResponse{InFlight: true}, expiresAt: now.Add(ttl)}
	return true, nil
}

func (s *MemoryStore) Complete(ctx context.Context, key string, resp *StoredResponse, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *resp
	stored.InFlight = false
	s.entries[key] = memoryEntry{resp: stored, expiresAt: s.now().Add(ttl)}
	return nil
}

// Release drops an in-flight claim. Completed responses are kept.
func (s *MemoryStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[key]; ok && entry.resp.InFlight {
		delete(s.entries, key)
	}
	return nil
}
