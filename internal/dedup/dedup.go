// Package dedup records provider event ids that were already handled.
// It is a fast path in front of the webhook_events table, not the source of truth.
package dedup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// dedup:{scope}:{id}
const keyDedup = "dedup:%s:%s"

type Store interface {
	Seen(ctx context.Context, id string) (bool, error)
	Mark(ctx context.Context, id string) error
}

type redisStore struct {
	rdb   *redis.Client
	scope string
	ttl   time.Duration
}

func NewRedisStore(rdb *redis.Client, scope string, ttl time.Duration) Store {
	return &redisStore{rdb: rdb, scope: scope, ttl: ttl}
}

func (s *redisStore) key(id string) string {
	return fmt.Sprintf(keyDedup, s.scope, id)
}

func (s *redisStore) Seen(ctx context.Context, id string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.key(id)).Result()
	return n > 0, err
}

func (s *redisStore) Mark(ctx context.Context, id string) error {
	return s.rdb.Set(ctx, s.key(id), time.Now().Unix(), s.ttl).Err()
}

type memoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	seen      map[string]time.Time
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryStore keeps ids in process memory; used when no redis is configured.
func NewMemoryStore(ttl time.Duration) Store {
	return &memoryStore{ttl: ttl, seen: make(map[string]time.Time), now: time.Now}
}

func (s *memoryStore) Seen(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.seen[id]
	if !ok {
		return false, nil
	}
	if s.ttl > 0 && s.now().Sub(at) > s.ttl {
		delete(s.seen, id)
		return false, nil
	}
	return true, nil
}

func (s *memoryStore) Mark(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.seen[id] = now
	s.sweep(now)
	return nil
}

// sweep drops expired ids, at most once per ttl.
func (s *memoryStore) sweep(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastSweep) < s.ttl {
		return
	}
	s.lastSweep = now

	for id, at := range s.seen {
		if now.Sub(at) > s.ttl {
			delete(s.seen, id)
		}
	}
}
