package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryConfig struct {
	Size int `json:"size"`
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// memoryStore is an in-process fallback for single-node deployments. The
// LRU's own TTL acts as an upper bound; each entry still carries its own
// deadline so per-key TTLs hold.
type memoryStore struct {
	lru *expirable.LRU[string, memoryEntry]
}

func init() {
	Register("memory", createMemoryStore)
}

const memoryMaxTTL = time.Hour

func createMemoryStore(args interface{}) (Store, error) {
	cfg := &memoryConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Size <= 0 {
		cfg.Size = 4096
	}
	return &memoryStore{
		lru: expirable.NewLRU[string, memoryEntry](cfg.Size, nil, memoryMaxTTL),
	}, nil
}

func (s *memoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, ok := s.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		s.lru.Remove(key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (s *memoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.lru.Add(key, memoryEntry{value: value, expiresAt: time.Now().Add(ttl)})
	return nil
}

func (s *memoryStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		s.lru.Remove(key)
	}
	return nil
}

func (s *memoryStore) Close() error {
	s.lru.Purge()
	return nil
}
