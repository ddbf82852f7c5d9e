package store

import (
	"context"
	"maps"
	"sync"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is a process-local store backed by go-cache.
// Entries never expire.
type MemoryStore struct {
	cache  *gocache.Cache
	hashMu sync.Mutex // serializes hash read-modify-write
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// Get retrieves a string value
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	if val, found := s.cache.Get(stringKey(key)); found {
		return val.(string), true, nil
	}
	return "", false, nil
}

// Set stores a string value
func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.cache.Set(stringKey(key), value, gocache.NoExpiration)
	return nil
}

// HGetAll returns a copy of the hash at key
func (s *MemoryStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if val, found := s.cache.Get(hashKey(key)); found {
		return maps.Clone(val.(map[string]string)), nil
	}
	return map[string]string{}, nil
}

// HSet merges fields into the hash at key
func (s *MemoryStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	s.hashMu.Lock()
	defer s.hashMu.Unlock()

	merged := make(map[string]string, len(fields))
	if val, found := s.cache.Get(hashKey(key)); found {
		maps.Copy(merged, val.(map[string]string))
	}
	maps.Copy(merged, fields)
	s.cache.Set(hashKey(key), merged, gocache.NoExpiration)
	return nil
}

// Close flushes all entries
func (s *MemoryStore) Close() error {
	s.cache.Flush()
	return nil
}

// Strings and hashes live in separate namespaces, as in redis
func stringKey(key string) string { return "s:" + key }
func hashKey(key string) string   { return "h:" + key }
