package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ppiankov/claimharvest/internal/model"
)

// Store is the key-value capability shared by the fetch cache and the
// claim record cache. Implementations must be safe for concurrent use;
// concurrent writers of the same key resolve as last-writer-wins.
type Store interface {
	// Get returns the string stored at key; ok is false on a miss
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value at key with no expiry
	Set(ctx context.Context, key, value string) error

	// HGetAll returns every field of the hash at key (empty on a miss)
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// HSet merges fields into the hash at key
	HSet(ctx context.Context, key string, fields map[string]string) error

	// Close releases backend resources
	Close() error
}

// New builds the backend selected by cfg
func New(ctx context.Context, cfg model.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "redis":
		client, err := NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client), nil

	case "memory":
		return NewMemoryStore(), nil

	case "disk":
		return NewDiskStore(cfg.DiskDir), nil

	case "layered":
		client, err := NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return NewLayeredStore(NewMemoryStore(), NewRedisStore(client)), nil

	default:
		return nil, fmt.Errorf("unknown store backend: %s (supported: redis, memory, disk, layered)", cfg.Backend)
	}
}

// fileKey maps an arbitrary key (usually a URL) to a filesystem-safe name
func fileKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}
