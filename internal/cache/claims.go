package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/claimharvest/internal/model"
	"github.com/ppiankov/claimharvest/internal/store"
)

// claimKeyPrefix namespaces claim hashes in the shared store
const claimKeyPrefix = "___cached___claim___"

// ClaimCache stores extracted claims as flat hashes keyed by review URL
type ClaimCache struct {
	store store.Store
	log   *zap.Logger
}

// NewClaimCache creates a claim cache over s
func NewClaimCache(s store.Store, log *zap.Logger) *ClaimCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &ClaimCache{store: s, log: log}
}

// ClaimKey returns the store key for the claim at url
func ClaimKey(url string) string {
	return claimKeyPrefix + url
}

// Get returns the cached claim for url, or nil on a miss
func (c *ClaimCache) Get(ctx context.Context, url string) *model.Claim {
	return c.get(ctx, ClaimKey(url))
}

// Put stores claim under its URL. A nil claim or an empty URL is ignored.
func (c *ClaimCache) Put(ctx context.Context, claim *model.Claim) error {
	if claim == nil || claim.URL == "" {
		return nil
	}
	return c.put(ctx, ClaimKey(claim.URL), claim)
}

// GetPage returns every claim cached for a detail page, in extraction order.
// Single-claim pages use the plain Get key; further claims of a multi-claim
// page are stored under numbered keys.
func (c *ClaimCache) GetPage(ctx context.Context, url string) []model.Claim {
	var claims []model.Claim
	for i := 0; ; i++ {
		claim := c.get(ctx, pageKey(url, i))
		if claim == nil {
			return claims
		}
		claims = append(claims, *claim)
	}
}

// PutPage stores all claims extracted from the detail page at url. A claim
// whose own URL differs from url is also stored under it, so Get finds it
// by either address.
func (c *ClaimCache) PutPage(ctx context.Context, url string, claims []model.Claim) error {
	if url == "" {
		return nil
	}
	aliased := make(map[string]bool)
	for i := range claims {
		if err := c.put(ctx, pageKey(url, i), &claims[i]); err != nil {
			return err
		}
		own := claims[i].URL
		if own == "" || own == url || aliased[own] {
			continue
		}
		aliased[own] = true
		if err := c.Put(ctx, &claims[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *ClaimCache) get(ctx context.Context, key string) *model.Claim {
	rec, err := c.store.HGetAll(ctx, key)
	if err != nil {
		c.log.Warn("Claim cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if len(rec) == 0 {
		return nil
	}
	claim := model.ClaimFromRecord(rec)
	return &claim
}

func (c *ClaimCache) put(ctx context.Context, key string, claim *model.Claim) error {
	if err := c.store.HSet(ctx, key, claim.Record()); err != nil {
		return fmt.Errorf("cache claim %s: %w", claim.URL, err)
	}
	return nil
}

func pageKey(url string, i int) string {
	if i == 0 {
		return ClaimKey(url)
	}
	return fmt.Sprintf("%s#%d", ClaimKey(url), i)
}
