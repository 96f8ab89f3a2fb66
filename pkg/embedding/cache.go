package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const defaultCacheTTL = 10 * time.Minute

// CachedProvider memoises embeddings of identical text for a TTL.
type CachedProvider struct {
	next  Provider
	ttl   time.Duration
	cache *ttlcache.Cache[string, []float32]
}

func NewCachedProvider(next Provider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, []float32](ttl),
		ttlcache.WithCapacity[string, []float32](10000),
	)
	return &CachedProvider{
		next:  next,
		ttl:   ttl,
		cache: cache,
	}
}

func (p *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := p.cacheKey(text)
	if item := p.cache.Get(key); item != nil {
		return item.Value(), nil
	}

	vector, err := p.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	p.cache.Set(key, vector, p.ttl)
	return vector, nil
}

func (p *CachedProvider) Dimensions() int {
	return p.next.Dimensions()
}

func (p *CachedProvider) ModelName() string {
	return p.next.ModelName()
}

func (p *CachedProvider) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(p.next.ModelName() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
