package prompt

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachingService memoizes successful enhancements by raw prompt so a repeated
// prompt skips the round trip to the text model. Failed enhancements are not
// cached; they retry on the next request.
type CachingService struct {
	inner Service
	cache *gocache.Cache
}

// NewCachingService wraps inner with a TTL cache.
func NewCachingService(inner Service, ttl time.Duration) *CachingService {
	return &CachingService{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Enhance returns a cached enhancement when available.
func (c *CachingService) Enhance(ctx context.Context, rawPrompt string) (Enhancement, error) {
	if v, ok := c.cache.Get(rawPrompt); ok {
		return v.(Enhancement), nil
	}
	enh, err := c.inner.Enhance(ctx, rawPrompt)
	if err == nil {
		c.cache.SetDefault(rawPrompt, enh)
	}
	return enh, err
}

var _ Service = (*CachingService)(nil)
