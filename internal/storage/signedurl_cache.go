package storage

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var signedURLCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "seacert_signed_url_cache_requests_total",
	Help: "Signed URL cache lookups by outcome",
}, []string{"outcome"})

const signedURLKeyPrefix = "surl:path:"

// CachedSigner fronts a URLSigner with a Redis cache keyed by storage path.
// The cache TTL matches the URL TTL, so a cached entry is always still
// valid when served; a miss (or any Redis failure) falls through to the
// signer, keeping Redis strictly optional.
type CachedSigner struct {
	signer URLSigner
	client *redis.Client
}

func NewCachedSigner(signer URLSigner, client *redis.Client) *CachedSigner {
	return &CachedSigner{signer: signer, client: client}
}

func (c *CachedSigner) SignedURL(ctx context.Context, storagePath string, ttl time.Duration) (string, error) {
	key := signedURLKeyPrefix + storagePath

	if c.client != nil {
		cached, err := c.client.Get(ctx, key).Result()
		if err == nil {
			signedURLCacheHits.WithLabelValues("hit").Inc()
			return cached, nil
		}
		if !errors.Is(err, redis.Nil) {
			signedURLCacheHits.WithLabelValues("error").Inc()
		}
	}

	signed, err := c.signer.SignedURL(ctx, storagePath, ttl)
	if err != nil {
		return "", err
	}

	if c.client != nil {
		// Cache for a touch under the URL TTL so we never serve a URL about
		// to expire mid-download.
		cacheTTL := ttl - 10*time.Second
		if cacheTTL > 0 {
			_ = c.client.Set(ctx, key, signed, cacheTTL).Err()
		}
		signedURLCacheHits.WithLabelValues("miss").Inc()
	}

	return signed, nil
}
