//go:build integration

package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"seacert/internal/storage"
	"seacert/pkg/testutil/containers"
)

type CachedSignerSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	signer *storage.CachedSigner
}

func TestCachedSignerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedSignerSuite))
}

func (s *CachedSignerSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *CachedSignerSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.signer = storage.NewCachedSigner(
		storage.NewHMACSigner("https://files.test", "secret"),
		s.redis.Client,
	)
}

func (s *CachedSignerSuite) TestRepeatedSignsServeCachedURL() {
	ctx := context.Background()

	first, err := s.signer.SignedURL(ctx, "documents/a/b.pdf", time.Hour)
	s.Require().NoError(err)
	s.Contains(first, "signature=")

	// The HMAC signer embeds the expiry timestamp, so a later call would
	// produce a different URL unless the cache serves the first one.
	time.Sleep(1100 * time.Millisecond)
	second, err := s.signer.SignedURL(ctx, "documents/a/b.pdf", time.Hour)
	s.Require().NoError(err)
	s.Equal(first, second)
}

func (s *CachedSignerSuite) TestDistinctPathsGetDistinctURLs() {
	ctx := context.Background()

	a, err := s.signer.SignedURL(ctx, "documents/a.pdf", time.Hour)
	s.Require().NoError(err)
	b, err := s.signer.SignedURL(ctx, "documents/b.pdf", time.Hour)
	s.Require().NoError(err)
	s.NotEqual(a, b)
}

func (s *CachedSignerSuite) TestShortTTLSkipsCache() {
	ctx := context.Background()

	// TTL at or under the safety margin is never cached.
	_, err := s.signer.SignedURL(ctx, "documents/short.pdf", 5*time.Second)
	s.Require().NoError(err)

	keys, err := s.redis.Client.Keys(ctx, "surl:*").Result()
	s.Require().NoError(err)
	s.Empty(keys)
}
