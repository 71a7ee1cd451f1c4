package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// HMACSigner issues HMAC-signed, time-boxed download URLs. The signature
// covers the storage path and the expiry instant, so neither can be altered
// without invalidating the URL.
type HMACSigner struct {
	baseURL string
	secret  []byte
	clock   func() time.Time
}

// HMACSignerOption configures an HMACSigner.
type HMACSignerOption func(*HMACSigner)

// WithSignerClock sets the clock function for testability.
func WithSignerClock(clock func() time.Time) HMACSignerOption {
	return func(s *HMACSigner) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewHMACSigner constructs a signer rooted at baseURL (e.g. the portal's
// public download endpoint).
func NewHMACSigner(baseURL, secret string, opts ...HMACSignerOption) *HMACSigner {
	s := &HMACSigner{
		baseURL: baseURL,
		secret:  []byte(secret),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *HMACSigner) SignedURL(_ context.Context, storagePath string, ttl time.Duration) (string, error) {
	if storagePath == "" {
		return "", fmt.Errorf("sign url: storage path is required")
	}
	expires := s.clock().Add(ttl).Unix()
	sig := s.signature(storagePath, expires)

	q := url.Values{}
	q.Set("path", storagePath)
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("signature", sig)
	return s.baseURL + "/download?" + q.Encode(), nil
}

// Verify checks a presented path/expiry/signature triple. Expired or
// tampered URLs are rejected.
func (s *HMACSigner) Verify(storagePath string, expires int64, signature string) bool {
	if s.clock().Unix() > expires {
		return false
	}
	expected := s.signature(storagePath, expires)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (s *HMACSigner) signature(storagePath string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\n%d", storagePath, expires)
	return hex.EncodeToString(mac.Sum(nil))
}
