package storage

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSignedURLShape(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	signer := NewHMACSigner("https://files.example", "secret", WithSignerClock(fixedClock(now)))

	signed, err := signer.SignedURL(context.Background(), "documents/app-1/cert.pdf", 15*time.Minute)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(signed, "https://files.example/download?"))

	parsed, err := url.Parse(signed)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "documents/app-1/cert.pdf", q.Get("path"))
	assert.Equal(t, strconv.FormatInt(now.Add(15*time.Minute).Unix(), 10), q.Get("expires"))
	assert.NotEmpty(t, q.Get("signature"))
}

func TestSignedURLRequiresPath(t *testing.T) {
	signer := NewHMACSigner("https://files.example", "secret")
	_, err := signer.SignedURL(context.Background(), "", time.Minute)
	require.Error(t, err)
}

func TestVerify(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	signer := NewHMACSigner("https://files.example", "secret", WithSignerClock(fixedClock(now)))

	signed, err := signer.SignedURL(context.Background(), "documents/x.pdf", time.Hour)
	require.NoError(t, err)
	q, err := url.Parse(signed)
	require.NoError(t, err)
	expires, err := strconv.ParseInt(q.Query().Get("expires"), 10, 64)
	require.NoError(t, err)
	sig := q.Query().Get("signature")

	t.Run("valid triple accepted", func(t *testing.T) {
		assert.True(t, signer.Verify("documents/x.pdf", expires, sig))
	})

	t.Run("tampered path rejected", func(t *testing.T) {
		assert.False(t, signer.Verify("documents/y.pdf", expires, sig))
	})

	t.Run("extended expiry rejected", func(t *testing.T) {
		assert.False(t, signer.Verify("documents/x.pdf", expires+3600, sig))
	})

	t.Run("expired url rejected", func(t *testing.T) {
		late := NewHMACSigner("https://files.example", "secret",
			WithSignerClock(fixedClock(now.Add(2*time.Hour))))
		assert.False(t, late.Verify("documents/x.pdf", expires, sig))
	})

	t.Run("different secret rejected", func(t *testing.T) {
		other := NewHMACSigner("https://files.example", "other-secret", WithSignerClock(fixedClock(now)))
		assert.False(t, other.Verify("documents/x.pdf", expires, sig))
	})
}

func TestCachedSignerWithoutRedisFallsThrough(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	signer := NewCachedSigner(
		NewHMACSigner("https://files.example", "secret", WithSignerClock(fixedClock(now))),
		nil,
	)

	signed, err := signer.SignedURL(context.Background(), "documents/x.pdf", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, signed, "signature=")
}
