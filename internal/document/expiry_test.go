package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seacert/internal/requirement"
)

func TestComputeExpiry(t *testing.T) {
	upload := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("validity years added to upload date", func(t *testing.T) {
		expiry := ComputeExpiry(requirement.Descriptor{ValidityYears: 1}, upload)
		require.NotNil(t, expiry)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *expiry)
	})

	t.Run("no validity period means no expiry", func(t *testing.T) {
		assert.Nil(t, ComputeExpiry(requirement.Descriptor{}, upload))
	})
}

func TestClassifyExpiry(t *testing.T) {
	expiry := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("renewal-eligibility check inside 30 days reports expiring soon", func(t *testing.T) {
		now := time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, ExpiryExpiringSoon, ClassifyExpiry(&expiry, now))
	})

	t.Run("past expiry reports expired", func(t *testing.T) {
		now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, ExpiryExpired, ClassifyExpiry(&expiry, now))
	})

	t.Run("outside the window reports current", func(t *testing.T) {
		now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, ExpiryCurrent, ClassifyExpiry(&expiry, now))
	})

	t.Run("exactly 30 days out is still expiring soon", func(t *testing.T) {
		now := expiry.Add(-30 * 24 * time.Hour)
		assert.Equal(t, ExpiryExpiringSoon, ClassifyExpiry(&expiry, now))
	})

	t.Run("the expiry instant itself is expired", func(t *testing.T) {
		assert.Equal(t, ExpiryExpired, ClassifyExpiry(&expiry, expiry))
	})

	t.Run("no expiry date classifies as none", func(t *testing.T) {
		assert.Equal(t, ExpiryNone, ClassifyExpiry(nil, time.Now()))
	})
}
