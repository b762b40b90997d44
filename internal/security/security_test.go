package security

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/fpbrowser/internal/cache"
)

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	ctx := context.Background()
	limiter, err := NewRateLimiter(cache.NewStore(cache.Options{}), 2, time.Minute)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		res, err := limiter.Allow(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := limiter.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)

	other, err := limiter.Allow(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	limiter.Reset(ctx, "alice")
	res, err = limiter.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestSanitizerStripsMarkup(t *testing.T) {
	s := NewSanitizer()
	assert.Equal(t, "shop a", s.Text("  <b>shop</b> <script>alert(1)</script>a "))
	assert.Equal(t, "Tom & Jerry", s.Text("Tom & Jerry"))
	assert.Equal(t, "", s.Text(""))
}
