package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/circlematch-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	assert.False(t, repo.Enabled())
	var dest map[string]int
	assert.ErrorIs(t, repo.Get(ctx, "matches:114:1", &dest), appErrors.ErrCacheMiss)
	require.NoError(t, repo.Set(ctx, "matches:114:1", map[string]int{"a": 1}, time.Minute))
	removed, err := repo.DeleteByPattern(ctx, "matches:114:*")
	require.NoError(t, err)
	assert.Zero(t, removed)
	require.NoError(t, repo.Ping(ctx))
	require.NoError(t, repo.Close())
}
