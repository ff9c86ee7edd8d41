package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceRepositoryLoadsEmbeddedData(t *testing.T) {
	repo, err := NewReferenceRepository()
	require.NoError(t, err)

	counties := repo.Counties()
	require.Len(t, counties, 22)
	assert.Equal(t, "臺北市", counties[0].County)
	assert.Contains(t, counties[0].Districts, "大安區")
	assert.Contains(t, repo.Subjects(), "數學")
}

func TestReferenceRepositoryReturnsCopies(t *testing.T) {
	repo, err := NewReferenceRepository()
	require.NoError(t, err)

	counties := repo.Counties()
	counties[0].Districts[0] = "changed"
	assert.NotEqual(t, "changed", repo.Counties()[0].Districts[0])
}
