package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPasswordHash(t *testing.T) {
	// bcrypt with the default cost to keep the test fast enough
	hash, err := HashPassword("s3cr3t-pw")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, CheckPasswordHash("s3cr3t-pw", hash))
	assert.False(t, CheckPasswordHash("wrong-pw", hash))
	assert.False(t, CheckPasswordHash("", hash))
	// broken hash never matches
	assert.False(t, CheckPasswordHash("s3cr3t-pw", "not-a-bcrypt-hash"))
}
