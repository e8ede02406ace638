package users_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bigmini/auth-service/users"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := users.HashPassword("password123")
	require.NoError(t, err)
	require.NotEqual(t, "password123", hash)

	require.True(t, users.CheckPasswordHash("password123", hash))
	require.False(t, users.CheckPasswordHash("password124", hash))
}

func TestHashPasswordIsSalted(t *testing.T) {
	first, err := users.HashPassword("password123")
	require.NoError(t, err)
	second, err := users.HashPassword("password123")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestCompareDummyAlwaysFails(t *testing.T) {
	require.False(t, users.CompareDummy("password123"))
	require.False(t, users.CompareDummy(""))
}
