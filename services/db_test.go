package services

import (
	"context"
	"os"
	"testing"

	"campusRankAPI/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB connects to TEST_DATABASE_URL and applies migrations, or skips.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	require.NoError(t, database.Migrate(dbURL))

	pool, err := pgxpool.New(context.Background(), dbURL)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(context.Background()))

	t.Cleanup(func() {
		_, err := pool.Exec(context.Background(), "DELETE FROM users WHERE email LIKE 'test%@example.com'")
		if err != nil {
			t.Logf("warning: failed to clean up test users: %v", err)
		}
		pool.Close()
	})
	return pool
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		page, size       int
		wantPage, wantSz int
	}{
		{0, 0, 1, 20},
		{3, 50, 3, 50},
		{2, 500, 2, 100},
		{-1, -5, 1, 20},
	}
	for _, tt := range tests {
		p, s := clampPage(tt.page, tt.size, 20, 100)
		assert.Equal(t, tt.wantPage, p)
		assert.Equal(t, tt.wantSz, s)
	}
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%ab\%c\_d%`, likePattern(" ab%c_d "))
}

func TestValidUUID(t *testing.T) {
	assert.True(t, validUUID("3f0c2a4e-3b5c-4f5e-9a1d-2f2e0b7c9d10"))
	assert.False(t, validUUID("nope"))
}
