package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/campus", "pgx5://u:p@localhost:5432/campus"},
		{"postgresql://u:p@db/campus?sslmode=disable", "pgx5://u:p@db/campus?sslmode=disable"},
		{"pgx5://already", "pgx5://already"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, migrationURL(tt.in))
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	assert.NoError(t, err)
	assert.NotEmpty(t, entries)
}
