package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"murmur/internal/config"
	"murmur/internal/models"
	"murmur/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dev.yml")
	require.NoError(t, os.WriteFile(path, []byte("users:\n  - username: dev\n    external_id: user_dev\n"), 0o600))
	return path
}

func TestEnsureDevScenario(t *testing.T) {
	tests := []struct {
		name      string
		env       string
		preseed   bool
		wantUsers int64
	}{
		{"development seeds empty db", "development", false, 1},
		{"production never seeds", "production", false, 0},
		{"existing users are left alone", "development", true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.NewSQLiteDB(t)
			if tt.preseed {
				testutil.CreateUser(t, db, "already_here")
			}

			err := ensureDevScenario(context.Background(), &config.Config{Env: tt.env}, db, writeScenario(t))
			require.NoError(t, err)
			assert.Equal(t, tt.wantUsers, testutil.Count(t, db, &models.User{}, ""))
		})
	}
}

func TestEnsureDevScenario_NoPathIsNoop(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	require.NoError(t, ensureDevScenario(context.Background(), &config.Config{Env: "development"}, db, "  "))
	assert.Zero(t, testutil.Count(t, db, &models.User{}, ""))
}

func TestEnsureDevScenario_BadFile(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	err := ensureDevScenario(context.Background(), &config.Config{Env: "development"}, db, filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorContains(t, err, "read scenario")
}
