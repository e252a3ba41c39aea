// Package bootstrap connects the runtime dependencies shared by the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"murmur/internal/cache"
	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedScenario is applied when the environment is development and the
	// users table is empty.
	SeedScenario string
}

// InitRuntime connects to the database and Redis and optionally seeds a
// development scenario. The Redis client is nil when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	r := cache.InitRedis(cfg.RedisURL)

	if err := ensureDevScenario(ctx, cfg, db, opts.SeedScenario); err != nil {
		return nil, nil, fmt.Errorf("failed to seed development scenario: %w", err)
	}

	return db, r, nil
}

func ensureDevScenario(ctx context.Context, cfg *config.Config, db *gorm.DB, path string) error {
	path = strings.TrimSpace(path)
	if cfg == nil || db == nil || path == "" {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") {
		return nil
	}

	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}

	sc, err := seed.LoadScenario(path)
	if err != nil {
		return err
	}
	created, err := seed.NewSeeder(db.WithContext(ctx), seed.DefaultOptions()).ApplyScenario(sc)
	if err != nil {
		return err
	}

	middleware.Logger.Info("development scenario seeded",
		slog.String("path", path),
		slog.Int("users", len(created)),
	)
	return nil
}
