package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/presence-gateway/internal/auth"
	"github.com/oggyb/presence-gateway/internal/cache"
	"github.com/oggyb/presence-gateway/internal/config"
	"github.com/oggyb/presence-gateway/internal/presence"
)

// AppContext holds shared dependencies (DB, Redis, Logger, presence registry, etc.)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Registry   *presence.Registry
	Verifier   *auth.Verifier
}

// New creates a new AppContext with a fresh presence registry and token verifier.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Registry:   presence.NewRegistry(),
		Verifier:   auth.NewVerifier(db),
	}
}
