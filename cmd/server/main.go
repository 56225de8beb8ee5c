package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oggyb/presence-gateway/internal/app"
	"github.com/oggyb/presence-gateway/internal/auth"
	"github.com/oggyb/presence-gateway/internal/cache"
	"github.com/oggyb/presence-gateway/internal/config"
	"github.com/oggyb/presence-gateway/internal/db"
	"github.com/oggyb/presence-gateway/internal/gateway"
	"github.com/oggyb/presence-gateway/internal/logger"
	"github.com/oggyb/presence-gateway/internal/metrics"
	"github.com/oggyb/presence-gateway/internal/server"
	"github.com/oggyb/presence-gateway/internal/service/relation"
	"github.com/oggyb/presence-gateway/internal/service/stats"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	metrics.Register()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}
	defer redisCache.Close()

	apiKey, err := cfg.StatsAPIKey()
	if err != nil {
		log.Error("failed to read stats api key", "err", err)
		return
	}
	if apiKey == "" {
		log.Warn("no stats api key configured, upstream calls will be rejected")
	}

	appCtx := app.New(cfg, database, redisCache, log)
	proxy := stats.NewFromConfig(cfg, apiKey, log)

	if cfg.App.ENV == "development" {
		seedDevelopment(appCtx)
	}

	registrars := []server.Registrar{
		relation.NewRegistrar(appCtx),
		stats.NewRegistrar(appCtx, proxy),
	}
	grpcServer := server.NewGRPCServer(appCtx.Verifier, log, registrars...)
	httpServer := server.NewHTTPServer(cfg, gateway.NewHandler(appCtx))

	errCh := make(chan error, 2)
	go func() {
		log.Info("starting gRPC server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port)
		errCh <- server.StartGRPCServer(cfg, grpcServer)
	}()
	go func() {
		log.Info("starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error("server failed", "err", err)
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	grpcServer.GracefulStop()
}

// seedDevelopment fills the database with demo users and logs a token for each.
func seedDevelopment(appCtx *app.AppContext) {
	users, err := db.SeedTestData(appCtx.DB)
	if err != nil {
		appCtx.Logger.Error("failed to seed", "err", err)
		return
	}
	for _, u := range users {
		token, err := appCtx.Verifier.Issue(context.Background(), u.ID, auth.DefaultTokenTTL)
		if err != nil {
			appCtx.Logger.Error("failed to issue token", "user", u.ID, "err", err)
			return
		}
		appCtx.Logger.Debug("seeded user", "user", u.ID, "username", u.Username, "token", token)
	}
}
