package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/recroom/server/internal/adapters/http"
	sig "github.com/recroom/server/internal/adapters/signal"
	"github.com/recroom/server/internal/app"
	"github.com/recroom/server/internal/config"
	"github.com/recroom/server/internal/core"
	"github.com/recroom/server/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	var redisAdapter *storage.RedisAdapter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		redisAdapter = storage.NewRedisAdapter(client, cfg.RoomTTL)
		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisAdapter.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable at startup, falling back to memory mirror")
		} else {
			log.Info().Str("addr", cfg.RedisAddr).Msg("redis connected")
		}
		pingCancel()
	} else {
		log.Warn().Msg("no redis address configured, durable mirror runs memory-only")
	}

	mirror := storage.NewService(redisAdapter, storage.NewMemoryAdapter(), cfg.Dev())
	store := core.NewSessionStore()
	registry := app.NewRegistry()
	lifecycle := app.NewLifecycle(store, mirror)
	recording := app.NewRecording(store, mirror)

	gateway := sig.NewController(lifecycle, recording, registry)
	handlers := router.NewHandlers(lifecycle, recording, mirror, cfg)

	r := router.SetupRouter(ctx, cfg, handlers, gateway)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("recroom server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
