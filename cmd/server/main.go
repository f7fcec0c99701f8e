package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anoa.com/communityreview/internal/bootstrap"
	"anoa.com/communityreview/internal/config"
	"anoa.com/communityreview/internal/server"
	"anoa.com/communityreview/pkg/cache"
	"anoa.com/communityreview/pkg/database"
	"anoa.com/communityreview/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(cfg.AppEnv, cfg.LogLevel, cfg.LogFile)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.Database.DSN(), cfg.IsDevelopment())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	if cfg.ShouldSeedAdmin() {
		if err := bootstrap.SeedAdminUser(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatal().Err(err).Msg("failed to seed admin user")
		}
	}

	redisClient, err := cache.Connect(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}
	if redisClient == nil {
		log.Warn().Msg("REDIS_URL is not set, using in-process session events and no rate limiting")
	}

	srv, err := server.NewServer(cfg, db, redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build server")
	}

	go func() {
		if err := srv.Run(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server exited with error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
}
