package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parceltrack/delivery-platform/internal/api"
	"github.com/parceltrack/delivery-platform/internal/infrastructure/db/mongo"
	"github.com/parceltrack/delivery-platform/internal/infrastructure/db/redis"
	"github.com/parceltrack/delivery-platform/internal/infrastructure/notify"
	"github.com/parceltrack/delivery-platform/internal/infrastructure/queue"
	"github.com/parceltrack/delivery-platform/internal/pkg/config"
	"github.com/parceltrack/delivery-platform/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	shipmentRepo := mongo.NewShipmentRepository(db)
	if err := shipmentRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("shipment index creation failed")
	}
	partnerRepo := mongo.NewPartnerRepository(db)
	if err := partnerRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("partner index creation failed")
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close failed")
		}
	}()

	dispatcher := queue.NewDispatcher(cfg.NotifyWorkers, notify.NewLogNotifier(log), log)
	dispatcher.Start(ctx)

	e := api.NewRouter(db, rdb, api.Options{
		JWTSecret:       cfg.JWTSecret,
		PendingOrderTTL: cfg.PendingOrderTTL,
		Outbox:          dispatcher,
		Logger:          log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("api listening")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
		os.Exit(1)
	}
}
