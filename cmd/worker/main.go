package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mangosense/api/internal/cache"
	"mangosense/api/internal/config"
	"mangosense/api/internal/database"
	"mangosense/api/internal/log"
	"mangosense/api/internal/queue"
	"mangosense/api/internal/repository"
	"mangosense/api/internal/service"
	"mangosense/api/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "worker")

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer dbPool.Close()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer redisClient.Close()

	err = redisClient.XGroupCreateMkStream(ctx, cfg.Worker.Stream, cfg.Worker.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		logger.Fatal().Err(err).Msg("create consumer group failed")
	}

	logRepo := repository.NewPredictionLogRepository(dbPool)
	notificationRepo := repository.NewNotificationRepository(dbPool)
	statsRepo := repository.NewStatsRepository(dbPool)
	statsService := service.NewStatsService(statsRepo, redisClient, logger)

	processor := tasks.NewProcessor(logRepo, notificationRepo, statsService, cfg.Worker.LogRetention, logger)
	consumer := queue.NewConsumer(
		redisClient,
		cfg.Worker.Stream,
		cfg.Worker.Group,
		cfg.Worker.Consumer,
		cfg.Worker.ClaimInterval,
		logger,
		processor,
	)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := consumer.Start(runCtx); err != nil && err != context.Canceled {
			logger.Fatal().Err(err).Msg("consumer stopped unexpectedly")
		}
	}()

	<-runCtx.Done()
	logger.Info().Msg("shutdown signal received")
	time.Sleep(500 * time.Millisecond)
}
