package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"mangosense/api/internal/repository"
	"mangosense/api/internal/service"
)

// Processor executes maintenance tasks pulled off the worker stream.
type Processor struct {
	predictionLogs *repository.PredictionLogRepository
	notifications  *repository.NotificationRepository
	stats          *service.StatsService
	logRetention   time.Duration
	logger         zerolog.Logger
}

type TaskPayload struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

func NewProcessor(
	predictionLogs *repository.PredictionLogRepository,
	notifications *repository.NotificationRepository,
	stats *service.StatsService,
	logRetention time.Duration,
	logger zerolog.Logger,
) *Processor {
	return &Processor{
		predictionLogs: predictionLogs,
		notifications:  notifications,
		stats:          stats,
		logRetention:   logRetention,
		logger:         logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload TaskPayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch payload.Type {
	case "cleanup":
		return p.handleCleanup(ctx)
	case "stats_refresh":
		return p.handleStatsRefresh(ctx)
	case "notify_backfill":
		return p.handleNotifyBackfill(ctx)
	default:
		p.logger.Warn().Str("type", payload.Type).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}, out *TaskPayload) error {
	bytes, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}

func (p *Processor) handleCleanup(ctx context.Context) error {
	cutoff := time.Now().Add(-p.logRetention)
	deleted, err := p.predictionLogs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge prediction logs: %w", err)
	}
	p.logger.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("prediction log cleanup done")
	return nil
}

func (p *Processor) handleStatsRefresh(ctx context.Context) error {
	if _, err := p.stats.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh statistics: %w", err)
	}
	p.logger.Info().Msg("statistics cache refreshed")
	return nil
}

func (p *Processor) handleNotifyBackfill(ctx context.Context) error {
	created, err := p.notifications.BackfillFromImages(ctx)
	if err != nil {
		return fmt.Errorf("backfill notifications: %w", err)
	}
	if created > 0 {
		p.logger.Info().Int64("created", created).Msg("notification backfill done")
	}
	return nil
}
