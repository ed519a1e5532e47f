package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler enqueues recurring maintenance tasks onto the worker stream.
// The api process schedules; the worker process executes.
type Scheduler struct {
	cron   *cron.Cron
	queue  *redis.Client
	stream string
	log    zerolog.Logger
}

func NewScheduler(queue *redis.Client, stream string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		queue:  queue,
		stream: stream,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}

	if _, err := s.cron.AddFunc("0 0 3 * * *", s.enqueueCleanup); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 0 * * * *", s.enqueueStatsRefresh); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 30 * * * *", s.enqueueNotifyBackfill); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for in-flight jobs, up to a bound.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}

func (s *Scheduler) enqueueCleanup() {
	if err := s.enqueueTask(map[string]any{"type": "cleanup"}); err != nil {
		s.log.Error().Err(err).Msg("enqueue cleanup failed")
	}
}

func (s *Scheduler) enqueueStatsRefresh() {
	if err := s.enqueueTask(map[string]any{"type": "stats_refresh"}); err != nil {
		s.log.Error().Err(err).Msg("enqueue stats refresh failed")
	}
}

func (s *Scheduler) enqueueNotifyBackfill() {
	if err := s.enqueueTask(map[string]any{"type": "notify_backfill"}); err != nil {
		s.log.Error().Err(err).Msg("enqueue notification backfill failed")
	}
}

func (s *Scheduler) enqueueTask(payload map[string]any) error {
	if s.queue == nil {
		return nil
	}
	_, err := s.queue.XAdd(context.Background(), &redis.XAddArgs{
		Stream: s.stream,
		Values: payload,
	}).Result()
	return err
}
