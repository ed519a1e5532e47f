package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"mangosense/api/internal/repository"
)

const (
	statsCacheKey = "stats:diseases"
	statsCacheTTL = 5 * time.Minute
)

// StatsService serves the dashboard aggregate from a short-lived cache so
// repeated dashboard loads do not hammer the aggregate queries.
type StatsService struct {
	stats *repository.StatsRepository
	rdb   *redis.Client
	log   zerolog.Logger
}

func NewStatsService(stats *repository.StatsRepository, rdb *redis.Client, log zerolog.Logger) *StatsService {
	return &StatsService{stats: stats, rdb: rdb, log: log}
}

// DiseaseStatistics returns cached statistics when available, otherwise
// computes and caches them. A cache outage degrades to a direct query.
func (s *StatsService) DiseaseStatistics(ctx context.Context) (repository.DiseaseStatistics, error) {
	cached, err := s.rdb.Get(ctx, statsCacheKey).Bytes()
	if err == nil {
		var stats repository.DiseaseStatistics
		if err := json.Unmarshal(cached, &stats); err == nil {
			return stats, nil
		}
		s.log.Warn().Msg("discarding malformed cached statistics")
	} else if err != redis.Nil {
		s.log.Warn().Err(err).Msg("statistics cache read failed")
	}

	return s.Refresh(ctx)
}

// Refresh recomputes the aggregate and replaces the cached copy.
func (s *StatsService) Refresh(ctx context.Context) (repository.DiseaseStatistics, error) {
	stats, err := s.stats.DiseaseStatistics(ctx)
	if err != nil {
		return repository.DiseaseStatistics{}, err
	}

	if payload, err := json.Marshal(stats); err == nil {
		if err := s.rdb.Set(ctx, statsCacheKey, payload, statsCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("statistics cache write failed")
		}
	}
	return stats, nil
}
