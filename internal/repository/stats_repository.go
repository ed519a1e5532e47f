package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DiseaseStatistics is the admin dashboard aggregate. Counts come straight
// from SQL so the dashboard never sees stale application state.
type DiseaseStatistics struct {
	TotalImages       int64            `json:"total_images"`
	HealthyImages     int64            `json:"healthy_images"`
	DiseasedImages    int64            `json:"diseased_images"`
	LeafImages        int64            `json:"leaf_images"`
	FruitImages       int64            `json:"fruit_images"`
	DiseasesBreakdown map[string]int64 `json:"diseases_breakdown"`
	RecentUploads     int64            `json:"recent_uploads"`
	MonthlyUploads    int64            `json:"monthly_uploads"`
	VerifiedImages    int64            `json:"verified_images"`
	UnverifiedImages  int64            `json:"unverified_images"`
}

type StatsRepository struct {
	pool *pgxpool.Pool
}

func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

func (r *StatsRepository) DiseaseStatistics(ctx context.Context) (DiseaseStatistics, error) {
	const totalsQuery = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE predicted_class ILIKE '%healthy%'),
		       COUNT(*) FILTER (WHERE detection_type = 'leaf'),
		       COUNT(*) FILTER (WHERE detection_type = 'fruit'),
		       COUNT(*) FILTER (WHERE uploaded_at >= NOW() - INTERVAL '7 days'),
		       COUNT(*) FILTER (WHERE uploaded_at >= NOW() - INTERVAL '30 days'),
		       COUNT(*) FILTER (WHERE is_verified),
		       COUNT(*) FILTER (WHERE NOT is_verified)
		FROM images
	`

	var stats DiseaseStatistics
	if err := r.pool.QueryRow(ctx, totalsQuery).Scan(
		&stats.TotalImages,
		&stats.HealthyImages,
		&stats.LeafImages,
		&stats.FruitImages,
		&stats.RecentUploads,
		&stats.MonthlyUploads,
		&stats.VerifiedImages,
		&stats.UnverifiedImages,
	); err != nil {
		return DiseaseStatistics{}, err
	}
	stats.DiseasedImages = stats.TotalImages - stats.HealthyImages

	const breakdownQuery = `
		SELECT predicted_class, COUNT(*)
		FROM images
		WHERE predicted_class <> ''
		GROUP BY predicted_class
		ORDER BY COUNT(*) DESC
	`

	rows, err := r.pool.Query(ctx, breakdownQuery)
	if err != nil {
		return DiseaseStatistics{}, err
	}
	defer rows.Close()

	stats.DiseasesBreakdown = make(map[string]int64)
	for rows.Next() {
		var disease string
		var count int64
		if err := rows.Scan(&disease, &count); err != nil {
			return DiseaseStatistics{}, err
		}
		stats.DiseasesBreakdown[disease] = count
	}
	return stats, rows.Err()
}
