package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mangosense/api/internal/models"
)

type PredictionLogRepository struct {
	pool *pgxpool.Pool
}

func NewPredictionLogRepository(pool *pgxpool.Pool) *PredictionLogRepository {
	return &PredictionLogRepository{pool: pool}
}

func (r *PredictionLogRepository) Create(ctx context.Context, log models.PredictionLog) (int64, error) {
	const query = `
		INSERT INTO prediction_logs (
			image_id, model_used, probabilities, labels, response, latency_ms,
			client_ip, user_agent, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, NOW()
		)
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		log.ImageID,
		log.ModelUsed,
		log.Probabilities,
		log.Labels,
		log.Response,
		log.LatencyMS,
		log.ClientIP,
		log.UserAgent,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PredictionLogRepository) ListByImage(ctx context.Context, imageID int64) ([]models.PredictionLog, error) {
	const query = `
		SELECT id, image_id, model_used, probabilities, labels, response, latency_ms,
		       client_ip, user_agent, created_at
		FROM prediction_logs
		WHERE image_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, imageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.PredictionLog
	for rows.Next() {
		log, err := scanPredictionLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// DeleteOlderThan purges audit logs past the retention window. Logs are
// append-only, so this is the only delete path.
func (r *PredictionLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM prediction_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *PredictionLogRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM prediction_logs`).Scan(&count)
	return count, err
}

func scanPredictionLog(row pgx.Row) (models.PredictionLog, error) {
	var log models.PredictionLog
	if err := row.Scan(
		&log.ID,
		&log.ImageID,
		&log.ModelUsed,
		&log.Probabilities,
		&log.Labels,
		&log.Response,
		&log.LatencyMS,
		&log.ClientIP,
		&log.UserAgent,
		&log.CreatedAt,
	); err != nil {
		return models.PredictionLog{}, err
	}
	return log, nil
}
