package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mangosense/api/internal/models"
)

var ErrConfirmationExists = errors.New("confirmation already exists for this image")

const confirmationColumns = `
	id, image_id, user_id, is_correct, predicted_disease, feedback, confidence_score,
	client_ip, location_consent, latitude, longitude, location_accuracy,
	location_address, confirmed_at
`

type ConfirmationRepository struct {
	pool *pgxpool.Pool
}

func NewConfirmationRepository(pool *pgxpool.Pool) *ConfirmationRepository {
	return &ConfirmationRepository{pool: pool}
}

// Create inserts the one allowed confirmation per image. A second attempt
// trips the unique index and comes back as ErrConfirmationExists.
func (r *ConfirmationRepository) Create(ctx context.Context, confirmation models.Confirmation) (int64, error) {
	const query = `
		INSERT INTO confirmations (
			image_id, user_id, is_correct, predicted_disease, feedback, confidence_score,
			client_ip, location_consent, latitude, longitude, location_accuracy,
			location_address, confirmed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW()
		)
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		confirmation.ImageID,
		confirmation.UserID,
		confirmation.IsCorrect,
		confirmation.PredictedDisease,
		confirmation.Feedback,
		confirmation.ConfidenceScore,
		confirmation.ClientIP,
		confirmation.LocationConsent,
		confirmation.Latitude,
		confirmation.Longitude,
		confirmation.LocationAccuracy,
		confirmation.LocationAddress,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrConfirmationExists
		}
		return 0, err
	}
	return id, nil
}

// ConfirmationFilter narrows dashboard listings.
type ConfirmationFilter struct {
	Verdict string // "", "confirmed" or "rejected"
	Disease string
	UserID  string
	Limit   int
	Offset  int
}

func (f ConfirmationFilter) where() (string, []any) {
	var clauses []string
	var args []any

	switch f.Verdict {
	case "confirmed":
		clauses = append(clauses, "is_correct = TRUE")
	case "rejected":
		clauses = append(clauses, "is_correct = FALSE")
	}
	if f.Disease != "" {
		args = append(args, f.Disease)
		clauses = append(clauses, fmt.Sprintf("predicted_disease ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if f.UserID != "" {
		args = append(args, f.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *ConfirmationRepository) List(ctx context.Context, filter ConfirmationFilter) ([]models.Confirmation, error) {
	where, args := filter.where()
	query := `SELECT ` + confirmationColumns + ` FROM confirmations` + where +
		fmt.Sprintf(" ORDER BY confirmed_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var confirmations []models.Confirmation
	for rows.Next() {
		confirmation, err := scanConfirmation(rows)
		if err != nil {
			return nil, err
		}
		confirmations = append(confirmations, confirmation)
	}
	return confirmations, rows.Err()
}

func (r *ConfirmationRepository) CountFiltered(ctx context.Context, filter ConfirmationFilter) (int64, error) {
	where, args := filter.where()
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM confirmations`+where, args...).Scan(&count)
	return count, err
}

// VerdictCounts is the confirmed/rejected split used for accuracy rates.
type VerdictCounts struct {
	Total     int64
	Confirmed int64
	Rejected  int64
}

func (r *ConfirmationRepository) CountVerdicts(ctx context.Context) (VerdictCounts, error) {
	const query = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_correct),
		       COUNT(*) FILTER (WHERE NOT is_correct)
		FROM confirmations
	`
	var counts VerdictCounts
	err := r.pool.QueryRow(ctx, query).Scan(&counts.Total, &counts.Confirmed, &counts.Rejected)
	return counts, err
}

// DiseaseVerdict aggregates confirmations per predicted disease.
type DiseaseVerdict struct {
	Disease   string
	Total     int64
	Confirmed int64
	Rejected  int64
}

func (r *ConfirmationRepository) CountVerdictsByDisease(ctx context.Context) ([]DiseaseVerdict, error) {
	const query = `
		SELECT predicted_disease,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE is_correct),
		       COUNT(*) FILTER (WHERE NOT is_correct)
		FROM confirmations
		GROUP BY predicted_disease
		ORDER BY COUNT(*) DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var verdicts []DiseaseVerdict
	for rows.Next() {
		var v DiseaseVerdict
		if err := rows.Scan(&v.Disease, &v.Total, &v.Confirmed, &v.Rejected); err != nil {
			return nil, err
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, rows.Err()
}

func (r *ConfirmationRepository) CountWithLocation(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM confirmations WHERE location_consent`).Scan(&count)
	return count, err
}

func scanConfirmation(row pgx.Row) (models.Confirmation, error) {
	var c models.Confirmation
	if err := row.Scan(
		&c.ID,
		&c.ImageID,
		&c.UserID,
		&c.IsCorrect,
		&c.PredictedDisease,
		&c.Feedback,
		&c.ConfidenceScore,
		&c.ClientIP,
		&c.LocationConsent,
		&c.Latitude,
		&c.Longitude,
		&c.LocationAccuracy,
		&c.LocationAddress,
		&c.ConfirmedAt,
	); err != nil {
		return models.Confirmation{}, err
	}
	return c, nil
}
