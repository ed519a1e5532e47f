package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mangosense/api/internal/models"
)

var (
	ErrImageNotFound     = errors.New("image not found")
	ErrNoUpdatableFields = errors.New("no updatable fields in request")
)

// imageUpdatableColumns is the whitelist for partial and bulk updates.
// Anything outside it is rejected before SQL is built.
var imageUpdatableColumns = map[string]struct{}{
	"predicted_class":  {},
	"confidence_score": {},
	"detection_type":   {},
	"client_ip":        {},
	"is_verified":      {},
	"notes":            {},
}

const imageColumns = `
	id, user_id, bucket, object_key, original_filename, content_type, size_bytes,
	predicted_class, confidence_score, detection_type, width, height, client_ip,
	notes, is_verified, verified_by, verified_at, uploaded_at
`

type ImageRepository struct {
	pool *pgxpool.Pool
}

func NewImageRepository(pool *pgxpool.Pool) *ImageRepository {
	return &ImageRepository{pool: pool}
}

func (r *ImageRepository) Create(ctx context.Context, image models.Image) (int64, error) {
	const query = `
		INSERT INTO images (
			user_id, bucket, object_key, original_filename, content_type, size_bytes,
			predicted_class, confidence_score, detection_type, width, height, client_ip,
			notes, is_verified, uploaded_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, FALSE, NOW()
		)
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		image.UserID,
		image.Bucket,
		image.ObjectKey,
		image.OriginalFilename,
		image.ContentType,
		image.SizeBytes,
		image.PredictedClass,
		image.ConfidenceScore,
		image.DetectionType,
		image.Width,
		image.Height,
		image.ClientIP,
		image.Notes,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *ImageRepository) GetByID(ctx context.Context, id int64) (models.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE id = $1`
	return r.scanImage(r.pool.QueryRow(ctx, query, id))
}

// ImageFilter narrows admin listings. Zero values mean "no filter".
type ImageFilter struct {
	Search        string
	Disease       string
	DetectionType string
	Verified      *bool
	Limit         int
	Offset        int
}

func (f ImageFilter) where() (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if f.Search != "" {
		add("(original_filename ILIKE '%%' || $%d || '%%' OR predicted_class ILIKE '%%' || $%[1]d || '%%')", f.Search)
	}
	if f.Disease != "" {
		add("predicted_class ILIKE '%%' || $%d || '%%'", f.Disease)
	}
	if f.DetectionType != "" {
		add("detection_type = $%d", f.DetectionType)
	}
	if f.Verified != nil {
		add("is_verified = $%d", *f.Verified)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *ImageRepository) List(ctx context.Context, filter ImageFilter) ([]models.Image, error) {
	where, args := filter.where()

	query := `SELECT ` + imageColumns + ` FROM images` + where +
		fmt.Sprintf(" ORDER BY uploaded_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []models.Image
	for rows.Next() {
		image, err := r.scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

func (r *ImageRepository) CountFiltered(ctx context.Context, filter ImageFilter) (int64, error) {
	where, args := filter.where()
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM images`+where, args...).Scan(&count)
	return count, err
}

// ListAll returns every image, newest first. Used by the dataset export and
// the notification backfill, both of which walk the whole table.
func (r *ImageRepository) ListAll(ctx context.Context) ([]models.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images ORDER BY uploaded_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []models.Image
	for rows.Next() {
		image, err := r.scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

func (r *ImageRepository) UpdateFields(ctx context.Context, id int64, updates map[string]any) error {
	set, args, err := buildImageSet(updates)
	if err != nil {
		return err
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE images SET %s WHERE id = $%d", set, len(args))
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrImageNotFound
	}
	return nil
}

func (r *ImageRepository) BulkUpdate(ctx context.Context, ids []int64, updates map[string]any) (int64, error) {
	set, args, err := buildImageSet(updates)
	if err != nil {
		return 0, err
	}
	args = append(args, ids)

	query := fmt.Sprintf("UPDATE images SET %s WHERE id = ANY($%d)", set, len(args))
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func buildImageSet(updates map[string]any) (string, []any, error) {
	var assignments []string
	var args []any

	for column, value := range updates {
		if _, ok := imageUpdatableColumns[column]; !ok {
			return "", nil, fmt.Errorf("%w: %s", ErrNoUpdatableFields, column)
		}
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if len(assignments) == 0 {
		return "", nil, ErrNoUpdatableFields
	}
	return strings.Join(assignments, ", "), args, nil
}

func (r *ImageRepository) Verify(ctx context.Context, id int64, verifiedBy string) error {
	const query = `
		UPDATE images
		SET is_verified = TRUE, verified_by = $2, verified_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, verifiedBy)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrImageNotFound
	}
	return nil
}

func (r *ImageRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrImageNotFound
	}
	return nil
}

func (r *ImageRepository) scanImage(row pgx.Row) (models.Image, error) {
	var image models.Image
	if err := row.Scan(
		&image.ID,
		&image.UserID,
		&image.Bucket,
		&image.ObjectKey,
		&image.OriginalFilename,
		&image.ContentType,
		&image.SizeBytes,
		&image.PredictedClass,
		&image.ConfidenceScore,
		&image.DetectionType,
		&image.Width,
		&image.Height,
		&image.ClientIP,
		&image.Notes,
		&image.IsVerified,
		&image.VerifiedBy,
		&image.VerifiedAt,
		&image.UploadedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Image{}, ErrImageNotFound
		}
		return models.Image{}, err
	}
	return image, nil
}
