package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mangosense/api/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

const notificationColumns = `
	id, notification_type, title, message, image_id, user_id, is_read, created_at
`

type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Create(ctx context.Context, n models.Notification) (int64, error) {
	const query = `
		INSERT INTO notifications (
			notification_type, title, message, image_id, user_id, is_read, created_at
		) VALUES (
			$1, $2, $3, $4, $5, FALSE, NOW()
		)
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query, n.Type, n.Title, n.Message, n.ImageID, n.UserID).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *NotificationRepository) List(ctx context.Context, limit, offset int) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *NotificationRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications`).Scan(&count)
	return count, err
}

func (r *NotificationRepository) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE NOT is_read`).Scan(&count)
	return count, err
}

func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	n, err := scanNotification(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Notification{}, ErrNotificationNotFound
		}
		return models.Notification{}, err
	}
	return n, nil
}

// Delete removes only the notification; the related image stays.
func (r *NotificationRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE NOT is_read`)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// BackfillFromImages creates an upload notification for every image that
// does not have one yet, in a single statement.
func (r *NotificationRepository) BackfillFromImages(ctx context.Context) (int64, error) {
	const query = `
		INSERT INTO notifications (notification_type, title, message, image_id, user_id, is_read, created_at)
		SELECT 'image_upload',
		       'New ' || COALESCE(NULLIF(i.detection_type, ''), 'mango') || ' image upload',
		       'Image uploaded: ' || i.original_filename,
		       i.id,
		       i.user_id,
		       FALSE,
		       NOW()
		FROM images i
		WHERE NOT EXISTS (
			SELECT 1 FROM notifications n WHERE n.image_id = i.id
		)
	`
	cmd, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanNotification(row pgx.Row) (models.Notification, error) {
	var n models.Notification
	if err := row.Scan(
		&n.ID,
		&n.Type,
		&n.Title,
		&n.Message,
		&n.ImageID,
		&n.UserID,
		&n.IsRead,
		&n.CreatedAt,
	); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}
