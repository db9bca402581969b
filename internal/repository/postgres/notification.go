package postgres

import (
	"context"

	"rentsnap/internal/domain"
	"rentsnap/internal/logger"
)

type notificationRepository struct {
	db DBTX
}

const notificationColumns = `id, target_user_id, event_type, title, message, link, is_read, related_item_id,
       related_user_id, related_user_name, created_at`

func scanNotification(row rowScanner) (*domain.Notification, error) {
	n := &domain.Notification{}
	err := row.Scan(&n.ID, &n.TargetUserID, &n.EventType, &n.Title, &n.Message, &n.Link, &n.IsRead, &n.RelatedItemID,
		&n.RelatedUserID, &n.RelatedUserName, &n.Timestamp)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *notificationRepository) List(ctx context.Context, userID int32) ([]*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE target_user_id = $1 ORDER BY created_at DESC, id DESC`
	logger.DatabaseCall("notificationRepository.List", query, "userID", userID)
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		logger.DatabaseResult("notificationRepository.List", 0, err)
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	logger.DatabaseResult("notificationRepository.List", int64(len(out)), rows.Err())
	return out, rows.Err()
}

func (r *notificationRepository) GetByID(ctx context.Context, id int32) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "notification", id)
	}
	return n, nil
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `INSERT INTO notifications (target_user_id, event_type, title, message, link, is_read, related_item_id,
	                                     related_user_id, related_user_name)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, n.TargetUserID, n.EventType, n.Title, n.Message, n.Link, n.IsRead,
		n.RelatedItemID, n.RelatedUserID, n.RelatedUserName).
		Scan(&n.ID, &n.Timestamp)
	return mapError(err, "notification", n.TargetUserID)
}

func (r *notificationRepository) MarkRead(ctx context.Context, id int32) error {
	return exec(ctx, r.db, "notificationRepository.MarkRead", "notification", id,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
}
