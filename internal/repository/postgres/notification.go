package postgres

import (
	"context"
	"encoding/json"
	"time"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/repository"
)

type notificationRepository struct {
	q Querier
}

func NewNotificationRepository(q Querier) repository.NotificationRepository {
	return &notificationRepository{q: q}
}

func (r *notificationRepository) Create(ctx context.Context, note *domain.Notification) error {
	attrs, err := json.Marshal(note.Attributes)
	if err != nil {
		return err
	}
	query := `INSERT INTO notifications (user_id, category, title, message, is_read, attributes, created_on)
	          VALUES ($1, $2, $3, $4, FALSE, $5, $6) RETURNING id`
	note.CreatedOn = time.Now()
	return r.q.QueryRowContext(ctx, query, note.UserID, note.Category, note.Title, note.Message, attrs, note.CreatedOn).Scan(&note.ID)
}

func (r *notificationRepository) List(ctx context.Context, userID int64, page, pageSize int32) ([]domain.Notification, int32, error) {
	var count int32
	if err := r.q.QueryRowContext(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	query := `SELECT id, user_id, category, title, message, is_read, attributes, created_on
	          FROM notifications WHERE user_id = $1 ORDER BY created_on DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.QueryContext(ctx, query, userID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var notes []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var attrs []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Category, &n.Title, &n.Message, &n.IsRead, &attrs, &n.CreatedOn); err != nil {
			return nil, 0, err
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &n.Attributes); err != nil {
				return nil, 0, err
			}
		}
		notes = append(notes, n)
	}
	return notes, count, rows.Err()
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID int64) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	_, err := r.q.ExecContext(ctx, query, id, userID)
	return err
}
