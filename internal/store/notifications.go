package store

import (
	"context"
	"database/sql"
	"fmt"

	"hiretrack/internal/types"
)

const notificationColumns = "id, user_id, title, message, type, related_type, related_id, is_read, created_at"

func scanNotification(row interface{ Scan(...any) error }) (*types.Notification, error) {
	var n types.Notification
	var message, typ, relatedType sql.NullString
	var relatedID sql.NullInt64
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &message, &typ, &relatedType,
		&relatedID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	n.Message = message.String
	n.Type = typ.String
	n.RelatedType = relatedType.String
	if relatedID.Valid {
		n.RelatedID = &relatedID.Int64
	}
	return &n, nil
}

// CreateNotification stores an in-app notification and fills in its
// generated id and creation timestamp.
func (s *Store) CreateNotification(ctx context.Context, n *types.Notification) error {
	n.CreatedAt = now()
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO notifications (user_id, title, message, type, related_type, related_id, is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`),
		n.UserID, n.Title, nullStr(n.Message), nullStr(n.Type), nullStr(n.RelatedType),
		nullInt(n.RelatedID), n.IsRead, n.CreatedAt,
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

// ListNotifications returns every user's notifications, newest first.
// Admin-only callers use this; everyone else gets the scoped listing.
func (s *Store) ListNotifications(ctx context.Context) ([]types.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var notifications []types.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

// ListNotificationsByUser returns one user's notifications, newest
// first.
func (s *Store) ListNotificationsByUser(ctx context.Context, userID int64) ([]types.Notification, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+notificationColumns+` FROM notifications WHERE user_id=$1 ORDER BY created_at DESC`),
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var notifications []types.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead flags the notification as read if it belongs to
// userID. It reports whether a row was updated.
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE notifications SET is_read=TRUE WHERE id=$1 AND user_id=$2`), id, userID)
	if err != nil {
		return false, fmt.Errorf("marking notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("marking notification read: %w", err)
	}
	return affected > 0, nil
}
