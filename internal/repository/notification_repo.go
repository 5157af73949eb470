package repository

import (
	"fmt"

	"ecolearn/internal/database"
	"ecolearn/internal/models"
)

// NotificationRepository handles database operations for in-app notifications
type NotificationRepository struct {
	db database.DBTX
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db database.DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *NotificationRepository) WithTx(tx database.DBTX) *NotificationRepository {
	return &NotificationRepository{db: tx}
}

const notificationColumns = `id, user_id, type, title, message, related_to, related_id, is_read, created_at`

// Create inserts a notification
func (r *NotificationRepository) Create(n *models.Notification) (*models.Notification, error) {
	query := `
		INSERT INTO notifications (user_id, type, title, message, related_to, related_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		n.UserID, n.Type, n.Title, n.Message, n.RelatedTo, n.RelatedID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	created := *n
	created.ID = id
	return &created, nil
}

// ListByUser returns a user's notifications, newest first. When unreadOnly
// is set only unread ones are returned.
func (r *NotificationRepository) ListByUser(userID int64, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := "SELECT " + notificationColumns + " FROM notifications WHERE user_id = ?"
	if unreadOnly {
		query += " AND is_read = " + r.db.GetDialect().BoolValue(false)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"

	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message,
			&n.RelatedTo, &n.RelatedID, &n.IsRead, &n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// CountUnread returns the user's unread notification count
func (r *NotificationRepository) CountUnread(userID int64) (int, error) {
	var n int
	query := "SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = " +
		r.db.GetDialect().BoolValue(false)
	if err := r.db.QueryRow(query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

// MarkRead marks one notification read, scoped to its owner
func (r *NotificationRepository) MarkRead(userID, notificationID int64) error {
	query := "UPDATE notifications SET is_read = " + r.db.GetDialect().BoolValue(true) +
		" WHERE id = ? AND user_id = ?"
	if _, err := r.db.Exec(query, notificationID, userID); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead marks every notification of a user read
func (r *NotificationRepository) MarkAllRead(userID int64) error {
	query := "UPDATE notifications SET is_read = " + r.db.GetDialect().BoolValue(true) +
		" WHERE user_id = ?"
	if _, err := r.db.Exec(query, userID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// DeleteByUser removes all of a user's notifications
func (r *NotificationRepository) DeleteByUser(userID int64) error {
	if _, err := r.db.Exec("DELETE FROM notifications WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	return nil
}
