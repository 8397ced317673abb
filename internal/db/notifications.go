package db

import (
	"context"

	"gorm.io/gorm"

	"github.com/tastefeed/server/internal/models"
)

// NotificationRepository provides notification-related database operations
type NotificationRepository struct {
	*Repository
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(repo *Repository) *NotificationRepository {
	return &NotificationRepository{Repository: repo}
}

// Create creates a new notification
func (r *NotificationRepository) Create(ctx context.Context, notif *models.Notification) error {
	return r.db.WithContext(ctx).Create(notif).Error
}

// ListByRecipient returns a page of a recipient's notifications, newest
// first, with sender, post and comment loaded
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID int64, page, limit int, unreadOnly bool) ([]*models.Notification, int64, error) {
	scope := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID)
		if unreadOnly {
			q = q.Where("is_read = ?", false)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifs []*models.Notification
	err := scope().
		Preload("Sender").
		Preload("Post", func(db *gorm.DB) *gorm.DB { return db.Unscoped().Select("id", "title") }).
		Preload("Comment", func(db *gorm.DB) *gorm.DB { return db.Select("id", "text") }).
		Order("created_at DESC").Order("id DESC").
		Offset(offset(page, limit)).Limit(limit).
		Find(&notifs).Error
	if err != nil {
		return nil, 0, err
	}
	return notifs, total, nil
}

// CountUnread counts a recipient's unread notifications
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one unread notification owned by recipient as read
func (r *NotificationRepository) MarkRead(ctx context.Context, recipientID, id int64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND is_read = ?", id, recipientID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// MarkAllRead marks every unread notification of recipient as read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// Delete removes one notification owned by recipient
func (r *NotificationRepository) Delete(ctx context.Context, recipientID, id int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND recipient_id = ?", id, recipientID).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

// DeleteAll removes every notification of recipient
func (r *NotificationRepository) DeleteAll(ctx context.Context, recipientID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("recipient_id = ?", recipientID).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
