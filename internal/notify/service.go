package notify

import (
	"context"
	"time"

	"github.com/tastefeed/server/internal/db"
	"github.com/tastefeed/server/internal/errs"
	"github.com/tastefeed/server/internal/models"
)

// UserSummary is the sender shown next to a notification
type UserSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

// PostSummary identifies the post a notification is about
type PostSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// CommentSummary identifies the comment a notification is about
type CommentSummary struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// View is the read model of a notification
type View struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	RecipientID int64           `json:"recipientId"`
	SenderID    int64           `json:"senderId"`
	PostID      *int64          `json:"postId"`
	CommentID   *int64          `json:"commentId"`
	Read        bool            `json:"read"`
	CreatedAt   time.Time       `json:"createdAt"`
	Sender      *UserSummary    `json:"sender"`
	Post        *PostSummary    `json:"post"`
	Comment     *CommentSummary `json:"comment"`
}

// Page is one page of a recipient's inbox
type Page struct {
	Notifications []View `json:"notifications"`
	TotalCount    int64  `json:"totalCount"`
	UnreadCount   int64  `json:"unreadCount"`
	Page          int    `json:"page"`
	Limit         int    `json:"limit"`
}

// Service is the recipient-facing notification API
type Service struct {
	repo *db.Repository
}

// NewService creates a new notification service
func NewService(repo *db.Repository) *Service {
	return &Service{repo: repo}
}

// List returns a page of notifications, newest first
func (s *Service) List(ctx context.Context, recipientID int64, page, limit int, unreadOnly bool) (*Page, error) {
	const op = "notify.List"
	if recipientID <= 0 {
		return nil, errs.Validation(op, "invalid recipient id")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	notifRepo := db.NewNotificationRepository(s.repo)
	rows, total, err := notifRepo.ListByRecipient(ctx, recipientID, page, limit, unreadOnly)
	if err != nil {
		return nil, errs.Internal(op, err)
	}
	unread, err := notifRepo.CountUnread(ctx, recipientID)
	if err != nil {
		return nil, errs.Internal(op, err)
	}

	out := &Page{
		Notifications: make([]View, 0, len(rows)),
		TotalCount:    total,
		UnreadCount:   unread,
		Page:          page,
		Limit:         limit,
	}
	for _, n := range rows {
		out.Notifications = append(out.Notifications, toView(n))
	}
	return out, nil
}

// UnreadCount returns how many notifications the recipient has not read
func (s *Service) UnreadCount(ctx context.Context, recipientID int64) (int64, error) {
	count, err := db.NewNotificationRepository(s.repo).CountUnread(ctx, recipientID)
	if err != nil {
		return 0, errs.Internal("notify.UnreadCount", err)
	}
	return count, nil
}

// MarkRead marks one of the recipient's unread notifications as read
func (s *Service) MarkRead(ctx context.Context, recipientID, id int64) error {
	const op = "notify.MarkRead"
	n, err := db.NewNotificationRepository(s.repo).MarkRead(ctx, recipientID, id)
	if err != nil {
		return errs.Internal(op, err)
	}
	if n == 0 {
		return errs.NotFound(op, "notification %d not found or already read", id)
	}
	return nil
}

// MarkAllRead marks every unread notification as read and returns how many changed
func (s *Service) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	n, err := db.NewNotificationRepository(s.repo).MarkAllRead(ctx, recipientID)
	if err != nil {
		return 0, errs.Internal("notify.MarkAllRead", err)
	}
	return n, nil
}

// Delete removes one of the recipient's notifications
func (s *Service) Delete(ctx context.Context, recipientID, id int64) error {
	const op = "notify.Delete"
	n, err := db.NewNotificationRepository(s.repo).Delete(ctx, recipientID, id)
	if err != nil {
		return errs.Internal(op, err)
	}
	if n == 0 {
		return errs.NotFound(op, "notification %d not found", id)
	}
	return nil
}

// ClearAll removes every notification of the recipient and returns how many were removed
func (s *Service) ClearAll(ctx context.Context, recipientID int64) (int64, error) {
	n, err := db.NewNotificationRepository(s.repo).DeleteAll(ctx, recipientID)
	if err != nil {
		return 0, errs.Internal("notify.ClearAll", err)
	}
	return n, nil
}

func toView(n *models.Notification) View {
	v := View{
		ID:          n.ID,
		Type:        n.Type,
		RecipientID: n.RecipientID,
		SenderID:    n.SenderID,
		Read:        n.Read,
		CreatedAt:   n.CreatedAt,
	}
	if n.PostID.Valid {
		id := n.PostID.Int64
		v.PostID = &id
	}
	if n.CommentID.Valid {
		id := n.CommentID.Int64
		v.CommentID = &id
	}
	if n.Sender != nil {
		v.Sender = &UserSummary{ID: n.Sender.ID, Name: n.Sender.Name, AvatarURL: n.Sender.AvatarURL}
	}
	if n.Post != nil {
		v.Post = &PostSummary{ID: n.Post.ID, Title: n.Post.Title}
	}
	if n.Comment != nil {
		v.Comment = &CommentSummary{ID: n.Comment.ID, Text: n.Comment.Text}
	}
	return v
}
