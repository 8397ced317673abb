package notify

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/tastefeed/server/internal/db"
	"github.com/tastefeed/server/internal/models"
	"github.com/tastefeed/server/pkg/logging"
)

// Event describes an interaction that may notify the subject's owner
type Event struct {
	Type        string
	SenderID    int64
	RecipientID int64
	PostID      int64 // 0 when the event has no post
	CommentID   int64 // 0 when the event has no comment
	At          time.Time
}

// Emitter creates notifications for interaction events
type Emitter interface {
	Emit(ctx context.Context, ev Event) (bool, error)
}

// Fanout writes notification rows for interaction events
type Fanout struct {
	repo   *db.Repository
	logger *zap.Logger
}

// NewFanout creates a new notification fan-out
func NewFanout(repo *db.Repository) *Fanout {
	return &Fanout{
		repo:   repo,
		logger: logging.WithComponent("notify-fanout"),
	}
}

// Emit stores a notification for ev. Self-actions are skipped and report false.
func (f *Fanout) Emit(ctx context.Context, ev Event) (bool, error) {
	if ev.SenderID == ev.RecipientID {
		return false, nil
	}

	notif := &models.Notification{
		RecipientID: ev.RecipientID,
		SenderID:    ev.SenderID,
		Type:        ev.Type,
		PostID:      nullID(ev.PostID),
		CommentID:   nullID(ev.CommentID),
		CreatedAt:   ev.At,
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = time.Now().UTC()
	}

	if err := db.NewNotificationRepository(f.repo).Create(ctx, notif); err != nil {
		f.logger.Error("Failed to create notification",
			zap.String("type", ev.Type),
			zap.Int64("sender_id", ev.SenderID),
			zap.Int64("recipient_id", ev.RecipientID),
			zap.Int64("post_id", ev.PostID),
			zap.Error(err))
		return false, err
	}

	f.logger.Debug("[NOTIFY]",
		zap.String("type", typeName(ev.Type)),
		zap.Int64("sender_id", ev.SenderID),
		zap.Int64("recipient_id", ev.RecipientID),
		zap.Int64("post_id", ev.PostID),
		zap.Int64("comment_id", ev.CommentID))
	return true, nil
}

func nullID(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}

func typeName(t string) string {
	switch t {
	case models.NotifyTypeLike:
		return "like"
	case models.NotifyTypeFavorite:
		return "favorite"
	case models.NotifyTypeComment:
		return "comment"
	case models.NotifyTypeFollow:
		return "follow"
	default:
		return "unknown"
	}
}
