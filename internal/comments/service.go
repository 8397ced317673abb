package comments

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tastefeed/server/internal/db"
	"github.com/tastefeed/server/internal/errs"
	"github.com/tastefeed/server/internal/events"
	"github.com/tastefeed/server/internal/models"
	"github.com/tastefeed/server/internal/notify"
	"github.com/tastefeed/server/pkg/logging"
	"github.com/tastefeed/server/pkg/telemetry"
)

// MaxTextLength bounds the length of a comment in runes
const MaxTextLength = 2000

// Author is the public summary of a comment's author
type Author struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

// View is the read model of a comment. ParentID lets clients rebuild threads.
type View struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"postId"`
	AuthorID  int64     `json:"authorId"`
	Text      string    `json:"text"`
	ParentID  *int64    `json:"parentId"`
	CreatedAt time.Time `json:"createdAt"`
	Author    *Author   `json:"author"`
}

// Created is the outcome of Create
type Created struct {
	Comment   View
	Notified  bool
	NotifyErr error
}

// Service manages comments on posts
type Service struct {
	repo     *db.Repository
	notifier notify.Emitter
	events   events.Publisher
	logger   *zap.Logger
}

// NewService creates a new comment service
func NewService(repo *db.Repository, notifier notify.Emitter, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		events:   publisher,
		logger:   logging.WithComponent("comments"),
	}
}

// Create adds a comment to a post and notifies the post author.
// parentID is stored as given.
func (s *Service) Create(ctx context.Context, postID, authorID int64, text string, parentID *int64) (*Created, error) {
	const op = "comments.Create"
	ctx, span := telemetry.StartSpan(ctx, op)
	defer span.End()

	text = strings.TrimSpace(text)
	switch {
	case postID <= 0:
		return nil, errs.Validation(op, "invalid post id")
	case authorID <= 0:
		return nil, errs.Validation(op, "invalid author id")
	case text == "":
		return nil, errs.Validation(op, "comment text is required")
	case len([]rune(text)) > MaxTextLength:
		return nil, errs.Validation(op, "comment text exceeds %d characters", MaxTextLength)
	case parentID != nil && *parentID <= 0:
		return nil, errs.Validation(op, "invalid parent id")
	}

	comment := &models.Comment{PostID: postID, AuthorID: authorID, Text: text}
	if parentID != nil {
		comment.ParentID = sql.NullInt64{Int64: *parentID, Valid: true}
	}

	var postAuthorID int64
	err := s.repo.Transaction(ctx, func(tx *db.Repository) error {
		post, err := db.NewPostRepository(tx).GetByID(ctx, postID)
		if err != nil {
			return errs.Internal(op, err)
		}
		if post == nil {
			return errs.NotFound(op, "post %d not found", postID)
		}
		postAuthorID = post.AuthorID
		return errs.Internal(op, db.NewCommentRepository(tx).Create(ctx, comment))
	})
	if err != nil {
		return nil, err
	}

	author, err := db.NewUserRepository(s.repo).GetByID(ctx, authorID)
	if err != nil {
		s.logger.Warn("Failed to load comment author", zap.Int64("author_id", authorID), zap.Error(err))
	}
	comment.Author = author

	out := &Created{Comment: toView(comment)}
	if s.notifier != nil {
		out.Notified, out.NotifyErr = s.notifier.Emit(ctx, notify.Event{
			Type:        models.NotifyTypeComment,
			SenderID:    authorID,
			RecipientID: postAuthorID,
			PostID:      postID,
			CommentID:   comment.ID,
			At:          comment.CreatedAt,
		})
		if out.NotifyErr != nil {
			s.logger.Warn("Comment notification failed",
				zap.Int64("comment_id", comment.ID),
				zap.Error(out.NotifyErr))
		}
	}

	ev := events.New(events.TypeCommentCreated, authorID, comment.ID)
	ev.PostID = postID
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("Event publish failed", zap.String("type", ev.Type), zap.Error(err))
	}

	return out, nil
}

// ListByPost returns every comment of a post, oldest first, as a flat list
func (s *Service) ListByPost(ctx context.Context, postID int64) ([]View, error) {
	const op = "comments.ListByPost"
	if postID <= 0 {
		return nil, errs.Validation(op, "invalid post id")
	}

	post, err := db.NewPostRepository(s.repo).GetByID(ctx, postID)
	if err != nil {
		return nil, errs.Internal(op, err)
	}
	if post == nil {
		return nil, errs.NotFound(op, "post %d not found", postID)
	}

	rows, err := db.NewCommentRepository(s.repo).ListByPost(ctx, postID)
	if err != nil {
		return nil, errs.Internal(op, err)
	}
	out := make([]View, 0, len(rows))
	for _, c := range rows {
		out = append(out, toView(c))
	}
	return out, nil
}

// Delete removes a comment. Only its author may delete it.
// Notifications that reference the comment are left in place.
func (s *Service) Delete(ctx context.Context, commentID, requesterID int64) error {
	const op = "comments.Delete"
	if commentID <= 0 {
		return errs.Validation(op, "invalid comment id")
	}

	var postID int64
	err := s.repo.Transaction(ctx, func(tx *db.Repository) error {
		commentRepo := db.NewCommentRepository(tx)
		comment, err := commentRepo.GetByID(ctx, commentID)
		if err != nil {
			return errs.Internal(op, err)
		}
		if comment == nil {
			return errs.NotFound(op, "comment %d not found", commentID)
		}
		if comment.AuthorID != requesterID {
			return errs.Forbidden(op, "only the author can delete this comment")
		}
		postID = comment.PostID
		return errs.Internal(op, commentRepo.Delete(ctx, commentID))
	})
	if err != nil {
		return err
	}

	ev := events.New(events.TypeCommentDeleted, requesterID, commentID)
	ev.PostID = postID
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("Event publish failed", zap.String("type", ev.Type), zap.Error(err))
	}
	return nil
}

func toView(c *models.Comment) View {
	v := View{
		ID:        c.ID,
		PostID:    c.PostID,
		AuthorID:  c.AuthorID,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
	if c.ParentID.Valid {
		id := c.ParentID.Int64
		v.ParentID = &id
	}
	if c.Author != nil {
		v.Author = &Author{ID: c.Author.ID, Name: c.Author.Name, AvatarURL: c.Author.AvatarURL}
	}
	return v
}
