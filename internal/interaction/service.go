// Package interaction applies likes, favorites and follows.
//
// Each mutation writes its join row, and for likes the post's stored counter,
// inside one transaction. Duplicate inserts and deletes of missing rows are
// successful no-ops, detected through the affected row count rather than by
// reading first, so racing duplicates move the counter exactly once.
// Notifications and domain events are produced after commit and can never
// undo the mutation.
package interaction

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/tastefeed/server/internal/db"
	"github.com/tastefeed/server/internal/errs"
	"github.com/tastefeed/server/internal/events"
	"github.com/tastefeed/server/internal/models"
	"github.com/tastefeed/server/internal/notify"
	"github.com/tastefeed/server/pkg/logging"
	"github.com/tastefeed/server/pkg/telemetry"
)

// Result reports what a mutation did
type Result struct {
	// Changed is false when the request was a duplicate or hit nothing
	Changed bool
	// Notified is true when a notification row was written
	Notified bool
	// NotifyErr holds a failed notification attempt; the mutation still committed
	NotifyErr error
}

// Service applies interaction mutations
type Service struct {
	repo     *db.Repository
	notifier notify.Emitter
	events   events.Publisher
	logger   *zap.Logger
	counter  *telemetry.Counter
}

// NewService creates a new interaction service
func NewService(repo *db.Repository, notifier notify.Emitter, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		events:   publisher,
		logger:   logging.WithComponent("interaction"),
		counter:  telemetry.NewCounter("interactions_total", "Interaction mutations by kind and outcome"),
	}
}

// LikePost records a like and increments the post's stored like counter
func (s *Service) LikePost(ctx context.Context, userID, postID int64) (Result, error) {
	return s.mutatePost(ctx, "interaction.LikePost", userID, postID, func(ctx context.Context, tx *db.Repository) (bool, error) {
		inserted, err := db.NewRelationRepository(tx).InsertLike(ctx, userID, postID)
		if err != nil || !inserted {
			return false, err
		}
		if _, err := db.NewPostRepository(tx).AdjustLikesCount(ctx, postID, 1); err != nil {
			return false, err
		}
		return true, nil
	}, models.NotifyTypeLike, events.TypePostLiked)
}

// UnlikePost removes a like and decrements the counter when a row was removed
func (s *Service) UnlikePost(ctx context.Context, userID, postID int64) (Result, error) {
	return s.mutatePost(ctx, "interaction.UnlikePost", userID, postID, func(ctx context.Context, tx *db.Repository) (bool, error) {
		deleted, err := db.NewRelationRepository(tx).DeleteLike(ctx, userID, postID)
		if err != nil || !deleted {
			return false, err
		}
		if _, err := db.NewPostRepository(tx).AdjustLikesCount(ctx, postID, -1); err != nil {
			return false, err
		}
		return true, nil
	}, "", events.TypePostUnliked)
}

// FavoritePost saves a post for the user. No post column is touched.
func (s *Service) FavoritePost(ctx context.Context, userID, postID int64) (Result, error) {
	return s.mutatePost(ctx, "interaction.FavoritePost", userID, postID, func(ctx context.Context, tx *db.Repository) (bool, error) {
		return db.NewRelationRepository(tx).InsertFavorite(ctx, userID, postID)
	}, models.NotifyTypeFavorite, events.TypePostFavorited)
}

// UnfavoritePost removes a saved post
func (s *Service) UnfavoritePost(ctx context.Context, userID, postID int64) (Result, error) {
	return s.mutatePost(ctx, "interaction.UnfavoritePost", userID, postID, func(ctx context.Context, tx *db.Repository) (bool, error) {
		return db.NewRelationRepository(tx).DeleteFavorite(ctx, userID, postID)
	}, "", events.TypePostUnfavorited)
}

// FollowUser creates a follow edge from follower to following
func (s *Service) FollowUser(ctx context.Context, followerID, followingID int64) (Result, error) {
	const op = "interaction.FollowUser"
	ctx, span := telemetry.StartSpan(ctx, op)
	defer span.End()

	if err := validateFollow(op, followerID, followingID); err != nil {
		return Result{}, err
	}

	var changed bool
	err := s.repo.Transaction(ctx, func(tx *db.Repository) error {
		exists, err := db.NewUserRepository(tx).Exists(ctx, followingID)
		if err != nil {
			return errs.Internal(op, err)
		}
		if !exists {
			return errs.NotFound(op, "user %d not found", followingID)
		}
		changed, err = db.NewRelationRepository(tx).InsertFollow(ctx, followerID, followingID)
		return errs.Internal(op, err)
	})
	if err != nil {
		return Result{}, err
	}

	res := Result{Changed: changed}
	s.counter.Add(ctx, 1, attribute.String("kind", "follow"), attribute.Bool("changed", changed))
	if changed {
		s.afterCommit(ctx, &res, notify.Event{
			Type:        models.NotifyTypeFollow,
			SenderID:    followerID,
			RecipientID: followingID,
		}, events.New(events.TypeUserFollowed, followerID, followingID))
	}
	return res, nil
}

// UnfollowUser removes a follow edge
func (s *Service) UnfollowUser(ctx context.Context, followerID, followingID int64) (Result, error) {
	const op = "interaction.UnfollowUser"
	ctx, span := telemetry.StartSpan(ctx, op)
	defer span.End()

	if err := validateFollow(op, followerID, followingID); err != nil {
		return Result{}, err
	}

	changed, err := db.NewRelationRepository(s.repo).DeleteFollow(ctx, followerID, followingID)
	if err != nil {
		return Result{}, errs.Internal(op, err)
	}

	res := Result{Changed: changed}
	s.counter.Add(ctx, 1, attribute.String("kind", "unfollow"), attribute.Bool("changed", changed))
	if changed {
		s.afterCommit(ctx, &res, notify.Event{}, events.New(events.TypeUserUnfollowed, followerID, followingID))
	}
	return res, nil
}

type mutation func(ctx context.Context, tx *db.Repository) (bool, error)

// mutatePost runs mutate in a transaction after checking the post exists,
// then notifies the post author when notifyType is set and a row changed
func (s *Service) mutatePost(ctx context.Context, op string, userID, postID int64, mutate mutation, notifyType, eventType string) (Result, error) {
	ctx, span := telemetry.StartSpan(ctx, op)
	defer span.End()

	if userID <= 0 {
		return Result{}, errs.Validation(op, "invalid user id")
	}
	if postID <= 0 {
		return Result{}, errs.Validation(op, "invalid post id")
	}

	var (
		authorID int64
		changed  bool
	)
	err := s.repo.Transaction(ctx, func(tx *db.Repository) error {
		post, err := db.NewPostRepository(tx).GetByID(ctx, postID)
		if err != nil {
			return errs.Internal(op, err)
		}
		if post == nil {
			return errs.NotFound(op, "post %d not found", postID)
		}
		authorID = post.AuthorID

		changed, err = mutate(ctx, tx)
		return errs.Internal(op, err)
	})
	if err != nil {
		return Result{}, err
	}

	res := Result{Changed: changed}
	s.counter.Add(ctx, 1, attribute.String("kind", eventType), attribute.Bool("changed", changed))
	if !changed {
		return res, nil
	}

	var ev notify.Event
	if notifyType != "" {
		ev = notify.Event{Type: notifyType, SenderID: userID, RecipientID: authorID, PostID: postID}
	}
	domainEvent := events.New(eventType, userID, postID)
	domainEvent.PostID = postID
	s.afterCommit(ctx, &res, ev, domainEvent)
	return res, nil
}

// afterCommit performs the failure-isolated side effects of a committed mutation
func (s *Service) afterCommit(ctx context.Context, res *Result, ev notify.Event, domainEvent events.Event) {
	if ev.Type != "" && s.notifier != nil {
		ev.At = time.Now().UTC()
		notified, err := s.notifier.Emit(ctx, ev)
		res.Notified = notified
		if err != nil {
			res.NotifyErr = err
			s.logger.Warn("Notification fan-out failed",
				zap.String("type", ev.Type),
				zap.Int64("sender_id", ev.SenderID),
				zap.Int64("recipient_id", ev.RecipientID),
				zap.Error(err))
		}
	}

	if err := s.events.Publish(ctx, domainEvent); err != nil {
		s.logger.Warn("Event publish failed",
			zap.String("type", domainEvent.Type),
			zap.String("event_id", domainEvent.EventID),
			zap.Error(err))
	}
}

func validateFollow(op string, followerID, followingID int64) error {
	if followerID <= 0 || followingID <= 0 {
		return errs.Validation(op, "invalid user id")
	}
	if followerID == followingID {
		return errs.Validation(op, "users cannot follow themselves")
	}
	return nil
}
