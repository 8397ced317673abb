// Package posts creates, edits and removes posts. Reads go through the feed
// package so every listing shares one projection.
package posts

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/tastefeed/server/internal/db"
	"github.com/tastefeed/server/internal/errs"
	"github.com/tastefeed/server/internal/events"
	"github.com/tastefeed/server/internal/models"
	"github.com/tastefeed/server/pkg/logging"
	"github.com/tastefeed/server/pkg/telemetry"
)

// CreateInput is the payload of a new post. Showcase posts must carry an image.
type CreateInput struct {
	Title      string   `json:"title" validate:"required,max=255"`
	Content    string   `json:"content" validate:"max=20000"`
	ImageURL   string   `json:"imageUrl" validate:"omitempty,uri,max=1024"`
	IsShowcase bool     `json:"isShowcase"`
	Tags       []string `json:"tags" validate:"max=10,dive,max=64"`
}

// UpdateInput is a partial edit; nil fields are left unchanged
type UpdateInput struct {
	Title      *string   `json:"title" validate:"omitnil,min=1,max=255"`
	Content    *string   `json:"content" validate:"omitempty,max=20000"`
	ImageURL   *string   `json:"imageUrl" validate:"omitempty,uri,max=1024"`
	IsShowcase *bool     `json:"isShowcase"`
	Tags       *[]string `json:"tags" validate:"omitempty,max=10,dive,max=64"`
}

// Service manages post lifecycle
type Service struct {
	repo   *db.Repository
	events events.Publisher
	logger *zap.Logger
}

// NewService creates a new post service
func NewService(repo *db.Repository, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:   repo,
		events: publisher,
		logger: logging.WithComponent("posts"),
	}
}

// Create publishes a post for authorID, connecting existing tags by name and
// creating missing ones
func (s *Service) Create(ctx context.Context, authorID int64, in CreateInput) (*models.Post, error) {
	const op = "posts.Create"
	ctx, span := telemetry.StartSpan(ctx, op)
	defer span.End()

	in.Title = strings.TrimSpace(in.Title)
	if err := errs.ValidateStruct(op, in); err != nil {
		return nil, err
	}
	if in.IsShowcase && in.ImageURL == "" {
		return nil, errs.Validation(op, "showcase posts need an image")
	}

	post := &models.Post{
		AuthorID:   authorID,
		Title:      in.Title,
		Content:    in.Content,
		ImageURL:   in.ImageURL,
		IsShowcase: in.IsShowcase,
		Status:     models.PostStatusPublished,
	}
	err := s.repo.Transaction(ctx, func(tx *db.Repository) error {
		exists, err := db.NewUserRepository(tx).Exists(ctx, authorID)
		if err != nil {
			return errs.Internal(op, err)
		}
		if !exists {
			return errs.NotFound(op, "user %d not found", authorID)
		}
		tags, err := db.NewTagRepository(tx).FindOrCreate(ctx, in.Tags)
		if err != nil {
			return errs.Internal(op, err)
		}
		post.Tags = tags
		return errs.Internal(op, db.NewPostRepository(tx).Create(ctx, post))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Post created", zap.Int64("post_id", post.ID), zap.Int64("author_id", authorID))
	s.publish(ctx, events.TypePostCreated, authorID, post.ID)
	return post, nil
}

// Update edits a post. Only its author may edit it.
func (s *Service) Update(ctx context.Context, postID, requesterID int64, in UpdateInput) (*models.Post, error) {
	const op = "posts.Update"
	ctx, span := telemetry.StartSpan(ctx, op)
	defer span.End()

	if postID <= 0 {
		return nil, errs.Validation(op, "invalid post id")
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		in.Title = &title
	}
	if err := errs.ValidateStruct(op, in); err != nil {
		return nil, err
	}

	var updated *models.Post
	err := s.repo.Transaction(ctx, func(tx *db.Repository) error {
		postRepo := db.NewPostRepository(tx)
		post, err := s.owned(ctx, op, postRepo, postID, requesterID)
		if err != nil {
			return err
		}
		if showcaseWithoutImage(post, in) {
			return errs.Validation(op, "showcase posts need an image")
		}

		updates := map[string]interface{}{}
		if in.Title != nil {
			updates["title"] = *in.Title
		}
		if in.Content != nil {
			updates["content"] = *in.Content
		}
		if in.ImageURL != nil {
			updates["image_url"] = *in.ImageURL
		}
		if in.IsShowcase != nil {
			updates["is_showcase"] = *in.IsShowcase
		}
		if err := postRepo.Update(ctx, postID, updates); err != nil {
			return errs.Internal(op, err)
		}

		if in.Tags != nil {
			tags, err := db.NewTagRepository(tx).FindOrCreate(ctx, *in.Tags)
			if err != nil {
				return errs.Internal(op, err)
			}
			if err := postRepo.ReplaceTags(ctx, post, tags); err != nil {
				return errs.Internal(op, err)
			}
		}

		updated, err = postRepo.GetWithTags(ctx, postID)
		return errs.Internal(op, err)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes a post. Only its author may delete it. Likes, favorites
// and comments are kept; the post just stops being listed.
func (s *Service) Delete(ctx context.Context, postID, requesterID int64) error {
	const op = "posts.Delete"
	ctx, span := telemetry.StartSpan(ctx, op)
	defer span.End()

	if postID <= 0 {
		return errs.Validation(op, "invalid post id")
	}

	err := s.repo.Transaction(ctx, func(tx *db.Repository) error {
		postRepo := db.NewPostRepository(tx)
		if _, err := s.owned(ctx, op, postRepo, postID, requesterID); err != nil {
			return err
		}
		return errs.Internal(op, postRepo.SoftDelete(ctx, postID))
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.TypePostDeleted, requesterID, postID)
	return nil
}

// SetImage stores a new image URL on a post owned by requesterID
func (s *Service) SetImage(ctx context.Context, postID, requesterID int64, url string) (*models.Post, error) {
	return s.Update(ctx, postID, requesterID, UpdateInput{ImageURL: &url})
}

// owned loads a live post and checks that requesterID wrote it
func (s *Service) owned(ctx context.Context, op string, postRepo *db.PostRepository, postID, requesterID int64) (*models.Post, error) {
	post, err := postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, errs.Internal(op, err)
	}
	if post == nil {
		return nil, errs.NotFound(op, "post %d not found", postID)
	}
	if post.AuthorID != requesterID {
		return nil, errs.Forbidden(op, "only the author can change this post")
	}
	return post, nil
}

func showcaseWithoutImage(post *models.Post, in UpdateInput) bool {
	showcase, image := post.IsShowcase, post.ImageURL
	if in.IsShowcase != nil {
		showcase = *in.IsShowcase
	}
	if in.ImageURL != nil {
		image = *in.ImageURL
	}
	return showcase && image == ""
}

func (s *Service) publish(ctx context.Context, eventType string, actorID, postID int64) {
	ev := events.New(eventType, actorID, postID)
	ev.PostID = postID
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("Event publish failed", zap.String("type", eventType), zap.Error(err))
	}
}
