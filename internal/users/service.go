package users

import (
	"context"
	"strings"
	"time"

	"github.com/tastefeed/server/internal/db"
	"github.com/tastefeed/server/internal/errs"
	"github.com/tastefeed/server/internal/models"
	"github.com/tastefeed/server/pkg/telemetry"
)

// Profile is the public view of a user. Counts are computed from rows.
type Profile struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	AvatarURL      string    `json:"avatarUrl"`
	CreatedAt      time.Time `json:"createdAt"`
	FollowersCount int64     `json:"followersCount"`
	FollowingCount int64     `json:"followingCount"`
	PostsCount     int64     `json:"postsCount"`
	IsFollowing    bool      `json:"isFollowing"`
}

// Summary is a user in a follower or following list
type Summary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

// List is one page of users
type List struct {
	Users      []Summary `json:"users"`
	TotalCount int64     `json:"totalCount"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
}

// UpdateInput changes the caller's own profile; nil fields are kept
type UpdateInput struct {
	Name      *string `json:"name" validate:"omitnil,min=1,max=64"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty,uri,max=1024"`
}

// Service serves user profiles and follow lists
type Service struct {
	repo *db.Repository
}

// NewService creates a new user service
func NewService(repo *db.Repository) *Service {
	return &Service{repo: repo}
}

// Profile returns id's profile as seen by viewerID (0 for anonymous)
func (s *Service) Profile(ctx context.Context, id, viewerID int64) (*Profile, error) {
	const op = "users.Profile"
	ctx, span := telemetry.StartSpan(ctx, op)
	defer span.End()

	user, err := s.get(ctx, op, id)
	if err != nil {
		return nil, err
	}

	userRepo := db.NewUserRepository(s.repo)
	followers, following, err := userRepo.FollowCounts(ctx, id)
	if err != nil {
		return nil, errs.Internal(op, err)
	}
	posts, err := db.NewPostRepository(s.repo).CountByAuthor(ctx, id)
	if err != nil {
		return nil, errs.Internal(op, err)
	}

	profile := &Profile{
		ID:             user.ID,
		Name:           user.Name,
		AvatarURL:      user.AvatarURL,
		CreatedAt:      user.CreatedAt,
		FollowersCount: followers,
		FollowingCount: following,
		PostsCount:     posts,
	}
	if viewerID > 0 && viewerID != id {
		profile.IsFollowing, err = db.NewRelationRepository(s.repo).IsFollowing(ctx, viewerID, id)
		if err != nil {
			return nil, errs.Internal(op, err)
		}
	}
	return profile, nil
}

// Update changes the caller's name or avatar
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Profile, error) {
	const op = "users.Update"
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if err := errs.ValidateStruct(op, in); err != nil {
		return nil, err
	}
	if _, err := s.get(ctx, op, id); err != nil {
		return nil, err
	}
	if err := db.NewUserRepository(s.repo).UpdateProfile(ctx, id, in.Name, in.AvatarURL); err != nil {
		return nil, errs.Internal(op, err)
	}
	return s.Profile(ctx, id, id)
}

// SetAvatar stores an uploaded avatar URL for the caller
func (s *Service) SetAvatar(ctx context.Context, id int64, url string) (*Profile, error) {
	return s.Update(ctx, id, UpdateInput{AvatarURL: &url})
}

// Followers lists the users following id
func (s *Service) Followers(ctx context.Context, id int64, page, limit int) (*List, error) {
	return s.list(ctx, "users.Followers", id, page, limit, db.NewUserRepository(s.repo).ListFollowers)
}

// Following lists the users id follows
func (s *Service) Following(ctx context.Context, id int64, page, limit int) (*List, error) {
	return s.list(ctx, "users.Following", id, page, limit, db.NewUserRepository(s.repo).ListFollowing)
}

type edgeLister func(ctx context.Context, id int64, page, limit int) ([]*models.User, int64, error)

func (s *Service) list(ctx context.Context, op string, id int64, page, limit int, fetch edgeLister) (*List, error) {
	if _, err := s.get(ctx, op, id); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	rows, total, err := fetch(ctx, id, page, limit)
	if err != nil {
		return nil, errs.Internal(op, err)
	}
	out := &List{Users: make([]Summary, 0, len(rows)), TotalCount: total, Page: page, Limit: limit}
	for _, u := range rows {
		out.Users = append(out.Users, Summary{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL})
	}
	return out, nil
}

func (s *Service) get(ctx context.Context, op string, id int64) (*models.User, error) {
	if id <= 0 {
		return nil, errs.Validation(op, "invalid user id")
	}
	user, err := db.NewUserRepository(s.repo).GetByID(ctx, id)
	if err != nil {
		return nil, errs.Internal(op, err)
	}
	if user == nil {
		return nil, errs.NotFound(op, "user %d not found", id)
	}
	return user, nil
}
