// Package seed fills a database with fake users, posts and interactions.
// Posts, comments and interactions go through the domain services so stored
// counters and notifications match what real traffic would produce.
package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"

	"github.com/tastefeed/server/internal/comments"
	"github.com/tastefeed/server/internal/db"
	"github.com/tastefeed/server/internal/events"
	"github.com/tastefeed/server/internal/interaction"
	"github.com/tastefeed/server/internal/models"
	"github.com/tastefeed/server/internal/notify"
	"github.com/tastefeed/server/internal/posts"
	"github.com/tastefeed/server/pkg/logging"
)

// FixedTags are the curated tags every seeded database starts with
var FixedTags = []string{"Breakfast", "Lunch", "Dinner", "Dessert", "Snack"}

// Options sizes the generated data set
type Options struct {
	Users        int
	PostsPerUser int
	// Interaction odds in percent, per user and post pair
	LikePercent     int
	FavoritePercent int
	CommentPercent  int
	FollowPercent   int
}

// DefaultOptions returns a small but lively data set
func DefaultOptions() Options {
	return Options{
		Users:           20,
		PostsPerUser:    5,
		LikePercent:     30,
		FavoritePercent: 10,
		CommentPercent:  10,
		FollowPercent:   25,
	}
}

// Stats counts what a run created
type Stats struct {
	Users     int
	Posts     int
	Likes     int
	Favorites int
	Comments  int
	Follows   int
}

// Seeder generates fake data
type Seeder struct {
	repo         *db.Repository
	posts        *posts.Service
	interactions *interaction.Service
	comments     *comments.Service
	faker        *gofakeit.Faker
	logger       *zap.Logger
}

// New creates a seeder writing through repo. publisher may be nil.
// A non-zero seed makes runs reproducible.
func New(repo *db.Repository, publisher events.Publisher, seed int64) *Seeder {
	fanout := notify.NewFanout(repo)
	return &Seeder{
		repo:         repo,
		posts:        posts.NewService(repo, publisher),
		interactions: interaction.NewService(repo, fanout, publisher),
		comments:     comments.NewService(repo, fanout, publisher),
		faker:        gofakeit.New(seed),
		logger:       logging.WithComponent("seed"),
	}
}

// Run generates the data set described by opts
func (s *Seeder) Run(ctx context.Context, opts Options) (Stats, error) {
	var stats Stats

	if err := s.fixedTags(ctx); err != nil {
		return stats, err
	}

	users, err := s.users(ctx, opts.Users)
	if err != nil {
		return stats, err
	}
	stats.Users = len(users)

	var created []*models.Post
	for _, u := range users {
		for i := 0; i < opts.PostsPerUser; i++ {
			post, err := s.posts.Create(ctx, u.ID, s.postInput())
			if err != nil {
				return stats, fmt.Errorf("create post for user %d: %w", u.ID, err)
			}
			created = append(created, post)
		}
	}
	stats.Posts = len(created)
	s.logger.Info("Seeded posts", zap.Int("users", stats.Users), zap.Int("posts", stats.Posts))

	for _, u := range users {
		for _, other := range users {
			if other.ID == u.ID || !s.chance(opts.FollowPercent) {
				continue
			}
			res, err := s.interactions.FollowUser(ctx, u.ID, other.ID)
			if err != nil {
				return stats, fmt.Errorf("follow: %w", err)
			}
			if res.Changed {
				stats.Follows++
			}
		}

		for _, p := range created {
			if s.chance(opts.LikePercent) {
				res, err := s.interactions.LikePost(ctx, u.ID, p.ID)
				if err != nil {
					return stats, fmt.Errorf("like: %w", err)
				}
				if res.Changed {
					stats.Likes++
				}
			}
			if s.chance(opts.FavoritePercent) {
				res, err := s.interactions.FavoritePost(ctx, u.ID, p.ID)
				if err != nil {
					return stats, fmt.Errorf("favorite: %w", err)
				}
				if res.Changed {
					stats.Favorites++
				}
			}
			if s.chance(opts.CommentPercent) {
				if _, err := s.comments.Create(ctx, p.ID, u.ID, s.faker.Sentence(s.faker.Number(4, 16)), nil); err != nil {
					return stats, fmt.Errorf("comment: %w", err)
				}
				stats.Comments++
			}
		}
	}

	s.logger.Info("Seeding finished",
		zap.Int("users", stats.Users),
		zap.Int("posts", stats.Posts),
		zap.Int("likes", stats.Likes),
		zap.Int("favorites", stats.Favorites),
		zap.Int("comments", stats.Comments),
		zap.Int("follows", stats.Follows))
	return stats, nil
}

func (s *Seeder) fixedTags(ctx context.Context) error {
	tagRepo := db.NewTagRepository(s.repo)
	for _, name := range FixedTags {
		existing, err := tagRepo.GetByName(ctx, name)
		if err != nil {
			return fmt.Errorf("look up tag %s: %w", name, err)
		}
		if existing != nil {
			continue
		}
		if err := tagRepo.Create(ctx, &models.Tag{Name: name, IsFixed: true}); err != nil {
			return fmt.Errorf("create tag %s: %w", name, err)
		}
	}
	return nil
}

func (s *Seeder) users(ctx context.Context, n int) ([]*models.User, error) {
	userRepo := db.NewUserRepository(s.repo)
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		first, last := s.faker.FirstName(), s.faker.LastName()
		u := &models.User{
			Name: first + " " + last,
			// The random suffix keeps emails unique across repeated runs
			Email:     strings.ToLower(fmt.Sprintf("%s.%s.%s@example.com", first, last, s.faker.LetterN(6))),
			AvatarURL: s.faker.ImageURL(128, 128),
			Role:      models.RoleUser,
		}
		if err := userRepo.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *Seeder) postInput() posts.CreateInput {
	dishes := []func() string{s.faker.Breakfast, s.faker.Lunch, s.faker.Dinner, s.faker.Dessert, s.faker.Snack}
	pick := s.faker.Number(0, len(dishes)-1)

	in := posts.CreateInput{
		Title:      dishes[pick](),
		Content:    s.faker.Paragraph(2, 4, 12, "\n\n"),
		IsShowcase: s.chance(30),
		Tags:       []string{FixedTags[pick]},
	}
	if in.IsShowcase || s.chance(50) {
		in.ImageURL = s.faker.ImageURL(800, 600)
	}
	for i, n := 0, s.faker.Number(0, 2); i < n; i++ {
		in.Tags = append(in.Tags, s.faker.Adjective())
	}
	return in
}

func (s *Seeder) chance(percent int) bool {
	return percent > 0 && s.faker.Number(1, 100) <= percent
}
