package feed

import (
	"context"

	"github.com/tastefeed/server/internal/db"
	"github.com/tastefeed/server/internal/errs"
	"github.com/tastefeed/server/pkg/telemetry"
)

// Home lists posts by the authors the viewer follows. A viewer who follows
// nobody gets the latest posts instead.
func (s *Service) Home(ctx context.Context, q Query) (*Page, error) {
	const op = "feed.Home"
	ctx, span := telemetry.StartSpan(ctx, op)
	defer span.End()

	if q.ViewerID <= 0 {
		return nil, errs.Validation(op, "home feed requires a viewer")
	}

	following, err := db.NewRelationRepository(s.repo).FollowingIDs(ctx, q.ViewerID)
	if err != nil {
		return nil, errs.Internal(op, err)
	}
	if len(following) > 0 {
		q.AuthorIDs = following
	}
	q.Status = ""
	q.SortBy, q.SortOrder = SortCreatedAt, "desc"
	return s.ListPosts(ctx, q)
}

// Discover lists published posts, most liked first
func (s *Service) Discover(ctx context.Context, q Query) (*Page, error) {
	q.Status = ""
	if q.SortBy == "" {
		q.SortBy = SortLikesCount
	}
	return s.ListPosts(ctx, q)
}

// Showcase lists published showcase posts. Search also matches tag names.
func (s *Service) Showcase(ctx context.Context, q Query) (*Page, error) {
	showcase := true
	q.Showcase = &showcase
	q.SearchTags = true
	q.Status = ""
	return s.ListPosts(ctx, q)
}
