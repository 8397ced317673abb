// Package feed assembles post listings and single posts for a viewer.
//
// A listing costs a fixed number of queries regardless of page size: one
// for the page rows with all counts and viewer flags, one for the page's
// tags and one for the total. likesCount is read from the stored counter;
// comment and favorite counts are computed from rows at read time.
package feed

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tastefeed/server/internal/db"
	"github.com/tastefeed/server/internal/errs"
	"github.com/tastefeed/server/pkg/telemetry"
)

// CountSource tells how a count was produced
type CountSource string

const (
	// CountStored is read from a counter maintained on write
	CountStored CountSource = "STORED"
	// CountComputed is counted from rows when read
	CountComputed CountSource = "COMPUTED"
)

// countSources is identical for every post
var countSources = map[string]CountSource{
	"likesCount":     CountStored,
	"commentsCount":  CountComputed,
	"favoritesCount": CountComputed,
}

// Author is the author block of a post view
type Author struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatarUrl"`
	IsFollowing bool   `json:"isFollowing"`
}

// PostView is the read model of a post for one viewer
type PostView struct {
	ID             int64                  `json:"id"`
	Title          string                 `json:"title"`
	Content        string                 `json:"content"`
	ImageURL       string                 `json:"imageUrl"`
	Status         string                 `json:"status"`
	IsShowcase     bool                   `json:"isShowcase"`
	ViewCount      int64                  `json:"viewCount"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
	AuthorID       int64                  `json:"authorId"`
	Author         Author                 `json:"author"`
	Tags           []string               `json:"tags"`
	LikesCount     int64                  `json:"likesCount"`
	CommentsCount  int64                  `json:"commentsCount"`
	FavoritesCount int64                  `json:"favoritesCount"`
	IsLiked        bool                   `json:"isLiked"`
	IsFavorited    bool                   `json:"isFavorited"`
	CountSources   map[string]CountSource `json:"countSources"`
}

// Page is one page of a listing
type Page struct {
	Posts      []PostView `json:"posts"`
	TotalCount int64      `json:"totalCount"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"totalPages"`
}

// postRow is the scan target of the listing query
type postRow struct {
	ID              int64     `gorm:"column:id"`
	AuthorID        int64     `gorm:"column:author_id"`
	Title           string    `gorm:"column:title"`
	Content         string    `gorm:"column:content"`
	ImageURL        string    `gorm:"column:image_url"`
	Status          string    `gorm:"column:status"`
	IsShowcase      bool      `gorm:"column:is_showcase"`
	LikesCount      int64     `gorm:"column:likes_count"`
	ViewCount       int64     `gorm:"column:view_count"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
	AuthorName      string    `gorm:"column:author_name"`
	AuthorAvatarURL string    `gorm:"column:author_avatar_url"`
	CommentsCount   int64     `gorm:"column:comments_count"`
	FavoritesCount  int64     `gorm:"column:favorites_count"`
	IsLiked         bool      `gorm:"column:is_liked"`
	IsFavorited     bool      `gorm:"column:is_favorited"`
}

type tagRow struct {
	PostID int64  `gorm:"column:post_id"`
	Name   string `gorm:"column:name"`
}

const selectColumns = `posts.id, posts.author_id, posts.title, posts.content, posts.image_url,
	posts.status, posts.is_showcase, posts.likes_count, posts.view_count,
	posts.created_at, posts.updated_at,
	users.name AS author_name, users.avatar_url AS author_avatar_url,
	(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count,
	(SELECT COUNT(*) FROM favorites WHERE favorites.post_id = posts.id) AS favorites_count,
	(viewer_like.user_id IS NOT NULL) AS is_liked,
	(viewer_favorite.user_id IS NOT NULL) AS is_favorited`

// Options tunes the service
type Options struct {
	DefaultLimit int
	MaxLimit     int
}

// Service assembles feeds
type Service struct {
	repo *db.Repository
	opts Options
}

// NewService creates a new feed service
func NewService(repo *db.Repository, opts Options) *Service {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 10
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = 100
	}
	return &Service{repo: repo, opts: opts}
}

// ListPosts returns one page of posts matching q, annotated for q.ViewerID
func (s *Service) ListPosts(ctx context.Context, q Query) (*Page, error) {
	const op = "feed.ListPosts"
	ctx, span := telemetry.StartSpan(ctx, op)
	defer span.End()

	if err := q.normalize(s.opts.DefaultLimit, s.opts.MaxLimit); err != nil {
		return nil, err
	}

	var total int64
	if err := s.filtered(ctx, &q).Count(&total).Error; err != nil {
		return nil, errs.Internal(op, err)
	}

	page := &Page{Posts: []PostView{}, TotalCount: total, Page: q.Page, Limit: q.Limit}
	page.TotalPages = int((total + int64(q.Limit) - 1) / int64(q.Limit))

	if total > int64(q.offset()) {
		var rows []postRow
		err := s.withProjection(s.filtered(ctx, &q), q.ViewerID).
			Order(q.orderClause()).
			Offset(q.offset()).
			Limit(q.Limit).
			Scan(&rows).Error
		if err != nil {
			return nil, errs.Internal(op, err)
		}

		posts, err := s.assemble(ctx, rows)
		if err != nil {
			return nil, errs.Internal(op, err)
		}
		page.Posts = posts
	}
	return page, nil
}

// GetPost returns a live post by id for viewerID. The author's isFollowing
// is resolved with one extra existence check.
func (s *Service) GetPost(ctx context.Context, id, viewerID int64) (*PostView, error) {
	const op = "feed.GetPost"
	ctx, span := telemetry.StartSpan(ctx, op)
	defer span.End()

	if id <= 0 {
		return nil, errs.Validation(op, "invalid post id")
	}

	var rows []postRow
	err := s.withProjection(
		s.repo.Conn(ctx).Table("posts").Where("posts.id = ? AND posts.deleted_at IS NULL", id),
		viewerID,
	).Limit(1).Scan(&rows).Error
	if err != nil {
		return nil, errs.Internal(op, err)
	}
	if len(rows) == 0 {
		return nil, errs.NotFound(op, "post %d not found", id)
	}

	posts, err := s.assemble(ctx, rows)
	if err != nil {
		return nil, errs.Internal(op, err)
	}
	post := posts[0]

	if viewerID > 0 && viewerID != post.AuthorID {
		following, err := db.NewRelationRepository(s.repo).IsFollowing(ctx, viewerID, post.AuthorID)
		if err != nil {
			return nil, errs.Internal(op, err)
		}
		post.Author.IsFollowing = following
	}
	return &post, nil
}

// filtered applies the shared predicate of the page and count queries
func (s *Service) filtered(ctx context.Context, q *Query) *gorm.DB {
	tx := s.repo.Conn(ctx).Table("posts")

	if q.Status != StatusAll {
		tx = tx.Where("posts.status = ?", q.Status)
	}
	if q.AuthorID > 0 {
		tx = tx.Where("posts.author_id = ?", q.AuthorID)
	}
	if q.AuthorIDs != nil {
		if len(q.AuthorIDs) == 0 {
			tx = tx.Where("1 = 0")
		} else {
			tx = tx.Where("posts.author_id IN ?", q.AuthorIDs)
		}
	}
	if q.FavoritedBy > 0 {
		tx = tx.Where("EXISTS (SELECT 1 FROM favorites WHERE favorites.post_id = posts.id AND favorites.user_id = ?)", q.FavoritedBy)
	}
	if q.Showcase != nil {
		tx = tx.Where("posts.is_showcase = ?", *q.Showcase)
	}
	if len(q.TagNames) > 0 {
		tx = tx.Where(`EXISTS (SELECT 1 FROM post_tags JOIN tags ON tags.id = post_tags.tag_id
			WHERE post_tags.post_id = posts.id AND LOWER(tags.name) IN ?)`, q.TagNames)
	}
	if q.Search != "" {
		pattern := likePattern(q.Search)
		if q.SearchTags {
			tx = tx.Where(`(LOWER(posts.title) LIKE ? ESCAPE '\' OR LOWER(posts.content) LIKE ? ESCAPE '\'
				OR EXISTS (SELECT 1 FROM post_tags JOIN tags ON tags.id = post_tags.tag_id
					WHERE post_tags.post_id = posts.id AND LOWER(tags.name) LIKE ? ESCAPE '\'))`,
				pattern, pattern, pattern)
		} else {
			tx = tx.Where(`(LOWER(posts.title) LIKE ? ESCAPE '\' OR LOWER(posts.content) LIKE ? ESCAPE '\')`,
				pattern, pattern)
		}
	}
	return tx
}

// withProjection adds the author join, aggregate columns and the viewer
// joins. Likes and favorites are keyed by (user_id, post_id), so each
// viewer join matches at most one row per post. A zero viewer matches none.
func (s *Service) withProjection(tx *gorm.DB, viewerID int64) *gorm.DB {
	return tx.
		Select(selectColumns).
		Joins("JOIN users ON users.id = posts.author_id").
		Joins("LEFT JOIN likes viewer_like ON viewer_like.post_id = posts.id AND viewer_like.user_id = ?", viewerID).
		Joins("LEFT JOIN favorites viewer_favorite ON viewer_favorite.post_id = posts.id AND viewer_favorite.user_id = ?", viewerID)
}

// assemble maps rows to views and attaches tags with a single query
func (s *Service) assemble(ctx context.Context, rows []postRow) ([]PostView, error) {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}

	tagsByPost := make(map[int64][]string, len(rows))
	if len(ids) > 0 {
		var tags []tagRow
		err := s.repo.Conn(ctx).Table("post_tags").
			Select("post_tags.post_id, tags.name").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where("post_tags.post_id IN ?", ids).
			Order("tags.name ASC").
			Scan(&tags).Error
		if err != nil {
			return nil, err
		}
		for _, t := range tags {
			tagsByPost[t.PostID] = append(tagsByPost[t.PostID], t.Name)
		}
	}

	views := make([]PostView, len(rows))
	for i, r := range rows {
		tags := tagsByPost[r.ID]
		if tags == nil {
			tags = []string{}
		}
		views[i] = PostView{
			ID:         r.ID,
			Title:      r.Title,
			Content:    r.Content,
			ImageURL:   r.ImageURL,
			Status:     r.Status,
			IsShowcase: r.IsShowcase,
			ViewCount:  r.ViewCount,
			CreatedAt:  r.CreatedAt,
			UpdatedAt:  r.UpdatedAt,
			AuthorID:   r.AuthorID,
			Author: Author{
				ID:        r.AuthorID,
				Name:      r.AuthorName,
				AvatarURL: r.AuthorAvatarURL,
			},
			Tags:           tags,
			LikesCount:     r.LikesCount,
			CommentsCount:  r.CommentsCount,
			FavoritesCount: r.FavoritesCount,
			IsLiked:        r.IsLiked,
			IsFavorited:    r.IsFavorited,
			CountSources:   countSources,
		}
	}
	return views, nil
}
