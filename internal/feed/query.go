package feed

import (
	"fmt"
	"strings"

	"github.com/tastefeed/server/internal/errs"
	"github.com/tastefeed/server/internal/models"
)

// StatusAll lists posts of every status, soft-deleted ones included
const StatusAll = "ALL"

// Sort keys
const (
	SortCreatedAt     = "createdAt"
	SortViewCount     = "viewCount"
	SortLikesCount    = "likesCount"
	SortCommentsCount = "commentsCount"
	// SortPopular is accepted as an alias of likesCount
	SortPopular = "popular"
)

// Query selects, orders and pages posts for one viewer
type Query struct {
	Page      int
	Limit     int
	AuthorID  int64
	AuthorIDs []int64 // restrict to these authors; nil means no restriction
	// FavoritedBy restricts to posts saved by this user
	FavoritedBy int64
	TagNames    []string
	Status      string
	Search      string
	// SearchTags extends Search to tag names
	SearchTags bool
	Showcase   *bool
	SortBy     string
	SortOrder  string
	ViewerID   int64
}

var sortColumns = map[string]string{
	SortCreatedAt:     "posts.created_at",
	SortViewCount:     "posts.view_count",
	SortLikesCount:    "posts.likes_count",
	SortCommentsCount: "comments_count",
}

// normalize fills defaults and rejects values outside the accepted sets
func (q *Query) normalize(defaultLimit, maxLimit int) error {
	const op = "feed.Query"

	switch {
	case q.Page < 0:
		return errs.Validation(op, "page must be at least 1")
	case q.Page == 0:
		q.Page = 1
	}
	switch {
	case q.Limit < 0:
		return errs.Validation(op, "limit must be positive")
	case q.Limit == 0:
		q.Limit = defaultLimit
	case q.Limit > maxLimit:
		q.Limit = maxLimit
	}

	q.Status = strings.ToUpper(strings.TrimSpace(q.Status))
	switch q.Status {
	case "":
		q.Status = models.PostStatusPublished
	case models.PostStatusPublished, models.PostStatusPending, models.PostStatusDeleted, StatusAll:
	default:
		return errs.Validation(op, "unknown status %q", q.Status)
	}

	if q.SortBy == "" {
		q.SortBy = SortCreatedAt
	}
	if q.SortBy == SortPopular {
		q.SortBy = SortLikesCount
	}
	if _, ok := sortColumns[q.SortBy]; !ok {
		return errs.Validation(op, "unknown sortBy %q", q.SortBy)
	}

	q.SortOrder = strings.ToLower(q.SortOrder)
	switch q.SortOrder {
	case "":
		q.SortOrder = "desc"
	case "asc", "desc":
	default:
		return errs.Validation(op, "sortOrder must be asc or desc")
	}

	q.Search = strings.TrimSpace(q.Search)
	q.TagNames = normalizeTags(q.TagNames)
	return nil
}

// orderClause returns the ORDER BY for the query with an id tie-break
func (q *Query) orderClause() string {
	dir := strings.ToUpper(q.SortOrder)
	return fmt.Sprintf("%s %s, posts.id %s", sortColumns[q.SortBy], dir, dir)
}

func (q *Query) offset() int {
	return (q.Page - 1) * q.Limit
}

// normalizeTags lowercases, trims and deduplicates tag names
func normalizeTags(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// likePattern escapes LIKE wildcards in term and wraps it for substring match
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(term)) + "%"
}
