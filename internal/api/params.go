package api

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/tastefeed/server/internal/errs"
	"github.com/tastefeed/server/internal/feed"
)

// pathID reads a positive integer path parameter
func pathID(c *gin.Context, op, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Validation(op, "invalid %s", name)
	}
	return id, nil
}

// pageQuery holds the paging parameters shared by list endpoints
type pageQuery struct {
	Page  int `form:"page" binding:"min=0"`
	Limit int `form:"limit" binding:"min=0"`
}

// postsQuery holds the listing parameters of post endpoints
type postsQuery struct {
	pageQuery
	AuthorID  int64    `form:"authorId" binding:"min=0"`
	Tags      []string `form:"tags"`
	Status    string   `form:"status"`
	Search    string   `form:"search" binding:"max=200"`
	Showcase  string   `form:"showcase" binding:"omitempty,oneof=true false"`
	SortBy    string   `form:"sortBy"`
	SortOrder string   `form:"sortOrder"`
}

func bindQuery(c *gin.Context, op string, dst interface{}) error {
	if err := c.ShouldBindQuery(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return errs.FromValidator(op, ve)
		}
		return errs.Validation(op, "malformed query parameters")
	}
	return nil
}

// feedQuery builds a feed query for the request's actor. Listing every
// status, soft-deleted posts included, is reserved for admins.
func feedQuery(c *gin.Context, op string) (feed.Query, error) {
	var p postsQuery
	if err := bindQuery(c, op, &p); err != nil {
		return feed.Query{}, err
	}

	actor := actorFrom(c)
	if strings.EqualFold(strings.TrimSpace(p.Status), feed.StatusAll) && !actor.IsAdmin() {
		return feed.Query{}, errs.Forbidden(op, "only admins can list posts of every status")
	}

	q := feed.Query{
		Page:      p.Page,
		Limit:     p.Limit,
		AuthorID:  p.AuthorID,
		TagNames:  splitTags(p.Tags),
		Status:    p.Status,
		Search:    p.Search,
		SortBy:    p.SortBy,
		SortOrder: p.SortOrder,
		ViewerID:  actor.ID,
	}
	if p.Showcase != "" {
		showcase := p.Showcase == "true"
		q.Showcase = &showcase
	}
	return q, nil
}

// splitTags accepts both repeated and comma separated tags parameters
func splitTags(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}
