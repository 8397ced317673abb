package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tastefeed/server/internal/feed"
	"github.com/tastefeed/server/internal/posts"
)

type listFunc func(ctx context.Context, q feed.Query) (*feed.Page, error)

// listWith serves a post listing through one of the feed entry points
func (r *Router) listWith(c *gin.Context, op string, list listFunc) {
	q, err := feedQuery(c, op)
	if err != nil {
		fail(c, err)
		return
	}
	page, err := list(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (r *Router) listPosts(c *gin.Context) {
	r.listWith(c, "api.listPosts", r.services.Feed.ListPosts)
}

func (r *Router) homeFeed(c *gin.Context) {
	r.listWith(c, "api.homeFeed", r.services.Feed.Home)
}

func (r *Router) discoverFeed(c *gin.Context) {
	r.listWith(c, "api.discoverFeed", r.services.Feed.Discover)
}

func (r *Router) showcaseFeed(c *gin.Context) {
	r.listWith(c, "api.showcaseFeed", r.services.Feed.Showcase)
}

// getPost returns one post and counts the view. A failed view count never
// fails the read.
func (r *Router) getPost(c *gin.Context) {
	const op = "api.getPost"
	id, err := pathID(c, op, "id")
	if err != nil {
		fail(c, err)
		return
	}

	post, err := r.services.Feed.GetPost(c.Request.Context(), id, actorFrom(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	if err := r.services.Views.Record(c.Request.Context(), id); err != nil {
		r.logger.Warn("Failed to record view", zap.Int64("post_id", id), zap.Error(err))
	}
	c.JSON(http.StatusOK, post)
}

func (r *Router) createPost(c *gin.Context) {
	const op = "api.createPost"
	var in posts.CreateInput
	if err := bindJSON(c, op, &in); err != nil {
		fail(c, err)
		return
	}

	actor := actorFrom(c)
	created, err := r.services.Posts.Create(c.Request.Context(), actor.ID, in)
	if err != nil {
		fail(c, err)
		return
	}
	r.respondPost(c, http.StatusCreated, created.ID)
}

func (r *Router) updatePost(c *gin.Context) {
	const op = "api.updatePost"
	id, err := pathID(c, op, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var in posts.UpdateInput
	if err := bindJSON(c, op, &in); err != nil {
		fail(c, err)
		return
	}

	if _, err := r.services.Posts.Update(c.Request.Context(), id, actorFrom(c).ID, in); err != nil {
		fail(c, err)
		return
	}
	r.respondPost(c, http.StatusOK, id)
}

func (r *Router) deletePost(c *gin.Context) {
	const op = "api.deletePost"
	id, err := pathID(c, op, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := r.services.Posts.Delete(c.Request.Context(), id, actorFrom(c).ID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// respondPost answers with the viewer's read model of a post just written
func (r *Router) respondPost(c *gin.Context, status int, id int64) {
	view, err := r.services.Feed.GetPost(c.Request.Context(), id, actorFrom(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(status, view)
}

func (r *Router) listUserPosts(c *gin.Context) {
	const op = "api.listUserPosts"
	id, err := pathID(c, op, "id")
	if err != nil {
		fail(c, err)
		return
	}
	r.listWith(c, op, func(ctx context.Context, q feed.Query) (*feed.Page, error) {
		q.AuthorID = id
		return r.services.Feed.ListPosts(ctx, q)
	})
}

func (r *Router) listFavorites(c *gin.Context) {
	r.listWith(c, "api.listFavorites", func(ctx context.Context, q feed.Query) (*feed.Page, error) {
		q.FavoritedBy = q.ViewerID
		return r.services.Feed.ListPosts(ctx, q)
	})
}
