package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tastefeed/server/internal/users"
)

func (r *Router) getProfile(c *gin.Context) {
	const op = "api.getProfile"
	id, err := pathID(c, op, "id")
	if err != nil {
		fail(c, err)
		return
	}
	profile, err := r.services.Users.Profile(c.Request.Context(), id, actorFrom(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (r *Router) getMe(c *gin.Context) {
	actor := actorFrom(c)
	profile, err := r.services.Users.Profile(c.Request.Context(), actor.ID, actor.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (r *Router) updateMe(c *gin.Context) {
	const op = "api.updateMe"
	var in users.UpdateInput
	if err := bindJSON(c, op, &in); err != nil {
		fail(c, err)
		return
	}
	profile, err := r.services.Users.Update(c.Request.Context(), actorFrom(c).ID, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (r *Router) listFollowers(c *gin.Context) {
	r.listEdges(c, "api.listFollowers", r.services.Users.Followers)
}

func (r *Router) listFollowing(c *gin.Context) {
	r.listEdges(c, "api.listFollowing", r.services.Users.Following)
}

func (r *Router) listEdges(c *gin.Context, op string, fetch func(ctx context.Context, id int64, page, limit int) (*users.List, error)) {
	id, err := pathID(c, op, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var q pageQuery
	if err := bindQuery(c, op, &q); err != nil {
		fail(c, err)
		return
	}
	list, err := fetch(c.Request.Context(), id, q.Page, q.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
