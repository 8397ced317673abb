package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tastefeed/server/internal/interaction"
)

type mutateFunc func(ctx context.Context, actorID, targetID int64) (interaction.Result, error)

// mutate applies a relation toggle on the :id target and answers 204.
// Duplicates are successful no-ops.
func (r *Router) mutate(c *gin.Context, op string, fn mutateFunc) {
	targetID, err := pathID(c, op, "id")
	if err != nil {
		fail(c, err)
		return
	}
	res, err := fn(c.Request.Context(), actorFrom(c).ID, targetID)
	if err != nil {
		fail(c, err)
		return
	}
	if res.NotifyErr != nil {
		r.logger.Warn("Interaction committed without notification",
			zap.String("op", op), zap.Int64("target_id", targetID), zap.Error(res.NotifyErr))
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) likePost(c *gin.Context) {
	r.mutate(c, "api.likePost", r.services.Interactions.LikePost)
}

func (r *Router) unlikePost(c *gin.Context) {
	r.mutate(c, "api.unlikePost", r.services.Interactions.UnlikePost)
}

func (r *Router) favoritePost(c *gin.Context) {
	r.mutate(c, "api.favoritePost", r.services.Interactions.FavoritePost)
}

func (r *Router) unfavoritePost(c *gin.Context) {
	r.mutate(c, "api.unfavoritePost", r.services.Interactions.UnfavoritePost)
}

func (r *Router) followUser(c *gin.Context) {
	r.mutate(c, "api.followUser", r.services.Interactions.FollowUser)
}

func (r *Router) unfollowUser(c *gin.Context) {
	r.mutate(c, "api.unfollowUser", r.services.Interactions.UnfollowUser)
}
