package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createCommentRequest struct {
	Text     string `json:"text"`
	ParentID *int64 `json:"parentId"`
}

func (r *Router) listComments(c *gin.Context) {
	const op = "api.listComments"
	postID, err := pathID(c, op, "id")
	if err != nil {
		fail(c, err)
		return
	}
	comments, err := r.services.Comments.ListByPost(c.Request.Context(), postID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func (r *Router) createComment(c *gin.Context) {
	const op = "api.createComment"
	postID, err := pathID(c, op, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req createCommentRequest
	if err := bindJSON(c, op, &req); err != nil {
		fail(c, err)
		return
	}

	created, err := r.services.Comments.Create(c.Request.Context(), postID, actorFrom(c).ID, req.Text, req.ParentID)
	if err != nil {
		fail(c, err)
		return
	}
	if created.NotifyErr != nil {
		r.logger.Warn("Comment stored without notification", zap.Int64("post_id", postID), zap.Error(created.NotifyErr))
	}
	c.JSON(http.StatusCreated, created.Comment)
}

func (r *Router) deleteComment(c *gin.Context) {
	const op = "api.deleteComment"
	id, err := pathID(c, op, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := r.services.Comments.Delete(c.Request.Context(), id, actorFrom(c).ID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
