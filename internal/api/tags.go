package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tastefeed/server/internal/models"
)

type tagView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IsFixed   bool      `json:"isFixed"`
	CreatedAt time.Time `json:"createdAt"`
}

func toTagView(t *models.Tag) tagView {
	return tagView{ID: t.ID, Name: t.Name, IsFixed: t.IsFixed, CreatedAt: t.CreatedAt}
}

type tagRequest struct {
	Name string `json:"name" binding:"required"`
}

func (r *Router) listTags(c *gin.Context) {
	tags, err := r.services.Tags.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]tagView, 0, len(tags))
	for _, t := range tags {
		out = append(out, toTagView(t))
	}
	c.JSON(http.StatusOK, gin.H{"tags": out})
}

func (r *Router) createTag(c *gin.Context) {
	const op = "api.createTag"
	var req tagRequest
	if err := bindJSON(c, op, &req); err != nil {
		fail(c, err)
		return
	}
	tag, err := r.services.Tags.Create(c.Request.Context(), req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTagView(tag))
}

func (r *Router) renameTag(c *gin.Context) {
	const op = "api.renameTag"
	id, err := pathID(c, op, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req tagRequest
	if err := bindJSON(c, op, &req); err != nil {
		fail(c, err)
		return
	}
	tag, err := r.services.Tags.Rename(c.Request.Context(), id, req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toTagView(tag))
}

func (r *Router) deleteTag(c *gin.Context) {
	const op = "api.deleteTag"
	id, err := pathID(c, op, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := r.services.Tags.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
