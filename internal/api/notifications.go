package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type notificationsQuery struct {
	pageQuery
	UnreadOnly bool `form:"unreadOnly"`
}

func (r *Router) listNotifications(c *gin.Context) {
	const op = "api.listNotifications"
	var q notificationsQuery
	if err := bindQuery(c, op, &q); err != nil {
		fail(c, err)
		return
	}
	page, err := r.services.Notifications.List(c.Request.Context(), actorFrom(c).ID, q.Page, q.Limit, q.UnreadOnly)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (r *Router) unreadCount(c *gin.Context) {
	n, err := r.services.Notifications.UnreadCount(c.Request.Context(), actorFrom(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": n})
}

func (r *Router) markRead(c *gin.Context) {
	const op = "api.markRead"
	id, err := pathID(c, op, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := r.services.Notifications.MarkRead(c.Request.Context(), actorFrom(c).ID, id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) markAllRead(c *gin.Context) {
	n, err := r.services.Notifications.MarkAllRead(c.Request.Context(), actorFrom(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

func (r *Router) deleteNotification(c *gin.Context) {
	const op = "api.deleteNotification"
	id, err := pathID(c, op, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := r.services.Notifications.Delete(c.Request.Context(), actorFrom(c).ID, id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) clearNotifications(c *gin.Context) {
	n, err := r.services.Notifications.ClearAll(c.Request.Context(), actorFrom(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
