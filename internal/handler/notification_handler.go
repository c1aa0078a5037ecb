package handler

import (
	"net/http"

	"ddjj/internal/middleware"
	"ddjj/internal/service"
	"ddjj/pkg/pagination"
	"ddjj/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/notifications")
	group.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleOperator))
	{
		group.GET("", h.GetNotifications)
		group.PUT("/:id/read", h.MarkRead)
	}
}

// GetNotifications lists the operator inbox, unread first
// @Summary      List notifications
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20, max 100)"
// @Success      200    {object}  response.Response{data=response.Page}
// @Router       /api/notifications [get]
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	p := pagination.Parse(c)
	items, total, err := h.notificationService.GetNotifications(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, items, total, p.Page, p.Limit))
}

// MarkRead flags a notification as read
// @Summary      Mark notification read
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.notificationService.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"read": true}))
}
