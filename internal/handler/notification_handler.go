package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"focusboard/backend/internal/middleware"
	"focusboard/backend/internal/service"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List(c *gin.Context) {
	var after int64
	if raw := c.Query("after"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			after = parsed
		}
	}

	items, apiErr := h.notificationService.List(c.Request.Context(), middleware.UserID(c), after, queryInt(c, "limit", 50))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}
