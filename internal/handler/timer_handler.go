package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "focusboard/backend/internal/errors"
	"focusboard/backend/internal/middleware"
	"focusboard/backend/internal/service"
)

type TimerHandler struct {
	timerService *service.TimerService
}

type startRequest struct {
	TaskID string `json:"taskId"`
}

type rewindRequest struct {
	RemainingSeconds *int `json:"remainingSeconds"`
}

func NewTimerHandler(timerService *service.TimerService) *TimerHandler {
	return &TimerHandler{timerService: timerService}
}

type timerAction func(ctx context.Context, userID string) (*service.TimerView, *apperrors.APIError)

// action wraps a body-less timer operation.
func (h *TimerHandler) action(op timerAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		if userID == "" {
			writeUnauthorized(c)
			return
		}
		state, apiErr := op(c.Request.Context(), userID)
		if apiErr != nil {
			writeError(c, apiErr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": state})
	}
}

func (h *TimerHandler) GetState(c *gin.Context) { h.action(h.timerService.State)(c) }

func (h *TimerHandler) Refresh(c *gin.Context) { h.action(h.timerService.Refresh)(c) }

func (h *TimerHandler) Pause(c *gin.Context) { h.action(h.timerService.Pause)(c) }

func (h *TimerHandler) Resume(c *gin.Context) { h.action(h.timerService.Resume)(c) }

func (h *TimerHandler) Stop(c *gin.Context) { h.action(h.timerService.Stop)(c) }

func (h *TimerHandler) CompleteWork(c *gin.Context) { h.action(h.timerService.CompleteWork)(c) }

func (h *TimerHandler) Next(c *gin.Context) { h.action(h.timerService.Next)(c) }

func (h *TimerHandler) SkipBreak(c *gin.Context) { h.action(h.timerService.SkipBreak)(c) }

func (h *TimerHandler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	userID := middleware.UserID(c)
	state, apiErr := h.timerService.Start(c.Request.Context(), userID, req.TaskID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) Rewind(c *gin.Context) {
	var req rewindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}
	if req.RemainingSeconds == nil {
		writeError(c, apperrors.BadRequest("invalid_remaining", "remainingSeconds is required"))
		return
	}

	userID := middleware.UserID(c)
	state, apiErr := h.timerService.Rewind(c.Request.Context(), userID, *req.RemainingSeconds)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) GetHistory(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		writeUnauthorized(c)
		return
	}

	sessions, apiErr := h.timerService.History(c.Request.Context(), userID, queryInt(c, "limit", 50))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
