package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focusboard/backend/internal/middleware"
	"focusboard/backend/internal/service"
)

type SettingsHandler struct {
	settingsService *service.SettingsService
}

type updateSettingsRequest struct {
	WorkMinutes            int   `json:"workDurationMinutes"`
	ShortBreakMinutes      int   `json:"shortBreakDurationMinutes"`
	LongBreakMinutes       int   `json:"longBreakDurationMinutes"`
	SessionsUntilLongBreak int   `json:"sessionsUntilLongBreak"`
	SoundEnabled           *bool `json:"soundEnabled"`
}

func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	settings, apiErr := h.settingsService.Get(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	settings, apiErr := h.settingsService.Update(c.Request.Context(), middleware.UserID(c), service.UpdateSettingsInput{
		WorkMinutes:            req.WorkMinutes,
		ShortBreakMinutes:      req.ShortBreakMinutes,
		LongBreakMinutes:       req.LongBreakMinutes,
		SessionsUntilLongBreak: req.SessionsUntilLongBreak,
		SoundEnabled:           req.SoundEnabled,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}
