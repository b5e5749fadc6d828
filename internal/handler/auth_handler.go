package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "focusboard/backend/internal/errors"
	"focusboard/backend/internal/middleware"
	"focusboard/backend/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type credentialsOp func(ctx context.Context, email, password string) (*service.AuthResult, *apperrors.APIError)

func credentials(op credentialsOp, status int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req authRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeInvalidJSON(c)
			return
		}
		result, apiErr := op(c.Request.Context(), req.Email, req.Password)
		if apiErr != nil {
			writeError(c, apiErr)
			return
		}
		c.JSON(status, result)
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	credentials(h.authService.Register, http.StatusCreated)(c)
}

func (h *AuthHandler) Login(c *gin.Context) {
	credentials(h.authService.Login, http.StatusOK)(c)
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, apiErr := h.authService.Me(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
