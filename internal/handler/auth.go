package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/auditgate/auditgate/internal/middleware"
	"github.com/auditgate/auditgate/internal/model"
	"github.com/auditgate/auditgate/internal/pkg/apperrors"
	"github.com/auditgate/auditgate/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	token, user, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.Error(apperrors.New(apperrors.ErrAuthFailed, "invalid username or password", nil))
			return
		}
		c.Error(apperrors.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, model.LoginResponse{Token: token, User: user})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	if actor == nil {
		c.Error(apperrors.New(apperrors.ErrAuthFailed, "authentication required", nil))
		return
	}
	h.svc.Logout(c.Request.Context(), actor)
	c.JSON(http.StatusOK, gin.H{"detail": "logged out"})
}
