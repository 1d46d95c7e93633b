package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carebridge-backend-go/internal/core"
	"carebridge-backend-go/internal/identity"
)

// UserHandler handles profile endpoints for the signed-in user.
type UserHandler struct {
	sessions *core.SessionService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(sessions *core.SessionService) *UserHandler {
	return &UserHandler{sessions: sessions}
}

// GetMe handles GET /api/v1/users/me.
func (h *UserHandler) GetMe(c *gin.Context) {
	profile := h.sessions.Profile()
	if profile == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: core.ErrNotAuthenticated.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateMe handles PUT /api/v1/users/me. The provider is updated first;
// the local profile only changes once the remote write succeeds.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	profile, err := h.sessions.UpdateProfile(c.Request.Context(), identity.UpdateUserParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if errors.Is(err, core.ErrNotAuthenticated) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Failed to update profile", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, profile)
}
