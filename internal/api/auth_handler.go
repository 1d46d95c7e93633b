package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carebridge-backend-go/internal/core"
	"carebridge-backend-go/internal/models"
	"carebridge-backend-go/internal/navigation"
)

// AuthHandler handles authentication related API endpoints.
type AuthHandler struct {
	sessions *core.SessionService
	routes   *navigation.Table
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(sessions *core.SessionService, routes *navigation.Table) *AuthHandler {
	return &AuthHandler{sessions: sessions, routes: routes}
}

// Login handles POST /api/v1/auth/login. Credential verification is
// delegated to the identity provider; on success the response carries the
// resolved profile and the role-based destination, so the shell navigates
// after a single awaited call.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	profile, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// The provider's rejection reason is the user-facing message; no
		// state changed.
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Profile:  profile,
		Redirect: h.routes.DashboardFor(profile.Role),
	})
}

// Register handles POST /api/v1/auth/register. Registration never
// auto-authenticates: the provider requires email verification, so the
// shell is pointed back at the login prompt.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	err := h.sessions.Register(c.Request.Context(), core.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      models.ParseRole(req.Role),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, RegisterResponse{
		Message:  "Registration successful. Check your email to confirm your account.",
		Redirect: h.routes.Login,
	})
}

// Logout handles POST /api/v1/auth/logout. The local session is always
// cleared; a remote sign-out failure surfaces as a warning, not as an
// error that would strand the user signed in.
func (h *AuthHandler) Logout(c *gin.Context) {
	resp := LogoutResponse{
		Message:  "Signed out",
		Redirect: h.routes.Home,
	}
	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		resp.Warning = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// GetSession handles GET /api/v1/session. It exposes loading distinctly
// from anonymous so the shell never treats "don't know yet" as "signed
// out".
func (h *AuthHandler) GetSession(c *gin.Context) {
	resp := SessionResponse{Status: string(h.sessions.State())}
	if resp.Status == string(core.StateAuthenticated) {
		resp.Profile = h.sessions.Profile()
		resp.Subscription = h.sessions.Subscription()
	}
	c.JSON(http.StatusOK, resp)
}
