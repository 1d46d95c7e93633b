package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carebridge-backend-go/internal/core"
	"carebridge-backend-go/internal/navigation"
)

// ShellHandler serves the dashboard shell pages as JSON view models. The
// route guard in front of each dashboard has already settled loading,
// authentication and role by the time these run.
type ShellHandler struct {
	sessions *core.SessionService
	routes   *navigation.Table
}

// NewShellHandler creates a new ShellHandler.
func NewShellHandler(sessions *core.SessionService, routes *navigation.Table) *ShellHandler {
	return &ShellHandler{sessions: sessions, routes: routes}
}

// Home handles GET /. The landing page is public; when a session exists
// it advertises the signed-in user's dashboard.
func (h *ShellHandler) Home(c *gin.Context) {
	view := gin.H{
		"page":  "home",
		"login": h.routes.Login,
	}
	if profile := h.sessions.Profile(); profile != nil {
		view["dashboard"] = h.routes.DashboardFor(profile.Role)
	}
	c.JSON(http.StatusOK, view)
}

// Login handles GET /login. An already-authenticated visitor is bounced
// to their own dashboard instead of being shown the form again.
func (h *ShellHandler) Login(c *gin.Context) {
	if profile := h.sessions.Profile(); profile != nil {
		c.Redirect(http.StatusFound, h.routes.DashboardFor(profile.Role))
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": "login"})
}

// NurseDashboard handles GET /nurse/dashboard. The banner reflects the
// current subscription state so the shell can prompt for checkout while
// a background check is still running.
func (h *ShellHandler) NurseDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page":         "nurse-dashboard",
		"profile":      h.sessions.Profile(),
		"subscription": h.sessions.Subscription(),
		"checking":     h.sessions.CheckingSubscription(),
	})
}

// ClientDashboard handles GET /client/dashboard.
func (h *ShellHandler) ClientDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page":    "client-dashboard",
		"profile": h.sessions.Profile(),
	})
}

// AdminDashboard handles GET /admin/dashboard.
func (h *ShellHandler) AdminDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page":    "admin-dashboard",
		"profile": h.sessions.Profile(),
	})
}
