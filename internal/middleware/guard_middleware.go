package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carebridge-backend-go/internal/core"
	"carebridge-backend-go/internal/models"
	"carebridge-backend-go/internal/navigation"
)

// Guard is the declarative access-control wrapper gating protected shell
// routes by role and session state. It re-evaluates on every request
// against the session service's current state.
type Guard struct {
	sessions *core.SessionService
	routes   *navigation.Table
	logger   *zap.Logger

	// redirectTarget is where unauthenticated requests land. Defaults to
	// the route table's login path.
	redirectTarget string
}

// NewGuard creates a Guard.
func NewGuard(sessions *core.SessionService, routes *navigation.Table, logger *zap.Logger) *Guard {
	if sessions == nil {
		panic("Guard requires a non-nil SessionService")
	}
	if routes == nil {
		routes = navigation.DefaultTable()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		sessions:       sessions,
		routes:         routes,
		logger:         logger,
		redirectTarget: routes.Login,
	}
}

// WithRedirect overrides the unauthenticated redirect target.
func (g *Guard) WithRedirect(target string) *Guard {
	copied := *g
	copied.redirectTarget = target
	return &copied
}

// RequireAuthenticated gates a route on an authenticated session, with no
// role requirement.
func (g *Guard) RequireAuthenticated() gin.HandlerFunc {
	return g.guard(nil)
}

// Require gates a route on an authenticated session with the given role.
// An authenticated user of a different role is sent to their own
// dashboard, not bounced to a login screen they would immediately pass.
func (g *Guard) Require(role models.Role) gin.HandlerFunc {
	required := role
	return g.guard(&required)
}

func (g *Guard) guard(required *models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		// While the session snapshot is unresolved nothing is known, so
		// nothing is decided: no content, no redirect.
		if g.sessions.Loading() {
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"status": string(core.StateLoading)})
			return
		}

		profile := g.sessions.Profile()
		if !g.sessions.Authenticated() || profile == nil {
			c.Redirect(http.StatusFound, g.redirectTarget)
			c.Abort()
			return
		}

		if required != nil && profile.Role != *required {
			destination := g.routes.DashboardFor(profile.Role)
			g.logger.Info("role mismatch on guarded route",
				zap.String("path", c.Request.URL.Path),
				zap.String("required", required.String()),
				zap.String("actual", profile.Role.String()),
				zap.String("redirect", destination))
			c.Redirect(http.StatusFound, destination)
			c.Abort()
			return
		}

		c.Next()
	}
}
