package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carebridge-backend-go/internal/core"
	"carebridge-backend-go/internal/middleware"
	"carebridge-backend-go/internal/models"
	"carebridge-backend-go/internal/navigation"
)

// SetupRoutes configures all application routes with their handlers and
// guards. Global middleware (logging, recovery, CORS) is expected to be
// applied to the router before this is called, typically in main.go.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	sessions *core.SessionService,
	billingService core.BillingService,
	routes *navigation.Table,
) {
	guard := middleware.NewGuard(sessions, routes, logger)

	authHandler := NewAuthHandler(sessions, routes)
	userHandler := NewUserHandler(sessions)
	billingHandler := NewBillingHandler(sessions, billingService)
	shellHandler := NewShellHandler(sessions, routes)

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/logout", authHandler.Logout)
		}

		// Session state is readable in any state; the response carries
		// loading/authenticated/anonymous explicitly.
		apiV1.GET("/session", authHandler.GetSession)

		userGroup := apiV1.Group("/users", guard.RequireAuthenticated())
		{
			userGroup.GET("/me", userHandler.GetMe)
			userGroup.PUT("/me", userHandler.UpdateMe)
		}

		// Billing is a nurse concern: subscription gating only applies to
		// the nurse dashboard.
		billingGroup := apiV1.Group("/billing", guard.Require(models.RoleNurse))
		{
			billingGroup.GET("/subscription", billingHandler.GetSubscription)
			billingGroup.POST("/subscription/check", billingHandler.CheckSubscription)
			billingGroup.POST("/create-checkout-session", billingHandler.CreateCheckoutSession)
			billingGroup.POST("/create-portal-session", billingHandler.CreatePortalSession)
		}
	}

	// Shell pages. Public pages carry no guard; each dashboard demands
	// its own role and the guard redirects mismatches to the visitor's
	// own dashboard.
	router.GET(routes.Home, shellHandler.Home)
	router.GET(routes.Login, shellHandler.Login)
	router.GET(routes.Dashboards["nurse"], guard.Require(models.RoleNurse), shellHandler.NurseDashboard)
	router.GET(routes.Dashboards["client"], guard.Require(models.RoleClient), shellHandler.ClientDashboard)
	router.GET(routes.Dashboards["admin"], guard.Require(models.RoleAdmin), shellHandler.AdminDashboard)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "CareBridge backend is healthy."})
	})

	logger.Info("API routes configured under /api/v1, shell routes and /health.")
}
