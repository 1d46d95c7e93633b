package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carebridge-backend-go/internal/core"
)

// BillingHandler handles subscription status and Stripe billing flows.
type BillingHandler struct {
	sessions *core.SessionService
	billing  core.BillingService
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(sessions *core.SessionService, billing core.BillingService) *BillingHandler {
	return &BillingHandler{sessions: sessions, billing: billing}
}

// GetSubscription handles GET /api/v1/billing/subscription. It returns
// the cached status held by the session service together with the
// in-flight flag; it never triggers a remote check itself.
func (h *BillingHandler) GetSubscription(c *gin.Context) {
	c.JSON(http.StatusOK, SubscriptionResponse{
		Status:   h.sessions.Subscription(),
		Checking: h.sessions.CheckingSubscription(),
	})
}

// CheckSubscription handles POST /api/v1/billing/subscription/check. It
// forces a fresh remote check and returns the resolved status. A remote
// failure still answers 200 with subscribed=false.
func (h *BillingHandler) CheckSubscription(c *gin.Context) {
	status := h.sessions.CheckSubscription(c.Request.Context())
	c.JSON(http.StatusOK, SubscriptionResponse{
		Status:   status,
		Checking: false,
	})
}

// CreateCheckoutSession handles POST /api/v1/billing/create-checkout-session.
func (h *BillingHandler) CreateCheckoutSession(c *gin.Context) {
	var req CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	url, err := h.billing.CreateCheckoutSession(c.Request.Context(), h.sessions.Session(), req.PriceID)
	if err != nil {
		h.writeBillingError(c, err)
		return
	}
	c.JSON(http.StatusOK, RedirectURLResponse{URL: url})
}

// CreatePortalSession handles POST /api/v1/billing/create-portal-session.
func (h *BillingHandler) CreatePortalSession(c *gin.Context) {
	url, err := h.billing.CreatePortalSession(c.Request.Context(), h.sessions.Session())
	if err != nil {
		h.writeBillingError(c, err)
		return
	}
	c.JSON(http.StatusOK, RedirectURLResponse{URL: url})
}

func (h *BillingHandler) writeBillingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrBillingUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: core.ErrBillingUnavailable.Error(), Details: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
