package core

import (
	"context"

	"carebridge-backend-go/internal/models"
)

// BillingClient is the remote billing endpoint consumed by the
// BillingService. Calls are authenticated with the session's opaque
// access token.
type BillingClient interface {
	// SubscriptionStatus queries the billing status endpoint.
	SubscriptionStatus(ctx context.Context, accessToken string) (*models.SubscriptionStatus, error)
	// CreateCheckoutSession returns a checkout redirect URL.
	CreateCheckoutSession(ctx context.Context, accessToken, priceID string) (string, error)
	// CreatePortalSession returns a billing portal redirect URL.
	CreatePortalSession(ctx context.Context, accessToken string) (string, error)
}

// BillingService defines subscription and billing operations.
type BillingService interface {
	// CheckSubscription resolves the billing state for the given session.
	// It never returns an error for background-check purposes: a missing
	// session skips the remote call and a remote failure resolves to
	// not-subscribed (fail-closed).
	CheckSubscription(ctx context.Context, session *models.Session) *models.SubscriptionStatus
	// CreateCheckoutSession and CreatePortalSession are direct user
	// actions; their errors surface to the caller.
	CreateCheckoutSession(ctx context.Context, session *models.Session, priceID string) (string, error)
	CreatePortalSession(ctx context.Context, session *models.Session) (string, error)
	// InvalidateCachedStatus drops any cached status for a user, e.g.
	// when their session ends.
	InvalidateCachedStatus(ctx context.Context, userID string)
}

// AuditService defines the interface for audit logging operations.
type AuditService interface {
	RecordEvent(ctx context.Context, event models.AuditEvent) error
}
