package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carebridge-backend-go/internal/models"
	"carebridge-backend-go/pkg/cache"
)

// subscriptionCacheTTL bounds how long a last-known subscription status
// stays readable by other consumers (ops tooling, sibling shells). The
// session service itself always checks remotely.
const subscriptionCacheTTL = 10 * time.Minute

// billingService implements the BillingService interface over a remote
// billing endpoint, with a write-through cache of the last known status.
type billingService struct {
	client BillingClient
	cache  cache.Cache
	audit  AuditService
	logger *zap.Logger
}

// NewBillingService creates a new billingService.
func NewBillingService(client BillingClient, statusCache cache.Cache, audit AuditService, logger *zap.Logger) BillingService {
	if statusCache == nil {
		statusCache = cache.Noop{}
	}
	if audit == nil {
		audit = NewNoopAuditService()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &billingService{
		client: client,
		cache:  statusCache,
		audit:  audit,
		logger: logger,
	}
}

// CheckSubscription resolves billing state for the session. Fail-closed:
// with no session it resolves to not-subscribed without a remote call,
// and a remote error also resolves to not-subscribed. Paid access is
// never assumed on error.
func (s *billingService) CheckSubscription(ctx context.Context, session *models.Session) *models.SubscriptionStatus {
	if session == nil || session.AccessToken == "" {
		return &models.SubscriptionStatus{Subscribed: false}
	}

	status, err := s.client.SubscriptionStatus(ctx, session.AccessToken)
	if err != nil {
		s.logger.Warn("subscription check failed, treating as not subscribed", zap.Error(err))
		return &models.SubscriptionStatus{Subscribed: false}
	}
	if status == nil {
		status = &models.SubscriptionStatus{Subscribed: false}
	}

	s.cacheStatus(ctx, session, status)
	s.recordCheck(ctx, session, status)
	return status
}

// CreateCheckoutSession is a direct user action; errors surface.
func (s *billingService) CreateCheckoutSession(ctx context.Context, session *models.Session, priceID string) (string, error) {
	if session == nil || session.AccessToken == "" {
		return "", ErrNotAuthenticated
	}
	url, err := s.client.CreateCheckoutSession(ctx, session.AccessToken, priceID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBillingUnavailable, err)
	}
	return url, nil
}

// CreatePortalSession is a direct user action; errors surface.
func (s *billingService) CreatePortalSession(ctx context.Context, session *models.Session) (string, error) {
	if session == nil || session.AccessToken == "" {
		return "", ErrNotAuthenticated
	}
	url, err := s.client.CreatePortalSession(ctx, session.AccessToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBillingUnavailable, err)
	}
	return url, nil
}

func (s *billingService) cacheStatus(ctx context.Context, session *models.Session, status *models.SubscriptionStatus) {
	userID := sessionUserID(session)
	if userID == "" {
		return
	}
	encoded, err := json.Marshal(status)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, subscriptionCacheKey(userID), string(encoded), subscriptionCacheTTL); err != nil {
		s.logger.Warn("failed to cache subscription status", zap.String("userId", userID), zap.Error(err))
	}
}

// InvalidateCachedStatus drops the cached status for a user, e.g. when the
// session ends.
func (s *billingService) InvalidateCachedStatus(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	if err := s.cache.Delete(ctx, subscriptionCacheKey(userID)); err != nil {
		s.logger.Warn("failed to invalidate cached subscription status", zap.String("userId", userID), zap.Error(err))
	}
}

func (s *billingService) recordCheck(ctx context.Context, session *models.Session, status *models.SubscriptionStatus) {
	event := models.AuditEvent{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		UserID:    sessionUserID(session),
		Action:    models.AuditSubscriptionCheck,
		Details: map[string]interface{}{
			"subscribed": status.Subscribed,
			"tier":       status.Tier,
		},
	}
	if err := s.audit.RecordEvent(ctx, event); err != nil {
		s.logger.Warn("failed to record subscription audit event", zap.Error(err))
	}
}

func subscriptionCacheKey(userID string) string {
	return "subscription:" + userID
}

func sessionUserID(session *models.Session) string {
	if session == nil || session.User == nil {
		return ""
	}
	return session.User.ID
}
