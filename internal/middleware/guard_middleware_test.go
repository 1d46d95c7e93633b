package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carebridge-backend-go/internal/core"
	"carebridge-backend-go/internal/identity"
	"carebridge-backend-go/internal/models"
	"carebridge-backend-go/internal/navigation"
)

type staticProvider struct {
	session *models.Session
	events  chan identity.Event
}

var _ identity.Provider = (*staticProvider)(nil)

func newStaticProvider(session *models.Session) *staticProvider {
	return &staticProvider{session: session, events: make(chan identity.Event, 1)}
}

func (p *staticProvider) Subscribe() (<-chan identity.Event, func()) {
	return p.events, func() { close(p.events) }
}

func (p *staticProvider) CurrentSession(ctx context.Context) (*models.Session, error) {
	return p.session, nil
}

func (p *staticProvider) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	return p.session, nil
}

func (p *staticProvider) SignUp(ctx context.Context, params identity.SignUpParams) error {
	return nil
}

func (p *staticProvider) SignOut(ctx context.Context, accessToken string) error { return nil }

func (p *staticProvider) UpdateUser(ctx context.Context, accessToken string, params identity.UpdateUserParams) (*models.RawUser, error) {
	return nil, nil
}

type stubBilling struct{}

var _ core.BillingService = stubBilling{}

func (stubBilling) CheckSubscription(ctx context.Context, session *models.Session) *models.SubscriptionStatus {
	return &models.SubscriptionStatus{Subscribed: false}
}

func (stubBilling) CreateCheckoutSession(ctx context.Context, session *models.Session, priceID string) (string, error) {
	return "", core.ErrBillingUnavailable
}

func (stubBilling) CreatePortalSession(ctx context.Context, session *models.Session) (string, error) {
	return "", core.ErrBillingUnavailable
}

func (stubBilling) InvalidateCachedStatus(ctx context.Context, userID string) {}

func sessionWithRole(role string) *models.Session {
	return &models.Session{
		AccessToken: "at-1",
		ExpiresAt:   time.Now().Add(time.Hour),
		User: &models.RawUser{
			ID:        "user-1",
			Email:     "ana@example.com",
			CreatedAt: "2025-04-01T10:00:00Z",
			Metadata:  map[string]interface{}{"role": role},
		},
	}
}

// guardedService builds a session service already settled in the state the
// provider's snapshot implies; initialize=false leaves it loading.
func guardedService(t *testing.T, session *models.Session, initialize bool) *core.SessionService {
	t.Helper()
	svc, err := core.NewSessionService(core.SessionServiceDeps{
		Provider: newStaticProvider(session),
		Billing:  stubBilling{},
	})
	require.NoError(t, err)
	if initialize {
		require.NoError(t, svc.Initialize(context.Background()))
		t.Cleanup(svc.Teardown)
	}
	return svc
}

func guardRouter(guard gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/nurse/dashboard", guard, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"page": "nurse-dashboard"})
	})
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestGuardWhileLoadingDecidesNothing(t *testing.T) {
	svc := guardedService(t, sessionWithRole("nurse"), false)
	guard := NewGuard(svc, navigation.DefaultTable(), nil)

	w := get(guardRouter(guard.Require(models.RoleNurse)), "/nurse/dashboard")

	// No redirect and no content while the snapshot is unresolved.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"loading"`)
	assert.NotContains(t, w.Body.String(), "nurse-dashboard")
}

func TestGuardUnauthenticatedRedirectsToLogin(t *testing.T) {
	svc := guardedService(t, nil, true)
	guard := NewGuard(svc, navigation.DefaultTable(), nil)

	w := get(guardRouter(guard.Require(models.RoleNurse)), "/nurse/dashboard")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestGuardRoleMismatchRedirectsToOwnDashboard(t *testing.T) {
	svc := guardedService(t, sessionWithRole("client"), true)
	guard := NewGuard(svc, navigation.DefaultTable(), nil)

	w := get(guardRouter(guard.Require(models.RoleNurse)), "/nurse/dashboard")

	// An authenticated client is sent to their own dashboard, never back
	// to a login screen they would immediately pass.
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/client/dashboard", w.Header().Get("Location"))
}

func TestGuardMatchingRolePasses(t *testing.T) {
	svc := guardedService(t, sessionWithRole("nurse"), true)
	guard := NewGuard(svc, navigation.DefaultTable(), nil)

	w := get(guardRouter(guard.Require(models.RoleNurse)), "/nurse/dashboard")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nurse-dashboard")
}

func TestGuardRequireAuthenticatedOnly(t *testing.T) {
	svc := guardedService(t, sessionWithRole("client"), true)
	guard := NewGuard(svc, navigation.DefaultTable(), nil)

	w := get(guardRouter(guard.RequireAuthenticated()), "/nurse/dashboard")

	// Any authenticated role passes when no specific role is demanded.
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGuardCustomRedirect(t *testing.T) {
	svc := guardedService(t, nil, true)
	guard := NewGuard(svc, navigation.DefaultTable(), nil).WithRedirect("/welcome")

	w := get(guardRouter(guard.RequireAuthenticated()), "/nurse/dashboard")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/welcome", w.Header().Get("Location"))
}
