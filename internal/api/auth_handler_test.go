package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
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

type scriptedProvider struct {
	events    chan identity.Event
	session   *models.Session
	signInErr error
	signUpErr error
}

var _ identity.Provider = (*scriptedProvider)(nil)

func newScriptedProvider() *scriptedProvider {
	return &scriptedProvider{events: make(chan identity.Event, 1)}
}

func (p *scriptedProvider) Subscribe() (<-chan identity.Event, func()) {
	return p.events, func() { close(p.events) }
}

func (p *scriptedProvider) CurrentSession(ctx context.Context) (*models.Session, error) {
	return nil, nil
}

func (p *scriptedProvider) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	return p.session, nil
}

func (p *scriptedProvider) SignUp(ctx context.Context, params identity.SignUpParams) error {
	return p.signUpErr
}

func (p *scriptedProvider) SignOut(ctx context.Context, accessToken string) error { return nil }

func (p *scriptedProvider) UpdateUser(ctx context.Context, accessToken string, params identity.UpdateUserParams) (*models.RawUser, error) {
	return nil, errors.New("not scripted")
}

type passiveBilling struct{}

var _ core.BillingService = passiveBilling{}

func (passiveBilling) CheckSubscription(ctx context.Context, session *models.Session) *models.SubscriptionStatus {
	return &models.SubscriptionStatus{Subscribed: false}
}

func (passiveBilling) CreateCheckoutSession(ctx context.Context, session *models.Session, priceID string) (string, error) {
	return "", core.ErrBillingUnavailable
}

func (passiveBilling) CreatePortalSession(ctx context.Context, session *models.Session) (string, error) {
	return "", core.ErrBillingUnavailable
}

func (passiveBilling) InvalidateCachedStatus(ctx context.Context, userID string) {}

func scriptedSession(role string) *models.Session {
	return &models.Session{
		AccessToken: "at-1",
		ExpiresAt:   time.Now().Add(time.Hour),
		User: &models.RawUser{
			ID:        "user-1",
			Email:     "ana@example.com",
			CreatedAt: "2025-04-01T10:00:00Z",
			Metadata: map[string]interface{}{
				"first_name": "Ana",
				"last_name":  "Souza",
				"role":       role,
			},
		},
	}
}

func handlerTestRig(t *testing.T, provider *scriptedProvider) (*gin.Engine, *core.SessionService) {
	t.Helper()
	svc, err := core.NewSessionService(core.SessionServiceDeps{
		Provider: provider,
		Billing:  passiveBilling{},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Initialize(context.Background()))
	t.Cleanup(svc.Teardown)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewAuthHandler(svc, navigation.DefaultTable())
	router.POST("/api/v1/auth/login", handler.Login)
	router.POST("/api/v1/auth/register", handler.Register)
	router.POST("/api/v1/auth/logout", handler.Logout)
	router.GET("/api/v1/session", handler.GetSession)
	return router, svc
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestLoginReturnsProfileAndRoleRedirect(t *testing.T) {
	provider := newScriptedProvider()
	provider.session = scriptedSession("nurse")
	router, _ := handlerTestRig(t, provider)

	w := postJSON(router, "/api/v1/auth/login", `{"email":"ana@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Profile)
	assert.Equal(t, models.RoleNurse, resp.Profile.Role)
	assert.Equal(t, "/nurse/dashboard", resp.Redirect)
}

func TestLoginRejectedCredentials(t *testing.T) {
	provider := newScriptedProvider()
	provider.signInErr = errors.New("identity provider: Invalid login credentials")
	router, svc := handlerTestRig(t, provider)

	w := postJSON(router, "/api/v1/auth/login", `{"email":"ana@example.com","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid login credentials")
	assert.Equal(t, core.StateAnonymous, svc.State())
}

func TestLoginInvalidPayload(t *testing.T) {
	router, _ := handlerTestRig(t, newScriptedProvider())

	w := postJSON(router, "/api/v1/auth/login", `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterPointsBackToLogin(t *testing.T) {
	router, svc := handlerTestRig(t, newScriptedProvider())

	w := postJSON(router, "/api/v1/auth/register", `{
		"email": "ana@example.com",
		"password": "secret123",
		"firstName": "Ana",
		"lastName": "Souza",
		"role": "nurse"
	}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp RegisterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "/login", resp.Redirect)
	// Registration never authenticates; email verification comes first.
	assert.Equal(t, core.StateAnonymous, svc.State())
}

func TestRegisterShortPassword(t *testing.T) {
	router, _ := handlerTestRig(t, newScriptedProvider())

	w := postJSON(router, "/api/v1/auth/register", `{
		"email": "ana@example.com",
		"password": "short",
		"firstName": "Ana",
		"lastName": "Souza"
	}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoutAlwaysSucceedsLocally(t *testing.T) {
	provider := newScriptedProvider()
	provider.session = scriptedSession("client")
	router, svc := handlerTestRig(t, provider)

	w := postJSON(router, "/api/v1/auth/login", `{"email":"ana@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, core.StateAuthenticated, svc.State())

	w = postJSON(router, "/api/v1/auth/logout", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp LogoutResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "/", resp.Redirect)
	assert.Empty(t, resp.Warning)
	assert.Equal(t, core.StateAnonymous, svc.State())
}

func TestGetSessionReflectsState(t *testing.T) {
	provider := newScriptedProvider()
	provider.session = scriptedSession("client")
	router, _ := handlerTestRig(t, provider)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "anonymous", resp.Status)
	assert.Nil(t, resp.Profile)

	postJSON(router, "/api/v1/auth/login", `{"email":"ana@example.com","password":"secret"}`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))

	resp = SessionResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "authenticated", resp.Status)
	require.NotNil(t, resp.Profile)
	assert.Equal(t, models.RoleClient, resp.Profile.Role)
}
