package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"carebridge-backend-go/internal/models"
)

// eventBuffer bounds each subscriber channel. A subscriber that stops
// draining loses events rather than blocking provider operations.
const eventBuffer = 8

// GoTrueClientConfig contains options for creating a GoTrueClient.
type GoTrueClientConfig struct {
	// BaseURL is the auth API root, e.g. "https://xyz.supabase.co/auth/v1".
	BaseURL string
	// APIKey is sent as the "apikey" header on every request.
	APIKey string
	// RefreshToken, when set, lets CurrentSession restore the persisted
	// provider session at process start.
	RefreshToken string
	// HTTPClient defaults to a client with a 30s timeout when nil.
	HTTPClient *http.Client
}

// GoTrueClient implements Provider against a GoTrue-style REST auth API.
// It is also the event source: provider operations that change the session
// fan an Event out to all subscribers.
type GoTrueClient struct {
	baseURL      string
	apiKey       string
	refreshToken string
	httpClient   *http.Client
	logger       *zap.Logger

	mu          sync.Mutex
	nextSubID   int
	subscribers map[int]chan Event
}

// NewGoTrueClient creates a GoTrueClient.
func NewGoTrueClient(cfg GoTrueClientConfig, logger *zap.Logger) (*GoTrueClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("identity: BaseURL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &GoTrueClient{
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		refreshToken: cfg.RefreshToken,
		httpClient:   httpClient,
		logger:       logger,
		subscribers:  make(map[int]chan Event),
	}, nil
}

var _ Provider = (*GoTrueClient)(nil)

// Subscribe registers a session-change listener.
func (c *GoTrueClient) Subscribe() (<-chan Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	ch := make(chan Event, eventBuffer)
	c.subscribers[id] = ch

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subscribers[id]; ok {
			delete(c.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (c *GoTrueClient) emit(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subscribers {
		select {
		case ch <- ev:
		default:
			c.logger.Warn("dropping session event for slow subscriber",
				zap.Int("subscriber", id),
				zap.String("event", string(ev.Type)))
		}
	}
}

// CurrentSession restores the persisted provider session by exchanging the
// configured refresh token. Without one there is no session to restore and
// it returns (nil, nil).
func (c *GoTrueClient) CurrentSession(ctx context.Context) (*models.Session, error) {
	c.mu.Lock()
	refreshToken := c.refreshToken
	c.mu.Unlock()
	if refreshToken == "" {
		return nil, nil
	}
	session, err := c.tokenGrant(ctx, "refresh_token", map[string]string{
		"refresh_token": refreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return session, nil
}

// SignInWithPassword performs the password grant and emits EventSignedIn
// on success.
func (c *GoTrueClient) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	session, err := c.tokenGrant(ctx, "password", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.refreshToken = session.RefreshToken
	c.mu.Unlock()
	c.emit(Event{Type: EventSignedIn, Session: session})
	return session, nil
}

// SignUp creates an account with role and display-name fields embedded as
// metadata. The provider requires email verification, so no session is
// established and no event is emitted.
func (c *GoTrueClient) SignUp(ctx context.Context, params SignUpParams) error {
	body := map[string]interface{}{
		"email":    params.Email,
		"password": params.Password,
		"data":     writeMetadata(params.FirstName, params.LastName, params.Role),
	}
	resp, err := c.do(ctx, http.MethodPost, "/signup", "", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return c.apiError(resp)
	}
	return nil
}

// SignOut revokes the session on the provider and emits EventSignedOut.
func (c *GoTrueClient) SignOut(ctx context.Context, accessToken string) error {
	resp, err := c.do(ctx, http.MethodPost, "/logout", accessToken, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return c.apiError(resp)
	}
	c.mu.Lock()
	c.refreshToken = ""
	c.mu.Unlock()
	c.emit(Event{Type: EventSignedOut})
	return nil
}

// UpdateUser pushes metadata changes and returns the normalized updated
// record.
func (c *GoTrueClient) UpdateUser(ctx context.Context, accessToken string, params UpdateUserParams) (*models.RawUser, error) {
	data := map[string]interface{}{}
	if params.FirstName != nil {
		data[metaFirstName] = *params.FirstName
		data["firstName"] = *params.FirstName
	}
	if params.LastName != nil {
		data[metaLastName] = *params.LastName
		data["lastName"] = *params.LastName
	}
	resp, err := c.do(ctx, http.MethodPut, "/user", accessToken, map[string]interface{}{"data": data})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, c.apiError(resp)
	}

	var payload rawUserPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode user response: %w", err)
	}
	return payload.toRawUser(), nil
}

// --- wire payloads ---

type rawUserPayload struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	CreatedAt    string                 `json:"created_at"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
}

func (p *rawUserPayload) toRawUser() *models.RawUser {
	return &models.RawUser{
		ID:        p.ID,
		Email:     p.Email,
		CreatedAt: p.CreatedAt,
		Metadata:  NormalizeMetadata(p.UserMetadata),
	}
}

type sessionPayload struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresIn    int64           `json:"expires_in"`
	User         *rawUserPayload `json:"user"`
}

type apiErrorPayload struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (c *GoTrueClient) tokenGrant(ctx context.Context, grantType string, body map[string]string) (*models.Session, error) {
	resp, err := c.do(ctx, http.MethodPost, "/token?grant_type="+grantType, "", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, c.apiError(resp)
	}

	var payload sessionPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}
	session := &models.Session{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second),
	}
	if payload.User != nil {
		session.User = payload.User.toRawUser()
	}
	return session, nil
}

func (c *GoTrueClient) do(ctx context.Context, method, path, accessToken string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider unreachable: %w", err)
	}
	return resp, nil
}

// apiError converts a non-2xx provider response into an error carrying the
// provider's rejection reason.
func (c *GoTrueClient) apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload apiErrorPayload
	_ = json.Unmarshal(raw, &payload)

	reason := payload.ErrorDescription
	if reason == "" {
		reason = payload.Msg
	}
	if reason == "" {
		reason = payload.Message
	}
	if reason == "" {
		reason = payload.Error
	}
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	c.logger.Warn("identity provider rejected request",
		zap.Int("status", resp.StatusCode),
		zap.String("reason", reason))
	return fmt.Errorf("identity provider: %s", reason)
}
