package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carebridge-backend-go/internal/identity"
	"carebridge-backend-go/internal/models"
	"carebridge-backend-go/pkg/mailer"
	"carebridge-backend-go/pkg/messagequeue"
)

// SessionState labels the session lifecycle for consumers.
type SessionState string

const (
	StateLoading       SessionState = "loading"
	StateAuthenticated SessionState = "authenticated"
	StateAnonymous     SessionState = "anonymous"
)

// RegisterParams carries the fields for account registration.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      models.Role
}

// SessionService owns the single authoritative (session, profile,
// subscription) triple for the running shell. It is the only writer;
// every other component reads through its accessors. Updates arrive
// either from its own operations or from the provider's session-change
// event stream, which it consumes on one goroutine started by Initialize.
type SessionService struct {
	provider   identity.Provider
	billing    BillingService
	audit      AuditService
	events     messagequeue.Publisher
	mail       mailer.Mailer
	logger     *zap.Logger
	eventQueue string

	mu                   sync.RWMutex
	initialized          bool
	loading              bool
	session              *models.Session
	profile              *models.UserProfile
	subscription         *models.SubscriptionStatus
	checkingSubscription bool

	cancelSub func()
	done      chan struct{}
}

// SessionServiceDeps lists the collaborators injected into a
// SessionService. Provider and Billing are required; the rest default to
// no-ops.
type SessionServiceDeps struct {
	Provider   identity.Provider
	Billing    BillingService
	Audit      AuditService
	Events     messagequeue.Publisher
	Mailer     mailer.Mailer
	Logger     *zap.Logger
	EventQueue string
}

// NewSessionService creates a SessionService. Call Initialize before use
// and Teardown on shutdown.
func NewSessionService(deps SessionServiceDeps) (*SessionService, error) {
	if deps.Provider == nil {
		return nil, errors.New("session service requires an identity provider")
	}
	if deps.Billing == nil {
		return nil, errors.New("session service requires a billing service")
	}
	if deps.Audit == nil {
		deps.Audit = NewNoopAuditService()
	}
	if deps.Events == nil {
		deps.Events = messagequeue.Noop{}
	}
	if deps.Mailer == nil {
		deps.Mailer = mailer.Noop{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.EventQueue == "" {
		deps.EventQueue = "carebridge.auth-events"
	}
	return &SessionService{
		provider:   deps.Provider,
		billing:    deps.Billing,
		audit:      deps.Audit,
		events:     deps.Events,
		mail:       deps.Mailer,
		logger:     deps.Logger,
		eventQueue: deps.EventQueue,
		loading:    true,
	}, nil
}

// Initialize subscribes to the provider's session-change events and then
// requests the current session snapshot. The subscription MUST be in
// place before the snapshot request: a sign-in event fired while the
// snapshot is in flight would otherwise be lost. Loading resolves exactly
// once per run.
func (s *SessionService) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return errors.New("session service already initialized")
	}
	s.initialized = true
	s.loading = true
	s.mu.Unlock()

	events, cancel := s.provider.Subscribe()
	s.cancelSub = cancel
	s.done = make(chan struct{})
	go s.consumeEvents(events)

	snapshot, err := s.provider.CurrentSession(ctx)
	if err != nil {
		// Fail-closed: an unreachable provider at startup means anonymous,
		// not a dead shell.
		s.logger.Error("failed to restore session at startup", zap.Error(err))
		s.finishLoading()
		return nil
	}
	if snapshot != nil {
		s.applySnapshot(ctx, snapshot)
	}
	s.finishLoading()
	return nil
}

// Teardown releases the provider event subscription and waits for the
// consumer goroutine to drain.
func (s *SessionService) Teardown() {
	if s.cancelSub != nil {
		s.cancelSub()
	}
	if s.done != nil {
		<-s.done
	}
}

func (s *SessionService) consumeEvents(events <-chan identity.Event) {
	defer close(s.done)
	for ev := range events {
		ctx := context.Background()
		switch ev.Type {
		case identity.EventSignedIn, identity.EventTokenRefreshed:
			if ev.Session != nil {
				s.applySession(ctx, ev.Session)
			}
		case identity.EventSignedOut:
			s.clearState(ctx)
		}
		s.finishLoading()
	}
}

// Login verifies credentials with the provider and, on success, resolves
// the profile inline from the sign-in response so the caller can navigate
// deterministically by role. The provider's own sign-in event arrives as
// well; applySession treats it as a no-op duplicate.
func (s *SessionService) Login(ctx context.Context, email, password string) (*models.UserProfile, error) {
	s.mu.RLock()
	ready := s.initialized
	s.mu.RUnlock()
	if !ready {
		return nil, ErrNotInitialized
	}

	session, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}

	profile := s.applySession(ctx, session)
	if profile == nil {
		return nil, fmt.Errorf("sign-in succeeded but the user record could not be resolved")
	}

	s.recordAudit(ctx, models.AuditUserLogin, profile.ID, map[string]interface{}{"role": profile.Role.String()})
	s.publishAuthEvent(models.AuditUserLogin, profile.ID, profile.Email)

	copied := *profile
	return &copied, nil
}

// Register creates an account with the provider, embedding role and
// display-name metadata. No session is established; the provider requires
// email verification before the first sign-in.
func (s *SessionService) Register(ctx context.Context, params RegisterParams) error {
	role := params.Role
	if !role.Valid() || role == models.RoleGuest {
		role = models.ParseRole(role.String())
	}

	err := s.provider.SignUp(ctx, identity.SignUpParams{
		Email:     params.Email,
		Password:  params.Password,
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Role:      role,
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, models.AuditUserRegister, "", map[string]interface{}{
		"email": params.Email,
		"role":  role.String(),
	})
	s.publishAuthEvent(models.AuditUserRegister, "", params.Email)
	s.sendWelcomeMail(params.Email, params.FirstName)
	return nil
}

// Logout terminates the session with the provider and clears the local
// triple. Fail-open: local state is cleared even when the remote sign-out
// fails, so the shell never strands the user in a signed-in-looking state
// while offline. The remote failure is still returned for surfacing.
func (s *SessionService) Logout(ctx context.Context) error {
	s.mu.RLock()
	session := s.session
	userID := ""
	if s.profile != nil {
		userID = s.profile.ID
	}
	s.mu.RUnlock()

	if session == nil {
		return nil
	}

	remoteErr := s.provider.SignOut(ctx, session.AccessToken)
	s.clearState(ctx)

	s.recordAudit(ctx, models.AuditUserLogout, userID, nil)
	s.publishAuthEvent(models.AuditUserLogout, userID, "")

	if remoteErr != nil {
		return fmt.Errorf("remote sign-out failed (local session cleared): %w", remoteErr)
	}
	return nil
}

// UpdateProfile pushes changed fields to the provider and merges them
// into the local profile once the provider accepts them. Requires an
// active session.
func (s *SessionService) UpdateProfile(ctx context.Context, params identity.UpdateUserParams) (*models.UserProfile, error) {
	s.mu.RLock()
	session := s.session
	s.mu.RUnlock()
	if session == nil || session.AccessToken == "" {
		return nil, ErrNotAuthenticated
	}

	raw, err := s.provider.UpdateUser(ctx, session.AccessToken, params)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.profile != nil {
		if params.FirstName != nil {
			s.profile.FirstName = *params.FirstName
		}
		if params.LastName != nil {
			s.profile.LastName = *params.LastName
		}
	}
	if s.session != nil && raw != nil {
		s.session.User = raw
	}
	var copied *models.UserProfile
	var userID string
	if s.profile != nil {
		c := *s.profile
		copied = &c
		userID = c.ID
	}
	s.mu.Unlock()

	s.recordAudit(ctx, models.AuditProfileUpdate, userID, nil)
	return copied, nil
}

// CheckSubscription re-checks billing state for the current session. The
// checking flag is set for the duration and cleared on every exit path.
// With no session, or on a remote failure, the result is not-subscribed.
func (s *SessionService) CheckSubscription(ctx context.Context) *models.SubscriptionStatus {
	s.setCheckingSubscription(true)
	defer s.setCheckingSubscription(false)

	s.mu.RLock()
	session := s.session
	s.mu.RUnlock()

	status := s.billing.CheckSubscription(ctx, session)

	s.mu.Lock()
	if s.session != nil && s.profile != nil && s.profile.Role == models.RoleNurse {
		s.subscription = status
	}
	s.mu.Unlock()
	return status
}

// --- accessors ---

// Loading reports whether the initial session snapshot is still
// unresolved. Route guards must distinguish this from "known
// unauthenticated".
func (s *SessionService) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Authenticated reports whether a resolved session and profile exist.
func (s *SessionService) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.loading && s.session != nil && s.profile != nil
}

// State labels the current lifecycle position.
func (s *SessionService) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.loading:
		return StateLoading
	case s.session != nil && s.profile != nil:
		return StateAuthenticated
	default:
		return StateAnonymous
	}
}

// Profile returns a copy of the resolved profile, or nil.
func (s *SessionService) Profile() *models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	copied := *s.profile
	return &copied
}

// Session returns a copy of the current session handle, or nil. A copy,
// not the internal pointer: UpdateProfile replaces the installed
// session's user record under the lock, and a caller holding the
// internal pointer would read that field unsynchronized.
func (s *SessionService) Session() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	copied := *s.session
	return &copied
}

// Subscription returns a copy of the cached subscription status, or nil
// when none applies (no session, or non-nurse role).
func (s *SessionService) Subscription() *models.SubscriptionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.subscription == nil {
		return nil
	}
	copied := *s.subscription
	return &copied
}

// CheckingSubscription reports whether a billing check is in flight.
func (s *SessionService) CheckingSubscription() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkingSubscription
}

// --- internals ---

// applySession resolves the raw user into a profile and installs the
// triple. A session whose profile cannot be resolved is treated as
// unauthenticated. Returns the installed profile, or nil. Re-applying the
// session that is already installed is a no-op.
func (s *SessionService) applySession(ctx context.Context, session *models.Session) *models.UserProfile {
	return s.apply(ctx, session, true)
}

// applySnapshot installs the startup snapshot, but never over a session
// that arrived through the event stream while the snapshot request was in
// flight: the event is newer and wins.
func (s *SessionService) applySnapshot(ctx context.Context, session *models.Session) *models.UserProfile {
	return s.apply(ctx, session, false)
}

func (s *SessionService) apply(ctx context.Context, session *models.Session, replace bool) *models.UserProfile {
	profile, err := identity.ResolveProfile(session.User)
	if err != nil {
		s.logger.Error("profile resolution failed, treating session as unauthenticated", zap.Error(err))
		s.clearState(ctx)
		return nil
	}

	// Duplicate check and install form one critical section. Login's
	// inline apply and the provider's own sign-in event run concurrently;
	// split lock phases would let both install and double-run the
	// subscription check.
	s.mu.Lock()
	if s.session != nil && (s.session.AccessToken == session.AccessToken || !replace) {
		var copied *models.UserProfile
		if s.profile != nil {
			c := *s.profile
			copied = &c
		}
		s.mu.Unlock()
		return copied
	}
	s.session = session
	s.profile = profile
	s.subscription = nil
	s.mu.Unlock()

	// Billing state is only ever checked after the role is confirmed.
	if profile.Role == models.RoleNurse {
		s.CheckSubscription(ctx)
	}
	return profile
}

// clearState drops session, profile and subscription in one step; there
// is never a partially-cleared triple.
func (s *SessionService) clearState(ctx context.Context) {
	s.mu.Lock()
	userID := ""
	if s.profile != nil {
		userID = s.profile.ID
	}
	s.session = nil
	s.profile = nil
	s.subscription = nil
	s.mu.Unlock()

	if userID != "" {
		s.billing.InvalidateCachedStatus(ctx, userID)
	}
}

func (s *SessionService) finishLoading() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

func (s *SessionService) setCheckingSubscription(v bool) {
	s.mu.Lock()
	s.checkingSubscription = v
	s.mu.Unlock()
}

func (s *SessionService) recordAudit(ctx context.Context, action, userID string, details map[string]interface{}) {
	event := models.AuditEvent{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Action:    action,
		Details:   details,
	}
	if err := s.audit.RecordEvent(ctx, event); err != nil {
		s.logger.Warn("failed to record audit event", zap.String("action", action), zap.Error(err))
	}
}

type authEventMessage struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	UserID    string    `json:"userId,omitempty"`
	Email     string    `json:"email,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *SessionService) publishAuthEvent(action, userID, email string) {
	message := authEventMessage{
		ID:        uuid.New().String(),
		Action:    action,
		UserID:    userID,
		Email:     email,
		Timestamp: time.Now().UTC(),
	}
	body, err := json.Marshal(message)
	if err != nil {
		return
	}
	if err := s.events.Publish(s.eventQueue, body); err != nil {
		s.logger.Warn("failed to publish auth event", zap.String("action", action), zap.Error(err))
	}
}

func (s *SessionService) sendWelcomeMail(email, firstName string) {
	greeting := "Welcome to CareBridge"
	if firstName != "" {
		greeting = "Welcome to CareBridge, " + firstName
	}
	body := "<p>" + greeting + "!</p><p>Please confirm your email address to activate your account, then sign in.</p>"
	if err := s.mail.Send(email, "Confirm your CareBridge account", body); err != nil {
		s.logger.Warn("failed to send welcome mail", zap.String("email", email), zap.Error(err))
	}
}
