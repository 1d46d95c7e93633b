package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSessionBody = `{
	"access_token": "at-1",
	"refresh_token": "rt-1",
	"expires_in": 3600,
	"user": {
		"id": "user-1",
		"email": "ana@example.com",
		"created_at": "2025-04-01T10:00:00Z",
		"user_metadata": {"firstName": "Ana", "lastName": "Souza", "role": "nurse"}
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*GoTrueClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewGoTrueClient(GoTrueClientConfig{
		BaseURL: server.URL,
		APIKey:  "anon-key",
	}, nil)
	require.NoError(t, err)
	return client, server
}

func TestSignInWithPasswordEmitsEvent(t *testing.T) {
	var gotPath, gotAPIKey string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotAPIKey = r.Header.Get("apikey")
		w.Write([]byte(testSessionBody))
	})

	events, cancel := client.Subscribe()
	defer cancel()

	session, err := client.SignInWithPassword(context.Background(), "ana@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "/token?grant_type=password", gotPath)
	assert.Equal(t, "anon-key", gotAPIKey)
	assert.Equal(t, "at-1", session.AccessToken)
	assert.Equal(t, "rt-1", session.RefreshToken)
	require.NotNil(t, session.User)
	// The adapter normalizes legacy metadata spellings on the way in.
	assert.Equal(t, "Ana", MetadataString(session.User.Metadata, "first_name"))

	select {
	case ev := <-events:
		assert.Equal(t, EventSignedIn, ev.Type)
		require.NotNil(t, ev.Session)
		assert.Equal(t, "at-1", ev.Session.AccessToken)
	case <-time.After(time.Second):
		t.Fatal("expected a signed-in event")
	}
}

func TestSignInWithPasswordRejected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error_description": "Invalid login credentials"}`))
	})

	events, cancel := client.Subscribe()
	defer cancel()

	session, err := client.SignInWithPassword(context.Background(), "ana@example.com", "wrong")
	require.Error(t, err)
	assert.Nil(t, session)
	assert.Contains(t, err.Error(), "Invalid login credentials")
	assert.Empty(t, events)
}

func TestCurrentSessionWithoutRefreshToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected without a refresh token")
	})

	session, err := client.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestCurrentSessionExchangesRefreshToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "rt-persisted", body["refresh_token"])
		w.Write([]byte(testSessionBody))
	}))
	defer server.Close()

	client, err := NewGoTrueClient(GoTrueClientConfig{
		BaseURL:      server.URL,
		RefreshToken: "rt-persisted",
	}, nil)
	require.NoError(t, err)

	session, err := client.CurrentSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "at-1", session.AccessToken)
}

func TestSignUpSendsDualSpellingMetadata(t *testing.T) {
	var body map[string]interface{}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/signup", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{"id": "user-1"}`))
	})

	err := client.SignUp(context.Background(), SignUpParams{
		Email:     "ana@example.com",
		Password:  "secret123",
		FirstName: "Ana",
		LastName:  "Souza",
		Role:      "nurse",
	})
	require.NoError(t, err)

	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Ana", data["first_name"])
	assert.Equal(t, "Ana", data["firstName"])
	assert.Equal(t, "Souza", data["last_name"])
	assert.Equal(t, "Souza", data["lastName"])
	assert.Equal(t, "nurse", data["role"])
}

func TestSignOutClearsRefreshTokenAndEmits(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/logout":
			assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusNoContent)
		default:
			w.Write([]byte(testSessionBody))
		}
	})

	// Establish a session first so a refresh token is held.
	_, err := client.SignInWithPassword(context.Background(), "ana@example.com", "secret")
	require.NoError(t, err)

	events, cancel := client.Subscribe()
	defer cancel()

	require.NoError(t, client.SignOut(context.Background(), "at-1"))

	select {
	case ev := <-events:
		assert.Equal(t, EventSignedOut, ev.Type)
		assert.Nil(t, ev.Session)
	case <-time.After(time.Second):
		t.Fatal("expected a signed-out event")
	}

	// With the refresh token gone there is no session to restore.
	session, err := client.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestUpdateUserReturnsNormalizedRecord(t *testing.T) {
	first := "Beatriz"
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/user", r.URL.Path)
		w.Write([]byte(`{
			"id": "user-1",
			"email": "ana@example.com",
			"created_at": "2025-04-01T10:00:00Z",
			"user_metadata": {"firstName": "Beatriz", "lastName": "Souza", "role": "nurse"}
		}`))
	})

	raw, err := client.UpdateUser(context.Background(), "at-1", UpdateUserParams{FirstName: &first})
	require.NoError(t, err)
	assert.Equal(t, "Beatriz", MetadataString(raw.Metadata, "first_name"))
	assert.Equal(t, "Souza", MetadataString(raw.Metadata, "last_name"))
}

func TestAPIErrorReasonFallbacks(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"error_description", `{"error_description": "bad creds"}`, "bad creds"},
		{"msg", `{"msg": "signup disabled"}`, "signup disabled"},
		{"message", `{"message": "not allowed"}`, "not allowed"},
		{"error", `{"error": "invalid_grant"}`, "invalid_grant"},
		{"empty body", `{}`, http.StatusText(http.StatusBadRequest)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tc.body))
			})
			_, err := client.SignInWithPassword(context.Background(), "a@b.c", "x")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestSubscribeCancelStopsDelivery(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testSessionBody))
	})

	events, cancel := client.Subscribe()
	cancel()

	// The channel closes on cancel; a sign-in after that delivers nothing.
	_, err := client.SignInWithPassword(context.Background(), "ana@example.com", "secret")
	require.NoError(t, err)

	_, open := <-events
	assert.False(t, open)
}
