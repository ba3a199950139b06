package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/myflix/apiserver/config"
	"github.com/myflix/apiserver/internal/services"
	"github.com/myflix/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("test-secret")

func newTestAuthHandler(t *testing.T, repo *fakeUserRepo) *AuthHandler {
	t.Helper()
	return NewAuthHandler(
		services.NewUserService(repo),
		config.AuthConfig{JWTSecret: string(testSecret), TokenTTL: 7 * 24 * time.Hour},
		zap.NewNop(),
	)
}

func seedUser(t *testing.T, repo *fakeUserRepo, username, password string) types.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user, err := repo.Create(context.Background(), types.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hashed),
	})
	require.NoError(t, err)
	return user
}

func TestIssueAndParseToken(t *testing.T) {
	token, err := issueToken(42, testSecret, 6*24*time.Hour)
	require.NoError(t, err)

	subject, err := parseTokenSubject(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "42", subject)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	// A token whose 7-day window has already elapsed.
	token, err := issueToken(42, testSecret, -24*time.Hour)
	require.NoError(t, err)

	_, err = parseTokenSubject(token, testSecret)
	assert.Error(t, err)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := issueToken(42, []byte("other-secret"), time.Hour)
	require.NoError(t, err)

	_, err = parseTokenSubject(token, testSecret)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := parseTokenSubject("not.a.token", testSecret)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"valid", "Bearer abc123", "abc123", true},
		{"case insensitive scheme", "bearer abc123", "abc123", true},
		{"missing header", "", "", false},
		{"wrong scheme", "Basic abc123", "", false},
		{"empty token", "Bearer ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			token, err := bearerToken(r)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, token)
		})
	}
}

func doLogin(handler *AuthHandler, username, password string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(LoginRequest{Username: username, Password: password})
	r := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.Login(w, r)
	return w
}

func TestLoginSuccess(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "alice1", "secret1")
	handler := newTestAuthHandler(t, repo)

	w := doLogin(handler, "alice1", "secret1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice1", resp.User.Username)
	assert.NotContains(t, w.Body.String(), "secret1")
	assert.NotContains(t, w.Body.String(), "password")
}

func TestLoginFailureIsNotEnumerable(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "alice1", "secret1")
	handler := newTestAuthHandler(t, repo)

	wrongPassword := doLogin(handler, "alice1", "wrong")
	unknownUser := doLogin(handler, "nobody99", "secret1")

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
}

func TestRequireAuthAttachesUser(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(t, repo, "alice1", "secret1")
	handler := newTestAuthHandler(t, repo)

	token, err := issueToken(user.ID, testSecret, time.Hour)
	require.NoError(t, err)

	var seen types.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = userFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodGet, "/movies", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.RequireAuth(next).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, user.ID, seen.ID)
	assert.Equal(t, "alice1", seen.Username)
}

func TestRequireAuthRejectsDeletedUser(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(t, repo, "alice1", "secret1")
	handler := newTestAuthHandler(t, repo)

	token, err := issueToken(user.ID, testSecret, time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(context.Background(), user.ID))

	r := httptest.NewRequest(http.MethodGet, "/movies", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run for a deleted user")
	})).ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthRejectsMissingOrBadToken(t *testing.T) {
	repo := newFakeUserRepo()
	handler := newTestAuthHandler(t, repo)

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run without a valid token")
	})

	for _, header := range []string{"", "Bearer garbage", "Basic abc"} {
		r := httptest.NewRequest(http.MethodGet, "/movies", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		handler.RequireAuth(next).ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
}
