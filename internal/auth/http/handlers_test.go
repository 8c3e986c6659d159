package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smithos/smithos-backend/internal/auth"
	"github.com/smithos/smithos-backend/internal/auth/domain"
)

type stubAuth struct {
	err        error
	user       *domain.User
	sessions   []domain.Session
	lastReq    domain.AuthenticateRequest
	loggedOut  string
	lastUserID string
	lastPrefs  map[string]interface{}
}

func (s *stubAuth) Challenge(_ context.Context, wallet string) (*domain.Challenge, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Challenge{WalletAddress: wallet, Nonce: "n1", Message: "sign n1"}, nil
}

func (s *stubAuth) Authenticate(_ context.Context, req domain.AuthenticateRequest) (*domain.AuthResult, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &domain.AuthResult{Token: "tok", User: s.user}, nil
}

func (s *stubAuth) Logout(_ context.Context, sessionID string) error {
	s.loggedOut = sessionID
	return s.err
}

func (s *stubAuth) Me(_ context.Context, userID string) (*domain.User, error) {
	s.lastUserID = userID
	return s.user, s.err
}

func (s *stubAuth) UpdatePreferences(_ context.Context, userID string, prefs map[string]interface{}) (*domain.User, error) {
	s.lastUserID = userID
	s.lastPrefs = prefs
	return s.user, s.err
}

func (s *stubAuth) ActiveSessions(context.Context) ([]domain.Session, error) {
	return s.sessions, s.err
}

// fakeSession stands in for the session middleware.
func fakeSession(c *gin.Context) {
	c.Set(auth.CtxUserID, "u1")
	c.Set(auth.CtxSessionID, "s1")
	c.Next()
}

func setupRouter(svc AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(svc, nil)
	h.Register(r.Group("/api/auth"), fakeSession)
	h.RegisterAdmin(r.Group("/api/v1/admin"))
	return r
}

func do(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "handler-test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChallenge(t *testing.T) {
	r := setupRouter(&stubAuth{})

	w := do(r, http.MethodGet, "/api/auth/challenge?walletAddress=abc", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"nonce":"n1"`)

	w = do(r, http.MethodGet, "/api/auth/challenge", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Wallet address is required"}`, w.Body.String())

	w = do(setupRouter(&stubAuth{err: domain.ErrInvalidWallet}), http.MethodGet, "/api/auth/challenge?walletAddress=bad", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthenticate(t *testing.T) {
	svc := &stubAuth{user: &domain.User{ID: "u1", WalletAddress: "abc"}}
	w := do(setupRouter(svc), http.MethodPost, "/api/auth/authenticate", map[string]string{
		"walletAddress": "abc",
		"signature":     "sig",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "tok", body["token"])
	assert.Equal(t, "abc", body["user"].(map[string]interface{})["walletAddress"])
	assert.Equal(t, "handler-test", svc.lastReq.UserAgent)
	assert.NotEmpty(t, svc.lastReq.IPAddress)
}

func TestAuthenticate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]string
		err        error
		wantStatus int
		wantError  string
	}{
		{"missing wallet", map[string]string{"signature": "s"}, nil, http.StatusBadRequest, "Wallet address is required"},
		{"missing signature", map[string]string{"walletAddress": "a"}, nil, http.StatusBadRequest, "Signature is required"},
		{"invalid wallet", map[string]string{"walletAddress": "a", "signature": "s"}, domain.ErrInvalidWallet, http.StatusBadRequest, "Invalid wallet address"},
		{"no challenge", map[string]string{"walletAddress": "a", "signature": "s"}, domain.ErrChallengeNotFound, http.StatusUnauthorized, "Challenge expired or not requested"},
		{"bad signature", map[string]string{"walletAddress": "a", "signature": "s"}, domain.ErrInvalidSignature, http.StatusUnauthorized, "Invalid signature"},
		{"store failure", map[string]string{"walletAddress": "a", "signature": "s"}, errors.New("db down"), http.StatusInternalServerError, "Authentication failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(setupRouter(&stubAuth{err: tt.err}), http.MethodPost, "/api/auth/authenticate", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, `{"error":"`+tt.wantError+`"}`, w.Body.String())
		})
	}
}

func TestLogout(t *testing.T) {
	svc := &stubAuth{}
	w := do(setupRouter(svc), http.MethodPost, "/api/auth/logout", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Logged out successfully"}`, w.Body.String())
	assert.Equal(t, "s1", svc.loggedOut)
}

func TestMe(t *testing.T) {
	svc := &stubAuth{user: &domain.User{ID: "u1", WalletAddress: "abc", IsAdmin: true}}
	w := do(setupRouter(svc), http.MethodGet, "/api/auth/me", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isAdmin":true`)
	assert.Equal(t, "u1", svc.lastUserID)

	w = do(setupRouter(&stubAuth{err: domain.ErrUserNotFound}), http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, w.Body.String())
}

func TestUpdatePreferences(t *testing.T) {
	svc := &stubAuth{user: &domain.User{ID: "u1"}}
	w := do(setupRouter(svc), http.MethodPut, "/api/auth/preferences", map[string]interface{}{
		"preferences": map[string]interface{}{"theme": "light"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "light", svc.lastPrefs["theme"])

	w = do(setupRouter(svc), http.MethodPut, "/api/auth/preferences", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActiveSessions(t *testing.T) {
	svc := &stubAuth{sessions: []domain.Session{{ID: "s1"}, {ID: "s2"}}}
	w := do(setupRouter(svc), http.MethodGet, "/api/v1/admin/sessions/active", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Sessions []domain.Session `json:"sessions"`
		Count    int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Len(t, body.Sessions, 2)
}
