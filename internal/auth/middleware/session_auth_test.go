package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/smithos/smithos-backend/internal/auth"
	"github.com/smithos/smithos-backend/internal/auth/domain"
)

type stubResolver struct {
	session *domain.Session
	err     error
	got     string
}

func (s *stubResolver) Resolve(_ context.Context, token string) (*domain.Session, error) {
	s.got = token
	return s.session, s.err
}

func newRouter(r SessionResolver, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := append([]gin.HandlerFunc{RequireSession(r, nil)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user":    auth.UserID(c),
			"wallet":  auth.Wallet(c),
			"session": auth.SessionID(c),
			"admin":   auth.IsAdmin(c),
		})
	})
	router.GET("/protected", handlers...)
	return router
}

func TestRequireSession(t *testing.T) {
	valid := &domain.Session{ID: "s1", UserID: "u1", WalletAddress: "w1"}

	tests := []struct {
		name       string
		header     string
		resolver   *stubResolver
		wantStatus int
		wantBody   string
	}{
		{"missing header", "", &stubResolver{}, http.StatusUnauthorized, `{"error":"Authentication required"}`},
		{"not bearer", "Basic abc", &stubResolver{}, http.StatusUnauthorized, `{"error":"Authentication required"}`},
		{"expired", "Bearer tok", &stubResolver{err: domain.ErrTokenExpired}, http.StatusUnauthorized, `{"error":"Token expired"}`},
		{"invalid", "Bearer tok", &stubResolver{err: domain.ErrInvalidToken}, http.StatusForbidden, `{"error":"Invalid token"}`},
		{"no session", "Bearer tok", &stubResolver{err: domain.ErrSessionNotFound}, http.StatusUnauthorized, `{"error":"Session expired"}`},
		{"store failure", "Bearer tok", &stubResolver{err: errors.New("redis down")}, http.StatusForbidden, `{"error":"Invalid token"}`},
		{"ok", "Bearer tok", &stubResolver{session: valid}, http.StatusOK, `{"user":"u1","wallet":"w1","session":"s1","admin":false}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			newRouter(tt.resolver).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestRequireSession_PassesToken(t *testing.T) {
	r := &stubResolver{session: &domain.Session{ID: "s1"}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	newRouter(r).ServeHTTP(w, req)

	assert.Equal(t, "abc.def.ghi", r.got)
}

func TestRequireAdmin(t *testing.T) {
	for _, admin := range []bool{false, true} {
		r := &stubResolver{session: &domain.Session{ID: "s1", UserID: "u1", IsAdmin: admin}}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer tok")
		newRouter(r, RequireAdmin()).ServeHTTP(w, req)

		if admin {
			assert.Equal(t, http.StatusOK, w.Code)
		} else {
			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.JSONEq(t, `{"error":"Admin access required"}`, w.Body.String())
		}
	}
}
