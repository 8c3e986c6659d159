package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smithos/smithos-backend/config"
	"github.com/smithos/smithos-backend/internal/auth/domain"
	authrepo "github.com/smithos/smithos-backend/internal/auth/repository"
	"github.com/smithos/smithos-backend/internal/auth/security"
	"github.com/smithos/smithos-backend/internal/metrics"
	"github.com/smithos/smithos-backend/internal/payment"
)

const testSecret = "router-test-secret"

type idleLedger struct{}

func (idleLedger) GetSignatureStatus(context.Context, string) (payment.SignatureStatus, error) {
	return payment.SignatureStatus{}, nil
}

func (idleLedger) GetTransaction(context.Context, string) (*payment.Transaction, error) {
	return nil, nil
}

func (idleLedger) Ping(context.Context) error { return nil }

type env struct {
	router *gin.Engine
	redis  *redis.Client
}

func newEnv(t *testing.T, tweaks ...func(*config.Config)) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Server:  config.ServerConfig{CORSOrigins: []string{"http://localhost:5173"}, RateLimitRequests: 1000, RateLimitWindow: time.Minute},
		Payment: config.PaymentConfig{ConfirmTimeout: time.Second, PollInterval: time.Millisecond},
		Raffle:  config.RaffleConfig{WalletAddress: "raffle-wallet", TicketPrice: 0.1},
		Auth:    config.AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour, ChallengeTTL: time.Minute},
		App:     config.AppConfig{ServiceName: "smithos-api", Version: "test"},
	}
	for _, tweak := range tweaks {
		tweak(cfg)
	}

	r, err := BuildRouter(RouterDeps{
		Config:  cfg,
		Metrics: metrics.New(),
		SQL:     db,
		Redis:   client,
		Ledger:  idleLedger{},
	})
	require.NoError(t, err)
	return &env{router: r, redis: client}
}

// login stores a session directly and returns a bearer token for it.
func (e *env) login(t *testing.T, isAdmin bool) string {
	t.Helper()
	now := time.Now().UTC()
	s := &domain.Session{
		ID:            "sess-1",
		UserID:        "user-1",
		WalletAddress: "wallet-1",
		IsAdmin:       isAdmin,
		ExpiresAt:     now.Add(time.Hour),
		LastActivity:  now,
		CreatedAt:     now,
	}
	require.NoError(t, authrepo.NewSessionRepository(e.redis).Create(context.Background(), s, time.Hour))

	issuer, err := security.NewTokenIssuer(testSecret, 0)
	require.NoError(t, err)
	token, err := issuer.Issue(domain.Claims{
		UserID:    s.UserID,
		SessionID: s.ID,
		IssuedAt:  now,
		ExpiresAt: s.ExpiresAt,
	})
	require.NoError(t, err)
	return token
}

func (e *env) do(method, path, token string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestBuildRouter_RequiresSecret(t *testing.T) {
	_, err := BuildRouter(RouterDeps{Config: &config.Config{}, Metrics: metrics.New()})
	assert.Error(t, err)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "disabled", health["db"])
	assert.Equal(t, "up", health["redis"])
	assert.Equal(t, "up", health["ledger"])

	w = e.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "smithos_http_requests_total")
}

func TestRouter_ProtectedRoutes(t *testing.T) {
	e := newEnv(t)

	for _, path := range []string{"/api/auth/me", "/api/v1/desktop/apps", "/api/v1/admin/sessions/active"} {
		w := e.do(http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := e.do(http.MethodPost, "/api/v1/raffle/reset", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_DesktopFlow(t *testing.T) {
	e := newEnv(t)
	token := e.login(t, false)

	w := e.do(http.MethodPost, "/api/v1/desktop/apps/chat/toggle", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"app_id":"chat"`)

	w = e.do(http.MethodPost, "/api/v1/desktop/apps/admin/toggle", token, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodGet, "/api/v1/admin/sessions/active", token, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_AdminSessions(t *testing.T) {
	e := newEnv(t)
	token := e.login(t, true)

	w := e.do(http.MethodGet, "/api/v1/admin/sessions/active", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestRouter_Logout(t *testing.T) {
	e := newEnv(t)
	token := e.login(t, false)

	w := e.do(http.MethodPost, "/api/auth/logout", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/api/v1/desktop/windows", token, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Session expired"}`, w.Body.String())
}

func TestRouter_CORS(t *testing.T) {
	e := newEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/challenge", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_FullDragUnderDefaultLimits(t *testing.T) {
	e := newEnv(t, func(cfg *config.Config) {
		cfg.Server.RateLimitRequests = 100
		cfg.Server.RateLimitWindow = 15 * time.Minute
		cfg.Server.PointerRateLimit = 240
	})
	token := e.login(t, false)

	w := e.do(http.MethodPost, "/api/v1/desktop/windows", token, `{"app_id":"chat","position":{"x":100,"y":100}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var opened struct {
		Windows []struct {
			ID       string             `json:"id"`
			Position map[string]float64 `json:"position"`
		} `json:"windows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opened))
	require.Len(t, opened.Windows, 1)
	path := "/api/v1/desktop/windows/" + opened.Windows[0].ID + "/pointer"

	w = e.do(http.MethodPost, path, token, `{"phase":"down","target":"title-bar","x":110,"y":105}`)
	require.Equal(t, http.StatusOK, w.Code)
	for i := 1; i <= 120; i++ {
		w = e.do(http.MethodPost, path, token, fmt.Sprintf(`{"phase":"move","x":%d,"y":%d}`, 110+i, 105+i))
		require.Equal(t, http.StatusOK, w.Code, "move %d", i)
	}
	w = e.do(http.MethodPost, path, token, `{"phase":"up"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mode":"idle"`)

	// the drag did not consume the general budget
	w = e.do(http.MethodGet, "/api/v1/desktop/windows", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"x":220,"y":220`)
}
