package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smithos/smithos-backend/internal/payment"
	"github.com/smithos/smithos-backend/internal/raffle/domain"
)

type stubService struct {
	raffle  *domain.Raffle
	history []domain.Raffle
	err     error
	lastBuy domain.BuyTicketRequest
}

func (s *stubService) Status(context.Context) (*domain.Raffle, error) { return s.raffle, s.err }

func (s *stubService) BuyTicket(_ context.Context, req domain.BuyTicketRequest) (*domain.Raffle, error) {
	s.lastBuy = req
	return s.raffle, s.err
}

func (s *stubService) DrawWinner(context.Context) (*domain.Raffle, error) { return s.raffle, s.err }
func (s *stubService) Reset(context.Context) (*domain.Raffle, error)      { return s.raffle, s.err }
func (s *stubService) History(context.Context) ([]domain.Raffle, error)   { return s.history, s.err }

func setupRouter(svc RaffleService, admin ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New(svc, nil).Register(r.Group("/api/v1/raffle"), admin...)
	return r
}

func do(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

var validBuy = map[string]interface{}{
	"walletAddress": "buyer",
	"ticketNumber":  3,
	"price":         0.1,
	"signature":     "sig",
}

func TestStatus(t *testing.T) {
	svc := &stubService{raffle: &domain.Raffle{ID: "r1", IsActive: true, Tickets: []domain.Ticket{}}}
	w := do(setupRouter(svc), http.MethodGet, "/api/v1/raffle/status", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "r1", body["id"])
	assert.Equal(t, true, body["isActive"])
}

func TestBuyTicket(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		err        error
		wantStatus int
		wantError  string
		wantDetail string
	}{
		{name: "ok", body: validBuy, wantStatus: http.StatusOK},
		{name: "bad body", body: map[string]interface{}{"walletAddress": "x"}, wantStatus: http.StatusBadRequest, wantError: "invalid request body"},
		{
			name:       "verification failed",
			body:       validBuy,
			err:        &domain.VerificationError{Reason: payment.ErrAmountMismatch, Details: "invalid amount: expected 0.1 SOL, got 0.2 SOL"},
			wantStatus: http.StatusBadRequest,
			wantError:  "Transaction verification failed",
			wantDetail: "invalid amount: expected 0.1 SOL, got 0.2 SOL",
		},
		{
			name:       "not confirmed",
			body:       validBuy,
			err:        &domain.VerificationError{Reason: payment.ErrConfirmationTimeout, Details: "transaction confirmation timeout"},
			wantStatus: http.StatusBadRequest,
			wantError:  "Transaction failed to confirm",
		},
		{name: "ticket taken", body: validBuy, err: domain.ErrTicketTaken, wantStatus: http.StatusConflict},
		{name: "signature used", body: validBuy, err: domain.ErrSignatureUsed, wantStatus: http.StatusConflict},
		{name: "inactive", body: validBuy, err: domain.ErrRaffleNotActive, wantStatus: http.StatusBadRequest, wantError: "Raffle is not active"},
		{name: "wrong price", body: validBuy, err: fmt.Errorf("%w: expected 0.1 SOL", domain.ErrInvalidPrice), wantStatus: http.StatusBadRequest},
		{name: "store failure", body: validBuy, err: fmt.Errorf("db down"), wantStatus: http.StatusInternalServerError, wantError: "Failed to buy ticket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{raffle: &domain.Raffle{ID: "r1"}, err: tt.err}
			w := do(setupRouter(svc), http.MethodPost, "/api/v1/raffle/buy-ticket", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decode(t, w)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			}
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, body["details"])
			}
		})
	}
}

func TestBuyTicket_PassesRequestThrough(t *testing.T) {
	svc := &stubService{raffle: &domain.Raffle{ID: "r1"}}
	do(setupRouter(svc), http.MethodPost, "/api/v1/raffle/buy-ticket", validBuy)

	assert.Equal(t, domain.BuyTicketRequest{WalletAddress: "buyer", TicketNumber: 3, Price: 0.1, Signature: "sig"}, svc.lastBuy)
}

func TestDrawWinner(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{name: "ok", wantStatus: http.StatusOK},
		{name: "inactive", err: domain.ErrRaffleNotActive, wantStatus: http.StatusBadRequest, wantError: "Raffle is not active"},
		{name: "no tickets", err: domain.ErrNoTickets, wantStatus: http.StatusBadRequest, wantError: "No tickets purchased"},
		{name: "failure", err: fmt.Errorf("boom"), wantStatus: http.StatusInternalServerError, wantError: "Failed to draw winner"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := 4
			svc := &stubService{raffle: &domain.Raffle{ID: "r1", WinningNumber: &n}, err: tt.err}
			w := do(setupRouter(svc), http.MethodPost, "/api/v1/raffle/draw-winner", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decode(t, w)["error"])
			}
		})
	}
}

func TestAdminRoutesAreGuarded(t *testing.T) {
	deny := func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
	}
	r := setupRouter(&stubService{raffle: &domain.Raffle{}}, deny)

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/api/v1/raffle/draw-winner", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/api/v1/raffle/reset", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/raffle/status", nil).Code)
}

func TestHistory(t *testing.T) {
	svc := &stubService{history: []domain.Raffle{{ID: "old"}}}
	w := do(setupRouter(svc), http.MethodGet, "/api/v1/raffle/history", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "old", out[0]["id"])
}
