package solanarpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smithos/smithos-backend/internal/payment"
)

var testSig = solana.Signature{1, 2, 3, 4}.String()

// rpcServer answers JSON-RPC calls with the result returned by handle.
// A nil handler makes every call fail with HTTP 500.
func rpcServer(t *testing.T, handle func(method string) interface{}) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		w.Header().Set("Content-Type", "application/json")
		if handle == nil {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"jsonrpc": "2.0",
				"id":      req.ID,
				"error":   map[string]interface{}{"code": -32000, "message": "unavailable"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  handle(req.Method),
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func statusResult(status string) func(string) interface{} {
	return func(string) interface{} {
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value": []interface{}{
				map[string]interface{}{"slot": 1, "confirmations": nil, "err": nil, "confirmationStatus": status},
			},
		}
	}
}

func TestClient_GetSignatureStatus(t *testing.T) {
	srv, _ := rpcServer(t, statusResult("finalized"))
	c := New(Config{Endpoints: []Endpoint{{URL: srv.URL, Weight: 1}}}, nil)

	got, err := c.GetSignatureStatus(context.Background(), testSig)

	require.NoError(t, err)
	assert.Equal(t, payment.SignatureStatus{Found: true, Confirmation: payment.CommitmentFinalized}, got)
}

func TestClient_UnknownSignature(t *testing.T) {
	srv, _ := rpcServer(t, func(string) interface{} {
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value":   []interface{}{nil},
		}
	})
	c := New(Config{Endpoints: []Endpoint{{URL: srv.URL, Weight: 1}}}, nil)

	got, err := c.GetSignatureStatus(context.Background(), testSig)

	require.NoError(t, err)
	assert.False(t, got.Found)
}

func TestClient_GetTransactionNotFound(t *testing.T) {
	srv, _ := rpcServer(t, func(string) interface{} { return nil })
	c := New(Config{Endpoints: []Endpoint{{URL: srv.URL, Weight: 1}}}, nil)

	tx, err := c.GetTransaction(context.Background(), testSig)

	require.NoError(t, err)
	assert.Nil(t, tx)
}

func TestClient_FailsOverToNextEndpoint(t *testing.T) {
	bad, badCalls := rpcServer(t, nil)
	good, goodCalls := rpcServer(t, statusResult("confirmed"))

	c := New(Config{
		Endpoints:   []Endpoint{{URL: bad.URL, Weight: 2}, {URL: good.URL, Weight: 1}},
		MaxFailures: 1,
		Timeout:     time.Second,
	}, nil)

	got, err := c.GetSignatureStatus(context.Background(), testSig)

	require.NoError(t, err)
	assert.True(t, got.Confirmation.Settled())
	assert.Equal(t, good.URL, c.Endpoint())
	assert.Equal(t, int32(1), atomic.LoadInt32(badCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(goodCalls))
}

func TestClient_AllEndpointsDown(t *testing.T) {
	bad, _ := rpcServer(t, nil)
	c := New(Config{Endpoints: []Endpoint{{URL: bad.URL, Weight: 1}}}, nil)

	_, err := c.GetSignatureStatus(context.Background(), testSig)

	assert.Error(t, err)
}

func TestClient_InvalidSignature(t *testing.T) {
	c := New(Config{Endpoints: []Endpoint{{URL: "http://127.0.0.1:0", Weight: 1}}}, nil)

	_, err := c.GetSignatureStatus(context.Background(), "not-base58-!!")
	assert.Error(t, err)

	_, err = c.GetTransaction(context.Background(), "not-base58-!!")
	assert.Error(t, err)
}

func TestClient_Ping(t *testing.T) {
	srv, _ := rpcServer(t, func(method string) interface{} {
		assert.Equal(t, "getHealth", method)
		return "ok"
	})
	c := New(Config{Endpoints: []Endpoint{{URL: srv.URL, Weight: 1}}}, nil)

	assert.NoError(t, c.Ping(context.Background()))
}
