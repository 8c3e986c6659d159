// Package solanarpc is the payment.Ledger implementation backed by Solana
// JSON-RPC endpoints.
package solanarpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/smithos/smithos-backend/internal/payment"
)

const DefaultTimeout = 5 * time.Second

type Config struct {
	Endpoints   []Endpoint
	MaxFailures int
	// RPS caps calls per second across all endpoints; zero is unlimited.
	RPS     float64
	Timeout time.Duration
}

// Client fails over between endpoints and paces all calls through one limiter.
type Client struct {
	pool    *Pool
	rpcs    map[string]*rpc.Client
	limiter *rate.Limiter
	timeout time.Duration
	log     *zap.Logger
}

var _ payment.Ledger = (*Client)(nil)

func New(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	pool := NewPool(cfg.Endpoints, cfg.MaxFailures)

	rpcs := make(map[string]*rpc.Client, pool.Len())
	for _, ep := range pool.endpoints {
		rpcs[ep.URL] = rpc.New(ep.URL)
	}

	limit := rate.Inf
	burst := 1
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
		burst = int(cfg.RPS)
		if burst < 1 {
			burst = 1
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		pool:    pool,
		rpcs:    rpcs,
		limiter: rate.NewLimiter(limit, burst),
		timeout: timeout,
		log:     log.Named("solanarpc"),
	}
}

// Endpoint returns the URL currently in use.
func (c *Client) Endpoint() string { return c.pool.Current() }

func (c *Client) GetSignatureStatus(ctx context.Context, signature string) (payment.SignatureStatus, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return payment.SignatureStatus{}, fmt.Errorf("parse signature: %w", err)
	}

	var out payment.SignatureStatus
	err = c.do(ctx, "getSignatureStatuses", func(ctx context.Context, cl *rpc.Client) error {
		res, err := cl.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			return err
		}
		out = payment.SignatureStatus{}
		if res != nil && len(res.Value) > 0 {
			out = convertStatus(res.Value[0])
		}
		return nil
	})
	return out, err
}

func (c *Client) GetTransaction(ctx context.Context, signature string) (*payment.Transaction, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("parse signature: %w", err)
	}

	maxVersion := uint64(0)
	opts := &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	}

	var out *payment.Transaction
	err = c.do(ctx, "getTransaction", func(ctx context.Context, cl *rpc.Client) error {
		res, err := cl.GetTransaction(ctx, sig, opts)
		if err != nil {
			return err
		}
		if res == nil || res.Transaction == nil {
			out = nil
			return nil
		}
		tx, err := res.Transaction.GetTransaction()
		if err != nil {
			return fmt.Errorf("decode transaction: %w", err)
		}
		out = convertTransaction(signature, tx, res.Meta, res.BlockTime)
		return nil
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, nil
	}
	return out, err
}

// Ping checks the current endpoint's health.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "getHealth", func(ctx context.Context, cl *rpc.Client) error {
		_, err := cl.GetHealth(ctx)
		return err
	})
}

// do runs fn against the current endpoint, retrying on the next one as the
// pool rotates. Not-found answers count as success.
func (c *Client) do(ctx context.Context, method string, fn func(context.Context, *rpc.Client) error) error {
	var lastErr error
	for attempt := 0; attempt < c.pool.Len(); attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		url := c.pool.Current()
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := fn(callCtx, c.rpcs[url])
		cancel()

		if err == nil || errors.Is(err, rpc.ErrNotFound) {
			c.pool.ReportSuccess(url)
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = err
		rotated := c.pool.ReportFailure(url)
		c.log.Warn("rpc call failed",
			zap.String("method", method),
			zap.String("endpoint", url),
			zap.Bool("rotated", rotated),
			zap.Error(err))
	}
	return fmt.Errorf("%s: %w", method, lastErr)
}
