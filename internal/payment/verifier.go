// Package payment verifies that a submitted ledger signature is a confirmed
// native transfer of an expected amount between expected parties.
package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/smithos/smithos-backend/internal/clock"
)

const (
	DefaultConfirmTimeout = 30 * time.Second
	DefaultPollInterval   = 2 * time.Second
	DefaultCallTimeout    = 10 * time.Second

	// AmountTolerance absorbs float rounding when comparing SOL amounts.
	AmountTolerance = 0.000001
)

// Claim is what a caller asserts about a payment.
type Claim struct {
	Signature        string
	ExpectedAmount   float64
	ExpectedSender   string
	ExpectedReceiver string
}

// Result is the outcome of VerifyTransaction. On failure only Verified,
// Error and Err are set.
type Result struct {
	Verified bool `json:"verified"`

	Timestamp           time.Time `json:"timestamp,omitzero"`
	TimestampFromLedger bool      `json:"timestamp_from_ledger,omitempty"`
	Sender              string    `json:"sender,omitempty"`
	Receiver            string    `json:"receiver,omitempty"`
	Amount              float64   `json:"amount,omitempty"`
	Signature           string    `json:"signature,omitempty"`

	Error string `json:"error,omitempty"`
	Err   error  `json:"-"`
}

// Verifier is safe for concurrent use.
type Verifier struct {
	ledger Ledger
	clock  clock.Clock
	log    *zap.Logger

	pollInterval   time.Duration
	confirmTimeout time.Duration
	callTimeout    time.Duration
	jitter         time.Duration

	outcomes *prometheus.CounterVec
	inflight singleflight.Group
}

type Option func(*Verifier)

func WithClock(c clock.Clock) Option { return func(v *Verifier) { v.clock = c } }

func WithLogger(l *zap.Logger) Option { return func(v *Verifier) { v.log = l } }

func WithPollInterval(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.pollInterval = d
		}
	}
}

func WithConfirmTimeout(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.confirmTimeout = d
		}
	}
}

func WithCallTimeout(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.callTimeout = d
		}
	}
}

// WithJitter adds up to d of random delay to each poll.
func WithJitter(d time.Duration) Option { return func(v *Verifier) { v.jitter = d } }

// WithOutcomeCounter counts every verification by outcome label.
func WithOutcomeCounter(c *prometheus.CounterVec) Option {
	return func(v *Verifier) { v.outcomes = c }
}

func NewVerifier(ledger Ledger, opts ...Option) *Verifier {
	v := &Verifier{
		ledger:         ledger,
		clock:          clock.Real(),
		log:            zap.NewNop(),
		pollInterval:   DefaultPollInterval,
		confirmTimeout: DefaultConfirmTimeout,
		callTimeout:    DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.log = v.log.Named("payment")
	return v
}

// VerifyTransaction waits for the signature to confirm, then checks the
// transaction against the claim. It never returns an error; failures are
// reported through Result.Error and Result.Err.
//
// Concurrent calls with an identical claim share one ledger round-trip. The
// shared work is detached from every caller's cancellation and bounded by
// sharedBudget; a caller whose ctx ends first gets a failed Result while the
// others keep waiting.
func (v *Verifier) VerifyTransaction(ctx context.Context, claim Claim) Result {
	key := claim.Signature + "|" +
		strconv.FormatFloat(claim.ExpectedAmount, 'f', -1, 64) + "|" +
		claim.ExpectedSender + "|" + claim.ExpectedReceiver

	ch := v.inflight.DoChan(key, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), v.sharedBudget())
		defer cancel()
		return v.verify(shared, claim), nil
	})

	var res Result
	select {
	case r := <-ch:
		res = r.Val.(Result)
	case <-ctx.Done():
		res = failed(ctx.Err())
	}

	if v.outcomes != nil {
		v.outcomes.WithLabelValues(outcome(res.Err)).Inc()
	}
	return res
}

// sharedBudget covers the confirmation wait plus one status call overrunning
// it and the final transaction fetch.
func (v *Verifier) sharedBudget() time.Duration {
	return v.confirmTimeout + 2*v.callTimeout
}

func (v *Verifier) verify(ctx context.Context, claim Claim) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = failed(fmt.Errorf("%w: %v", ErrUnexpected, p))
		}
		if !res.Verified {
			v.log.Warn("transaction verification failed",
				zap.String("signature", claim.Signature),
				zap.String("error", res.Error))
		}
	}()

	if _, err := v.WaitForConfirmation(ctx, claim.Signature, v.confirmTimeout); err != nil {
		return failed(err)
	}

	tx, err := v.fetch(ctx, claim.Signature)
	if err != nil {
		return failed(err)
	}

	if err := checkStructure(tx); err != nil {
		return failed(err)
	}

	sender, receiver, err := ExtractFirstTransferParties(tx)
	if err != nil {
		return failed(err)
	}
	if sender != claim.ExpectedSender {
		return failed(ErrSenderMismatch)
	}
	if receiver != claim.ExpectedReceiver {
		return failed(ErrReceiverMismatch)
	}

	amount, err := senderDelta(tx.Meta)
	if err != nil {
		return failed(err)
	}
	if math.Abs(amount-claim.ExpectedAmount) > AmountTolerance {
		return failed(fmt.Errorf("%w: expected %s SOL, got %s SOL", ErrAmountMismatch,
			formatSOL(claim.ExpectedAmount), formatSOL(amount)))
	}

	res = Result{
		Verified:  true,
		Sender:    sender,
		Receiver:  receiver,
		Amount:    amount,
		Signature: claim.Signature,
	}
	if tx.BlockTime != nil {
		res.Timestamp = tx.BlockTime.UTC()
		res.TimestampFromLedger = true
	} else {
		res.Timestamp = v.clock.Now().UTC()
	}

	v.log.Info("transaction verified",
		zap.String("signature", claim.Signature),
		zap.String("sender", sender),
		zap.Float64("amount", amount))
	return res
}

func (v *Verifier) fetch(ctx context.Context, signature string) (*Transaction, error) {
	callCtx, cancel := context.WithTimeout(ctx, v.callTimeout)
	defer cancel()

	tx, err := v.ledger.GetTransaction(callCtx, signature)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: get transaction: %v", ErrUnexpected, err)
	}
	if tx == nil {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}

func checkStructure(tx *Transaction) error {
	if tx.Meta == nil {
		return ErrMetadataMissing
	}
	if len(tx.Message.Instructions) == 0 {
		return ErrNoInstructions
	}
	if tx.Message.Instructions[0].ProgramID != SystemProgramID {
		return ErrNotASystemTransfer
	}
	return nil
}

func failed(err error) Result {
	return Result{Verified: false, Error: err.Error(), Err: err}
}

func formatSOL(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
