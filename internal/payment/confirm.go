package payment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// WaitForConfirmation polls the signature status until it is confirmed or
// finalized. A zero timeout uses the verifier's configured timeout.
//
// It returns false with ErrTransactionFailed when the ledger reports an
// on-chain error, false with ErrUnexpected when the status lookup itself
// fails, and false with ErrConfirmationTimeout when timeout elapses first.
func (v *Verifier) WaitForConfirmation(ctx context.Context, signature string, timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		timeout = v.confirmTimeout
	}
	start := v.clock.Now()

	for attempt := 1; v.clock.Now().Sub(start) < timeout; attempt++ {
		status, err := v.status(ctx, signature)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			return false, fmt.Errorf("%w: signature status: %v", ErrUnexpected, err)
		}
		if status.Found && status.Err != "" {
			return false, fmt.Errorf("%w: %s", ErrTransactionFailed, status.Err)
		}
		if status.Found && status.Confirmation.Settled() {
			v.log.Debug("signature confirmed",
				zap.String("signature", signature),
				zap.String("commitment", string(status.Confirmation)),
				zap.Int("attempts", attempt))
			return true, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-v.clock.After(v.nextDelay()):
		}
	}
	return false, ErrConfirmationTimeout
}

func (v *Verifier) status(ctx context.Context, signature string) (SignatureStatus, error) {
	callCtx, cancel := context.WithTimeout(ctx, v.callTimeout)
	defer cancel()
	return v.ledger.GetSignatureStatus(callCtx, signature)
}

func (v *Verifier) nextDelay() time.Duration {
	if v.jitter <= 0 {
		return v.pollInterval
	}
	return v.pollInterval + rand.N(v.jitter)
}
