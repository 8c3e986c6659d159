package payment

import (
	"context"
	"errors"
)

var (
	ErrConfirmationTimeout = errors.New("transaction confirmation timeout")
	ErrTransactionFailed   = errors.New("transaction failed to confirm")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrMetadataMissing     = errors.New("transaction metadata not found")
	ErrNoInstructions      = errors.New("no instructions found in transaction")
	ErrNotASystemTransfer  = errors.New("not a system transfer")
	ErrSenderMismatch      = errors.New("invalid sender")
	ErrReceiverMismatch    = errors.New("invalid receiver")
	ErrAmountMismatch      = errors.New("invalid amount")
	ErrUnexpected          = errors.New("unexpected verification error")
)

// outcome maps a verification error to its metrics label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "verified"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrConfirmationTimeout):
		return "timeout"
	case errors.Is(err, ErrTransactionFailed):
		return "failed"
	case errors.Is(err, ErrTransactionNotFound):
		return "not_found"
	case errors.Is(err, ErrMetadataMissing):
		return "metadata_missing"
	case errors.Is(err, ErrNoInstructions):
		return "no_instructions"
	case errors.Is(err, ErrNotASystemTransfer):
		return "not_system_transfer"
	case errors.Is(err, ErrSenderMismatch):
		return "sender_mismatch"
	case errors.Is(err, ErrReceiverMismatch):
		return "receiver_mismatch"
	case errors.Is(err, ErrAmountMismatch):
		return "amount_mismatch"
	default:
		return "unexpected"
	}
}
