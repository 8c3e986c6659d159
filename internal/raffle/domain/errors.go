package domain

import "errors"

var (
	ErrRaffleNotFound     = errors.New("raffle not found")
	ErrRaffleNotActive    = errors.New("raffle is not active")
	ErrActiveRaffleExists = errors.New("an active raffle already exists")
	ErrNoTickets          = errors.New("no tickets purchased")
	ErrTicketTaken        = errors.New("ticket number already taken")
	ErrSignatureUsed      = errors.New("transaction signature already used")
	ErrInvalidPrice       = errors.New("invalid ticket price")
	ErrInvalidTicket      = errors.New("invalid ticket request")
	ErrVerificationFailed = errors.New("transaction verification failed")
)

// VerificationError carries the payment engine's reason for rejecting a
// ticket. It matches both ErrVerificationFailed and the underlying reason.
type VerificationError struct {
	Reason  error
	Details string
}

func (e *VerificationError) Error() string {
	return ErrVerificationFailed.Error() + ": " + e.Details
}

func (e *VerificationError) Unwrap() []error {
	if e.Reason == nil {
		return []error{ErrVerificationFailed}
	}
	return []error{ErrVerificationFailed, e.Reason}
}
