package payment

import (
	"context"
	"time"
)

// LamportsPerSOL converts native balances to SOL.
const LamportsPerSOL = 1_000_000_000

// SystemProgramID is the native transfer program.
const SystemProgramID = "11111111111111111111111111111111"

// Commitment is a ledger confirmation level.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// Settled reports whether c is confirmed or finalized.
func (c Commitment) Settled() bool {
	return c == CommitmentConfirmed || c == CommitmentFinalized
}

// SignatureStatus is a point-in-time view of a submitted signature.
// Found is false while the ledger has not seen the signature yet.
type SignatureStatus struct {
	Found        bool
	Confirmation Commitment
	Err          string
}

type Instruction struct {
	ProgramID string
	Accounts  []int
}

type Message struct {
	AccountKeys  []string
	Instructions []Instruction
}

// Meta carries balances indexed like Message.AccountKeys.
type Meta struct {
	PreBalances  []uint64
	PostBalances []uint64
	Err          string
}

// Transaction is a confirmed transaction as returned by the ledger.
type Transaction struct {
	Signature string
	BlockTime *time.Time
	Message   Message
	Meta      *Meta
}

// Ledger is the read side of the chain the verifier depends on.
type Ledger interface {
	GetSignatureStatus(ctx context.Context, signature string) (SignatureStatus, error)
	// GetTransaction returns nil, nil when the transaction is unknown.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)
}
